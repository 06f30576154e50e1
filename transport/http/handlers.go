package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ResourceHandlers contains the handlers for the protected resources.
type ResourceHandlers struct{}

// NewResourceHandlers creates new resource handlers.
func NewResourceHandlers() *ResourceHandlers {
	return &ResourceHandlers{}
}

// Root serves the unprotected service banner.
func (h *ResourceHandlers) Root(c *gin.Context) {
	c.String(http.StatusOK, "Turnstile API Gateway. Try GET /api/insight")
}

// Insight serves the paid payload. On first redemption the response embeds
// the session token next to the payload, with guidance on how to reuse it.
func (h *ResourceHandlers) Insight(c *gin.Context) {
	body := gin.H{
		"success": true,
		"data": gin.H{
			"insight":     "The Ace says: The future of commerce is automated.",
			"secret_code": "QUOKKA_777",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	if grant, ok := GrantFromContext(c); ok {
		body["tier"] = grant.Tier
	}
	if token, ok := c.Get(ctxKeyMintedSession); ok {
		body["session"] = gin.H{
			"token":       token,
			"instruction": "Reuse this session with header 'Authorization: Bearer <token>' until it expires.",
		}
	}

	c.JSON(http.StatusOK, body)
}
