package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/service"
)

const (
	// HeaderPaymentTx carries the payment reference the caller submits as proof.
	HeaderPaymentTx = "x-payment-tx"

	// HeaderSession carries a freshly minted session token back to the caller.
	HeaderSession = "x-turnstile-session"

	ctxKeyGrant         = "turnstileGrant"
	ctxKeyMintedSession = "turnstileMintedSession"
)

// PaymentRequired gates every request behind the payment check. The gate
// decides; this middleware only translates the decision into a response.
func PaymentRequired(gate *service.GateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := bearerToken(c.GetHeader("Authorization"))
		ref := core.Reference(c.GetHeader(HeaderPaymentTx))

		decision, err := gate.Check(c.Request.Context(), bearer, ref)
		if err != nil {
			// Infrastructure failure, not a verdict on the payment. The same
			// transaction hash stays redeemable on retry.
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":  "Verification Unavailable",
				"reason": "Could not verify the payment right now. Retry with the same transaction hash.",
			})
			return
		}

		switch {
		case decision.Challenged:
			c.AbortWithStatusJSON(http.StatusPaymentRequired, challengeBody(gate.Requirement()))

		case !decision.Proceed:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  "Payment Invalid",
				"reason": decision.Reason.Message(),
			})

		default:
			if decision.MintedToken != "" {
				c.Header(HeaderSession, decision.MintedToken)
				c.Set(ctxKeyMintedSession, decision.MintedToken)
			}
			c.Set(ctxKeyGrant, decision.Grant)
			c.Next()
		}
	}
}

// challengeBody renders the 402 challenge. It has to be self-describing: a
// caller that has never seen this API can pay and retry from the body alone.
func challengeBody(req core.Requirement) gin.H {
	return gin.H{
		"error":   "Payment Required",
		"message": "This endpoint requires payment.",
		"payment_details": gin.H{
			"chain":         req.ChainName,
			"token":         req.TokenSymbol,
			"token_address": req.TokenAddress.Hex(),
			"receiver":      req.Receiver.Hex(),
			"amount":        req.DisplayAmount,
			"instruction": fmt.Sprintf(
				"Send %s %s to the receiver and retry the request with header '%s: <your_tx_hash>'",
				req.DisplayAmount, req.TokenSymbol, HeaderPaymentTx,
			),
		},
	}
}

func bearerToken(authHeader string) string {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// GrantFromContext returns the grant the middleware attached for this request.
func GrantFromContext(c *gin.Context) (*core.Grant, bool) {
	v, ok := c.Get(ctxKeyGrant)
	if !ok {
		return nil, false
	}
	grant, ok := v.(*core.Grant)
	return grant, ok
}
