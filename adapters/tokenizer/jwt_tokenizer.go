package tokenizer

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/ports"
)

// AudienceSession pins grant tokens to their purpose; a token minted for
// anything else does not validate here.
const AudienceSession = "turnstile:session"

// JWTTokenizer implements the Tokenizer interface with HS256 over a
// process-wide secret.
type JWTTokenizer struct {
	secret []byte
}

// NewJWTTokenizer creates a new JWT tokenizer.
func NewJWTTokenizer(secret []byte) ports.Tokenizer {
	return &JWTTokenizer{secret: secret}
}

// GrantToToken converts a Grant to a signed JWT.
func (j *JWTTokenizer) GrantToToken(grant *core.Grant) (string, error) {
	claims := GrantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   grant.Reference,
			ID:        grant.ID,
			ExpiresAt: jwt.NewNumericDate(grant.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(grant.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceSession},
		},
		Payer: grant.Payer,
		Tier:  grant.Tier,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// TokenToGrant parses and verifies a JWT, returning the embedded grant.
// It fails closed: malformed input, a bad signature, a wrong audience and an
// expired grant are all rejections.
func (j *JWTTokenizer) TokenToGrant(tokenStr string) (*core.Grant, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &GrantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithAudience(AudienceSession), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*GrantClaims)
	if !ok || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, core.ErrInvalidToken
	}

	return &core.Grant{
		ID:        claims.ID,
		Reference: claims.Subject,
		Payer:     claims.Payer,
		Tier:      claims.Tier,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
