package tokenizer

import "github.com/golang-jwt/jwt/v5"

// GrantClaims combines standard claims with grant-specific ones. The subject
// is the redeemed payment reference, the ID is the grant ID.
type GrantClaims struct {
	jwt.RegisteredClaims
	Payer string `json:"payer"`
	Tier  string `json:"tier"`
}
