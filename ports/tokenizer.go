package ports

import "github.com/layer-3/turnstile/core"

// Tokenizer converts between access grants and their self-verifying token form.
type Tokenizer interface {
	// GrantToToken serializes and signs a grant.
	GrantToToken(grant *core.Grant) (string, error)

	// TokenToGrant parses and verifies a token. It fails closed on malformed
	// input, a bad signature, or an expired grant.
	TokenToGrant(token string) (*core.Grant, error)
}
