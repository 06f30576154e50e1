package core

import "time"

// Grant is a time-bounded access grant minted after a successful redemption.
// It is bearer-style: the server keeps no per-grant record, the embedded
// expiry is the only thing that ends it.
type Grant struct {
	ID        string    // Unique grant identifier (JWT ID)
	Reference string    // Payment reference that was redeemed for this grant
	Payer     string    // Wallet address the payment came from
	Tier      string    // Access tier label
	IssuedAt  time.Time // When the grant was minted
	ExpiresAt time.Time // When the grant stops validating
}

// Expired reports whether the grant is past its expiry at the given instant.
func (g *Grant) Expired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}
