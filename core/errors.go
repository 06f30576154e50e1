package core

import "errors"

var (
	ErrTxNotFound        = errors.New("transaction not found")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrReplayUnavailable = errors.New("replay store unavailable")
	ErrAlreadyRedeemed   = errors.New("reference already redeemed")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token has expired")
)
