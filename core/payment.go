package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Reference is an opaque pointer to a settled payment, presented by the
// caller as proof. On EVM chains it is the transaction hash.
type Reference string

// Hash converts the reference to an Ethereum transaction hash.
func (r Reference) Hash() common.Hash {
	return common.HexToHash(string(r))
}

// Requirement describes the payment a protected resource demands.
// It is built once from configuration and is read-only afterwards.
type Requirement struct {
	ChainName     string         // Human-readable network label, e.g. "Base Sepolia"
	TokenAddress  common.Address // ERC-20 contract accepted as payment
	TokenSymbol   string         // e.g. "USDC"
	TokenDecimals int32
	Receiver      common.Address // Wallet that must receive the transfer
	MinAmount     *big.Int       // Minimum transfer amount in base units
	DisplayAmount string         // Price as a decimal string for the 402 challenge
}

// TokenTransfer is a decoded ERC-20 Transfer event.
type TokenTransfer struct {
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
}

// TransactionResult is the decoded on-chain effect of a referenced
// transaction, as resolved by the ledger adapter.
type TransactionResult struct {
	Sender    common.Address // Recovered transaction signer
	Finalized bool           // Mined, not pending
	Succeeded bool           // Receipt status is success
	Transfers []TokenTransfer
}

// RejectReason classifies a terminal verification failure.
type RejectReason string

const (
	ReasonNotFound        RejectReason = "not-found"
	ReasonNotFinalized    RejectReason = "not-finalized"
	ReasonNoTransfer      RejectReason = "no-qualifying-transfer"
	ReasonAmountTooLow    RejectReason = "amount-below-requirement"
	ReasonAlreadyRedeemed RejectReason = "already-redeemed"
)

// Message renders the reason as the human-readable text carried in 403 bodies.
func (r RejectReason) Message() string {
	switch r {
	case ReasonNotFound:
		return "Could not fetch transaction. Invalid hash?"
	case ReasonNotFinalized:
		return "Transaction failed or is not yet finalized on-chain."
	case ReasonNoTransfer:
		return "No qualifying token transfer to the receiver found in transaction."
	case ReasonAmountTooLow:
		return "Transfer amount is below the required price."
	case ReasonAlreadyRedeemed:
		return "Transaction already used. Please pay again."
	default:
		return string(r)
	}
}

// Outcome is the verdict of payment verification. Either Valid is true and
// Amount/Payer describe the matched transfer, or Reason explains the rejection.
type Outcome struct {
	Valid  bool
	Reason RejectReason
	Amount *big.Int
	Payer  common.Address
}

// Rejected builds an invalid outcome for the given reason.
func Rejected(reason RejectReason) Outcome {
	return Outcome{Reason: reason}
}
