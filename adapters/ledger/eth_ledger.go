package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/ports"
)

// transferTopic is keccak256("Transfer(address,address,uint256)"), the first
// topic of every ERC-20 Transfer event.
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// txReader is the slice of the Ethereum RPC client the ledger needs.
type txReader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// EthLedger resolves payment references against an Ethereum JSON-RPC node and
// decodes receipt logs into typed token transfers, so nothing downstream ever
// touches raw topics or log data.
type EthLedger struct {
	client txReader
	signer types.Signer
}

var _ ports.Ledger = (*EthLedger)(nil)

// Dial connects to an RPC endpoint and returns a ledger for the given chain.
func Dial(rpcURL string, chainID int64) (*EthLedger, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return New(client, chainID), nil
}

// New builds a ledger on top of an existing client.
func New(client txReader, chainID int64) *EthLedger {
	return &EthLedger{
		client: client,
		signer: types.LatestSignerForChainID(big.NewInt(chainID)),
	}
}

// TransactionResult resolves the referenced transaction and its receipt.
// Unknown references map to core.ErrTxNotFound; transport failures wrap
// core.ErrLedgerUnavailable so the caller can treat them as retryable.
func (l *EthLedger) TransactionResult(ctx context.Context, ref core.Reference) (*core.TransactionResult, error) {
	hash := ref.Hash()

	tx, pending, err := l.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, core.ErrTxNotFound
		}
		return nil, fmt.Errorf("transaction lookup: %w: %w", core.ErrLedgerUnavailable, err)
	}
	if pending {
		return &core.TransactionResult{}, nil
	}

	// Sender recovery fails only for transactions signed for another chain;
	// leave it zero in that case and let the transfer scan decide.
	sender, _ := types.Sender(l.signer, tx)

	receipt, err := l.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return &core.TransactionResult{Sender: sender}, nil
		}
		return nil, fmt.Errorf("receipt lookup: %w: %w", core.ErrLedgerUnavailable, err)
	}

	result := &core.TransactionResult{
		Sender:    sender,
		Finalized: true,
		Succeeded: receipt.Status == types.ReceiptStatusSuccessful,
	}
	for _, entry := range receipt.Logs {
		if transfer, ok := decodeTransfer(entry); ok {
			result.Transfers = append(result.Transfers, transfer)
		}
	}
	return result, nil
}

// decodeTransfer extracts an ERC-20 Transfer from a log entry. Non-transfer
// logs and transfers of non-standard shape are skipped, not errors.
func decodeTransfer(entry *types.Log) (core.TokenTransfer, bool) {
	if len(entry.Topics) != 3 || entry.Topics[0] != transferTopic || len(entry.Data) != 32 {
		return core.TokenTransfer{}, false
	}
	return core.TokenTransfer{
		Token:  entry.Address,
		From:   common.BytesToAddress(entry.Topics[1].Bytes()),
		To:     common.BytesToAddress(entry.Topics[2].Bytes()),
		Amount: new(big.Int).SetBytes(entry.Data),
	}, true
}
