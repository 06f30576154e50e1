package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/layer-3/turnstile/core"
)

// insecureDevSecret signs sessions when SESSION_SECRET is unset. It is
// deterministic on purpose so local development works out of the box, and it
// must never reach production.
const insecureDevSecret = "turnstile-dev-secret-do-not-use-in-production"

var (
	ErrMissingReceiver = errors.New("RECEIVER_WALLET is required")
	ErrMissingPrice    = errors.New("PRICE is required")
)

// Config is the validated process configuration. Load is the only
// constructor; a Config that exists is a Config that passed validation.
type Config struct {
	ListenAddr string

	RPCURL    string
	ChainID   int64
	ChainName string

	TokenAddress  common.Address
	TokenSymbol   string
	TokenDecimals int32
	Receiver      common.Address
	Price         decimal.Decimal
	MinAmount     *big.Int // Price shifted into token base units

	SessionTTL     time.Duration
	SessionTier    string
	SessionSecret  []byte
	InsecureSecret bool // True when the dev default secret is in use

	LedgerTimeout time.Duration

	RedisURL     string // Optional; empty selects the in-memory replay store
	SnapshotPath string // Durable snapshot file for the in-memory store
}

// Load reads and validates configuration from the environment. A missing or
// invalid required value fails startup; nothing is defaulted silently except
// values that are safe to default.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   envOr("LISTEN_ADDR", ":3001"),
		RPCURL:       envOr("ETH_RPC_URL", "https://sepolia.base.org"),
		ChainName:    envOr("CHAIN_NAME", "Base Sepolia"),
		TokenSymbol:  envOr("TOKEN_SYMBOL", "USDC"),
		SessionTier:  envOr("SESSION_TIER", "premium"),
		RedisURL:     os.Getenv("REDIS_URL"),
		SnapshotPath: envOr("REPLAY_SNAPSHOT", "used-txs.log"),
	}

	receiver := os.Getenv("RECEIVER_WALLET")
	if receiver == "" {
		return nil, ErrMissingReceiver
	}
	if !common.IsHexAddress(receiver) {
		return nil, fmt.Errorf("RECEIVER_WALLET %q is not a valid address", receiver)
	}
	cfg.Receiver = common.HexToAddress(receiver)

	token := envOr("TOKEN_ADDRESS", "0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("TOKEN_ADDRESS %q is not a valid address", token)
	}
	cfg.TokenAddress = common.HexToAddress(token)

	chainID, err := strconv.ParseInt(envOr("CHAIN_ID", "84532"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAIN_ID: %w", err)
	}
	cfg.ChainID = chainID

	decimals, err := strconv.ParseInt(envOr("TOKEN_DECIMALS", "6"), 10, 32)
	if err != nil || decimals < 0 || decimals > 36 {
		return nil, fmt.Errorf("invalid TOKEN_DECIMALS %q", os.Getenv("TOKEN_DECIMALS"))
	}
	cfg.TokenDecimals = int32(decimals)

	price := os.Getenv("PRICE")
	if price == "" {
		return nil, ErrMissingPrice
	}
	cfg.Price, cfg.MinAmount, err = parsePrice(price, cfg.TokenDecimals)
	if err != nil {
		return nil, err
	}

	cfg.SessionTTL, err = durationOr("SESSION_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.LedgerTimeout, err = durationOr("LEDGER_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = insecureDevSecret
		cfg.InsecureSecret = true
	}
	cfg.SessionSecret = []byte(secret)

	return cfg, nil
}

// parsePrice converts a display price like "1.0" into exact integer base
// units. The comparison path never sees a float: an underpayment of a single
// base unit must be rejected, and float rounding cannot be trusted with that.
func parsePrice(s string, decimals int32) (decimal.Decimal, *big.Int, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, nil, fmt.Errorf("invalid PRICE %q: %w", s, err)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, nil, fmt.Errorf("PRICE %q must be positive", s)
	}
	base := price.Shift(decimals)
	if !base.IsInteger() {
		return decimal.Decimal{}, nil, fmt.Errorf("PRICE %q has more than %d decimal places", s, decimals)
	}
	return price, base.BigInt(), nil
}

// Requirement builds the read-only payment requirement served to callers.
func (c *Config) Requirement() core.Requirement {
	return core.Requirement{
		ChainName:     c.ChainName,
		TokenAddress:  c.TokenAddress,
		TokenSymbol:   c.TokenSymbol,
		TokenDecimals: c.TokenDecimals,
		Receiver:      c.Receiver,
		MinAmount:     new(big.Int).Set(c.MinAmount),
		DisplayAmount: c.Price.String(),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
