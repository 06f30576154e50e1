package config

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

const testReceiver = "0x6113e0f4512BB69a28FA4De9B3cfa0cf7a5B2D50"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RECEIVER_WALLET", testReceiver)
	t.Setenv("PRICE", "1.5")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("TOKEN_DECIMALS", "")
	t.Setenv("CHAIN_ID", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("LEDGER_TIMEOUT", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, testReceiver, cfg.Receiver.Hex())
	require.Equal(t, big.NewInt(1_500_000), cfg.MinAmount, "1.5 USDC at 6 decimals")
	require.Equal(t, "1.5", cfg.Price.String())
	require.EqualValues(t, 84532, cfg.ChainID)
	require.True(t, cfg.InsecureSecret, "unset secret must be flagged")
	require.NotEmpty(t, cfg.SessionSecret)

	req := cfg.Requirement()
	require.Equal(t, "1.5", req.DisplayAmount)
	require.Equal(t, cfg.MinAmount, req.MinAmount)
}

func TestLoadMissingReceiver(t *testing.T) {
	setRequired(t)
	t.Setenv("RECEIVER_WALLET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingReceiver)
}

func TestLoadMissingPrice(t *testing.T) {
	setRequired(t)
	t.Setenv("PRICE", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingPrice)
}

func TestLoadInvalidReceiver(t *testing.T) {
	setRequired(t)
	t.Setenv("RECEIVER_WALLET", "not-an-address")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadPriceValidation(t *testing.T) {
	cases := map[string]string{
		"not a number":         "one",
		"negative":             "-1",
		"zero":                 "0",
		"fractional base unit": "0.0000001",
	}
	for name, price := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("PRICE", price)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadExplicitSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_SECRET", "production-grade-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.InsecureSecret)
	require.Equal(t, []byte("production-grade-secret"), cfg.SessionSecret)
}

func TestLoadBadDurations(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}
