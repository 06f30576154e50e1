package http

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/turnstile/adapters/replay"
	"github.com/layer-3/turnstile/adapters/tokenizer"
	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/ports"
	"github.com/layer-3/turnstile/service"
)

var (
	testToken    = common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	testReceiver = common.HexToAddress("0x6113e0f4512BB69a28FA4De9B3cfa0cf7a5B2D50")
	testPayer    = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type fakeLedger struct {
	result *core.TransactionResult
	err    error
	calls  atomic.Int64
}

func (f *fakeLedger) TransactionResult(ctx context.Context, ref core.Reference) (*core.TransactionResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func exactPayment() *core.TransactionResult {
	return &core.TransactionResult{
		Sender:    testPayer,
		Finalized: true,
		Succeeded: true,
		Transfers: []core.TokenTransfer{{
			Token:  testToken,
			From:   testPayer,
			To:     testReceiver,
			Amount: big.NewInt(1_500_000),
		}},
	}
}

func setupGateway(t *testing.T) (*gin.Engine, *fakeLedger, ports.Tokenizer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := &fakeLedger{}
	guard, err := replay.NewMemoryStore("")
	require.NoError(t, err)

	grantTokenizer := tokenizer.NewJWTTokenizer([]byte("transport-test-secret"))
	verifier := service.NewVerifierService(ledger, guard, time.Second)
	gate := service.NewGateService(verifier, grantTokenizer, nil, core.Requirement{
		ChainName:     "Base Sepolia",
		TokenAddress:  testToken,
		TokenSymbol:   "USDC",
		TokenDecimals: 6,
		Receiver:      testReceiver,
		MinAmount:     big.NewInt(1_500_000),
		DisplayAmount: "1.5",
	}, time.Hour, "premium")

	return SetupRouter(gate), ledger, grantTokenizer
}

func doRequest(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/insight", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestChallengeWithoutHeaders(t *testing.T) {
	router, ledger, _ := setupGateway(t)

	w := doRequest(router, nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	require.EqualValues(t, 0, ledger.calls.Load())

	body := decodeBody(t, w)
	require.Equal(t, "Payment Required", body["error"])

	details := body["payment_details"].(map[string]any)
	require.Equal(t, "1.5", details["amount"])
	require.Equal(t, "USDC", details["token"])
	require.Equal(t, testReceiver.Hex(), details["receiver"])
	require.Equal(t, testToken.Hex(), details["token_address"])
	require.Contains(t, details["instruction"], HeaderPaymentTx)
}

func TestPaymentFlowEndToEnd(t *testing.T) {
	router, ledger, _ := setupGateway(t)
	ledger.result = exactPayment()

	// First contact with a valid proof redeems it and mints a session.
	w := doRequest(router, map[string]string{HeaderPaymentTx: "0xproof"})
	require.Equal(t, http.StatusOK, w.Code)

	session := w.Header().Get(HeaderSession)
	require.NotEmpty(t, session)

	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, session, body["session"].(map[string]any)["token"])
	callsAfterMint := ledger.calls.Load()

	// Resubmitting the consumed proof is a terminal rejection.
	w = doRequest(router, map[string]string{HeaderPaymentTx: "0xproof"})
	require.Equal(t, http.StatusForbidden, w.Code)
	rejection := decodeBody(t, w)
	require.Equal(t, "Payment Invalid", rejection["error"])
	require.Equal(t, core.ReasonAlreadyRedeemed.Message(), rejection["reason"])

	// The minted session grants access without touching the ledger and
	// without minting again.
	w = doRequest(router, map[string]string{"Authorization": "Bearer " + session})
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get(HeaderSession))

	reuse := decodeBody(t, w)
	require.Equal(t, "premium", reuse["tier"])
	require.NotContains(t, reuse, "session")
	require.Equal(t, callsAfterMint, ledger.calls.Load())
}

func TestExpiredBearerGetsChallenge(t *testing.T) {
	router, _, grantTokenizer := setupGateway(t)

	now := time.Now()
	expired, err := grantTokenizer.GrantToToken(&core.Grant{
		ID:        uuid.New().String(),
		Reference: "0xold",
		Tier:      "premium",
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)

	w := doRequest(router, map[string]string{"Authorization": "Bearer " + expired})
	require.Equal(t, http.StatusPaymentRequired, w.Code, "expired session means unauthenticated, not forbidden")
}

func TestUnderpaymentRejected(t *testing.T) {
	router, ledger, _ := setupGateway(t)
	ledger.result = exactPayment()
	ledger.result.Transfers[0].Amount = big.NewInt(1_499_999)

	w := doRequest(router, map[string]string{HeaderPaymentTx: "0xcheap"})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, core.ReasonAmountTooLow.Message(), decodeBody(t, w)["reason"])
}

func TestLedgerOutageIsServiceUnavailable(t *testing.T) {
	router, ledger, _ := setupGateway(t)
	ledger.err = fmt.Errorf("%w: connection refused", core.ErrLedgerUnavailable)

	w := doRequest(router, map[string]string{HeaderPaymentTx: "0xproof"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Once the ledger recovers the same proof still redeems.
	ledger.err = nil
	ledger.result = exactPayment()
	w = doRequest(router, map[string]string{HeaderPaymentTx: "0xproof"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRootIsUnprotected(t *testing.T) {
	router, _, _ := setupGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Turnstile")
}
