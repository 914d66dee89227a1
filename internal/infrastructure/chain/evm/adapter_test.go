package evm

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// newRPCServer answers the minimal JSON-RPC surface a transfer touches,
// delaying every response so that slow individual calls are survivable but a
// deadline shared across the whole call sequence would expire.
func newRPCServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	txHash := "0x" + strings.Repeat("11", 32)
	receipt := fmt.Sprintf(
		`{"transactionHash":"%s","status":"0x1","cumulativeGasUsed":"0x5208","gasUsed":"0x5208","logs":[],"logsBloom":"0x%s","blockNumber":"0x1","blockHash":"0x%s","transactionIndex":"0x0","type":"0x0"}`,
		txHash, strings.Repeat("00", 256), strings.Repeat("22", 32))

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode RPC request: %v", err)
			return
		}
		time.Sleep(delay)

		var result string
		switch req.Method {
		case "eth_gasPrice":
			result = `"0x3b9aca00"` // 1 gwei
		case "eth_getTransactionCount":
			result = `"0x0"`
		case "eth_estimateGas":
			result = `"0xc350"`
		case "eth_sendRawTransaction":
			result = fmt.Sprintf("%q", txHash)
		case "eth_getTransactionReceipt":
			result = receipt
		default:
			t.Errorf("unexpected RPC method %s", req.Method)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
}

func newTestAdapter(t *testing.T, url string, rpcCallTimeout time.Duration) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(Config{
		RPCURL:         url,
		ChainID:        97,
		Environment:    entity.EnvTestnet,
		RPCCallTimeout: rpcCallTimeout,
		ConfirmTimeout: 5 * time.Second,
	}, nopLogger{})
	require.NoError(t, err)
	return adapter
}

// Every RPC in a transfer gets its own rpcCallTimeout. With responses delayed
// close to that timeout, the sequence only completes when the budget is
// scoped per call rather than stretched across all of them.
func TestSendBudgetsEachCallSeparately(t *testing.T) {
	server := newRPCServer(t, 150*time.Millisecond)
	defer server.Close()
	adapter := newTestAdapter(t, server.URL, 400*time.Millisecond)

	key := strings.Repeat("11", 32)
	destination := "0x1111111111111111111111111111111111111111"

	t.Run("native sweep", func(t *testing.T) {
		receipt, err := adapter.SendNative(t.Context(), key, destination, big.NewInt(1_000_000_000_000_000))
		require.NoError(t, err)
		assert.NotEmpty(t, receipt.TxID)

		fee := new(big.Int).Mul(big.NewInt(1_000_000_000), new(big.Int).SetUint64(nativeTransferGas))
		expected := new(big.Int).Sub(big.NewInt(1_000_000_000_000_000), fee)
		assert.Zero(t, expected.Cmp(receipt.AmountSent))
	})

	t.Run("token transfer", func(t *testing.T) {
		receipt, err := adapter.SendToken(t.Context(), key, destination,
			"0x2222222222222222222222222222222222222222", big.NewInt(500))
		require.NoError(t, err)
		assert.NotEmpty(t, receipt.TxID)
		assert.Zero(t, big.NewInt(500).Cmp(receipt.AmountSent))
	})
}

func TestSendNativeInsufficientForFee(t *testing.T) {
	server := newRPCServer(t, 0)
	defer server.Close()
	adapter := newTestAdapter(t, server.URL, time.Second)

	// 1 gwei x 21000 gas exceeds the whole balance.
	_, err := adapter.SendNative(t.Context(), strings.Repeat("11", 32),
		"0x1111111111111111111111111111111111111111", big.NewInt(1000))
	assert.ErrorIs(t, err, port.ErrInsufficientForFee)
}
