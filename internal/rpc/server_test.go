package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/rpc"
	mtest "github.com/openxm/marketd/internal/testing"
)

func newTestServer(t *testing.T, names ...string) (*mtest.Env, *httptest.Server) {
	t.Helper()
	env := mtest.NewEnv(t, names...)
	ts := httptest.NewServer(rpc.NewServer(env.Service, 0))
	t.Cleanup(ts.Close)
	return env, ts
}

func post(t *testing.T, url, method string, params any) map[string]any {
	t.Helper()
	req := map[string]any{"method": method}
	if params != nil {
		req["params"] = []any{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	result, ok := envelope["result"].(map[string]any)
	require.True(t, ok, "response has no result object")
	return result
}

func requireSuccess(t *testing.T, result map[string]any) {
	t.Helper()
	require.Equal(t, "success", result["status"], "result: %v", result)
}

func requireRPCError(t *testing.T, result map[string]any, errorString string, code int) {
	t.Helper()
	require.Equal(t, "error", result["status"])
	require.Equal(t, errorString, result["error"])
	require.Equal(t, float64(code), result["error_code"])
}

func TestGetDefaultsToServerInfo(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	result := envelope["result"].(map[string]any)
	requireSuccess(t, result)

	info := result["info"].(map[string]any)
	require.Equal(t, true, info["standalone"])
	require.Equal(t, float64(10), info["base_fee"])
	require.Equal(t, float64(2), info["open_ledger_seq"])
}

func TestGetWithCommand(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "?command=fee")
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	result := envelope["result"].(map[string]any)
	requireSuccess(t, result)
	require.Equal(t, float64(10), result["base_fee"])
	require.Equal(t, float64(2), result["current_ledger_index"])
}

func TestUnknownMethod(t *testing.T) {
	_, ts := newTestServer(t)
	result := post(t, ts.URL, "no_such_method", nil)
	requireRPCError(t, result, "unknownCmd", 30)
}

func TestMissingMethodField(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	requireRPCError(t, envelope["result"].(map[string]any), "invalidParams", 31)
}

func TestMalformedJSON(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader([]byte(`{not json`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	requireRPCError(t, envelope["result"].(map[string]any), "invalidParams", 31)
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, ts.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestOptionsPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "POST, GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestSubmitAndQueryFlow(t *testing.T) {
	env, ts := newTestServer(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")

	payment := tx.NewPayment(alice.Address, bob.Address, 5_000)
	payment.Fee = 10
	payment.Sequence = 1
	txJSON, err := tx.ToJSON(payment)
	require.NoError(t, err)

	result := post(t, ts.URL, "submit", map[string]any{"tx_json": json.RawMessage(txJSON)})
	requireSuccess(t, result)
	require.Equal(t, "tesSUCCESS", result["engine_result"])
	require.Equal(t, float64(0), result["engine_result_code"])
	require.Equal(t, true, result["applied"])
	require.Equal(t, float64(10), result["fee"])
	txHash, ok := result["tx_hash"].(string)
	require.True(t, ok)
	require.Len(t, txHash, 64)

	result = post(t, ts.URL, "ledger_accept", nil)
	requireSuccess(t, result)
	require.Equal(t, float64(3), result["ledger_current_index"])

	result = post(t, ts.URL, "account_info", map[string]any{
		"account": bob.Address,
	})
	requireSuccess(t, result)
	require.Equal(t, float64(mtest.DefaultFunding+5_000), result["balance"])

	result = post(t, ts.URL, "tx", map[string]any{"transaction": txHash})
	requireSuccess(t, result)
	require.Equal(t, txHash, result["hash"])
	require.Equal(t, true, result["validated"])
}

func TestSubmitRejectsBadTransaction(t *testing.T) {
	_, ts := newTestServer(t)

	result := post(t, ts.URL, "submit", map[string]any{})
	requireRPCError(t, result, "invalidParams", 31)

	result = post(t, ts.URL, "submit", map[string]any{
		"tx_json": map[string]any{"TransactionType": "Bogus"},
	})
	requireRPCError(t, result, "invalidParams", 31)
}

func TestMarketplaceQueries(t *testing.T) {
	env, ts := newTestServer(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")

	env.MintAsset(alice, 1, 100)
	env.SetupSeller(alice)
	env.SubmitOK(alice, tx.NewSaleCreate(alice.Address, 1, 40, 500))
	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))

	result := post(t, ts.URL, "listing", map[string]any{"listing_id": 1})
	requireSuccess(t, result)

	result = post(t, ts.URL, "listings", map[string]any{"active_only": true})
	requireSuccess(t, result)

	result = post(t, ts.URL, "offer", map[string]any{"listing_id": 1, "offer_id": 1})
	requireSuccess(t, result)

	result = post(t, ts.URL, "listing_offers", map[string]any{"listing_id": 1})
	requireSuccess(t, result)

	result = post(t, ts.URL, "asset_balance", map[string]any{
		"account":  alice.Address,
		"asset_id": 1,
	})
	requireSuccess(t, result)

	result = post(t, ts.URL, "payment_allowance", map[string]any{
		"owner":   bob.Address,
		"spender": env.Market.Address,
	})
	requireSuccess(t, result)

	result = post(t, ts.URL, "market_info", nil)
	requireSuccess(t, result)
	require.Equal(t, env.Market.Address, result["market_account"])
	require.Equal(t, float64(2), result["next_listing_id"])
}

func TestQueryErrors(t *testing.T) {
	env, ts := newTestServer(t, "alice")

	result := post(t, ts.URL, "listing", map[string]any{"listing_id": 99})
	requireRPCError(t, result, "entryNotFound", 33)

	result = post(t, ts.URL, "account_info", map[string]any{
		"account": mtest.NewAccount("stranger").Address,
	})
	requireRPCError(t, result, "entryNotFound", 33)

	result = post(t, ts.URL, "account_info", map[string]any{})
	requireRPCError(t, result, "invalidParams", 31)

	// No history database configured.
	result = post(t, ts.URL, "account_tx", map[string]any{
		"account": env.Account("alice").Address,
	})
	requireRPCError(t, result, "notSupported", 34)

	result = post(t, ts.URL, "trade_history", nil)
	requireRPCError(t, result, "notSupported", 34)

	result = post(t, ts.URL, "tx", map[string]any{"transaction": "zz"})
	requireRPCError(t, result, "invalidParams", 31)

	result = post(t, ts.URL, "tx", map[string]any{
		"transaction": fmt.Sprintf("%064d", 1),
	})
	requireRPCError(t, result, "entryNotFound", 33)
}

func TestMethodRegistry(t *testing.T) {
	registry := rpc.NewMethodRegistry()

	_, exists := registry.Get("ping")
	require.False(t, exists)

	registry.Register("ping", func(ctx context.Context, params json.RawMessage) (any, *rpc.Error) {
		return map[string]any{"pong": true}, nil
	})
	registry.Register("echo", func(ctx context.Context, params json.RawMessage) (any, *rpc.Error) {
		return nil, nil
	})

	handler, exists := registry.Get("ping")
	require.True(t, exists)
	result, rpcErr := handler(context.Background(), nil)
	require.Nil(t, rpcErr)
	require.Equal(t, map[string]any{"pong": true}, result)

	require.Equal(t, []string{"echo", "ping"}, registry.List())
}
