package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/claims-ledger/internal/console/handler"
	"github.com/xela07ax/claims-ledger/internal/console/service"
	"github.com/xela07ax/claims-ledger/internal/engine"
	"github.com/xela07ax/claims-ledger/internal/ledger"
	"github.com/xela07ax/claims-ledger/internal/repository/memory"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)
	if opts.Gatherer == nil {
		opts.Gatherer = reg
	}

	svc := service.NewLedgerService(ledger.New(memory.New()), nil, metrics, logger)
	srv := NewLedgerServer(opts, logger, metrics,
		handler.NewPolicyholderHandler(svc),
		handler.NewPolicyHandler(svc),
		handler.NewClaimHandler(svc),
		handler.NewHealthHandler(svc, logger),
	)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestEndToEndScenario(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, body := call(t, ts, http.MethodPost, "/policyholders", `{"policyholder_id":"P1","name":"Alice"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Policyholder created successfully"}`, string(body))

	resp, body = call(t, ts, http.MethodPost, "/policies", `{"policy_id":"PL1","policyholder_id":"P1","policy_amount":1000}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Policy created successfully"}`, string(body))

	resp, body = call(t, ts, http.MethodPost, "/claims", `{"claim_id":"C1","policy_id":"PL1","amount":500}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Claim created successfully"}`, string(body))

	resp, body = call(t, ts, http.MethodGet, "/claims/C1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"claim_id":"C1","policy_id":"PL1","amount":500,"status":"Pending"}`, string(body))

	resp, body = call(t, ts, http.MethodPut, "/claims/C1/status", `{"status":"Approved"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Claim status updated successfully"}`, string(body))

	resp, body = call(t, ts, http.MethodGet, "/claims", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"claim_id":"C1","policy_id":"PL1","amount":500,"status":"Approved"}]`, string(body))

	resp, body = call(t, ts, http.MethodDelete, "/claims/C1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Claim deleted successfully"}`, string(body))

	resp, body = call(t, ts, http.MethodGet, "/claims/C1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Claim not found"}`, string(body))
}

func TestInvariantViolationsOverHTTP(t *testing.T) {
	ts := newTestServer(t, Options{})

	call(t, ts, http.MethodPost, "/policyholders", `{"policyholder_id":"P1","name":"Alice"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"duplicate policyholder", http.MethodPost, "/policyholders", `{"policyholder_id":"P1","name":"Bob"}`, 400, "Policyholder already exists"},
		{"dangling wins over amount", http.MethodPost, "/policies", `{"policy_id":"PL9","policyholder_id":"ghost","policy_amount":999999}`, 400, "Policyholder does not exist"},
		{"policy over limit", http.MethodPost, "/policies", `{"policy_id":"PL2","policyholder_id":"P1","policy_amount":50001}`, 400, "Policy amount cannot exceed 50000"},
		{"claim on missing policy", http.MethodPost, "/claims", `{"claim_id":"C1","policy_id":"nope","amount":1}`, 400, "Policy does not exist"},
		{"unknown policyholder", http.MethodGet, "/policyholders/ghost", "", 404, "Policyholder not found"},
		{"unknown policy", http.MethodGet, "/policies/ghost", "", 404, "Policy not found"},
		{"update unknown claim", http.MethodPut, "/claims/ghost/status", `{"status":"Cancelled"}`, 404, "Claim does not exist"},
		{"delete unknown claim", http.MethodDelete, "/claims/ghost", "", 404, "Claim does not exist"},
		{"missing field", http.MethodPost, "/policies", `{"policy_id":"PL3","policyholder_id":"P1"}`, 400, "policy_amount is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := call(t, ts, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var out map[string]string
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tt.want, out["error"])
		})
	}

	resp, _ := call(t, ts, http.MethodPost, "/policies", `{"policy_id":"PL1","policyholder_id":"P1","policy_amount":50000}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = call(t, ts, http.MethodPost, "/claims", `{"claim_id":"C1","policy_id":"PL1","amount":50000}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := call(t, ts, http.MethodPut, "/claims/C1/status", `{"status":"Cancelled"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid status"}`, string(body))
}

func TestEmptyListsAreArrays(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, path := range []string{"/policyholders", "/policies", "/claims"} {
		resp, body := call(t, ts, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[]`, string(body), path)
	}
}

func TestRateLimitSkipsHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, Options{RateLimit: 0.0001, RateBurst: 1})

	resp, _ := call(t, ts, http.MethodGet, "/claims", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = call(t, ts, http.MethodGet, "/claims", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = call(t, ts, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, ts, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "claims_http_requests_total")
	assert.Contains(t, string(body), "claims_errors_total")
}

func TestTraceHeaderIsEchoed(t *testing.T) {
	ts := newTestServer(t, Options{})
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/claims", nil)
	require.NoError(t, err)
	req.Header.Set(engine.TraceHeader, "trace-abc")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "trace-abc", resp.Header.Get(engine.TraceHeader))
}

func TestStatusValueIsCheckedAfterClaimExists(t *testing.T) {
	ts := newTestServer(t, Options{})

	for _, body := range []string{`{"status":""}`, `{"status":5}`, `{"status":"Cancelled"}`} {
		resp, out := call(t, ts, http.MethodPut, "/claims/GHOST/status", body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, body)
		assert.JSONEq(t, `{"error":"Claim does not exist"}`, string(out), body)
	}

	call(t, ts, http.MethodPost, "/policyholders", `{"policyholder_id":"P1","name":"Alice"}`)
	call(t, ts, http.MethodPost, "/policies", `{"policy_id":"PL1","policyholder_id":"P1","policy_amount":1000}`)
	call(t, ts, http.MethodPost, "/claims", `{"claim_id":"C1","policy_id":"PL1","amount":10}`)

	for _, body := range []string{`{"status":""}`, `{"status":5}`} {
		resp, out := call(t, ts, http.MethodPut, "/claims/C1/status", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.JSONEq(t, `{"error":"Invalid status"}`, string(out), body)
	}
}

func TestEmptyPolicyholderNameIsAccepted(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, body := call(t, ts, http.MethodPost, "/policyholders", `{"policyholder_id":"P1","name":""}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Policyholder created successfully"}`, string(body))

	resp, body = call(t, ts, http.MethodGet, "/policyholders/P1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"policyholder_id":"P1","name":""}`, string(body))
}
