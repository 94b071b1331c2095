package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/claims-ledger/internal/domain"
	"go.uber.org/zap"
)

// fakeClaims отдает заранее заданную ошибку и запоминает аргументы
type fakeClaims struct {
	err        error
	gotStatus  domain.ClaimStatus
	gotAmount  float64
	gotCreated bool
}

func (f *fakeClaims) CreateClaim(_ context.Context, _, _ string, amount float64) error {
	f.gotCreated = true
	f.gotAmount = amount
	return f.err
}

func (f *fakeClaims) GetClaim(_ context.Context, id string) (*domain.Claim, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Claim{ID: id, PolicyID: "PL1", Amount: 10, Status: domain.ClaimPending}, nil
}

func (f *fakeClaims) ListClaims(context.Context) ([]domain.Claim, error) {
	return []domain.Claim{}, f.err
}

func (f *fakeClaims) UpdateClaimStatus(_ context.Context, _ string, status domain.ClaimStatus) error {
	f.gotStatus = status
	return f.err
}

func (f *fakeClaims) DeleteClaim(context.Context, string) error {
	return f.err
}

func claimRouter(svc ClaimService) http.Handler {
	h := NewClaimHandler(svc)
	r := chi.NewRouter()
	r.Post("/claims", h.Create)
	r.Get("/claims", h.List)
	r.Get("/claims/{id}", h.Get)
	r.Put("/claims/{id}/status", h.UpdateStatus)
	r.Delete("/claims/{id}", h.Delete)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"duplicate", domain.NewError(domain.ErrDuplicateID, domain.MsgClaimExists), http.StatusBadRequest, domain.MsgClaimExists},
		{"dangling", domain.NewError(domain.ErrDanglingReference, domain.MsgPolicyMissing), http.StatusBadRequest, domain.MsgPolicyMissing},
		{"limit", domain.NewError(domain.ErrLimitExceeded, domain.MsgClaimAmountExceeded), http.StatusBadRequest, domain.MsgClaimAmountExceeded},
		{"enum", domain.NewError(domain.ErrInvalidEnum, domain.MsgInvalidStatus), http.StatusBadRequest, domain.MsgInvalidStatus},
		{"not found", domain.NewError(domain.ErrNotFound, domain.MsgClaimMissing), http.StatusNotFound, domain.MsgClaimMissing},
		{"infrastructure", errors.New("sqlstore: connection reset"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, claimRouter(&fakeClaims{err: tt.err}), http.MethodDelete, "/claims/C1", "")
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.body, body["error"])
		})
	}
}

func TestCreateClaimValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"claim_id":`, "Invalid request body"},
		{"missing id", `{"policy_id":"PL1","amount":10}`, "claim_id is required"},
		{"missing policy", `{"claim_id":"C1","amount":10}`, "policy_id is required"},
		{"missing amount", `{"claim_id":"C1","policy_id":"PL1"}`, "amount is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeClaims{}
			code, body := do(t, claimRouter(svc), http.MethodPost, "/claims", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.want, body["error"])
			assert.False(t, svc.gotCreated)
		})
	}
}

func TestCreateClaimZeroAmountIsAccepted(t *testing.T) {
	svc := &fakeClaims{}
	code, body := do(t, claimRouter(svc), http.MethodPost, "/claims", `{"claim_id":"C1","policy_id":"PL1","amount":0}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Claim created successfully", body["message"])
	assert.True(t, svc.gotCreated)
	assert.Zero(t, svc.gotAmount)
}

func TestUpdateStatusPassesRawValue(t *testing.T) {
	svc := &fakeClaims{}
	code, body := do(t, claimRouter(svc), http.MethodPut, "/claims/C1/status", `{"status":"Approved"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Claim status updated successfully", body["message"])
	assert.Equal(t, domain.ClaimApproved, svc.gotStatus)
}

func TestGetClaimEncodesRecord(t *testing.T) {
	code, body := do(t, claimRouter(&fakeClaims{}), http.MethodGet, "/claims/C9", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "C9", body["claim_id"])
	assert.Equal(t, "Pending", body["status"])
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	ok := NewHealthHandler(pingerFunc(func(context.Context) error { return nil }), zap.NewNop())
	rec := httptest.NewRecorder()
	ok.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("down") }), zap.NewNop())
	rec = httptest.NewRecorder()
	down.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpdateStatusOnlyRejectsAbsentField(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantCode   int
		wantStatus domain.ClaimStatus
	}{
		{"empty string goes to ledger", `{"status":""}`, http.StatusOK, ""},
		{"number goes to ledger as invalid", `{"status":5}`, http.StatusOK, ""},
		{"object goes to ledger as invalid", `{"status":{"v":"Approved"}}`, http.StatusOK, ""},
		{"lowercase kept as is", `{"status":"approved"}`, http.StatusOK, "approved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeClaims{gotStatus: "untouched"}
			code, _ := do(t, claimRouter(svc), http.MethodPut, "/claims/C1/status", tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, svc.gotStatus)
		})
	}

	for _, body := range []string{`{}`, `{"status":null}`} {
		svc := &fakeClaims{gotStatus: "untouched"}
		code, out := do(t, claimRouter(svc), http.MethodPut, "/claims/C1/status", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, "status is required", out["error"], body)
		assert.Equal(t, domain.ClaimStatus("untouched"), svc.gotStatus, body)
	}
}

type fakePolicyholders struct {
	gotName *string
}

func (f *fakePolicyholders) CreatePolicyholder(_ context.Context, _, name string) error {
	f.gotName = &name
	return nil
}

func (f *fakePolicyholders) GetPolicyholder(context.Context, string) (*domain.Policyholder, error) {
	return nil, domain.NewError(domain.ErrNotFound, domain.MsgPolicyholderNotFound)
}

func (f *fakePolicyholders) ListPolicyholders(context.Context) ([]domain.Policyholder, error) {
	return []domain.Policyholder{}, nil
}

func TestCreatePolicyholderName(t *testing.T) {
	newRouter := func(svc PolicyholderService) http.Handler {
		r := chi.NewRouter()
		r.Post("/policyholders", NewPolicyholderHandler(svc).Create)
		return r
	}

	svc := &fakePolicyholders{}
	code, _ := do(t, newRouter(svc), http.MethodPost, "/policyholders", `{"policyholder_id":"P1","name":""}`)
	assert.Equal(t, http.StatusCreated, code)
	require.NotNil(t, svc.gotName)
	assert.Equal(t, "", *svc.gotName)

	svc = &fakePolicyholders{}
	code, out := do(t, newRouter(svc), http.MethodPost, "/policyholders", `{"policyholder_id":"P1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "name is required", out["error"])
	assert.Nil(t, svc.gotName)
}
