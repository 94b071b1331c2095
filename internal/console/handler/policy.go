package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/claims-ledger/internal/domain"
)

type PolicyService interface {
	CreatePolicy(ctx context.Context, id, policyholderID string, amount float64) error
	GetPolicy(ctx context.Context, id string) (*domain.Policy, error)
	ListPolicies(ctx context.Context) ([]domain.Policy, error)
}

type PolicyHandler struct {
	service PolicyService
}

func NewPolicyHandler(s PolicyService) *PolicyHandler {
	return &PolicyHandler{service: s}
}

func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if msg, ok := decode(r, &req); !ok {
		writeErrorMessage(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.service.CreatePolicy(r.Context(), req.ID, req.PolicyholderID, *req.Amount); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Policy created successfully")
}

func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPolicies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
