package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/claims-ledger/internal/domain"
)

type ClaimService interface {
	CreateClaim(ctx context.Context, id, policyID string, amount float64) error
	GetClaim(ctx context.Context, id string) (*domain.Claim, error)
	ListClaims(ctx context.Context) ([]domain.Claim, error)
	UpdateClaimStatus(ctx context.Context, id string, status domain.ClaimStatus) error
	DeleteClaim(ctx context.Context, id string) error
}

type ClaimHandler struct {
	service ClaimService
}

func NewClaimHandler(s ClaimService) *ClaimHandler {
	return &ClaimHandler{service: s}
}

func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClaimRequest
	if msg, ok := decode(r, &req); !ok {
		writeErrorMessage(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.service.CreateClaim(r.Context(), req.ID, req.PolicyID, *req.Amount); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Claim created successfully")
}

func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	claim, err := h.service.GetClaim(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListClaims(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ClaimHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateClaimStatusRequest
	if msg, ok := decode(r, &req); !ok {
		writeErrorMessage(w, http.StatusBadRequest, msg)
		return
	}

	// Допустимость статуса проверяет Ledger: сначала существование претензии, потом значение
	if err := h.service.UpdateClaimStatus(r.Context(), id, domain.ClaimStatus(req.StatusValue())); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Claim status updated successfully")
}

func (h *ClaimHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteClaim(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Claim deleted successfully")
}
