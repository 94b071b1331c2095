package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/claims-ledger/internal/domain"
)

// PolicyholderService Описываем, что нам нужно от сервиса
type PolicyholderService interface {
	CreatePolicyholder(ctx context.Context, id, name string) error
	GetPolicyholder(ctx context.Context, id string) (*domain.Policyholder, error)
	ListPolicyholders(ctx context.Context) ([]domain.Policyholder, error)
}

type PolicyholderHandler struct {
	service PolicyholderService
}

func NewPolicyholderHandler(s PolicyholderService) *PolicyholderHandler {
	return &PolicyholderHandler{service: s}
}

func (h *PolicyholderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyholderRequest
	if msg, ok := decode(r, &req); !ok {
		writeErrorMessage(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.service.CreatePolicyholder(r.Context(), req.ID, *req.Name); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "Policyholder created successfully")
}

func (h *PolicyholderHandler) Get(w http.ResponseWriter, r *http.Request) {
	holder, err := h.service.GetPolicyholder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, holder)
}

func (h *PolicyholderHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPolicyholders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
