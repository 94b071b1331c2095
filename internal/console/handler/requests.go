package handler

import "encoding/json"

// required проверяет только наличие поля. Пустые и неверные значения уходят в Ledger,
// порядок проверок задает он.
// Суммы - указатели: отсутствующее поле неотличимо от нуля, а сумма претензии 0 допустима.

type CreatePolicyholderRequest struct {
	ID   string  `json:"policyholder_id" validate:"required"`
	Name *string `json:"name" validate:"required"`
}

type CreatePolicyRequest struct {
	ID             string   `json:"policy_id" validate:"required"`
	PolicyholderID string   `json:"policyholder_id" validate:"required"`
	Amount         *float64 `json:"policy_amount" validate:"required"`
}

type CreateClaimRequest struct {
	ID       string   `json:"claim_id" validate:"required"`
	PolicyID string   `json:"policy_id" validate:"required"`
	Amount   *float64 `json:"amount" validate:"required"`
}

// UpdateClaimStatusRequest - статус принимается любым JSON-значением, проверяет его Ledger.
type UpdateClaimStatusRequest struct {
	Status *json.RawMessage `json:"status" validate:"required"`
}

// StatusValue возвращает статус строкой. Не-строка дает "", а это заведомо недопустимый статус.
func (r UpdateClaimStatusRequest) StatusValue() string {
	var s string
	if r.Status == nil || json.Unmarshal(*r.Status, &s) != nil {
		return ""
	}
	return s
}
