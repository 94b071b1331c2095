package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Виды ошибок Ledger. Адаптеры сопоставляют их с кодами ответа через errors.Is, без разбора строк.
var (
	ErrDuplicateID       = errors.New("duplicate id")
	ErrDanglingReference = errors.New("dangling reference")
	ErrLimitExceeded     = errors.New("limit exceeded")
	ErrInvalidEnum       = errors.New("invalid enum value")
	ErrNotFound          = errors.New("not found")
)

// Сообщения о нарушенных инвариантах. Уходят клиенту как есть.
const (
	MsgPolicyholderExists   = "Policyholder already exists"
	MsgPolicyholderMissing  = "Policyholder does not exist"
	MsgPolicyholderNotFound = "Policyholder not found"

	MsgPolicyExists         = "Policy already exists"
	MsgPolicyMissing        = "Policy does not exist"
	MsgPolicyNotFound       = "Policy not found"
	MsgPolicyAmountPositive = "Policy amount must be greater than 0"

	MsgClaimExists         = "Claim already exists"
	MsgClaimMissing        = "Claim does not exist"
	MsgClaimNotFound       = "Claim not found"
	MsgClaimAmountExceeded = "Claim amount exceeds policy amount"
	MsgClaimAmountNegative = "Claim amount cannot be negative"

	MsgInvalidStatus = "Invalid status"
)

// Error - нарушение инварианта: вид ошибки + человекочитаемое описание.
type Error struct {
	Kind    error
	Message string
}

func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// PolicyLimitMessage формирует сообщение о превышении лимита полиса, например "Policy amount cannot exceed 50000".
func PolicyLimitMessage(limit float64) string {
	return fmt.Sprintf("Policy amount cannot exceed %s", strconv.FormatFloat(limit, 'f', -1, 64))
}

// KindOf возвращает имя вида ошибки для логов и метрик. Для инфраструктурных ошибок - "internal".
func KindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrDuplicateID):
		return "DuplicateId"
	case errors.Is(err, ErrDanglingReference):
		return "DanglingReference"
	case errors.Is(err, ErrLimitExceeded):
		return "LimitExceeded"
	case errors.Is(err, ErrInvalidEnum):
		return "InvalidEnum"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	}
	return "internal"
}

// IsLedgerError сообщает, что ошибка - нарушение инварианта, а не сбой инфраструктуры.
// Такие ошибки не ретраятся и не считаются отказом хранилища.
func IsLedgerError(err error) bool {
	return err != nil && KindOf(err) != "internal"
}
