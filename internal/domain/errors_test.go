package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKind(t *testing.T) {
	err := NewError(ErrLimitExceeded, PolicyLimitMessage(MaxPolicyAmount))

	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Policy amount cannot exceed 50000", err.Error())
}

func TestKindOf(t *testing.T) {
	cases := map[string]error{
		"none":              nil,
		"DuplicateId":       NewError(ErrDuplicateID, MsgClaimExists),
		"DanglingReference": NewError(ErrDanglingReference, MsgPolicyMissing),
		"LimitExceeded":     NewError(ErrLimitExceeded, MsgClaimAmountExceeded),
		"InvalidEnum":       NewError(ErrInvalidEnum, MsgInvalidStatus),
		"NotFound":          fmt.Errorf("memory: claim C1: %w", ErrNotFound),
		"internal":          context.DeadlineExceeded,
	}
	for want, err := range cases {
		assert.Equal(t, want, KindOf(err), "error %v", err)
	}
}

func TestIsLedgerError(t *testing.T) {
	assert.True(t, IsLedgerError(fmt.Errorf("sqlstore: insert claim: %w", ErrDuplicateID)))
	assert.False(t, IsLedgerError(errors.New("connection reset by peer")))
	assert.False(t, IsLedgerError(nil))
}

func TestClaimStatusValid(t *testing.T) {
	for _, s := range []ClaimStatus{ClaimPending, ClaimApproved, ClaimRejected} {
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []ClaimStatus{"Cancelled", "pending", "APPROVED", ""} {
		assert.False(t, s.Valid(), s)
	}
}

func TestPolicyLimitMessageFormatsFractions(t *testing.T) {
	assert.Equal(t, "Policy amount cannot exceed 1234.5", PolicyLimitMessage(1234.5))
}
