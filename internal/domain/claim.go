package domain

// Статусы жизненного цикла заявки
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "Pending"
	ClaimApproved ClaimStatus = "Approved"
	ClaimRejected ClaimStatus = "Rejected"
)

// Valid проверяет, что статус входит в фиксированный набор. Регистр важен.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimPending, ClaimApproved, ClaimRejected:
		return true
	}
	return false
}

// Claim - запрос на выплату по полису.
// Сумма ограничена суммой полиса на момент создания, статус меняется только через UpdateClaimStatus.
type Claim struct {
	ID       string      `json:"claim_id"`
	PolicyID string      `json:"policy_id"` // Ссылка на Policy (не владеющая)
	Amount   float64     `json:"amount"`
	Status   ClaimStatus `json:"status"`
}
