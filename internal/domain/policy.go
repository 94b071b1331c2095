package domain

// MaxPolicyAmount - верхняя граница суммы полиса (включительно).
const MaxPolicyAmount = 50000

// Policy - страховой договор с максимальной выплатой, привязанный к одному Policyholder.
type Policy struct {
	ID             string  `json:"policy_id"`
	PolicyholderID string  `json:"policyholder_id"`
	Amount         float64 `json:"policy_amount"` // 0 < Amount <= MaxPolicyAmount
}
