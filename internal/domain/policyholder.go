package domain

// Policyholder - владелец полисов. После создания не изменяется.
type Policyholder struct {
	ID   string `json:"policyholder_id"`
	Name string `json:"name"`
}
