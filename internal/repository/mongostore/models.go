package mongostore

import "github.com/xela07ax/claims-ledger/internal/domain"

// Документы повторяют форму коллекций исходного сервиса: бизнес-id хранится
// отдельным полем с уникальным индексом, _id (ObjectID) задает порядок вставки.

type policyholderDoc struct {
	PolicyholderID string `bson:"policyholder_id"`
	Name           string `bson:"name"`
}

type policyDoc struct {
	PolicyID       string  `bson:"policy_id"`
	PolicyholderID string  `bson:"policyholder_id"`
	PolicyAmount   float64 `bson:"policy_amount"`
}

type claimDoc struct {
	ClaimID  string  `bson:"claim_id"`
	PolicyID string  `bson:"policy_id"`
	Amount   float64 `bson:"amount"`
	Status   string  `bson:"status"`
}

func toPolicyholderDoc(p domain.Policyholder) policyholderDoc {
	return policyholderDoc{PolicyholderID: p.ID, Name: p.Name}
}

func (d policyholderDoc) toDomain() domain.Policyholder {
	return domain.Policyholder{ID: d.PolicyholderID, Name: d.Name}
}

func toPolicyDoc(p domain.Policy) policyDoc {
	return policyDoc{PolicyID: p.ID, PolicyholderID: p.PolicyholderID, PolicyAmount: p.Amount}
}

func (d policyDoc) toDomain() domain.Policy {
	return domain.Policy{ID: d.PolicyID, PolicyholderID: d.PolicyholderID, Amount: d.PolicyAmount}
}

func toClaimDoc(c domain.Claim) claimDoc {
	return claimDoc{ClaimID: c.ID, PolicyID: c.PolicyID, Amount: c.Amount, Status: string(c.Status)}
}

func (d claimDoc) toDomain() domain.Claim {
	return domain.Claim{ID: d.ClaimID, PolicyID: d.PolicyID, Amount: d.Amount, Status: domain.ClaimStatus(d.Status)}
}
