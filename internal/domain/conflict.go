package domain

import "time"

// ConflictStatus is the conflict lifecycle state.
type ConflictStatus string

const (
	ConflictStatusOpen     ConflictStatus = "OPEN"
	ConflictStatusResolved ConflictStatus = "RESOLVED"
)

// MatchReason explains why two contracts were linked.
type MatchReason string

const (
	MatchReasonAPN     MatchReason = "apn"
	MatchReasonAddress MatchReason = "address"
	MatchReasonEmail   MatchReason = "email"
	MatchReasonPhone   MatchReason = "phone"
)

// Conflict links two contracts from different lenders that matched on at
// least one identity field (maps to lsp_conflicts). ContractA is the
// pre-existing contract, ContractB the later submission. An OPEN conflict
// always has both contracts ACTIVE; any status change on either side
// resolves it immediately.
type Conflict struct {
	ConflictID   string         `db:"conflict_id"` // UUID, PRIMARY KEY
	ContractAID  string         `db:"contract_a_id"`
	ContractBID  string         `db:"contract_b_id"`
	MatchReasons []MatchReason  `db:"match_reasons"` // JSONB, non-empty
	Status       ConflictStatus `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	ResolvedAt   *time.Time     `db:"resolved_at"`
}

// OtherContractID returns the side of the pair that is not contractID.
func (c *Conflict) OtherContractID(contractID string) string {
	if c.ContractAID == contractID {
		return c.ContractBID
	}
	return c.ContractAID
}
