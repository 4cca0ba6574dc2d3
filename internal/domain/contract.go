package domain

import "time"

// ContractStatus is the contract lifecycle state.
// Transitions are one-way: ACTIVE -> FUNDED or ACTIVE -> CANCELLED, both terminal.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusFunded    ContractStatus = "FUNDED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
)

// Valid reports whether s is a known status value.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusActive, ContractStatusFunded, ContractStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s ends the contract lifecycle.
func (s ContractStatus) Terminal() bool {
	return s == ContractStatusFunded || s == ContractStatusCancelled
}

// CanTransitionTo reports whether the transition s -> target is allowed.
func (s ContractStatus) CanTransitionTo(target ContractStatus) bool {
	return s == ContractStatusActive && target.Terminal()
}

// Contract is a lender's claim on a property/customer relationship
// (maps to lsp_contracts). Identity fields are stored normalized; empty
// string on an optional field means absent (NULL in the database).
type Contract struct {
	ContractID string `db:"contract_id"` // UUID, PRIMARY KEY
	LenderID   string `db:"lender_id"`   // UUID, FK -> lsp_lenders
	ExternalID string `db:"external_id"` // lender's own reference

	AddressStreet string `db:"address_street"` // normalized
	AddressCity   string `db:"address_city"`
	AddressState  string `db:"address_state"` // 2-letter code
	AddressZip    string `db:"address_zip"`   // normalized, first 5 digits
	APN           string `db:"apn"`           // Assessor's Parcel Number, optional
	Email         string `db:"email"`         // normalized, optional
	Phone         string `db:"phone"`         // normalized 10 digits, optional

	SignedDate    time.Time  `db:"signed_date"` // DATE
	FundedDate    *time.Time `db:"funded_date"`
	CancelledDate *time.Time `db:"cancelled_date"`

	Status    ContractStatus `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}
