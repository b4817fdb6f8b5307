// Package domain provides definitions of all entities.
package domain

import "errors"

var (
	// ErrInvalidAccountPair indicates that the transfer source and destination
	// are not a valid pair of internal balance accounts.
	ErrInvalidAccountPair = errors.New("source and destination must be different balance accounts")
	// ErrInsufficientFunds indicates that the source balance cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient balance in source account")
)

// Account names a balance bucket that money moves between.
//
// Funding and Holding are the two internal balances every user owns.
// External, Bank and Crypto identify money rails outside the ledger and are
// only valid as a transaction's source account.
type Account string

// Recognized account names.
const (
	AccountFunding  Account = "funding"
	AccountHolding  Account = "holding"
	AccountExternal Account = "external"
	AccountBank     Account = "bank"
	AccountCrypto   Account = "crypto"
)

// IsInternal reports whether the account is one of the user's own balances.
func (a Account) IsInternal() bool {
	return a == AccountFunding || a == AccountHolding
}

// IsDepositMethod reports whether the account names a manual deposit rail.
func (a Account) IsDepositMethod() bool {
	return a == AccountBank || a == AccountCrypto
}

// Balances is a snapshot of a user's balance pair after a ledger operation.
type Balances struct {
	Funding string `json:"funding_balance"`
	Holding string `json:"holding_balance"`
}
