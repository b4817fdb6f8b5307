// Package paymentgateway integrates the card payment processor.
package paymentgateway

import "context"

// Intent is the processor's authoritative record of one payment event.
// Amount is in minor units (cents); Metadata carries the user id the
// intent was created for.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

// StatusSucceeded is the only intent status that releases a credit.
const StatusSucceeded = "succeeded"

// MetadataUserIDKey is the metadata key holding the owning user id.
const MetadataUserIDKey = "user_id"

// Gateway provides the processor calls needed by the payment service.
//
//go:generate mockgen -source gateway.go -destination gateway_mock.go -package paymentgateway
type Gateway interface {
	// CreateIntent registers a payment of amount minor units for the given
	// user and returns the intent carrying the client secret.
	CreateIntent(ctx context.Context, amount int64, currency string, userID int64) (Intent, error)

	// RetrieveIntent fetches the processor's current record of the intent.
	RetrieveIntent(ctx context.Context, id string) (Intent, error)
}
