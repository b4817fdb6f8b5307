package domain

// PaymentSetting is one key/value row of deposit instructions for a manual
// deposit method (bank wire details, crypto wallet addresses).
type PaymentSetting struct {
	ID     int64   `json:"id"`
	Method Account `json:"method"`
	Key    string  `json:"key"`
	Value  string  `json:"value"`
}
