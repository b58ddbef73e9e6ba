package models

import "time"

// RecordTTL bounds how long a verification outcome stays valid. Expiry is
// checked lazily on every read; nothing sweeps expired records proactively.
const RecordTTL = 24 * time.Hour

// Record is the stored outcome of one completed verification attempt. The
// broker exclusively owns records, keyed by a randomly generated opaque id
// that carries no semantic information.
type Record struct {
	Verified      bool      `json:"verified"`
	Age           int       `json:"age"`
	CreatedAt     time.Time `json:"created_at"`
	CustomerID    string    `json:"customer_id,omitempty"`
	CheckoutToken string    `json:"checkout_token,omitempty"`
}

// HasCorrelation reports whether at least one correlation identifier is
// present. Records without any cannot be tied back to a checkout.
func (r Record) HasCorrelation() bool {
	return r.CustomerID != "" || r.CheckoutToken != ""
}

// ExpiresAt returns the instant the record stops being valid.
func (r Record) ExpiresAt() time.Time {
	return r.CreatedAt.Add(RecordTTL)
}

// Expired reports whether the record's TTL has elapsed as of now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt())
}

// StartRequest is the body of POST /api/verify/start.
type StartRequest struct {
	CustomerID    string `json:"customerId,omitempty"`
	CheckoutToken string `json:"checkoutToken,omitempty"`
	ReturnURL     string `json:"returnUrl,omitempty"`
}

// StartResponse carries the identity-provider authorization URL.
type StartResponse struct {
	AuthURL string `json:"authUrl"`
}

// CheckRequest is the body of POST /api/verify/check. VerificationID holds
// the client-held token issued at callback time (or a raw record id).
type CheckRequest struct {
	VerificationID string `json:"verificationId"`
}

// CheckResponse never reports an error for unknown or expired ids; "never
// verified" and "expired" are indistinguishable to the caller.
type CheckResponse struct {
	Verified bool `json:"verified"`
	Age      int  `json:"age,omitempty"`
}
