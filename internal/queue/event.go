// Package queue defines message payloads exchanged over the message broker.
package queue

// OTPEmailEvent is published when a login challenge has been issued and
// needs out-of-band delivery.  It contains everything the mail consumer
// needs to compose the message without querying the primary database.
// The code travels only through the broker and the mail; it is never part
// of any HTTP response.
type OTPEmailEvent struct {
	Email        string `json:"email"`
	Code         string `json:"code"`
	ExpiresInMin int    `json:"expires_in_min"`
	RequestedAt  string `json:"requested_at"`
}
