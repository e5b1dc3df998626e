// Package notify delivers applicant and staff notifications. Delivery is
// best effort and happens off the request path; a failed send never fails
// the workflow operation that triggered it, but every attempt is recorded.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Message is one notification to deliver.
type Message struct {
	ApplicationID uuid.UUID
	Channel       Channel
	Recipient     string
	Template      string
	Subject       string
	Body          string
}

// Delivery outcomes recorded in the notification log.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// LogEntry is one recorded delivery attempt.
type LogEntry struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	Channel       Channel
	Recipient     string
	Template      string
	Subject       string
	Outcome       string
	Error         string
	CreatedAt     time.Time
}
