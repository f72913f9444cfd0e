package model

import "time"

const (
	EventUserRegistered      = "user.registered"
	EventUserLoggedIn        = "user.logged_in"
	EventUserLoggedOut       = "user.logged_out"
	EventUserPasswordChanged = "user.password_changed"
)

// AccountEvent - Kafka로 발행되는 계정 이벤트
type AccountEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
