package domain

import "time"

// NotificationEvent is the welcome message handed to the broker after a favorable verdict.
type NotificationEvent struct {
	CustomerID string `json:"toCustomerId"`
	Email      string `json:"toCustomerEmail"`
	Message    string `json:"message"`
}

// Notification is a delivered NotificationEvent as stored by the notification service.
type Notification struct {
	ID              string
	ToCustomerID    string
	ToCustomerEmail string
	Sender          string
	Message         string
	SentAt          time.Time
}
