package domain

import "time"

// Verdict is the fraud determination for one customer.
type Verdict struct {
	CustomerID  string
	IsFraudster bool
}

// FraudCheckHistory records a single verification performed by the fraud service.
type FraudCheckHistory struct {
	ID          string
	CustomerID  string
	IsFraudster bool
	CreatedAt   time.Time
}
