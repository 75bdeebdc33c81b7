package domain

import "time"

// Customer is the domain model for callers who book appointments.
type Customer struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
