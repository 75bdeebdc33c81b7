package domain

import "time"

// SubjectType differentiates dashboard operators from the upstream voice
// platform calling the webhook surface.
type SubjectType string

const (
	SubjectTypeOperator SubjectType = "OPERATOR"
	SubjectTypeService  SubjectType = "SERVICE"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	ExpiresAt time.Time
	IssuedAt  time.Time
}
