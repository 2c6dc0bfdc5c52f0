package domain

import "time"

// SubjectType differentiates who acted on a ticket or holds an ops token.
type SubjectType string

const (
	SubjectTypeUser   SubjectType = "USER"
	SubjectTypeStaff  SubjectType = "STAFF"
	SubjectTypeSystem SubjectType = "SYSTEM"
)

// Token describes an issued ops API token.
type Token struct {
	Value     string
	Subject   SubjectType
	ExpiresAt time.Time
}
