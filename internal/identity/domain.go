package identity

import "time"

// User is the account read model used to identify callers. Account
// lifecycle is owned by administration tooling; this service only reads.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	IsAdmin   bool
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
