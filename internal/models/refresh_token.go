package models

import "time"

// RefreshToken is a persisted session. ID is the bearer value handed to the client.
type RefreshToken struct {
	ID        string
	UserID    string
	Role      Role // Role at issuance time
	CreatedAt time.Time
}
