package models

import "time"

// UserPosition represents a member's standing in the club.
type UserPosition string

const (
	PositionMember UserPosition = "MEMBER"
	PositionExec   UserPosition = "EXEC"
	PositionAdmin  UserPosition = "ADMIN"
)

// CanPublish reports whether the position may publish events.
func (p UserPosition) CanPublish() bool {
	return p == PositionExec || p == PositionAdmin
}

// User represents an application user stored in the users table.
// This service only reads users; registration and profile editing live
// elsewhere.
type User struct {
	ID            string       `db:"id" json:"id"`
	Email         string       `db:"email" json:"email"`
	Position      UserPosition `db:"position" json:"position"`
	PreferredName string       `db:"preferred_name" json:"preferred_name"`
	SelfieURL     *string      `db:"selfie_url" json:"selfie_url,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// Publisher is the display identity attached to outgoing announcements.
type Publisher struct {
	PreferredName string
	AvatarURL     string
}
