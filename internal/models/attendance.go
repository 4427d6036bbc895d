package models

// Attendance links a member to an event they submitted the credit form for.
// The publication pipeline never writes this table; it is aggregated for
// listing previews only.
type Attendance struct {
	EventID     string  `db:"event_id" json:"event_id"`
	UserEmail   string  `db:"user_email" json:"user_email"`
	EarnedHours float64 `db:"earned_hours" json:"earned_hours"`
}
