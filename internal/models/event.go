package models

import "time"

// LinkPlaceholder is the literal token authors may embed in an event
// description. It is replaced with the event's permalink once the id is
// assigned; a stored description never contains it after creation completes.
const LinkPlaceholder = "{@link}"

// Event represents a published announcement stored in the events table.
type Event struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Description    string     `db:"description" json:"description"`
	EventTime      time.Time  `db:"event_time" json:"eventTime"`
	FinishTime     *time.Time `db:"finish_time" json:"finishTime,omitempty"`
	MaxPoints      float64    `db:"max_points" json:"maxPoints"`
	MaxHours       float64    `db:"max_hours" json:"maxHours"`
	Limit          *int       `db:"member_limit" json:"limit,omitempty"`
	Address        string     `db:"address" json:"address"`
	ImageURL       *string    `db:"image_url" json:"imageURL,omitempty"`
	ServiceLetters *string    `db:"service_letters" json:"serviceLetters,omitempty"`
	MessageID      *string    `db:"message_id" json:"messageID,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// EventPreview is the stripped listing shape: no address or description,
// with the attendance form count attached.
type EventPreview struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	EventTime      time.Time  `json:"eventTime"`
	FinishTime     *time.Time `json:"finishTime,omitempty"`
	MaxPoints      float64    `json:"maxPoints"`
	MaxHours       float64    `json:"maxHours"`
	Limit          *int       `json:"limit,omitempty"`
	ImageURL       *string    `json:"imageURL,omitempty"`
	ServiceLetters *string    `json:"serviceLetters,omitempty"`
	MessageID      *string    `json:"messageID,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	FormCount      int        `json:"formCount"`
}

// Preview strips the full record down to its listing shape.
func (e Event) Preview(formCount int) EventPreview {
	return EventPreview{
		ID:             e.ID,
		Name:           e.Name,
		EventTime:      e.EventTime,
		FinishTime:     e.FinishTime,
		MaxPoints:      e.MaxPoints,
		MaxHours:       e.MaxHours,
		Limit:          e.Limit,
		ImageURL:       e.ImageURL,
		ServiceLetters: e.ServiceLetters,
		MessageID:      e.MessageID,
		CreatedAt:      e.CreatedAt,
		FormCount:      formCount,
	}
}
