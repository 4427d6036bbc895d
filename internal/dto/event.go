package dto

import "time"

// CreateEventRequest is the payload accepted by the event publication
// endpoint. Numeric fields are pointers so that "missing" and "zero" are
// distinguishable: zero points or hours is a legal value.
type CreateEventRequest struct {
	Name           string     `json:"name" validate:"required,max=190"`
	Description    string     `json:"description" validate:"required,max=4000"`
	EventTime      time.Time  `json:"eventTime" validate:"required"`
	FinishTime     *time.Time `json:"finishTime"`
	MaxPoints      *float64   `json:"maxPoints" validate:"required,min=0"`
	MaxHours       *float64   `json:"maxHours" validate:"required,min=0"`
	Limit          *int       `json:"limit" validate:"omitempty,min=0"`
	Address        string     `json:"address" validate:"required,max=1000"`
	ImageURL       *string    `json:"imageURL" validate:"omitempty,url"`
	ServiceLetters *string    `json:"serviceLetters" validate:"omitempty,url,driveurl"`
}
