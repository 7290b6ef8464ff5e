package model

import "time"

const (
	NotificationAppointment = "appointment"
	NotificationMessage     = "message"
	NotificationSystem      = "system"
)

type Notification struct {
	ID          string    `json:"id" bson:"_id"`
	RecipientID string    `json:"recipient_id" bson:"recipient_id"`
	Type        string    `json:"type" bson:"type"`
	Title       string    `json:"title" bson:"title"`
	Content     string    `json:"content" bson:"content"`
	RelatedID   string    `json:"related_id,omitempty" bson:"related_id,omitempty"`
	Read        bool      `json:"read" bson:"read"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
