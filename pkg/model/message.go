package model

import "time"

type Message struct {
	ID          string    `json:"id" bson:"_id"`
	SenderID    string    `json:"sender_id" bson:"sender_id"`
	RecipientID string    `json:"recipient_id" bson:"recipient_id" validate:"required,max=64"`
	Content     string    `json:"content" bson:"content" validate:"required,min=1,max=4000"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Read        bool      `json:"read" bson:"read"`
}

// Between reports whether m belongs to the conversation of a and b, in either direction.
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}
