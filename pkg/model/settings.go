package model

import "time"

// SettingsID is the id of the single app_settings row.
const SettingsID = 1

type Settings struct {
	ID            int       `json:"id" bson:"_id"`
	LogoURL       string    `json:"logo_url,omitempty" bson:"logo_url,omitempty"`
	WebhookURL    string    `json:"webhook_url,omitempty" bson:"webhook_url,omitempty" validate:"omitempty,url,max=2048"`
	WebhookFields []string  `json:"webhook_fields" bson:"webhook_fields" validate:"max=16,dive,max=64"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

type SettingsUpdate struct {
	LogoURL       *string   `json:"logo_url,omitempty" validate:"omitempty,max=2048"`
	WebhookURL    *string   `json:"webhook_url,omitempty" validate:"omitempty,max=2048"`
	WebhookFields *[]string `json:"webhook_fields,omitempty" validate:"omitempty,max=16,dive,max=64"`
}
