package validators

import "go.mongodb.org/mongo-driver/bson"

var EmployeeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"full_name", "email", "role", "account_status"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":       bson.M{"bsonType": "string"},
			"full_name": bson.M{"bsonType": "string", "minLength": 1},
			"email":     bson.M{"bsonType": "string"},
			"phone":     bson.M{"bsonType": "string"},
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"employee", "receptionist", "admin"},
			},
			"account_status": bson.M{
				"bsonType": "string",
				"enum":     []string{"active", "blocked", "paused"},
			},
		},
	},
}

var HostLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"owner", "expires_at", "created_at"},

		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var SettingsValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",

		"properties": bson.M{
			"_id":         bson.M{"bsonType": []string{"int", "long"}},
			"logo_url":    bson.M{"bsonType": "string"},
			"webhook_url": bson.M{"bsonType": "string"},
			"webhook_fields": bson.M{
				"bsonType": "array",
				"maxItems": 16,
				"items":    bson.M{"bsonType": "string"},
			},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
