package validators

import "go.mongodb.org/mongo-driver/bson"

var MessageValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"sender_id",
			"recipient_id",
			"content",
			"read",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"sender_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"recipient_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"content": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 4000,
			},
			"read": bson.M{
				"bsonType": "bool",
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
