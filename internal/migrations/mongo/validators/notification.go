package validators

import "go.mongodb.org/mongo-driver/bson"

var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"recipient_id",
			"type",
			"title",
			"content",
			"read",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"recipient_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"appointment",
					"message",
					"system",
				},
			},

			"title": bson.M{
				"bsonType": "string",
			},

			"content": bson.M{
				"bsonType": "string",
			},

			"related_id": bson.M{
				"bsonType": "string",
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
