package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"host_id",
			"created_by",
			"title",
			"type",
			"start_time",
			"end_time",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"host_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"created_by": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"internal",
					"external",
					"personal",
				},
			},

			"guest_name": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"started_notified_at": bson.M{"bsonType": "date"},
			"ended_notified_at":   bson.M{"bsonType": "date"},
			"reminded_at":         bson.M{"bsonType": "date"},
		},
	},
}
