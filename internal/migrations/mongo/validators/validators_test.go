package validators

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestValidators_RequiredFieldsAreDeclared(t *testing.T) {
	tests := map[string]bson.M{
		"appointment":  AppointmentValidator,
		"notification": NotificationValidator,
		"message":      MessageValidator,
		"employee":     EmployeeValidator,
		"host_lock":    HostLockValidator,
		"settings":     SettingsValidator,
	}

	for name, validator := range tests {
		t.Run(name, func(t *testing.T) {
			schema := validator["$jsonSchema"].(bson.M)
			props := schema["properties"].(bson.M)
			required, _ := schema["required"].([]string)
			for _, field := range required {
				if _, ok := props[field]; !ok {
					t.Errorf("required field %q has no property schema", field)
				}
			}
		})
	}
}
