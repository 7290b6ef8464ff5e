package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Regions tried, in order, for numbers written without a country code.
var phoneRegions = []string{"BR", "PT"}

// NormalizePhone formats phone as E.164. A number no region can parse is
// returned trimmed but otherwise untouched.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range phoneRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return phone
}
