package booking

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// CodeInvalidPhone is returned by NormalizePhone.
const CodeInvalidPhone = "INVALID_PHONE"

// DefaultPhoneRegion is used for numbers given without a country code.
const DefaultPhoneRegion = "US"

// NormalizePhone parses raw as a phone number of region (ISO 3166 alpha-2)
// unless it carries its own +country prefix, and returns it in E.164 form.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", invalid(CodeInvalidPhone, "phone", "phone %q is not a valid phone number", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
