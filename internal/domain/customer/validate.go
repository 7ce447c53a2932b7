// internal/domain/customer/validate.go
package customer

import (
	"regexp"
	"strings"
	"time"
)

var mobileRegex = regexp.MustCompile(`^[6-9]\d{9}$`)

// RequiredImportFields must be present and non-empty on every imported record.
var RequiredImportFields = []string{"id", "name", "mobile", "membershipType", "gender", "joinDate"}

// IsValidMobile checks the Indian mobile format: ten digits starting 6-9.
func IsValidMobile(mobile string) bool {
	return mobileRegex.MatchString(mobile)
}

// IsValidJoinDate checks a YYYY-MM-DD calendar date.
func IsValidJoinDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// Validate returns the fields of an import candidate that are missing or
// malformed. An empty result means the candidate can be decoded into a
// Customer.
func Validate(candidate map[string]interface{}) []string {
	var problems []string
	for _, field := range RequiredImportFields {
		s, ok := candidate[field].(string)
		if !ok || strings.TrimSpace(s) == "" {
			problems = append(problems, field)
			continue
		}
		switch field {
		case "membershipType":
			if !MembershipType(s).Valid() {
				problems = append(problems, field)
			}
		case "gender":
			if !Gender(s).Valid() {
				problems = append(problems, field)
			}
		}
	}

	// Optional fields must still carry the right type when present.
	for _, field := range []string{"password"} {
		if v, present := candidate[field]; present && v != nil {
			if _, ok := v.(string); !ok {
				problems = append(problems, field)
			}
		}
	}
	for _, field := range []string{"isActive", "isAdmin"} {
		if v, present := candidate[field]; present && v != nil {
			if _, ok := v.(bool); !ok {
				problems = append(problems, field)
			}
		}
	}
	return problems
}

func matchesSearch(c Customer, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	lower := strings.ToLower(q)
	return strings.Contains(strings.ToLower(c.Name), lower) ||
		strings.Contains(c.Mobile, q) ||
		strings.Contains(strings.ToLower(c.ID), lower)
}
