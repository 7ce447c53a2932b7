// internal/domain/customer/entity.go
package customer

import "time"

// SchemaVersion is the persisted roster format version. A stored roster
// carrying any other version is discarded and reseeded.
const SchemaVersion = "1.1"

// DefaultKeyPrefix namespaces the roster storage keys.
const DefaultKeyPrefix = "primefit_"

// AdminID is the id of the seeded admin record.
const AdminID = "ADMIN001"

// IDPrefix prefixes every generated customer id.
const IDPrefix = "PFS"

type MembershipType string

const (
	MembershipBasic   MembershipType = "Basic"
	MembershipPremium MembershipType = "Premium"
	MembershipVIP     MembershipType = "VIP"
)

// MembershipTypes lists the membership tiers in display order.
var MembershipTypes = []MembershipType{MembershipBasic, MembershipPremium, MembershipVIP}

func (m MembershipType) Valid() bool {
	switch m {
	case MembershipBasic, MembershipPremium, MembershipVIP:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Customer is one gym member or the admin. The JSON shape is the persisted
// and exported format.
type Customer struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Mobile         string         `json:"mobile"`
	Password       string         `json:"password"`
	MembershipType MembershipType `json:"membershipType"`
	Gender         Gender         `json:"gender"`
	JoinDate       string         `json:"joinDate"`
	IsActive       bool           `json:"isActive"`
	IsAdmin        bool           `json:"isAdmin,omitempty"`
}

// Profile returns the customer without the password.
func (c Customer) Profile() Profile {
	return Profile{
		ID:             c.ID,
		Name:           c.Name,
		Mobile:         c.Mobile,
		MembershipType: c.MembershipType,
		Gender:         c.Gender,
		JoinDate:       c.JoinDate,
		IsActive:       c.IsActive,
		IsAdmin:        c.IsAdmin,
	}
}

// Profile is the customer view handed to the member itself after login.
type Profile struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Mobile         string         `json:"mobile"`
	MembershipType MembershipType `json:"membershipType"`
	Gender         Gender         `json:"gender"`
	JoinDate       string         `json:"joinDate"`
	IsActive       bool           `json:"isActive"`
	IsAdmin        bool           `json:"isAdmin"`
}

// NewCustomer carries every Customer field except the generated id. Admin
// rights cannot be granted through it.
type NewCustomer struct {
	Name           string
	Mobile         string
	Password       string
	MembershipType MembershipType
	Gender         Gender
	JoinDate       string
	IsActive       bool
}

// Changes is a partial update. Nil fields keep their current value.
type Changes struct {
	Name           *string
	Mobile         *string
	Password       *string
	MembershipType *MembershipType
	Gender         *Gender
	JoinDate       *string
	IsActive       *bool
	IsAdmin        *bool
}

// Apply shallow-merges the changes over c and returns the result.
func (ch Changes) Apply(c Customer) Customer {
	if ch.Name != nil {
		c.Name = *ch.Name
	}
	if ch.Mobile != nil {
		c.Mobile = *ch.Mobile
	}
	if ch.Password != nil {
		c.Password = *ch.Password
	}
	if ch.MembershipType != nil {
		c.MembershipType = *ch.MembershipType
	}
	if ch.Gender != nil {
		c.Gender = *ch.Gender
	}
	if ch.JoinDate != nil {
		c.JoinDate = *ch.JoinDate
	}
	if ch.IsActive != nil {
		c.IsActive = *ch.IsActive
	}
	if ch.IsAdmin != nil {
		c.IsAdmin = *ch.IsAdmin
	}
	return c
}

// Filter selects customers. Zero-valued fields are ignored; every set field
// must match.
type Filter struct {
	// Search matches name or id case-insensitively, or mobile as a substring.
	Search         string
	Gender         Gender
	MembershipType MembershipType
	IsActive       *bool
}

// Matches reports whether c satisfies every set criterion.
func (f Filter) Matches(c Customer) bool {
	if f.Search != "" && !matchesSearch(c, f.Search) {
		return false
	}
	if f.Gender != "" && c.Gender != f.Gender {
		return false
	}
	if f.MembershipType != "" && c.MembershipType != f.MembershipType {
		return false
	}
	if f.IsActive != nil && c.IsActive != *f.IsActive {
		return false
	}
	return true
}

// Stats aggregates the whole roster. Breakdowns count every record,
// active or not.
type Stats struct {
	Total               int                    `json:"total"`
	Active              int                    `json:"active"`
	Inactive            int                    `json:"inactive"`
	MembershipBreakdown map[MembershipType]int `json:"membershipBreakdown"`
	GenderBreakdown     map[Gender]int         `json:"genderBreakdown"`
}

// ExportDocument is the backup file format.
type ExportDocument struct {
	Version   string     `json:"version"`
	Timestamp time.Time  `json:"timestamp"`
	Customers []Customer `json:"customers"`
	Stats     Stats      `json:"stats"`
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// ExportFilename is the download name for a backup taken at t.
func ExportFilename(t time.Time) string {
	return "gym-customers-" + t.Format("2006-01-02") + ".json"
}
