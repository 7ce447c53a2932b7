// internal/domain/customer/seed.go
package customer

// CanonicalAdmin is the admin record inserted when a roster has none.
func CanonicalAdmin() Customer {
	return Customer{
		ID:             AdminID,
		Name:           "Admin",
		Mobile:         "7975832709",
		Password:       "admin@123",
		MembershipType: MembershipVIP,
		Gender:         GenderMale,
		JoinDate:       "2024-01-01",
		IsActive:       true,
		IsAdmin:        true,
	}
}

// DefaultRoster is the seed used on first run, after a schema change and on
// reset. admin replaces the canonical admin record.
func DefaultRoster(admin Customer) []Customer {
	return []Customer{
		admin,
		{ID: "PFS001", Name: "Ravi Kumar", Mobile: "9876543210", Password: "ravi123", MembershipType: MembershipPremium, Gender: GenderMale, JoinDate: "2024-01-15", IsActive: true},
		{ID: "PFS002", Name: "Priya Sharma", Mobile: "8765432109", Password: "priya123", MembershipType: MembershipBasic, Gender: GenderFemale, JoinDate: "2024-02-20", IsActive: true},
		{ID: "PFS003", Name: "Arjun Reddy", Mobile: "7654321098", Password: "arjun123", MembershipType: MembershipVIP, Gender: GenderMale, JoinDate: "2024-03-10", IsActive: true},
		{ID: "PFS004", Name: "Sneha Patel", Mobile: "6543210987", Password: "sneha123", MembershipType: MembershipPremium, Gender: GenderFemale, JoinDate: "2024-01-25", IsActive: true},
		{ID: "PFS005", Name: "Vikram Singh", Mobile: "9432109876", Password: "vikram123", MembershipType: MembershipBasic, Gender: GenderMale, JoinDate: "2024-04-05", IsActive: true},
	}
}
