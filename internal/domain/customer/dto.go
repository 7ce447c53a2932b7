// internal/domain/customer/dto.go
package customer

type CreateCustomerRequest struct {
	Name           string `json:"name" binding:"required,max=255"`
	Mobile         string `json:"mobile" binding:"required,len=10"`
	Password       string `json:"password" binding:"required"`
	MembershipType string `json:"membershipType" binding:"required"`
	Gender         string `json:"gender" binding:"required"`
	JoinDate       string `json:"joinDate"`
	IsActive       *bool  `json:"isActive"`
}

type UpdateCustomerRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=255"`
	Mobile         *string `json:"mobile" binding:"omitempty,len=10"`
	Password       *string `json:"password"`
	MembershipType *string `json:"membershipType"`
	Gender         *string `json:"gender"`
	JoinDate       *string `json:"joinDate"`
	IsActive       *bool   `json:"isActive"`
	IsAdmin        *bool   `json:"isAdmin"`
}

type CustomerListFilters struct {
	Search         string `form:"search"` // name, mobile or id
	Gender         string `form:"gender"`
	MembershipType string `form:"membership_type"`
	IsActive       string `form:"is_active"`
}

// FilterAll is the list filter value that disables a criterion.
const FilterAll = "All"

type CustomerListResponse struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
}
