// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// MustGetCustomerID gets the customer ID from context or panics
func MustGetCustomerID(c *gin.Context) string {
	id, exists := GetCustomerID(c)
	if !exists {
		panic("customer_id not found in context")
	}
	return id
}

// MustGetJTI gets JTI from context or panics
func MustGetJTI(c *gin.Context) string {
	jti, exists := GetJTI(c)
	if !exists {
		panic("jti not found in context")
	}
	return jti
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ctxCustomerID)
	return exists
}

// IsAdmin checks if the caller holds the admin record
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}
