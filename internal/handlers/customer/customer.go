// internal/handlers/customer/customer.go
package customer

import (
	"net/http"
	"strconv"

	"primefit-service/internal/domain/customer"
	"primefit-service/internal/pkg/response"
	service "primefit-service/internal/service/customer"

	"github.com/gin-gonic/gin"
)

// maxImportSize bounds an uploaded backup document.
const maxImportSize = 8 << 20

type CustomerHandler struct {
	customerService *service.CustomerService
}

func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// ========== Admin Endpoints ==========

// CreateCustomer creates a new customer
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create customer", err)
		return
	}

	response.Success(c, http.StatusCreated, "customer created successfully", result)
}

// GetCustomer retrieves a customer by ID
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	result, err := h.customerService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, "customer not found", err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", result)
}

// GetCustomerByMobile retrieves a customer by mobile number
func (h *CustomerHandler) GetCustomerByMobile(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.ValidationError(c, "invalid active_only flag", err)
			return
		}
		activeOnly = parsed
	}

	result, err := h.customerService.GetCustomerByMobile(c.Request.Context(), c.Query("mobile"), activeOnly)
	if err != nil {
		response.FromError(c, "customer not found", err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", result)
}

// ListCustomers retrieves customers with filters
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var filters customer.CustomerListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list customers", err)
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", result)
}

// UpdateCustomer updates a customer
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req customer.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.customerService.UpdateCustomer(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to update customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer updated successfully", result)
}

// ActivateCustomer activates a customer
func (h *CustomerHandler) ActivateCustomer(c *gin.Context) {
	result, err := h.customerService.ActivateCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to activate customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer activated successfully", result)
}

// DeactivateCustomer deactivates a customer
func (h *CustomerHandler) DeactivateCustomer(c *gin.Context) {
	result, err := h.customerService.DeactivateCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, "failed to deactivate customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer deactivated successfully", result)
}

// DeleteCustomer deletes a customer
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customerService.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, "failed to delete customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer deleted successfully", nil)
}

// GetCustomerStats retrieves roster statistics
func (h *CustomerHandler) GetCustomerStats(c *gin.Context) {
	stats := h.customerService.GetCustomerStats(c.Request.Context())
	response.Success(c, http.StatusOK, "customer stats retrieved", stats)
}

// ========== Backup & Maintenance ==========

// ExportCustomers downloads the backup document
func (h *CustomerHandler) ExportCustomers(c *gin.Context) {
	data, filename, err := h.customerService.Export(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to export customers", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// ImportCustomers replaces the roster with the uploaded backup document
func (h *CustomerHandler) ImportCustomers(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
	data, err := c.GetRawData()
	if err != nil {
		response.ValidationError(c, "failed to read import file", err)
		return
	}

	result, err := h.customerService.Import(c.Request.Context(), data)
	if err != nil {
		response.FromError(c, "import failed", err, result)
		return
	}

	response.Success(c, http.StatusOK, result.Message, result)
}

// ResetCustomers restores the default roster
func (h *CustomerHandler) ResetCustomers(c *gin.Context) {
	stats := h.customerService.Reset(c.Request.Context())
	response.Success(c, http.StatusOK, "roster reset to defaults", stats)
}

// ClearCustomers removes every customer except the admin
func (h *CustomerHandler) ClearCustomers(c *gin.Context) {
	removed := h.customerService.Clear(c.Request.Context())
	response.Success(c, http.StatusOK, "all customers cleared except admin", gin.H{"removed": removed})
}

// Health reports liveness and whether the roster fell back to memory only
func (h *CustomerHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"degraded": h.customerService.Roster().Degraded(),
	})
}
