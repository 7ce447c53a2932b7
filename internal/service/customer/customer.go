// internal/service/customer/customer.go
package customer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"primefit-service/internal/domain/customer"
	"primefit-service/internal/observability"
	xerrors "primefit-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// CustomerService runs the admin form checks in front of the roster. The
// roster itself accepts anything; uniqueness and format rules live here.
type CustomerService struct {
	roster *Roster
	logger *zap.Logger
	now    func() time.Time
}

func NewCustomerService(roster *Roster, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		roster: roster,
		logger: logger,
		now:    time.Now,
	}
}

// Roster exposes the underlying store.
func (s *CustomerService) Roster() *Roster {
	return s.roster
}

// CreateCustomer validates the request and appends a new member
func (s *CustomerService) CreateCustomer(ctx context.Context, req *customer.CreateCustomerRequest) (*customer.Customer, error) {
	data := customer.NewCustomer{
		Name:           strings.TrimSpace(req.Name),
		Mobile:         strings.TrimSpace(req.Mobile),
		Password:       strings.TrimSpace(req.Password),
		MembershipType: customer.MembershipType(req.MembershipType),
		Gender:         customer.Gender(req.Gender),
		JoinDate:       strings.TrimSpace(req.JoinDate),
		IsActive:       true,
	}
	if req.IsActive != nil {
		data.IsActive = *req.IsActive
	}
	if data.JoinDate == "" {
		data.JoinDate = s.now().Format("2006-01-02")
	}

	if data.Name == "" {
		return nil, s.reject("create", fmt.Errorf("%w: name is required", xerrors.ErrInvalidInput))
	}
	if data.Password == "" {
		return nil, s.reject("create", fmt.Errorf("%w: password is required", xerrors.ErrInvalidInput))
	}
	if err := validateProfileFields(&data.Mobile, &data.MembershipType, &data.Gender, &data.JoinDate); err != nil {
		return nil, s.reject("create", err)
	}

	// Mobile numbers identify members at login
	created, err := s.roster.AddIfMobileFree(ctx, data)
	if err != nil {
		s.logger.Info("create rejected: duplicate mobile", zap.String("mobile", data.Mobile), zap.Error(err))
		return nil, s.reject("create", err)
	}
	observability.RecordMutation("create", "ok")
	return &created, nil
}

// GetCustomer retrieves a customer by id
func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := s.roster.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", id, err)
	}
	return c, nil
}

// GetCustomerByMobile retrieves the first customer with the mobile. With
// activeOnly set, inactive records are skipped.
func (s *CustomerService) GetCustomerByMobile(ctx context.Context, mobile string, activeOnly bool) (*customer.Customer, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, fmt.Errorf("%w: mobile is required", xerrors.ErrInvalidInput)
	}

	var (
		c   *customer.Customer
		err error
	)
	if activeOnly {
		c, err = s.roster.FindActiveByMobile(mobile)
	} else {
		c, err = s.roster.FindByMobile(mobile)
	}
	if err != nil {
		return nil, fmt.Errorf("mobile %s: %w", mobile, err)
	}
	return c, nil
}

// ListCustomers filters the roster
func (s *CustomerService) ListCustomers(ctx context.Context, filters *customer.CustomerListFilters) (*customer.CustomerListResponse, error) {
	f := customer.Filter{
		Search:         filters.Search,
		Gender:         customer.Gender(allToEmpty(filters.Gender)),
		MembershipType: customer.MembershipType(allToEmpty(filters.MembershipType)),
	}
	if status := allToEmpty(filters.IsActive); status != "" {
		active, err := strconv.ParseBool(status)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown status filter %q", xerrors.ErrInvalidInput, filters.IsActive)
		}
		f.IsActive = &active
	}
	if f.Gender != "" && !f.Gender.Valid() {
		return nil, fmt.Errorf("%w: unknown gender %q", xerrors.ErrInvalidInput, filters.Gender)
	}
	if f.MembershipType != "" && !f.MembershipType.Valid() {
		return nil, fmt.Errorf("%w: unknown membership type %q", xerrors.ErrInvalidInput, filters.MembershipType)
	}

	customers := s.roster.Filter(f)
	return &customer.CustomerListResponse{
		Customers: customers,
		Total:     len(customers),
	}, nil
}

func allToEmpty(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, customer.FilterAll) {
		return ""
	}
	return v
}

// UpdateCustomer validates the provided fields and merges them into the record
func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, req *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	current, err := s.roster.FindByID(id)
	if err != nil {
		return nil, s.reject("update", fmt.Errorf("customer %s: %w", id, err))
	}

	changes := customer.Changes{
		Password: trimmed(req.Password),
		JoinDate: trimmed(req.JoinDate),
		IsActive: req.IsActive,
		IsAdmin:  req.IsAdmin,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, s.reject("update", fmt.Errorf("%w: name cannot be empty", xerrors.ErrInvalidInput))
		}
		changes.Name = &name
	}
	if changes.Password != nil && *changes.Password == "" {
		return nil, s.reject("update", fmt.Errorf("%w: password cannot be empty", xerrors.ErrInvalidInput))
	}
	changes.Mobile = trimmed(req.Mobile)
	if req.MembershipType != nil {
		m := customer.MembershipType(*req.MembershipType)
		changes.MembershipType = &m
	}
	if req.Gender != nil {
		g := customer.Gender(*req.Gender)
		changes.Gender = &g
	}
	if err := validateProfileFields(changes.Mobile, changes.MembershipType, changes.Gender, changes.JoinDate); err != nil {
		return nil, s.reject("update", err)
	}

	if changes.IsAdmin != nil && *changes.IsAdmin && !current.IsAdmin {
		return nil, s.reject("update", fmt.Errorf("%w: admin rights cannot be granted", xerrors.ErrInvalidInput))
	}

	if changes.Mobile != nil && *changes.Mobile != current.Mobile {
		if other, err := s.roster.FindByMobile(*changes.Mobile); err == nil && other.ID != id {
			return nil, s.reject("update", fmt.Errorf("mobile %s: %w", *changes.Mobile, xerrors.ErrDuplicateMobile))
		}
	}

	updated, err := s.roster.Update(ctx, id, changes)
	if err != nil {
		return nil, s.reject("update", err)
	}
	observability.RecordMutation("update", "ok")
	return updated, nil
}

// ActivateCustomer marks a customer active
func (s *CustomerService) ActivateCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	active := true
	return s.UpdateCustomer(ctx, id, &customer.UpdateCustomerRequest{IsActive: &active})
}

// DeactivateCustomer marks a customer inactive. The admin cannot be deactivated.
func (s *CustomerService) DeactivateCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	active := false
	return s.UpdateCustomer(ctx, id, &customer.UpdateCustomerRequest{IsActive: &active})
}

// DeleteCustomer removes a customer
func (s *CustomerService) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.roster.Delete(ctx, id); err != nil {
		return s.reject("delete", err)
	}
	observability.RecordMutation("delete", "ok")
	return nil
}

// GetCustomerStats aggregates the whole roster
func (s *CustomerService) GetCustomerStats(ctx context.Context) customer.Stats {
	return s.roster.ComputeStats()
}

// ========== Backup & Maintenance ==========

// Export returns the backup document and its download file name
func (s *CustomerService) Export(ctx context.Context) ([]byte, string, error) {
	data, err := s.roster.ExportAll()
	if err != nil {
		s.logger.Error("failed to export roster", zap.Error(err))
		return nil, "", err
	}
	return data, customer.ExportFilename(s.now()), nil
}

// Import replaces the roster with a backup document
func (s *CustomerService) Import(ctx context.Context, data []byte) (customer.ImportResult, error) {
	result, err := s.roster.ImportAll(ctx, data)
	if err != nil {
		return result, s.reject("import", err)
	}
	observability.RecordMutation("import", "ok")
	return result, nil
}

// Reset reseeds the default roster
func (s *CustomerService) Reset(ctx context.Context) customer.Stats {
	s.roster.ResetToDefaults(ctx)
	observability.RecordMutation("reset", "ok")
	return s.roster.ComputeStats()
}

// Clear removes every non-admin record and returns how many were removed
func (s *CustomerService) Clear(ctx context.Context) int {
	removed := s.roster.ClearAllExceptAdmin(ctx)
	observability.RecordMutation("clear", "ok")
	return removed
}

// ========== Helper Methods ==========

// reject counts a failed mutation and passes err through.
func (s *CustomerService) reject(op string, err error) error {
	observability.RecordMutation(op, resultLabel(err))
	return err
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, xerrors.ErrProtectedRecord):
		return "protected"
	case errors.Is(err, xerrors.ErrDuplicateMobile):
		return "duplicate_mobile"
	case errors.Is(err, xerrors.ErrMalformedImport):
		return "malformed"
	case errors.Is(err, xerrors.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

// validateProfileFields checks the non-nil fields.
func validateProfileFields(mobile *string, membership *customer.MembershipType, gender *customer.Gender, joinDate *string) error {
	if mobile != nil && !customer.IsValidMobile(*mobile) {
		return fmt.Errorf("%w: mobile must be 10 digits starting with 6-9", xerrors.ErrInvalidInput)
	}
	if membership != nil && !membership.Valid() {
		return fmt.Errorf("%w: unknown membership type %q", xerrors.ErrInvalidInput, *membership)
	}
	if gender != nil && !gender.Valid() {
		return fmt.Errorf("%w: unknown gender %q", xerrors.ErrInvalidInput, *gender)
	}
	if joinDate != nil && !customer.IsValidJoinDate(*joinDate) {
		return fmt.Errorf("%w: join date must be YYYY-MM-DD", xerrors.ErrInvalidInput)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// CustomerName returns the member's name, or "" when the id is unknown.
func (s *CustomerService) CustomerName(id string) string {
	c, err := s.roster.FindByID(id)
	if err != nil {
		return ""
	}
	return c.Name
}
