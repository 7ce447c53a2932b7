// internal/service/customer/roster.go
package customer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"primefit-service/internal/domain/customer"
	xerrors "primefit-service/internal/pkg/errors"

	"go.uber.org/zap"
)

const storageTimeout = 5 * time.Second

// ChangeOp names a roster mutation.
type ChangeOp string

const (
	OpAdd    ChangeOp = "add"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
	OpImport ChangeOp = "import"
	OpReset  ChangeOp = "reset"
	OpClear  ChangeOp = "clear"
	OpReload ChangeOp = "reload"
)

// ChangeEvent is delivered to listeners after every successful mutation.
type ChangeEvent struct {
	Op         ChangeOp `json:"op"`
	CustomerID string   `json:"customer_id,omitempty"`
	Total      int      `json:"total"`
	Active     int      `json:"active"`
}

// Listener observes roster changes. Listeners run synchronously after the
// roster lock is released.
type Listener func(ChangeEvent)

// RosterConfig configures a Roster.
type RosterConfig struct {
	// KeyPrefix namespaces the storage keys.
	KeyPrefix string
	// Admin replaces the canonical admin record. A zero value uses
	// customer.CanonicalAdmin().
	Admin customer.Customer
}

// Roster owns the authoritative in-memory list of customers and keeps the
// storage mirror in sync. A single mutex serializes every operation.
type Roster struct {
	mu         sync.RWMutex
	storage    customer.Storage
	logger     *zap.Logger
	admin      customer.Customer
	dataKey    string
	versionKey string
	customers  []customer.Customer
	loaded     bool
	degraded   bool

	listenersMu sync.RWMutex
	listeners   []Listener

	now func() time.Time
}

// NewRoster builds a roster over storage. A nil storage runs purely in
// memory. Nothing is loaded until Initialize or the first operation.
func NewRoster(storage customer.Storage, logger *zap.Logger, cfg RosterConfig) *Roster {
	if logger == nil {
		logger = zap.NewNop()
	}
	admin := cfg.Admin
	if admin.ID == "" {
		admin = customer.CanonicalAdmin()
	}
	admin.IsAdmin = true
	admin.IsActive = true

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = customer.DefaultKeyPrefix
	}

	return &Roster{
		storage:    storage,
		logger:     logger,
		admin:      admin,
		dataKey:    prefix + "customers",
		versionKey: prefix + "customers_version",
		degraded:   storage == nil,
		now:        time.Now,
	}
}

// Subscribe registers a change listener.
func (r *Roster) Subscribe(l Listener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Initialize (re)loads the roster from storage, seeding defaults when the
// stored data is absent, unreadable or from another schema version, and
// repairs the admin invariant. It never fails; storage errors are logged and
// the roster continues in memory.
func (r *Roster) Initialize(ctx context.Context) {
	r.mu.Lock()
	r.load(ctx)
	ev := r.eventLocked(OpReload, "")
	r.mu.Unlock()

	r.notify(ev)
}

// Degraded reports whether the roster has fallen back to memory-only mode.
func (r *Roster) Degraded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.degraded
}

// ========== Queries ==========

// FindByMobile returns the first customer, active or not, with the mobile.
func (r *Roster) FindByMobile(mobile string) (*customer.Customer, error) {
	return r.findFirst(func(c customer.Customer) bool {
		return c.Mobile == mobile
	})
}

// FindActiveByMobile returns the first active customer with the mobile.
func (r *Roster) FindActiveByMobile(mobile string) (*customer.Customer, error) {
	return r.findFirst(func(c customer.Customer) bool {
		return c.Mobile == mobile && c.IsActive
	})
}

// FindByID returns the customer with the id.
func (r *Roster) FindByID(id string) (*customer.Customer, error) {
	return r.findFirst(func(c customer.Customer) bool {
		return c.ID == id
	})
}

// GetAll returns a copy of the roster in insertion order.
func (r *Roster) GetAll() []customer.Customer {
	r.ensureLoaded(context.Background())

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]customer.Customer, len(r.customers))
	copy(out, r.customers)
	return out
}

// Filter returns the customers matching every set criterion, in order.
func (r *Roster) Filter(f customer.Filter) []customer.Customer {
	r.ensureLoaded(context.Background())

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]customer.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// ComputeStats aggregates the current roster.
func (r *Roster) ComputeStats() customer.Stats {
	r.ensureLoaded(context.Background())

	r.mu.RLock()
	defer r.mu.RUnlock()
	return computeStats(r.customers)
}

// ========== Mutations ==========

// Add appends a customer under the next sequential PFS id. It performs no
// validation.
func (r *Roster) Add(ctx context.Context, data customer.NewCustomer) customer.Customer {
	r.ensureLoaded(ctx)

	r.mu.Lock()
	created, ev := r.addLocked(ctx, data)
	r.mu.Unlock()

	r.afterAdd(created, ev)
	return created
}

// AddIfMobileFree behaves like Add but fails with ErrDuplicateMobile when any
// record, active or not, already holds the mobile. The check and the append
// happen under one lock.
func (r *Roster) AddIfMobileFree(ctx context.Context, data customer.NewCustomer) (customer.Customer, error) {
	r.ensureLoaded(ctx)

	r.mu.Lock()
	for _, c := range r.customers {
		if c.Mobile == data.Mobile {
			r.mu.Unlock()
			return customer.Customer{}, fmt.Errorf("mobile %s held by %s: %w", data.Mobile, c.ID, xerrors.ErrDuplicateMobile)
		}
	}
	created, ev := r.addLocked(ctx, data)
	r.mu.Unlock()

	r.afterAdd(created, ev)
	return created, nil
}

func (r *Roster) addLocked(ctx context.Context, data customer.NewCustomer) (customer.Customer, ChangeEvent) {
	created := customer.Customer{
		ID:             nextID(r.customers),
		Name:           data.Name,
		Mobile:         data.Mobile,
		Password:       data.Password,
		MembershipType: data.MembershipType,
		Gender:         data.Gender,
		JoinDate:       data.JoinDate,
		IsActive:       data.IsActive,
	}
	r.customers = append(r.customers, created)
	r.persist(ctx)
	return created, r.eventLocked(OpAdd, created.ID)
}

func (r *Roster) afterAdd(created customer.Customer, ev ChangeEvent) {
	r.logger.Info("customer added",
		zap.String("customer_id", created.ID),
		zap.String("name", created.Name),
	)
	r.notify(ev)
}

// Update shallow-merges changes into the customer with id. Stripping admin
// rights from, or deactivating, an admin record fails with
// ErrProtectedRecord and leaves the roster untouched.
func (r *Roster) Update(ctx context.Context, id string, changes customer.Changes) (*customer.Customer, error) {
	r.ensureLoaded(ctx)

	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		r.logger.Info("update rejected: customer not found", zap.String("customer_id", id))
		return nil, fmt.Errorf("customer %s: %w", id, xerrors.ErrNotFound)
	}

	current := r.customers[idx]
	if current.IsAdmin {
		if changes.IsAdmin != nil && !*changes.IsAdmin {
			r.mu.Unlock()
			r.logger.Warn("protected record: refusing to strip admin rights", zap.String("customer_id", id))
			return nil, fmt.Errorf("customer %s: cannot remove admin rights: %w", id, xerrors.ErrProtectedRecord)
		}
		if changes.IsActive != nil && !*changes.IsActive {
			r.mu.Unlock()
			r.logger.Warn("protected record: refusing to deactivate admin", zap.String("customer_id", id))
			return nil, fmt.Errorf("customer %s: cannot deactivate admin: %w", id, xerrors.ErrProtectedRecord)
		}
	}

	updated := changes.Apply(current)
	updated.ID = current.ID
	r.customers[idx] = updated
	r.persist(ctx)
	ev := r.eventLocked(OpUpdate, id)
	r.mu.Unlock()

	r.logger.Info("customer updated",
		zap.String("customer_id", updated.ID),
		zap.String("name", updated.Name),
	)
	r.notify(ev)
	return &updated, nil
}

// Delete removes the customer with id. Admin records cannot be deleted.
func (r *Roster) Delete(ctx context.Context, id string) error {
	r.ensureLoaded(ctx)

	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		r.logger.Info("delete rejected: customer not found", zap.String("customer_id", id))
		return fmt.Errorf("customer %s: %w", id, xerrors.ErrNotFound)
	}
	target := r.customers[idx]
	if target.IsAdmin {
		r.mu.Unlock()
		r.logger.Warn("protected record: refusing to delete admin", zap.String("customer_id", id))
		return fmt.Errorf("customer %s: %w", id, xerrors.ErrProtectedRecord)
	}

	r.customers = append(r.customers[:idx:idx], r.customers[idx+1:]...)
	r.persist(ctx)
	ev := r.eventLocked(OpDelete, id)
	r.mu.Unlock()

	r.logger.Info("customer deleted",
		zap.String("customer_id", target.ID),
		zap.String("name", target.Name),
	)
	r.notify(ev)
	return nil
}

// ResetToDefaults discards the roster and reseeds the defaults.
func (r *Roster) ResetToDefaults(ctx context.Context) {
	r.mu.Lock()
	r.customers = customer.DefaultRoster(r.admin)
	r.loaded = true
	r.persist(ctx)
	ev := r.eventLocked(OpReset, "")
	r.mu.Unlock()

	r.logger.Info("roster reset to defaults", zap.Int("total", ev.Total))
	r.notify(ev)
}

// ClearAllExceptAdmin removes every record that is not an admin.
func (r *Roster) ClearAllExceptAdmin(ctx context.Context) int {
	r.ensureLoaded(ctx)

	r.mu.Lock()
	kept := make([]customer.Customer, 0, 1)
	for _, c := range r.customers {
		if c.IsAdmin {
			kept = append(kept, c)
		}
	}
	removed := len(r.customers) - len(kept)
	r.customers = kept
	r.persist(ctx)
	ev := r.eventLocked(OpClear, "")
	r.mu.Unlock()

	r.logger.Info("roster cleared except admin", zap.Int("removed", removed))
	r.notify(ev)
	return removed
}

// ========== Export / Import ==========

// ExportAll serializes the roster and its stats as an indented JSON backup.
func (r *Roster) ExportAll() ([]byte, error) {
	r.ensureLoaded(context.Background())

	r.mu.RLock()
	doc := customer.ExportDocument{
		Version:   customer.SchemaVersion,
		Timestamp: r.now().UTC(),
		Customers: make([]customer.Customer, len(r.customers)),
		Stats:     computeStats(r.customers),
	}
	copy(doc.Customers, r.customers)
	r.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster export: %w", err)
	}
	return data, nil
}

// ImportAll replaces the roster with the customers of an export document.
// Any invalid element rejects the whole payload and the roster is unchanged.
// After a successful import the admin invariant is repaired.
func (r *Roster) ImportAll(ctx context.Context, data []byte) (customer.ImportResult, error) {
	imported, err := decodeImport(data)
	if err != nil {
		r.logger.Warn("import rejected", zap.Error(err))
		return customer.ImportResult{Success: false, Message: err.Error()}, err
	}

	r.ensureLoaded(ctx)

	r.mu.Lock()
	r.customers = imported
	r.loaded = true
	repaired := r.repairAdminLocked()
	r.persist(ctx)
	ev := r.eventLocked(OpImport, "")
	r.mu.Unlock()

	if repaired {
		r.logger.Warn("imported roster had no admin record, canonical admin restored")
	}
	r.logger.Info("roster imported", zap.Int("count", len(imported)))
	r.notify(ev)

	return customer.ImportResult{
		Success: true,
		Message: fmt.Sprintf("Successfully imported %d customers", len(imported)),
		Count:   len(imported),
	}, nil
}

func decodeImport(data []byte) ([]customer.Customer, error) {
	var envelope struct {
		Customers json.RawMessage `json:"customers"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", xerrors.ErrMalformedImport, err)
	}

	var elements []json.RawMessage
	if len(envelope.Customers) == 0 || json.Unmarshal(envelope.Customers, &elements) != nil || elements == nil {
		return nil, fmt.Errorf("%w: invalid file format, expected a customers array", xerrors.ErrMalformedImport)
	}

	valid := 0
	for _, element := range elements {
		var candidate map[string]interface{}
		if err := json.Unmarshal(element, &candidate); err != nil || candidate == nil {
			continue
		}
		if len(customer.Validate(candidate)) == 0 {
			valid++
		}
	}
	if valid != len(elements) {
		return nil, fmt.Errorf("%w: invalid customer data, expected %d valid customers but found %d",
			xerrors.ErrMalformedImport, len(elements), valid)
	}

	var imported []customer.Customer
	if err := json.Unmarshal(envelope.Customers, &imported); err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrMalformedImport, err)
	}

	seen := make(map[string]struct{}, len(imported))
	for _, c := range imported {
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate customer id %s", xerrors.ErrMalformedImport, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return imported, nil
}

// ========== Internals ==========

func (r *Roster) ensureLoaded(ctx context.Context) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		r.load(ctx)
	}
}

// load must be called with the write lock held.
func (r *Roster) load(ctx context.Context) {
	stored, ok := r.readStored(ctx)
	if ok {
		r.customers = stored
	} else {
		r.customers = customer.DefaultRoster(r.admin)
		r.persist(ctx)
	}
	r.loaded = true

	if r.repairAdminLocked() {
		r.logger.Warn("admin record missing from stored roster, canonical admin restored")
		r.persist(ctx)
	}
	r.logger.Info("roster loaded",
		zap.Int("total", len(r.customers)),
		zap.Bool("from_storage", ok),
		zap.Bool("degraded", r.degraded),
	)
}

func (r *Roster) readStored(ctx context.Context) ([]customer.Customer, bool) {
	if r.degraded {
		return nil, false
	}
	ctx, cancel := storageContext(ctx)
	defer cancel()

	version, found, err := r.storage.Get(ctx, r.versionKey)
	if err != nil {
		r.markDegraded(err)
		return nil, false
	}
	if !found || version != customer.SchemaVersion {
		if found {
			r.logger.Info("stored roster schema version mismatch, reseeding",
				zap.String("stored", version),
				zap.String("current", customer.SchemaVersion),
			)
		}
		return nil, false
	}

	raw, found, err := r.storage.Get(ctx, r.dataKey)
	if err != nil {
		r.markDegraded(err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var stored []customer.Customer
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		r.logger.Error("stored roster is unreadable, reseeding", zap.Error(err))
		return nil, false
	}
	if stored == nil {
		stored = []customer.Customer{}
	}
	return stored, true
}

// persist mirrors the roster to storage. Must be called with the write lock
// held. A failure switches the roster to memory-only mode.
func (r *Roster) persist(ctx context.Context) {
	if r.degraded {
		return
	}

	data, err := json.Marshal(r.customers)
	if err != nil {
		r.logger.Error("failed to encode roster", zap.Error(err))
		return
	}

	ctx, cancel := storageContext(ctx)
	defer cancel()
	if err := r.storage.Set(ctx, r.dataKey, string(data)); err != nil {
		r.markDegraded(err)
		return
	}
	if err := r.storage.Set(ctx, r.versionKey, customer.SchemaVersion); err != nil {
		r.markDegraded(err)
	}
}

// storageContext detaches storage calls from the caller's cancellation. Only
// the storage timeout bounds them.
func storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storageTimeout)
}

func (r *Roster) markDegraded(err error) {
	r.degraded = true
	r.logger.Error("roster storage failed, continuing in memory for this session",
		zap.Error(fmt.Errorf("%w: %v", xerrors.ErrPersistenceUnavailable, err)),
	)
}

// repairAdminLocked guarantees an active admin record exists. It reports
// whether the roster changed.
func (r *Roster) repairAdminLocked() bool {
	for _, c := range r.customers {
		if c.IsAdmin {
			return false
		}
	}
	if idx := r.indexOf(r.admin.ID); idx >= 0 {
		r.customers[idx].IsAdmin = true
		r.customers[idx].IsActive = true
		return true
	}
	r.customers = append([]customer.Customer{r.admin}, r.customers...)
	return true
}

func (r *Roster) findFirst(match func(customer.Customer) bool) (*customer.Customer, error) {
	r.ensureLoaded(context.Background())

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if match(c) {
			found := c
			return &found, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *Roster) indexOf(id string) int {
	for i, c := range r.customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (r *Roster) eventLocked(op ChangeOp, id string) ChangeEvent {
	active := 0
	for _, c := range r.customers {
		if c.IsActive {
			active++
		}
	}
	return ChangeEvent{Op: op, CustomerID: id, Total: len(r.customers), Active: active}
}

func (r *Roster) notify(ev ChangeEvent) {
	r.listenersMu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.listenersMu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

// nextID is one past the largest numeric PFS suffix, zero padded to three
// digits.
func nextID(customers []customer.Customer) string {
	max := 0
	for _, c := range customers {
		if !strings.HasPrefix(c.ID, customer.IDPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(c.ID, customer.IDPrefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", customer.IDPrefix, max+1)
}

func computeStats(customers []customer.Customer) customer.Stats {
	stats := customer.Stats{
		Total:               len(customers),
		MembershipBreakdown: make(map[customer.MembershipType]int),
		GenderBreakdown:     make(map[customer.Gender]int),
	}
	for _, c := range customers {
		if c.IsActive {
			stats.Active++
		}
		stats.MembershipBreakdown[c.MembershipType]++
		stats.GenderBreakdown[c.Gender]++
	}
	stats.Inactive = stats.Total - stats.Active
	return stats
}
