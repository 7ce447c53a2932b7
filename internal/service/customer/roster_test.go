package customer

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"primefit-service/internal/db"
	"primefit-service/internal/domain/customer"
	xerrors "primefit-service/internal/pkg/errors"
	"primefit-service/internal/repository/memory"
	"primefit-service/internal/repository/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRoster(t *testing.T) (*Roster, *memory.KVStore) {
	t.Helper()
	store := memory.NewKVStore()
	r := NewRoster(store, zaptest.NewLogger(t), RosterConfig{})
	r.Initialize(context.Background())
	return r, store
}

// newSeededRoster stores records under the current schema version and loads
// them.
func newSeededRoster(t *testing.T, records ...customer.Customer) (*Roster, *memory.KVStore) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewKVStore()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "primefit_customers", string(data)))
	require.NoError(t, store.Set(ctx, "primefit_customers_version", customer.SchemaVersion))

	r := NewRoster(store, zaptest.NewLogger(t), RosterConfig{})
	r.Initialize(ctx)
	return r, store
}

func member(id, mobile string, membership customer.MembershipType, active bool) customer.Customer {
	return customer.Customer{
		ID:             id,
		Name:           "Member " + id,
		Mobile:         mobile,
		Password:       "pass",
		MembershipType: membership,
		Gender:         customer.GenderMale,
		JoinDate:       "2024-01-01",
		IsActive:       active,
	}
}

func adminCount(customers []customer.Customer) (admins, activeAdmins int) {
	for _, c := range customers {
		if c.IsAdmin {
			admins++
			if c.IsActive {
				activeAdmins++
			}
		}
	}
	return admins, activeAdmins
}

func storedRoster(t *testing.T, store *memory.KVStore) []customer.Customer {
	t.Helper()
	raw, found, err := store.Get(context.Background(), "primefit_customers")
	require.NoError(t, err)
	require.True(t, found)
	var out []customer.Customer
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

// failingStorage fails every call once broken is set.
type failingStorage struct {
	mu     sync.Mutex
	inner  *memory.KVStore
	broken bool
	writes int
}

var errDiskFull = errors.New("quota exceeded")

func (f *failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return "", false, errDiskFull
	}
	return f.inner.Get(ctx, key)
}

func (f *failingStorage) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.broken {
		return errDiskFull
	}
	return f.inner.Set(ctx, key, value)
}

func (f *failingStorage) setBroken(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken = v
}

// ----- Initialization -----

func TestInitializeSeedsDefaultsOnEmptyStorage(t *testing.T) {
	r, store := newTestRoster(t)

	all := r.GetAll()
	require.Len(t, all, 6)
	assert.Equal(t, customer.AdminID, all[0].ID)
	assert.True(t, all[0].IsAdmin)

	version, found, err := store.Get(context.Background(), "primefit_customers_version")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, customer.SchemaVersion, version)
	assert.Len(t, storedRoster(t, store), 6)
}

func TestInitializeReseedsOnVersionMismatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	require.NoError(t, store.Set(ctx, "primefit_customers", `[{"id":"OLD1"}]`))
	require.NoError(t, store.Set(ctx, "primefit_customers_version", "1.0"))

	r := NewRoster(store, zaptest.NewLogger(t), RosterConfig{})
	r.Initialize(ctx)

	_, err := r.FindByID("OLD1")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.Len(t, r.GetAll(), 6)
}

func TestInitializeReseedsOnUnreadableData(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	require.NoError(t, store.Set(ctx, "primefit_customers", `{not json`))
	require.NoError(t, store.Set(ctx, "primefit_customers_version", customer.SchemaVersion))

	r := NewRoster(store, zaptest.NewLogger(t), RosterConfig{})
	r.Initialize(ctx)

	assert.Len(t, r.GetAll(), 6)
	assert.Len(t, storedRoster(t, store), 6)
}

func TestInitializeRestoresMissingAdmin(t *testing.T) {
	r, store := newSeededRoster(t, member("PFS001", "9876543210", customer.MembershipBasic, true))

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, customer.AdminID, all[0].ID)
	assert.True(t, all[0].IsAdmin)
	assert.True(t, all[0].IsActive)
	assert.Len(t, storedRoster(t, store), 2)
}

func TestInitializePromotesStoredAdminID(t *testing.T) {
	demoted := customer.CanonicalAdmin()
	demoted.IsAdmin = false
	demoted.IsActive = false
	r, _ := newSeededRoster(t, demoted, member("PFS001", "9876543210", customer.MembershipBasic, true))

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.True(t, all[0].IsAdmin)
	assert.True(t, all[0].IsActive)
}

func TestOperationsInitializeLazily(t *testing.T) {
	store := memory.NewKVStore()
	r := NewRoster(store, zaptest.NewLogger(t), RosterConfig{})

	c, err := r.FindByMobile("9876543210")
	require.NoError(t, err)
	assert.Equal(t, "PFS001", c.ID)
	assert.Equal(t, 2, store.Len())
}

func TestConfiguredAdminAndKeyPrefix(t *testing.T) {
	store := memory.NewKVStore()
	admin := customer.CanonicalAdmin()
	admin.Mobile = "9999999999"
	r := NewRoster(store, zaptest.NewLogger(t), RosterConfig{KeyPrefix: "test_", Admin: admin})
	r.Initialize(context.Background())

	c, err := r.FindByMobile("9999999999")
	require.NoError(t, err)
	assert.True(t, c.IsAdmin)

	_, found, err := store.Get(context.Background(), "test_customers")
	require.NoError(t, err)
	assert.True(t, found)
}

// ----- Degraded storage -----

func TestStorageReadFailureFallsBackToMemory(t *testing.T) {
	fs := &failingStorage{inner: memory.NewKVStore(), broken: true}
	r := NewRoster(fs, zaptest.NewLogger(t), RosterConfig{})
	r.Initialize(context.Background())

	assert.True(t, r.Degraded())
	assert.Len(t, r.GetAll(), 6)

	created := r.Add(context.Background(), customer.NewCustomer{Name: "X", Mobile: "9000000001", IsActive: true})
	assert.Equal(t, "PFS006", created.ID)
	assert.Equal(t, 0, fs.writes, "no writes after the store degrades")
}

func TestStorageWriteFailureKeepsMutationInMemory(t *testing.T) {
	ctx := context.Background()
	fs := &failingStorage{inner: memory.NewKVStore()}
	r := NewRoster(fs, zaptest.NewLogger(t), RosterConfig{})
	r.Initialize(ctx)
	require.False(t, r.Degraded())

	fs.setBroken(true)
	require.NoError(t, r.Delete(ctx, "PFS001"))
	assert.True(t, r.Degraded())

	_, err := r.FindByID("PFS001")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.Len(t, r.GetAll(), 5)
}

func newSQLiteStore(t *testing.T) *sqlite.KVStore {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	store := sqlite.NewKVStore(conn)
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestCancelledRequestStillPersists(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	r := NewRoster(store, zaptest.NewLogger(t), RosterConfig{})
	r.Initialize(ctx)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	first := r.Add(cancelled, customer.NewCustomer{Name: "Abandoned", Mobile: "9000000101", IsActive: true})
	assert.False(t, r.Degraded())

	second := r.Add(ctx, customer.NewCustomer{Name: "Follow Up", Mobile: "9000000102", IsActive: true})
	assert.False(t, r.Degraded())

	reloaded := NewRoster(store, zaptest.NewLogger(t), RosterConfig{})
	reloaded.Initialize(ctx)
	require.False(t, reloaded.Degraded())
	for _, id := range []string{first.ID, second.ID} {
		_, err := reloaded.FindByID(id)
		assert.NoError(t, err, "customer %s not persisted", id)
	}
}

func TestCancelledLoadDoesNotReseed(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	data, err := json.Marshal([]customer.Customer{
		customer.CanonicalAdmin(),
		member("PFS010", "9000000110", customer.MembershipBasic, true),
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "primefit_customers", string(data)))
	require.NoError(t, store.Set(ctx, "primefit_customers_version", customer.SchemaVersion))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRoster(store, zaptest.NewLogger(t), RosterConfig{})
	r.Initialize(cancelled)

	assert.False(t, r.Degraded())
	assert.Len(t, r.GetAll(), 2)

	raw, found, err := store.Get(ctx, "primefit_customers")
	require.NoError(t, err)
	require.True(t, found)
	var stored []customer.Customer
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Len(t, stored, 2)
}

func TestNilStorageRunsInMemory(t *testing.T) {
	r := NewRoster(nil, nil, RosterConfig{})
	r.Initialize(context.Background())

	assert.True(t, r.Degraded())
	assert.Len(t, r.GetAll(), 6)
}

// ----- Uniqueness -----

func TestAddGeneratesSequentialUniqueIDs(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRoster(t)

	seen := map[string]bool{}
	for _, c := range r.GetAll() {
		seen[c.ID] = true
	}
	for i := 0; i < 20; i++ {
		created := r.Add(ctx, customer.NewCustomer{Name: "New", Mobile: "9000000001", IsActive: true})
		assert.True(t, strings.HasPrefix(created.ID, customer.IDPrefix))
		assert.False(t, seen[created.ID], "duplicate id %s", created.ID)
		seen[created.ID] = true
	}

	all := r.GetAll()
	assert.Equal(t, "PFS006", all[6].ID)
	assert.Equal(t, "PFS025", all[len(all)-1].ID)
	assert.Len(t, storedRoster(t, store), 26)
}

func TestAddUsesMaxSuffixNotCount(t *testing.T) {
	r, _ := newSeededRoster(t,
		customer.CanonicalAdmin(),
		member("PFS010", "9000000010", customer.MembershipBasic, true),
		member("PFS002", "9000000002", customer.MembershipBasic, true),
		member("GUEST", "9000000003", customer.MembershipBasic, true),
	)

	created := r.Add(context.Background(), customer.NewCustomer{Name: "Next"})
	assert.Equal(t, "PFS011", created.ID)
}

func TestAddWidensPastThreeDigits(t *testing.T) {
	r, _ := newSeededRoster(t, customer.CanonicalAdmin(), member("PFS999", "9000000999", customer.MembershipBasic, true))

	created := r.Add(context.Background(), customer.NewCustomer{Name: "Next"})
	assert.Equal(t, "PFS1000", created.ID)
}

func TestAddDoesNotValidate(t *testing.T) {
	r, _ := newTestRoster(t)

	created := r.Add(context.Background(), customer.NewCustomer{Mobile: "not-a-mobile"})
	got, err := r.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "not-a-mobile", got.Mobile)
	assert.False(t, got.IsAdmin)
}

// ----- Admin invariance -----

func TestAdminInvariance(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)
	no := false
	name := "Renamed"

	_, err := r.Update(ctx, customer.AdminID, customer.Changes{IsAdmin: &no})
	assert.ErrorIs(t, err, xerrors.ErrProtectedRecord)

	_, err = r.Update(ctx, customer.AdminID, customer.Changes{IsActive: &no, Name: &name})
	assert.ErrorIs(t, err, xerrors.ErrProtectedRecord)

	err = r.Delete(ctx, customer.AdminID)
	assert.ErrorIs(t, err, xerrors.ErrProtectedRecord)

	admin, err := r.FindByID(customer.AdminID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", admin.Name, "rejected update must not partially apply")

	admins, active := adminCount(r.GetAll())
	assert.Equal(t, 1, admins)
	assert.Equal(t, 1, active)
	assert.Len(t, r.GetAll(), 6)
}

func TestAdminCanBeEdited(t *testing.T) {
	r, _ := newTestRoster(t)
	name := "Head Coach"

	updated, err := r.Update(context.Background(), customer.AdminID, customer.Changes{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Head Coach", updated.Name)
	assert.True(t, updated.IsAdmin)
}

func TestClearAllExceptAdmin(t *testing.T) {
	r, store := newTestRoster(t)

	removed := r.ClearAllExceptAdmin(context.Background())
	assert.Equal(t, 5, removed)

	all := r.GetAll()
	require.Len(t, all, 1)
	assert.True(t, all[0].IsAdmin)
	assert.Len(t, storedRoster(t, store), 1)
}

func TestResetToDefaults(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)
	r.ClearAllExceptAdmin(ctx)
	r.Add(ctx, customer.NewCustomer{Name: "Temp"})

	r.ResetToDefaults(ctx)

	all := r.GetAll()
	require.Len(t, all, 6)
	assert.Equal(t, "PFS005", all[5].ID)
}

// ----- Update / Delete -----

func TestUpdateNotFound(t *testing.T) {
	r, _ := newTestRoster(t)
	name := "Ghost"

	_, err := r.Update(context.Background(), "PFS404", customer.Changes{Name: &name})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestUpdateMergesAndKeepsID(t *testing.T) {
	r, store := newTestRoster(t)
	vip := customer.MembershipVIP

	updated, err := r.Update(context.Background(), "PFS002", customer.Changes{MembershipType: &vip})
	require.NoError(t, err)
	assert.Equal(t, "PFS002", updated.ID)
	assert.Equal(t, "Priya Sharma", updated.Name)
	assert.Equal(t, customer.MembershipVIP, updated.MembershipType)
	assert.Equal(t, customer.MembershipVIP, storedRoster(t, store)[2].MembershipType)
}

func TestDeleteNotFound(t *testing.T) {
	r, _ := newTestRoster(t)

	err := r.Delete(context.Background(), "PFS404")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.Len(t, r.GetAll(), 6)
}

// ----- Queries -----

func TestGetAllReturnsCopy(t *testing.T) {
	r, _ := newTestRoster(t)

	all := r.GetAll()
	all[1].Name = "Mutated"

	c, err := r.FindByID("PFS001")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", c.Name)
}

func TestFindByMobileReturnsFirstMatch(t *testing.T) {
	r, _ := newSeededRoster(t,
		customer.CanonicalAdmin(),
		member("PFS001", "9000000001", customer.MembershipBasic, false),
		member("PFS002", "9000000001", customer.MembershipBasic, true),
	)

	c, err := r.FindByMobile("9000000001")
	require.NoError(t, err)
	assert.Equal(t, "PFS001", c.ID)

	c, err = r.FindActiveByMobile("9000000001")
	require.NoError(t, err)
	assert.Equal(t, "PFS002", c.ID)

	_, err = r.FindByMobile("9000000099")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestFilter(t *testing.T) {
	r, _ := newTestRoster(t)
	inactive := false
	active := true

	tests := []struct {
		name   string
		filter customer.Filter
		want   []string
	}{
		{"empty filter returns everything in order", customer.Filter{}, []string{"ADMIN001", "PFS001", "PFS002", "PFS003", "PFS004", "PFS005"}},
		{"name is case-insensitive", customer.Filter{Search: "PRIYA"}, []string{"PFS002"}},
		{"mobile substring", customer.Filter{Search: "98765"}, []string{"PFS001"}},
		{"id substring", customer.Filter{Search: "pfs00"}, []string{"PFS001", "PFS002", "PFS003", "PFS004", "PFS005"}},
		{"whitespace query is ignored", customer.Filter{Search: "   "}, []string{"ADMIN001", "PFS001", "PFS002", "PFS003", "PFS004", "PFS005"}},
		{"gender", customer.Filter{Gender: customer.GenderFemale}, []string{"PFS002", "PFS004"}},
		{"membership and gender", customer.Filter{MembershipType: customer.MembershipPremium, Gender: customer.GenderMale}, []string{"PFS001"}},
		{"inactive only", customer.Filter{IsActive: &inactive}, nil},
		{"search and active", customer.Filter{Search: "singh", IsActive: &active}, []string{"PFS005"}},
		{"no match", customer.Filter{Search: "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, c := range r.Filter(tt.filter) {
				got = append(got, c.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// ----- Stats -----

func TestComputeStatsCountsEveryRecord(t *testing.T) {
	r, _ := newSeededRoster(t,
		customer.CanonicalAdmin(),
		member("PFS001", "9000000001", customer.MembershipBasic, true),
		member("PFS002", "9000000002", customer.MembershipBasic, false),
		member("PFS003", "9000000003", customer.MembershipPremium, false),
	)

	stats := r.ComputeStats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 2, stats.Inactive)
	assert.Equal(t, 2, stats.MembershipBreakdown[customer.MembershipBasic], "inactive records are counted")
	assert.Equal(t, 1, stats.MembershipBreakdown[customer.MembershipPremium])
	assert.Equal(t, 1, stats.MembershipBreakdown[customer.MembershipVIP])
	assert.Equal(t, 4, stats.GenderBreakdown[customer.GenderMale])
}

// ----- Export / Import -----

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)
	r.Add(ctx, customer.NewCustomer{Name: "Extra", Mobile: "9000000001", MembershipType: customer.MembershipVIP, Gender: customer.GenderOther, JoinDate: "2024-06-01"})
	before := r.GetAll()

	data, err := r.ExportAll()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"version\": \"1.1\"")

	r.ClearAllExceptAdmin(ctx)
	result, err := r.ImportAll(ctx, data)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 7, result.Count)
	assert.Equal(t, "Successfully imported 7 customers", result.Message)

	assert.ElementsMatch(t, before, r.GetAll())
}

func TestExportDocumentShape(t *testing.T) {
	r, _ := newTestRoster(t)

	data, err := r.ExportAll()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "version")
	assert.Contains(t, doc, "timestamp")
	assert.Contains(t, doc, "customers")
	assert.Contains(t, doc, "stats")
}

func TestImportIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRoster(t)
	before := r.GetAll()
	storedBefore := storedRoster(t, store)

	payload := `{"customers":[
		{"id":"PFS100","name":"Valid","mobile":"9000000100","membershipType":"Basic","gender":"Male","joinDate":"2024-01-01","isActive":true},
		{"id":"PFS101","name":"Missing Mobile","membershipType":"Basic","gender":"Male","joinDate":"2024-01-01","isActive":true},
		{"id":"PFS102","name":"Bad Gender","mobile":"9000000102","membershipType":"Basic","gender":"Robot","joinDate":"2024-01-01"}
	]}`

	result, err := r.ImportAll(ctx, []byte(payload))
	require.ErrorIs(t, err, xerrors.ErrMalformedImport)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "expected 3 valid customers but found 1")

	assert.Equal(t, before, r.GetAll())
	assert.Equal(t, storedBefore, storedRoster(t, store))
}

func TestImportRejectsMalformedPayloads(t *testing.T) {
	r, _ := newTestRoster(t)

	tests := []struct {
		name    string
		payload string
		message string
	}{
		{"not json", `{oops`, "invalid JSON"},
		{"missing customers", `{"version":"1.1"}`, "expected a customers array"},
		{"customers not an array", `{"customers":{"id":"PFS001"}}`, "expected a customers array"},
		{"customers null", `{"customers":null}`, "expected a customers array"},
		{"non-object element", `{"customers":[42]}`, "expected 1 valid customers but found 0"},
		{"duplicate ids", `{"customers":[
			{"id":"PFS001","name":"A","mobile":"9000000001","membershipType":"Basic","gender":"Male","joinDate":"2024-01-01"},
			{"id":"PFS001","name":"B","mobile":"9000000002","membershipType":"Basic","gender":"Male","joinDate":"2024-01-01"}
		]}`, "duplicate customer id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.ImportAll(context.Background(), []byte(tt.payload))
			require.ErrorIs(t, err, xerrors.ErrMalformedImport)
			assert.False(t, result.Success)
			assert.Contains(t, result.Message, tt.message)
			assert.Len(t, r.GetAll(), 6)
		})
	}
}

func TestImportWithoutAdminRestoresIt(t *testing.T) {
	r, _ := newTestRoster(t)
	payload := `{"customers":[{"id":"PFS100","name":"Only","mobile":"9000000100","membershipType":"Basic","gender":"Male","joinDate":"2024-01-01","isActive":true}]}`

	result, err := r.ImportAll(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, customer.AdminID, all[0].ID)
}

func TestImportEmptyArray(t *testing.T) {
	r, _ := newTestRoster(t)

	result, err := r.ImportAll(context.Background(), []byte(`{"customers":[]}`))
	require.NoError(t, err)
	assert.True(t, result.Success)

	admins, _ := adminCount(r.GetAll())
	assert.Equal(t, 1, admins)
}

// ----- Scenarios -----

func TestScenarioLookupDeleteAdd(t *testing.T) {
	ctx := context.Background()
	a := member("PFS000A", "9876543210", customer.MembershipBasic, true)
	r, _ := newSeededRoster(t, customer.CanonicalAdmin(), a)

	found, err := r.FindByMobile("9876543210")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)

	assert.ErrorIs(t, r.Delete(ctx, customer.AdminID), xerrors.ErrProtectedRecord)
	assert.Len(t, r.GetAll(), 2)

	created := r.Add(ctx, customer.NewCustomer{
		Name:           "X",
		Mobile:         "9000000001",
		Password:       "p",
		MembershipType: customer.MembershipBasic,
		Gender:         customer.GenderMale,
		JoinDate:       "2024-01-01",
		IsActive:       true,
	})
	assert.Equal(t, "PFS001", created.ID)
	assert.Len(t, r.GetAll(), 3)
}

func TestScenarioDeactivatedMemberLookup(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)
	no := false

	_, err := r.Update(ctx, "PFS001", customer.Changes{IsActive: &no})
	require.NoError(t, err)

	_, err = r.FindActiveByMobile("9876543210")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	c, err := r.FindByMobile("9876543210")
	require.NoError(t, err)
	assert.Equal(t, "PFS001", c.ID)
}

func TestScenarioFilterActiveVIP(t *testing.T) {
	r, _ := newSeededRoster(t,
		member("V1", "9000000001", customer.MembershipVIP, true),
		member("V2", "9000000002", customer.MembershipVIP, true),
		member("V3", "9000000003", customer.MembershipVIP, true),
		member("V4", "9000000004", customer.MembershipVIP, false),
		member("B1", "9000000005", customer.MembershipBasic, true),
		member("B2", "9000000006", customer.MembershipBasic, true),
	)
	active := true

	var ids []string
	for _, c := range r.Filter(customer.Filter{MembershipType: customer.MembershipVIP, IsActive: &active}) {
		if !c.IsAdmin {
			ids = append(ids, c.ID)
		}
	}
	assert.Equal(t, []string{"V1", "V2", "V3"}, ids)
}

// ----- Listeners -----

func TestListenersObserveMutations(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)

	var events []ChangeEvent
	r.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })

	created := r.Add(ctx, customer.NewCustomer{Name: "X", IsActive: true})
	require.NoError(t, r.Delete(ctx, created.ID))
	assert.Error(t, r.Delete(ctx, customer.AdminID))
	r.ClearAllExceptAdmin(ctx)

	require.Len(t, events, 3, "rejected mutations are not published")
	assert.Equal(t, ChangeEvent{Op: OpAdd, CustomerID: created.ID, Total: 7, Active: 7}, events[0])
	assert.Equal(t, OpDelete, events[1].Op)
	assert.Equal(t, ChangeEvent{Op: OpClear, Total: 1, Active: 1}, events[2])
}

func TestListenerMayReadRoster(t *testing.T) {
	r, _ := newTestRoster(t)

	var total int
	r.Subscribe(func(ChangeEvent) { total = len(r.GetAll()) })
	r.Add(context.Background(), customer.NewCustomer{Name: "X"})

	assert.Equal(t, 7, total)
}

func TestConcurrentAddsProduceUniqueIDs(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(ctx, customer.NewCustomer{Name: "Concurrent"})
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, c := range r.GetAll() {
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
	}
	assert.Len(t, seen, 31)
}

func TestAddIfMobileFreeAdmitsOneOfConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)

	var (
		wg      sync.WaitGroup
		created atomic.Int32
		dupes   atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.AddIfMobileFree(ctx, customer.NewCustomer{Name: "Racer", Mobile: "9000000200", IsActive: true})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, xerrors.ErrDuplicateMobile):
				dupes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(49), dupes.Load())
	assert.Len(t, r.Filter(customer.Filter{Search: "9000000200"}), 1)
}

func TestAddIfMobileFreeChecksInactiveRecords(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)
	no := false
	_, err := r.Update(ctx, "PFS002", customer.Changes{IsActive: &no})
	require.NoError(t, err)

	_, err = r.AddIfMobileFree(ctx, customer.NewCustomer{Name: "Clash", Mobile: "8765432109"})
	assert.ErrorIs(t, err, xerrors.ErrDuplicateMobile)
	assert.Len(t, r.GetAll(), 6)
}
