package comparison

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/cache"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/storage"
)

type memStore struct {
	colls map[string]*features.Collection
	err   error
}

func (m *memStore) Load(_ context.Context, vendor string) (*features.Collection, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.colls[vendor]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, vendor)
	}
	return c, nil
}

func (m *memStore) ListVendors(_ context.Context) ([]string, error) {
	return []string{"Acme", "Danfoss"}, nil
}

func newTestStore(t *testing.T) *memStore {
	danfoss := collectionOf(t,
		record("AK-CC55 Compact", "1. Hardware features and specifications", "• 230 V AC", "2. Functions", "Defrost control"),
		record("AK-CC55 Single Coil", "1. Hardware features and specifications", "• 115 V AC", "2. Functions", "same as AK-CC55 Compact except: adds WiFi"),
	)
	acme := features.NewCollection("Acme")
	require.NoError(t, acme.Add(record("X1", "2. Functions", "Alarm handling")))
	require.NoError(t, acme.Add(record("X2", "2. Functions", "Fan control")))
	empty := features.NewCollection("Empty")

	return &memStore{colls: map[string]*features.Collection{"Danfoss": danfoss, "Acme": acme, "Empty": empty}}
}

func newTestService(t *testing.T, store CollectionStore, sc *stubCompleter) (*Service, *cache.MemoryClient) {
	mc := cache.NewMemoryClient(10)
	t.Cleanup(func() { mc.Close() })
	var analyst *Analyst
	if sc != nil {
		analyst = NewAnalyst(sc, nil)
	}
	svc := NewService(nil, store, mc, nil, analyst, Config{ReferenceVendor: "Danfoss", Analysis: true})
	return svc, mc
}

func TestService_Compare(t *testing.T) {
	sc := &stubCompleter{response: "**SCORE** Danfoss 50/60"}
	svc, _ := newTestService(t, newTestStore(t), sc)

	report, err := svc.Compare(context.Background(), Request{
		ReferenceDevice:  "AK-CC55 Single Coil",
		CompetitorVendor: "Acme",
	})
	require.NoError(t, err)

	assert.Equal(t, "Danfoss", report.ReferenceVendor)
	assert.Equal(t, "X1", report.CompetitorDevice, "first competitor device by default")
	require.Len(t, report.Rows, 2)
	assert.Contains(t, report.Rows[1].ReferenceFull, "Defrost control")
	assert.Contains(t, report.Rows[1].ReferenceFull, "adds WiFi")
	assert.Equal(t, "Alarm handling.", report.Rows[1].CompetitorFull)
	assert.Len(t, report.Narrative, 2)
	assert.Equal(t, "**SCORE** Danfoss 50/60", report.Analysis)
	assert.Len(t, report.Hash, 16)
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.Cached)
}

func TestService_CompareUsesCache(t *testing.T) {
	sc := &stubCompleter{response: "score"}
	svc, _ := newTestService(t, newTestStore(t), sc)
	req := Request{ReferenceDevice: "AK-CC55 Compact", CompetitorVendor: "Acme", CompetitorDevice: "X2"}

	first, err := svc.Compare(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Compare(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, 1, sc.calls)
}

func TestService_InvalidateReports(t *testing.T) {
	ctx := context.Background()
	svc, mc := newTestService(t, newTestStore(t), nil)
	req := Request{ReferenceDevice: "AK-CC55 Compact", CompetitorVendor: "Acme"}

	_, err := svc.Compare(ctx, req)
	require.NoError(t, err)
	require.NoError(t, mc.Set(ctx, "other:key", []byte("x"), time.Hour))
	require.Equal(t, 2, mc.Len())

	require.NoError(t, svc.InvalidateReports(ctx))
	assert.Equal(t, 1, mc.Len(), "only comparison entries are dropped")

	again, err := svc.Compare(ctx, req)
	require.NoError(t, err)
	assert.False(t, again.Cached)

	uncached := NewService(nil, newTestStore(t), nil, nil, nil, Config{ReferenceVendor: "Danfoss"})
	assert.NoError(t, uncached.InvalidateReports(ctx))
}

func TestService_DataChangeMissesCache(t *testing.T) {
	store := newTestStore(t)
	svc, _ := newTestService(t, store, nil)
	req := Request{ReferenceDevice: "AK-CC55 Compact", CompetitorVendor: "Acme"}

	first, err := svc.Compare(context.Background(), req)
	require.NoError(t, err)

	x1, _ := store.colls["Acme"].Get("X1")
	x1.Set("2. Functions", "Alarm handling and logging")

	second, err := svc.Compare(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.NotEqual(t, first.Hash, second.Hash)
}

func TestService_AnalysisFailureIsReported(t *testing.T) {
	sc := &stubCompleter{err: errors.New("upstream 503")}
	svc, mc := newTestService(t, newTestStore(t), sc)

	report, err := svc.Compare(context.Background(), Request{ReferenceDevice: "AK-CC55 Compact", CompetitorVendor: "Acme"})
	require.NoError(t, err)

	assert.Empty(t, report.Analysis)
	assert.Contains(t, report.AnalysisError, "upstream 503")
	assert.Len(t, report.Rows, 2)
	assert.Equal(t, 0, mc.Len())
}

func TestService_SkipAnalysis(t *testing.T) {
	sc := &stubCompleter{response: "score"}
	svc, _ := newTestService(t, newTestStore(t), sc)

	_, err := svc.Compare(context.Background(), Request{ReferenceDevice: "AK-CC55 Compact", CompetitorVendor: "Acme", SkipAnalysis: true})
	require.NoError(t, err)
	assert.Equal(t, 0, sc.calls)
}

func TestService_Errors(t *testing.T) {
	svc, _ := newTestService(t, newTestStore(t), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     Request
		errType domain.ErrorType
		message string
	}{
		{"missing fields", Request{CompetitorVendor: "Acme"}, domain.ErrorTypeValidation, "required"},
		{"unknown reference device", Request{ReferenceDevice: "EKC 202", CompetitorVendor: "Acme"}, domain.ErrorTypeDeviceNotFound, "EKC 202"},
		{"unknown competitor vendor", Request{ReferenceDevice: "AK-CC55 Compact", CompetitorVendor: "Nope"}, domain.ErrorTypeMissingCollection, "Nope"},
		{"unknown competitor device", Request{ReferenceDevice: "AK-CC55 Compact", CompetitorVendor: "Acme", CompetitorDevice: "Z9"}, domain.ErrorTypeDeviceNotFound, "Z9"},
		{"empty competitor collection", Request{ReferenceDevice: "AK-CC55 Compact", CompetitorVendor: "Empty"}, domain.ErrorTypeMissingCollection, "Empty"},
		{"unknown reference vendor", Request{ReferenceVendor: "Carel", ReferenceDevice: "IR33", CompetitorVendor: "Acme"}, domain.ErrorTypeMissingCollection, "Carel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Compare(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, domain.IsType(err, tt.errType), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestService_StoreFailure(t *testing.T) {
	svc, _ := newTestService(t, &memStore{err: errors.New("disk on fire")}, nil)
	_, err := svc.Compare(context.Background(), Request{ReferenceDevice: "A", CompetitorVendor: "B"})
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
}

func TestService_Devices(t *testing.T) {
	svc, _ := newTestService(t, newTestStore(t), nil)

	devices, err := svc.Devices(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"X1", "X2"}, devices)

	_, err = svc.Devices(context.Background(), "Nope")
	assert.True(t, domain.IsType(err, domain.ErrorTypeMissingCollection))
}

func TestReport_Unresolved(t *testing.T) {
	coll := collectionOf(t, record("Unit B", "2. Functions", "same as ZZZ", "3. Display", "LED"))
	rows := NewReconciler(nil).Reconcile(coll.Records()[0], nil, coll)
	r := &Report{Rows: rows}

	errs := r.Unresolved()
	require.Len(t, errs, 1)
	assert.Equal(t, 1, r.UnresolvedCount())
	assert.True(t, domain.IsType(errs[0], domain.ErrorTypeUnresolvedRef))
	assert.Contains(t, errs[0].Error(), `2. Functions: no device matches reference "ZZZ"`)
}
