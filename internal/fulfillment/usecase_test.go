package fulfillment

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"civicpost/internal/models"
	"civicpost/internal/store"
	"civicpost/internal/telemetry"
)

// fakeVendor records every request and fails recipients listed in failFor.
type fakeVendor struct {
	mu       sync.Mutex
	requests []PostcardRequest
	failFor  map[string]bool
}

func (f *fakeVendor) CreatePostcard(_ context.Context, req PostcardRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.failFor[req.Recipient.Name] {
		return "", errors.New("vendor unavailable")
	}
	return "po_" + req.Recipient.Name, nil
}

func (f *fakeVendor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestUseCase(t *testing.T, vendor Vendor) *UseCase {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	metrics, err := telemetry.NewMetrics(metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	return NewUseCase(vendor, st, metrics, zap.NewNop(), tracenoop.NewTracerProvider().Tracer("test"))
}

func testOrder(opt models.SendOption, senators int) models.Order {
	o := models.Order{
		Message:       "Please fund the library.",
		SenderName:    "Ada Lovelace",
		SenderAddress: "123 Main St, Springfield, IL 62704",
		SendOption:    opt,
		Email:         "ada@example.com",
		Representative: &models.Recipient{
			Name:       "Jane Smith",
			OfficialID: "rep-1",
			Chamber:    models.ChamberHouse,
			OfficeAddress: models.Address{
				Street: "100 Capitol St", City: "Washington", State: "DC", Zip: "20001",
			},
		},
	}
	for i := 0; i < senators; i++ {
		o.Senators = append(o.Senators, models.Recipient{
			Name:       []string{"Sam Senate", "Sue Senate"}[i],
			OfficialID: []string{"sen-1", "sen-2"}[i],
			Chamber:    models.ChamberSenate,
		})
	}
	return o
}

func TestSubmitFanOutBySendOption(t *testing.T) {
	cases := []struct {
		opt   models.SendOption
		want  int
		extra int // senators in payload beyond what the option pays for
	}{
		{models.SendSingle, 1, 2},
		{models.SendDouble, 2, 2},
		{models.SendTriple, 3, 2},
	}

	for _, tc := range cases {
		t.Run(string(tc.opt), func(t *testing.T) {
			vendor := &fakeVendor{}
			uc := newTestUseCase(t, vendor)

			batch := uc.Submit(context.Background(), "sess_1", testOrder(tc.opt, 2))

			assert.True(t, batch.Success)
			assert.Equal(t, tc.want, batch.Succeeded)
			assert.Zero(t, batch.Failed)
			assert.Len(t, batch.Results, tc.want)
			assert.Equal(t, tc.want, vendor.calls())
		})
	}
}

func TestSubmitPartialFailure(t *testing.T) {
	vendor := &fakeVendor{failFor: map[string]bool{"Sam Senate": true}}
	uc := newTestUseCase(t, vendor)

	batch := uc.Submit(context.Background(), "sess_1", testOrder(models.SendTriple, 2))

	assert.False(t, batch.Success)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Results, 3)

	byRef := map[string]models.FulfillmentResult{}
	for _, r := range batch.Results {
		byRef[r.RecipientRef] = r
	}
	assert.Equal(t, models.FulfillmentSuccess, byRef["rep-1"].Status)
	assert.Equal(t, models.FulfillmentError, byRef["sen-1"].Status)
	assert.Contains(t, byRef["sen-1"].ErrorDetail, "vendor unavailable")
	assert.Equal(t, models.FulfillmentSuccess, byRef["sen-2"].Status)
}

func TestSubmitMissingDataMakesNoCalls(t *testing.T) {
	mutations := map[string]func(*models.Order){
		"sender name":    func(o *models.Order) { o.SenderName = "" },
		"street address": func(o *models.Order) { o.SenderAddress = ""; o.Sender = models.Address{} },
		"representative": func(o *models.Order) { o.Representative = nil },
		"message":        func(o *models.Order) { o.Message = "  " },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			vendor := &fakeVendor{}
			uc := newTestUseCase(t, vendor)

			order := testOrder(models.SendTriple, 2)
			mutate(&order)

			batch := uc.Submit(context.Background(), "sess_1", order)

			assert.False(t, batch.Success)
			assert.NotEmpty(t, batch.Reason)
			assert.Empty(t, batch.Results)
			assert.Zero(t, vendor.calls())
		})
	}
}

func TestSubmitUsesParsedSenderAddress(t *testing.T) {
	vendor := &fakeVendor{}
	uc := newTestUseCase(t, vendor)

	uc.Submit(context.Background(), "sess_1", testOrder(models.SendSingle, 0))

	require.Equal(t, 1, vendor.calls())
	req := vendor.requests[0]
	assert.Equal(t, "Ada Lovelace", req.Sender.Name)
	assert.Equal(t, "123 Main St", req.Sender.Street)
	assert.Equal(t, "Springfield", req.Sender.City)
	assert.Equal(t, "IL 62704", req.Sender.StateZip)
}

func TestSubmitFallsBackToStructuredAddress(t *testing.T) {
	vendor := &fakeVendor{}
	uc := newTestUseCase(t, vendor)

	order := testOrder(models.SendSingle, 0)
	order.SenderAddress = "something unparseable"
	order.Sender = models.Address{Street: "9 Known Way", City: "Salem", State: "MA", Zip: "01970"}

	batch := uc.Submit(context.Background(), "sess_1", order)

	assert.True(t, batch.Success)
	require.Equal(t, 1, vendor.calls())
	assert.Equal(t, "9 Known Way", vendor.requests[0].Sender.Street)
}

func TestSubmitRendersRecipientIntoMessage(t *testing.T) {
	vendor := &fakeVendor{}
	uc := newTestUseCase(t, vendor)

	uc.Submit(context.Background(), "sess_1", testOrder(models.SendDouble, 1))

	require.Equal(t, 2, vendor.calls())
	byName := map[string]PostcardRequest{}
	for _, r := range vendor.requests {
		byName[r.Recipient.Name] = r
	}
	assert.Contains(t, byName["Jane Smith"].Message, "Dear Representative Jane Smith,")
	assert.Contains(t, byName["Sam Senate"].Message, "Dear Senator Sam Senate,")
}

func TestSubmitSetsVendorPayloadFields(t *testing.T) {
	vendor := &fakeVendor{}
	uc := newTestUseCase(t, vendor)

	uc.Submit(context.Background(), "sess_1", testOrder(models.SendSingle, 0))

	require.Equal(t, 1, vendor.calls())
	req := vendor.requests[0]
	assert.NotEmpty(t, req.UID)
	assert.NotEmpty(t, req.Font)
	assert.NotEmpty(t, req.Background)
	assert.Equal(t, RecipientTypeRepresentative, req.Metadata.RecipientType)
	assert.Equal(t, "rep-1", req.Metadata.OfficialID)
	assert.Equal(t, "DC 20001", req.Recipient.StateZip)
}

func TestSubmitRetryIdenticalPayload(t *testing.T) {
	vendor := &fakeVendor{failFor: map[string]bool{"Sue Senate": true}}
	uc := newTestUseCase(t, vendor)

	order := testOrder(models.SendTriple, 2)

	first := uc.Submit(context.Background(), "sess_1", order)
	assert.False(t, first.Success)

	// identical payload again: already-succeeded recipients are resent
	// (duplicate vendor orders, documented limitation), results match
	second := uc.Submit(context.Background(), "sess_1", order)
	assert.Equal(t, first.Succeeded, second.Succeeded)
	assert.Equal(t, first.Failed, second.Failed)
	assert.Equal(t, 6, vendor.calls())
}
