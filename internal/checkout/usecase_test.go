package checkout

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"civicpost/internal/models"
	"civicpost/internal/pricing"
	"civicpost/internal/store"
	"civicpost/internal/telemetry"
)

type fakeProvider struct {
	customers       int
	sessions        []SessionRequest
	sessionState    *SessionState
	refunded        []string
	refundErr       error
	getSessionErr   error
	createSessionID string
}

func (f *fakeProvider) CreateCustomer(context.Context, string, string) (string, error) {
	f.customers++
	return "cus_test", nil
}

func (f *fakeProvider) CreateSession(_ context.Context, req SessionRequest) (*SessionResponse, error) {
	f.sessions = append(f.sessions, req)
	id := f.createSessionID
	if id == "" {
		id = "sess_test"
	}
	return &SessionResponse{SessionID: id, ClientSecret: "secret_test"}, nil
}

func (f *fakeProvider) GetSession(context.Context, string) (*SessionState, error) {
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	return f.sessionState, nil
}

func (f *fakeProvider) Refund(_ context.Context, sessionID string) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunded = append(f.refunded, sessionID)
	return nil
}

func newTestUseCase(t *testing.T, provider Provider) (*UseCase, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	metrics, err := telemetry.NewMetrics(metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	uc := NewUseCase(provider, st, metrics, zap.NewNop(), tracenoop.NewTracerProvider().Tracer("test"))
	return uc, st
}

func testInput(opt models.SendOption) CreateSessionInput {
	return CreateSessionInput{
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
		Order: models.Order{
			Message:    "Please fund the library.",
			SenderName: "Ada Lovelace",
			SendOption: opt,
			Email:      "ada@example.com",
			Representative: &models.Recipient{
				Name: "Jane Smith", OfficialID: "rep-1", Chamber: models.ChamberHouse,
			},
		},
	}
}

func TestCreateSessionChargesTierPrice(t *testing.T) {
	cases := map[models.SendOption]int64{
		models.SendSingle: 500,
		models.SendDouble: 1000,
		models.SendTriple: 1200,
	}
	for opt, cents := range cases {
		t.Run(string(opt), func(t *testing.T) {
			provider := &fakeProvider{}
			uc, _ := newTestUseCase(t, provider)

			session, err := uc.CreateSession(context.Background(), testInput(opt))
			require.NoError(t, err)

			assert.Equal(t, cents, session.AmountCents)
			assert.Equal(t, models.SessionCreated, session.Status)
			require.Len(t, provider.sessions, 1)
			assert.Equal(t, cents, provider.sessions[0].AmountCents)
		})
	}
}

func TestCreateSessionUnknownTier(t *testing.T) {
	provider := &fakeProvider{}
	uc, _ := newTestUseCase(t, provider)

	in := testInput(models.SendOption("platinum"))
	_, err := uc.CreateSession(context.Background(), in)

	assert.ErrorIs(t, err, pricing.ErrUnknownSendOption)
	assert.Empty(t, provider.sessions)
}

func TestCreateSessionReusesCustomer(t *testing.T) {
	provider := &fakeProvider{}
	uc, _ := newTestUseCase(t, provider)

	_, err := uc.CreateSession(context.Background(), testInput(models.SendSingle))
	require.NoError(t, err)
	_, err = uc.CreateSession(context.Background(), testInput(models.SendSingle))
	require.NoError(t, err)

	assert.Equal(t, 1, provider.customers, "second call should hit the local customer cache")
}

func TestCreateSessionPersistsPendingOrder(t *testing.T) {
	provider := &fakeProvider{}
	uc, st := newTestUseCase(t, provider)

	_, err := uc.CreateSession(context.Background(), testInput(models.SendTriple))
	require.NoError(t, err)

	pending, err := st.PendingOrder(context.Background(), "sess_test")
	require.NoError(t, err)
	assert.Equal(t, "Please fund the library.", pending.Order.Message)
	assert.Equal(t, models.SendTriple, pending.Order.SendOption)
}

func TestCreateSessionTruncatesMetadataMessage(t *testing.T) {
	provider := &fakeProvider{}
	uc, st := newTestUseCase(t, provider)

	in := testInput(models.SendSingle)
	in.Order.Message = strings.Repeat("x", 2000)

	_, err := uc.CreateSession(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, provider.sessions, 1)
	assert.Len(t, provider.sessions[0].Metadata["message"], metadataValueLimit)

	// the stored copy keeps the full text
	pending, err := st.PendingOrder(context.Background(), "sess_test")
	require.NoError(t, err)
	assert.Len(t, pending.Order.Message, 2000)
}

func TestVerifyRequiresBothConditions(t *testing.T) {
	cases := []struct {
		name     string
		payment  string
		state    string
		verified bool
	}{
		{"paid and complete", "paid", "complete", true},
		{"paid but open", "paid", "open", false},
		{"unpaid but complete", "unpaid", "complete", false},
		{"neither", "unpaid", "open", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{sessionState: &SessionState{
				PaymentStatus: tc.payment, Status: tc.state,
			}}
			uc, _ := newTestUseCase(t, provider)

			v, err := uc.Verify(context.Background(), "sess_test")
			require.NoError(t, err)
			assert.Equal(t, tc.verified, v.Verified)
			assert.Equal(t, tc.payment, v.PaymentStatus)
			assert.Equal(t, tc.state, v.SessionState)
		})
	}
}

func TestVerifyReturnsPendingOrder(t *testing.T) {
	provider := &fakeProvider{}
	uc, _ := newTestUseCase(t, provider)

	_, err := uc.CreateSession(context.Background(), testInput(models.SendDouble))
	require.NoError(t, err)

	provider.sessionState = &SessionState{PaymentStatus: "paid", Status: "complete"}
	v, err := uc.Verify(context.Background(), "sess_test")
	require.NoError(t, err)

	assert.True(t, v.Verified)
	require.NotNil(t, v.PendingOrder)
	assert.Equal(t, "Please fund the library.", v.PendingOrder.Message)
}

func TestVerifyUnknownSession(t *testing.T) {
	provider := &fakeProvider{getSessionErr: ErrSessionNotFound}
	uc, _ := newTestUseCase(t, provider)

	v, err := uc.Verify(context.Background(), "sess_missing")
	require.NoError(t, err, "unknown session is a verification failure, not a crash")
	assert.False(t, v.Verified)
	assert.Equal(t, "not_found", v.SessionState)
}

func TestRefundMarksPendingOrder(t *testing.T) {
	provider := &fakeProvider{}
	uc, st := newTestUseCase(t, provider)

	_, err := uc.CreateSession(context.Background(), testInput(models.SendSingle))
	require.NoError(t, err)

	require.NoError(t, uc.Refund(context.Background(), "sess_test"))
	assert.Equal(t, []string{"sess_test"}, provider.refunded)

	pending, err := st.PendingOrder(context.Background(), "sess_test")
	require.NoError(t, err)
	assert.Equal(t, models.PendingRefunded, pending.Status)
}
