package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civicpost/internal/models"
	"civicpost/internal/pricing"
	"civicpost/internal/store"
	"civicpost/internal/telemetry"
)

// metadataValueLimit keeps embedded metadata under the provider's per-value
// ceiling. The full message lives in the pending-order row; only the
// provider-side copy is truncated.
const metadataValueLimit = 450

type UseCase struct {
	provider Provider
	store    *store.Store
	metrics  *telemetry.Metrics
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewUseCase(provider Provider, st *store.Store, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{provider: provider, store: st, metrics: metrics, log: log, tracer: tracer}
}

type CreateSessionInput struct {
	Email    string
	FullName string
	Order    models.Order
}

// CreateSession opens a hosted-checkout session for the order's price tier.
// Repeated calls create duplicate provider sessions; only one will ever be
// paid, so the risk is provider-side clutter, not double charges.
func (uc *UseCase) CreateSession(ctx context.Context, in CreateSessionInput) (*models.PaymentSession, error) {
	ctx, span := uc.tracer.Start(ctx, "CreateCheckoutSession",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("checkout.send_option", string(in.Order.SendOption)),
		),
	)
	defer span.End()

	amount, err := pricing.AmountCents(in.Order.SendOption)
	if err != nil {
		span.SetStatus(codes.Error, "unknown send option")
		return nil, err
	}

	customerID, err := uc.resolveCustomer(ctx, in.Email, in.FullName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp, err := uc.provider.CreateSession(ctx, SessionRequest{
		CustomerID:  customerID,
		AmountCents: amount,
		Currency:    "usd",
		Metadata:    sessionMetadata(in.Order),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.metrics.SessionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := uc.store.SavePendingOrder(ctx, resp.SessionID, in.Order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	uc.metrics.SessionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	uc.metrics.OrderValueCents.Record(ctx, amount)

	span.SetAttributes(attribute.String("checkout.session_id", resp.SessionID))
	span.SetStatus(codes.Ok, "")
	uc.log.Info("checkout session created",
		zap.String("session_id", resp.SessionID),
		zap.String("send_option", string(in.Order.SendOption)),
		zap.Int64("amount_cents", amount),
	)

	return &models.PaymentSession{
		SessionID:    resp.SessionID,
		ClientSecret: resp.ClientSecret,
		CustomerID:   customerID,
		AmountCents:  amount,
		Status:       models.SessionCreated,
		CreatedAt:    time.Now(),
	}, nil
}

// resolveCustomer returns the billing customer id for email, creating one at
// the provider the first time we see the address.
func (uc *UseCase) resolveCustomer(ctx context.Context, email, name string) (string, error) {
	id, err := uc.store.CustomerID(ctx, email)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	id, err = uc.provider.CreateCustomer(ctx, email, name)
	if err != nil {
		return "", fmt.Errorf("failed to create billing customer: %w", err)
	}
	if err := uc.store.SaveCustomer(ctx, email, id, name); err != nil {
		return "", err
	}
	return id, nil
}

func sessionMetadata(order models.Order) map[string]string {
	md := map[string]string{
		"email":       order.Email,
		"send_option": string(order.SendOption),
		"message":     truncate(order.Message, metadataValueLimit),
	}
	if order.Representative != nil {
		md["representative"] = order.Representative.OfficialID
	}
	return md
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Verify succeeds only when the provider reports the payment captured and
// the session complete. Any other state, including an unknown session id,
// comes back as Verified=false with the raw statuses for diagnostics.
func (uc *UseCase) Verify(ctx context.Context, sessionID string) (*models.Verification, error) {
	ctx, span := uc.tracer.Start(ctx, "VerifyPayment",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("checkout.session_id", sessionID)),
	)
	defer span.End()

	state, err := uc.provider.GetSession(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		span.SetStatus(codes.Error, "session not found")
		uc.metrics.PaymentsVerified.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "not_found")))
		return &models.Verification{Verified: false, SessionState: "not_found"}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	v := &models.Verification{
		Verified:      state.PaymentStatus == paymentStatusPaid && state.Status == sessionComplete,
		PaymentStatus: state.PaymentStatus,
		SessionState:  state.Status,
	}

	if v.Verified {
		if pending, err := uc.store.PendingOrder(ctx, sessionID); err == nil {
			v.PendingOrder = &pending.Order
		} else {
			// paid but unreadable pending order: the resume flow will
			// refuse to submit and route to refund
			uc.log.Warn("verified payment has no usable pending order",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	result := "failed"
	if v.Verified {
		result = "ok"
	}
	uc.metrics.PaymentsVerified.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))

	span.SetAttributes(attribute.Bool("checkout.verified", v.Verified))
	span.SetStatus(codes.Ok, "")
	uc.log.Info("payment verified",
		zap.String("session_id", sessionID),
		zap.Bool("verified", v.Verified),
		zap.String("payment_status", v.PaymentStatus),
		zap.String("session_state", v.SessionState),
	)
	return v, nil
}

// MarkSubmitted records that every postcard for the session went out.
func (uc *UseCase) MarkSubmitted(ctx context.Context, sessionID string) error {
	return uc.store.SetPendingOrderStatus(ctx, sessionID, models.PendingSubmitted)
}

// Refund reverses a captured payment after fulfillment has been given up on.
func (uc *UseCase) Refund(ctx context.Context, sessionID string) error {
	ctx, span := uc.tracer.Start(ctx, "RefundPayment",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("checkout.session_id", sessionID)),
	)
	defer span.End()

	if err := uc.provider.Refund(ctx, sessionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to refund session: %w", err)
	}

	if err := uc.store.SetPendingOrderStatus(ctx, sessionID, models.PendingRefunded); err != nil && !errors.Is(err, store.ErrNotFound) {
		uc.log.Warn("refund recorded at provider but not locally",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	uc.metrics.RefundsIssued.Add(ctx, 1)
	span.SetStatus(codes.Ok, "")
	uc.log.Info("payment refunded", zap.String("session_id", sessionID))
	return nil
}
