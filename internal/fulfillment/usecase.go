package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civicpost/internal/address"
	"civicpost/internal/models"
	"civicpost/internal/pricing"
	"civicpost/internal/store"
	"civicpost/internal/telemetry"
)

const (
	defaultFont       = "typewriter"
	defaultBackground = "capitol"

	RecipientTypeRepresentative = "representative"
	RecipientTypeSenator        = "senator"
)

type UseCase struct {
	vendor  Vendor
	store   *store.Store
	metrics *telemetry.Metrics
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewUseCase(vendor Vendor, st *store.Store, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{vendor: vendor, store: st, metrics: metrics, log: log, tracer: tracer}
}

// Submit issues one vendor order per recipient: the representative plus as
// many senators as the send option pays for, never more. Requests fan out
// concurrently and are fully independent; one recipient's failure is
// recorded on that recipient and never aborts the others. The returned
// batch always carries every recipient's result.
func (uc *UseCase) Submit(ctx context.Context, sessionID string, order models.Order) *models.BatchResult {
	ctx, span := uc.tracer.Start(ctx, "SubmitOrder",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("order.session_id", sessionID),
			attribute.String("order.send_option", string(order.SendOption)),
		),
	)
	defer span.End()
	start := time.Now()

	uc.metrics.SubmitAttempts.Add(ctx, 1)

	// Guard against resuming from a corrupted or partial pending order:
	// without these fields no vendor call is worth attempting.
	sender := address.Parse(order.SenderAddress, order.Sender)
	if reason := missingData(order, sender); reason != "" {
		span.SetStatus(codes.Error, reason)
		uc.log.Warn("order rejected before submission",
			zap.String("session_id", sessionID),
			zap.String("reason", reason),
		)
		return &models.BatchResult{Reason: reason}
	}

	recipients := targets(order)
	span.SetAttributes(attribute.Int("order.recipients", len(recipients)))

	results := make([]models.FulfillmentResult, len(recipients))
	var wg sync.WaitGroup
	for i, t := range recipients {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			results[i] = uc.sendOne(ctx, sessionID, order, sender, t)
		}(i, t)
	}
	wg.Wait()

	batch := &models.BatchResult{Results: results}
	for _, r := range results {
		if r.Status == models.FulfillmentSuccess {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	batch.Success = batch.Failed == 0

	uc.metrics.SubmitDuration.Record(ctx, time.Since(start).Seconds())
	if batch.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d recipients failed", batch.Failed, len(results)))
	}
	uc.log.Info("order submitted",
		zap.String("session_id", sessionID),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", batch.Failed),
	)
	return batch
}

func missingData(order models.Order, sender models.Address) string {
	switch {
	case strings.TrimSpace(order.SenderName) == "":
		return "missing sender name"
	case strings.TrimSpace(sender.Street) == "":
		return "missing sender street address"
	case order.Representative == nil || strings.TrimSpace(order.Representative.Name) == "":
		return "missing representative"
	case strings.TrimSpace(order.Message) == "":
		return "missing message"
	}
	return ""
}

type target struct {
	recipient models.Recipient
	kind      string
}

// targets caps the senator fan-out by what the send option paid for, even
// when the payload carries more senators.
func targets(order models.Order) []target {
	out := []target{{recipient: *order.Representative, kind: RecipientTypeRepresentative}}
	limit := pricing.SenatorLimit(order.SendOption)
	for i, s := range order.Senators {
		if i >= limit {
			break
		}
		out = append(out, target{recipient: s, kind: RecipientTypeSenator})
	}
	return out
}

func (uc *UseCase) sendOne(ctx context.Context, sessionID string, order models.Order, sender models.Address, t target) models.FulfillmentResult {
	ctx, span := uc.tracer.Start(ctx, "CreatePostcard",
		trace.WithAttributes(
			attribute.String("postcard.recipient", t.recipient.Name),
			attribute.String("postcard.recipient_type", t.kind),
		),
	)
	defer span.End()

	result := models.FulfillmentResult{
		RecipientRef:  t.recipient.OfficialID,
		RecipientType: t.kind,
	}
	if result.RecipientRef == "" {
		result.RecipientRef = t.recipient.Name
	}

	uid := uuid.NewString()
	req := PostcardRequest{
		Font:       defaultFont,
		Message:    renderMessage(order.Message, t.recipient),
		Background: defaultBackground,
		Recipient: AddressBlock{
			Name:     t.recipient.Name,
			Street:   t.recipient.OfficeAddress.Street,
			City:     t.recipient.OfficeAddress.City,
			StateZip: t.recipient.OfficeAddress.State + " " + t.recipient.OfficeAddress.Zip,
		},
		Sender: AddressBlock{
			Name:     order.SenderName,
			Street:   sender.Street,
			City:     sender.City,
			StateZip: sender.State + " " + sender.Zip,
		},
		UID: uid,
	}
	req.Metadata.RecipientType = t.kind
	req.Metadata.OfficialID = t.recipient.OfficialID

	vendorOrderID, err := uc.vendor.CreatePostcard(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.metrics.PostcardsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		result.Status = models.FulfillmentError
		result.ErrorDetail = err.Error()
		return result
	}

	if err := uc.store.SavePostcard(ctx, store.Postcard{
		UID:           uid,
		SessionID:     sessionID,
		Email:         order.Email,
		OfficialID:    t.recipient.OfficialID,
		RecipientType: t.kind,
		VendorOrderID: vendorOrderID,
	}); err != nil {
		// the card is on its way; losing the row only costs the
		// delivery notification
		uc.log.Error("postcard sent but correlation row not saved",
			zap.String("uid", uid), zap.Error(err))
	}

	uc.metrics.PostcardsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	span.SetStatus(codes.Ok, "")

	result.Status = models.FulfillmentSuccess
	result.VendorOrderID = vendorOrderID
	return result
}

// renderMessage substitutes the recipient into the message template. A
// literal {recipient} placeholder is replaced; otherwise a salutation line
// is prepended.
func renderMessage(message string, r models.Recipient) string {
	full := displayName(r)
	if strings.Contains(message, "{recipient}") {
		return strings.ReplaceAll(message, "{recipient}", full)
	}
	return "Dear " + full + ",\n\n" + message
}

func displayName(r models.Recipient) string {
	title := r.Title
	if title == "" {
		if r.Chamber == models.ChamberSenate {
			title = "Senator"
		} else {
			title = "Representative"
		}
	}
	return title + " " + r.Name
}
