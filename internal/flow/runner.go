// Package flow drives the post-payment resume: verify the redirect's
// session, re-submit the stored order with bounded retries, and fall back to
// a refund when fulfillment cannot be completed. Payment capture and
// postcard submission are not transactionally linked; this compensation path
// is the mitigation.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civicpost/internal/checkout"
	"civicpost/internal/fulfillment"
	"civicpost/internal/models"
)

type Outcome string

const (
	// OutcomeDone: payment captured, every postcard submitted.
	OutcomeDone Outcome = "done"
	// OutcomeRefunded: fulfillment exhausted its attempts, payment reversed.
	OutcomeRefunded Outcome = "refunded"
	// OutcomeCancelled: payment was never captured.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeReview: ordering hit the time ceiling; the user proceeds to the
	// review screen instead of hanging.
	OutcomeReview Outcome = "review"
)

type ResumeResult struct {
	Outcome      Outcome              `json:"outcome"`
	Verification *models.Verification `json:"verification,omitempty"`
	Batch        *models.BatchResult  `json:"batch,omitempty"`
	Attempts     int                  `json:"attempts"`
}

type Runner struct {
	checkout *checkout.UseCase
	fulfill  *fulfillment.UseCase
	log      *zap.Logger
	tracer   trace.Tracer

	maxAttempts uint
	ceiling     time.Duration
}

func NewRunner(co *checkout.UseCase, fu *fulfillment.UseCase, log *zap.Logger, tracer trace.Tracer) *Runner {
	return &Runner{
		checkout:    co,
		fulfill:     fu,
		log:         log,
		tracer:      tracer,
		maxAttempts: 3,
		ceiling:     45 * time.Second,
	}
}

var errPartialFailure = errors.New("some recipients failed")

// Resume is idempotent on its input: every attempt replays the identical
// stored order. Already-succeeded recipients may get duplicate vendor
// orders on retry; that costs money, not correctness, and is accepted.
func (r *Runner) Resume(ctx context.Context, sessionID string) (*ResumeResult, error) {
	ctx, span := r.tracer.Start(ctx, "ResumeCheckout",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("checkout.session_id", sessionID)),
	)
	defer span.End()

	v, err := r.checkout.Verify(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !v.Verified {
		span.SetStatus(codes.Ok, "")
		return &ResumeResult{Outcome: OutcomeCancelled, Verification: v}, nil
	}

	if v.PendingOrder == nil {
		// paid, but the stored order is missing or failed validation:
		// nothing safe to submit, reverse the charge
		r.log.Warn("refunding session with unusable pending order", zap.String("session_id", sessionID))
		if err := r.checkout.Refund(ctx, sessionID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		return &ResumeResult{Outcome: OutcomeRefunded, Verification: v}, nil
	}

	orderCtx, cancel := context.WithTimeout(ctx, r.ceiling)
	defer cancel()

	var (
		attempts  int
		lastBatch *models.BatchResult
	)
	_, retryErr := backoff.Retry(orderCtx, func() (*models.BatchResult, error) {
		attempts++
		batch := r.fulfill.Submit(orderCtx, sessionID, *v.PendingOrder)
		lastBatch = batch
		if batch.Reason != "" {
			// missing data cannot heal by retrying
			return batch, backoff.Permanent(errors.New(batch.Reason))
		}
		if !batch.Success {
			return batch, fmt.Errorf("%w: %d of %d", errPartialFailure, batch.Failed, len(batch.Results))
		}
		return batch, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(r.maxAttempts),
	)

	result := &ResumeResult{Verification: v, Batch: lastBatch, Attempts: attempts}

	if retryErr == nil {
		if err := r.checkout.MarkSubmitted(ctx, sessionID); err != nil {
			r.log.Warn("could not mark pending order submitted",
				zap.String("session_id", sessionID), zap.Error(err))
		}
		span.SetStatus(codes.Ok, "")
		result.Outcome = OutcomeDone
		r.log.Info("checkout resumed and fulfilled",
			zap.String("session_id", sessionID),
			zap.Int("attempts", attempts),
		)
		return result, nil
	}

	if orderCtx.Err() != nil && ctx.Err() == nil {
		// ceiling hit: degrade to the review screen rather than blocking
		span.SetStatus(codes.Error, "ordering timed out")
		result.Outcome = OutcomeReview
		r.log.Warn("ordering exceeded ceiling, routing to review",
			zap.String("session_id", sessionID),
			zap.Int("attempts", attempts),
		)
		return result, nil
	}

	// attempts exhausted (or unsubmittable order): compensate
	r.log.Warn("fulfillment gave up, refunding",
		zap.String("session_id", sessionID),
		zap.Int("attempts", attempts),
		zap.Error(retryErr),
	)
	if err := r.checkout.Refund(ctx, sessionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Error, retryErr.Error())
	result.Outcome = OutcomeRefunded
	return result, nil
}
