package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"exportdocs/internal/shipment/models"
	id "exportdocs/pkg/domain"
	dErrors "exportdocs/pkg/domain-errors"
	"exportdocs/pkg/platform/events"
	"exportdocs/pkg/platform/sentinel"
	"exportdocs/pkg/requestcontext"
)

// Status returns the aggregated compliance summary, from cache when possible.
func (s *Service) Status(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (models.Summary, error) {
	if s.cache != nil {
		summary, ok := s.cache.Get(ctx, orgID, shipmentID)
		s.metrics.IncrementCacheLookup(ok)
		if ok {
			return summary, nil
		}
	}
	return s.Recompute(ctx, orgID, shipmentID)
}

// Recompute validates the shipment against all its documents, persists the
// derived status when it changed and emits shipment-compliance-changed.
func (s *Service) Recompute(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (models.Summary, error) {
	summary, _, err := s.recompute(ctx, orgID, shipmentID)
	return summary, err
}

func (s *Service) recompute(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (models.Summary, bool, error) {
	ctx, span := tracer.Start(ctx, "shipment.recompute", trace.WithAttributes(
		attribute.String("organization_id", orgID.String()),
		attribute.String("shipment_id", shipmentID.String()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveRecomputeLatency(time.Since(start))
	}()

	var lastErr error
	for attempt := 0; attempt < maxRecomputeAttempts; attempt++ {
		summary, changed, err := s.recomputeOnce(ctx, orgID, shipmentID)
		if err == nil {
			span.SetAttributes(attribute.String("status", string(summary.Status)), attribute.Bool("changed", changed))
			return summary, changed, nil
		}
		if !errors.Is(err, sentinel.ErrStaleState) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "recompute failed")
			return models.Summary{}, false, translate(err, "shipment not found", "failed to recompute shipment status")
		}
		lastErr = err
	}
	span.SetStatus(codes.Error, "recompute kept losing races")
	return models.Summary{}, false, translate(lastErr, "shipment not found", "failed to recompute shipment status")
}

func (s *Service) recomputeOnce(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (models.Summary, bool, error) {
	shipment, err := s.shipments.FindByID(ctx, orgID, shipmentID)
	if err != nil {
		return models.Summary{}, false, err
	}
	docs, err := s.documents.ListByShipment(ctx, orgID, shipmentID)
	if err != nil {
		return models.Summary{}, false, err
	}

	now := requestcontext.Now(ctx)
	summary := s.validator.Validate(shipment, docs, now).Summary

	from := shipment.Status
	expected := shipment.Version
	changed := !shipment.IsArchived() && shipment.ApplyStatus(summary.Status, now)
	if changed {
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.shipments.Update(ctx, orgID, shipment, expected); err != nil {
				return err
			}
			ev, err := events.New(events.TypeShipmentComplianceChanged, orgID, events.AggregateShipment, shipmentID.String(), now,
				events.ShipmentComplianceChanged{
					ShipmentID:   shipmentID.String(),
					Reference:    shipment.Reference,
					From:         string(from),
					To:           string(summary.Status),
					Missing:      typeNames(summary.Missing),
					ErrorCount:   summary.ErrorCount,
					WarningCount: summary.WarningCount,
				})
			if err != nil {
				return err
			}
			return s.publisher.Publish(ctx, ev)
		})
		if err != nil {
			return models.Summary{}, false, err
		}
		s.metrics.IncrementStatusChange(string(summary.Status))
		s.logAudit(ctx, "shipment_compliance_changed",
			"organization_id", orgID.String(),
			"shipment_id", shipmentID.String(),
			"from", string(from),
			"to", string(summary.Status),
			"error_count", summary.ErrorCount,
		)
	}

	if s.cache != nil {
		s.cache.Put(ctx, orgID, shipmentID, summary)
	}
	return summary, changed, nil
}

// RecomputeAll re-evaluates every shipment of an organization with bounded
// parallelism, for instance after the compliance matrix changed. It returns
// how many statuses changed. The first failure cancels the remaining work.
func (s *Service) RecomputeAll(ctx context.Context, orgID id.OrganizationID) (int, error) {
	ctx, span := tracer.Start(ctx, "shipment.recompute_all", trace.WithAttributes(
		attribute.String("organization_id", orgID.String()),
	))
	defer span.End()

	shipments, err := s.shipments.ListByOrganization(ctx, orgID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list shipments")
	}

	var changed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, shipment := range shipments {
		if shipment.IsArchived() {
			continue
		}
		shipmentID := shipment.ID
		g.Go(func() error {
			_, didChange, err := s.recompute(gctx, orgID, shipmentID)
			if err != nil {
				return err
			}
			if didChange {
				changed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return int(changed.Load()), err
	}

	s.logAudit(ctx, "shipments_recomputed",
		"organization_id", orgID.String(),
		"total", len(shipments),
		"changed", changed.Load(),
	)
	return int(changed.Load()), nil
}
