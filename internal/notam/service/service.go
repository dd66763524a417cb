// Package service runs NOTAM refresh cycles: it carries identity and user
// status from one fetch to the next, classifies every NOTAM for the
// flight, persists the cycle and announces newly appeared NOTAMs.
package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"notamcore/internal/flight"
	"notamcore/internal/geo"
	"notamcore/internal/notam/events"
	"notamcore/internal/notam/identity"
	"notamcore/internal/notam/metrics"
	"notamcore/internal/notam/models"
	"notamcore/internal/notam/priority"
	dErrors "notamcore/pkg/domain-errors"
	"notamcore/pkg/platform/sentinel"
	"notamcore/pkg/requestcontext"
)

const tracerName = "notamcore/internal/notam/service"

// Store persists the state a refresh cycle hands to the next one.
type Store interface {
	LoadCycle(ctx context.Context, scope string) (*models.Cycle, error)
	SaveCycle(ctx context.Context, scope string, cycle *models.Cycle) error
	SetStatus(ctx context.Context, scope, key string, status models.Status) error
}

// Publisher announces NOTAMs seen for the first time.
type Publisher interface {
	Publish(ctx context.Context, evts ...events.NewNotamEvent) error
}

// Service orchestrates refresh cycles.
type Service struct {
	store     Store
	publisher Publisher
	evaluator *priority.Evaluator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithEvaluator(e *priority.Evaluator) Option {
	return func(s *Service) {
		s.evaluator = e
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: events.NopPublisher{},
		evaluator: priority.Default,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate classifies notams for fc without touching cycle state. The
// result is sorted by priority, highest first, then by effective time.
func (s *Service) Evaluate(ctx context.Context, fc flight.Context, inputs []priority.Input) ([]ClassifiedNotam, error) {
	ctx, span := s.tracer.Start(ctx, "notam.evaluate",
		trace.WithAttributes(attribute.Int("notam.count", len(inputs))))
	defer span.End()

	start := time.Now()
	inputs = fillDistances(fc, inputs)
	results, err := s.evaluator.EvaluateAll(ctx, inputs, fc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation aborted")
		return nil, translateContextErr(err)
	}
	s.metrics.ObserveEvaluateLatency(time.Since(start))

	classified := make([]ClassifiedNotam, len(inputs))
	for i, in := range inputs {
		classified[i] = ClassifiedNotam{
			Notam:       in.Notam,
			IdentityKey: identity.Key(in.Notam),
			DistanceNM:  in.DistanceNM,
			Priority:    results[i].Priority,
			Rule:        results[i].Rule,
		}
		s.metrics.IncrementClassification(results[i].Priority, results[i].Rule)
	}
	sortClassified(classified)
	return classified, nil
}

// Refresh runs one fetch cycle for a scope.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResult, error) {
	scope := strings.TrimSpace(req.Scope)
	if scope == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "scope is required")
	}

	ctx, span := s.tracer.Start(ctx, "notam.refresh", trace.WithAttributes(
		attribute.String("notam.scope", scope),
		attribute.Int("notam.count", len(req.Notams)),
	))
	defer span.End()
	start := time.Now()
	now := requestcontext.Now(ctx)

	previous, err := s.store.LoadCycle(ctx, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load cycle")
		return nil, translateStoreErr(err, "failed to load notam cycle")
	}

	current := make([]models.Notam, len(req.Notams))
	for i, in := range req.Notams {
		current[i] = in.Notam
	}
	diff := identity.Diff(previous.Keys, current)
	fresh := identity.FindNewNotams(current, previous.Keys)
	statuses := identity.TransferStatuses(previous.Statuses, current)

	inputs := req.Notams
	if req.FilterToFlightWindow {
		inputs = slices.DeleteFunc(slices.Clone(inputs), func(in priority.Input) bool {
			return !req.Flight.IsRelevantInTime(in.Notam)
		})
	}

	classified, err := s.Evaluate(ctx, req.Flight, inputs)
	if err != nil {
		return nil, err
	}
	freshKeys := identity.IdentityKeys(fresh)
	for i := range classified {
		_, classified[i].IsNew = freshKeys[classified[i].IdentityKey]
		if st, ok := previous.Statuses[classified[i].IdentityKey]; ok {
			classified[i].Status = st
		}
	}

	// Statuses stay with the store: it prunes those whose NOTAM lapsed and
	// keeps any set while this cycle was being classified.
	next := &models.Cycle{Keys: identity.IdentityKeys(current), Statuses: map[string]models.Status{}}
	if err := s.store.SaveCycle(ctx, scope, next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save cycle")
		return nil, translateStoreErr(err, "failed to save notam cycle")
	}

	result := &RefreshResult{
		CycleID:     uuid.NewString(),
		Scope:       scope,
		Notams:      classified,
		Statuses:    statuses,
		Diff:        diff,
		RefreshedAt: now,
	}
	s.publishNew(ctx, result)

	s.metrics.AddCycleOutcome("new", len(diff.Added))
	s.metrics.AddCycleOutcome("retained", len(diff.Retained))
	s.metrics.AddCycleOutcome("removed", len(diff.Removed))
	s.metrics.AddStatusTransfers(len(statuses))
	s.metrics.ObserveRefreshLatency(time.Since(start))

	span.SetAttributes(
		attribute.String("notam.cycle_id", result.CycleID),
		attribute.Int("notam.new", len(diff.Added)),
		attribute.Int("notam.removed", len(diff.Removed)),
	)
	s.logger.InfoContext(ctx, "notam cycle refreshed",
		"request_id", requestcontext.RequestID(ctx),
		"scope", scope,
		"cycle_id", result.CycleID,
		"notams", len(current),
		"classified", len(classified),
		"new", len(diff.Added),
		"removed", len(diff.Removed),
		"statuses_carried", len(statuses),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// SetStatus records a user status against an identity key.
func (s *Service) SetStatus(ctx context.Context, scope, key, status string) error {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return dErrors.New(dErrors.CodeValidation, "scope is required")
	}
	if strings.Count(key, identity.Separator) != 3 {
		return dErrors.New(dErrors.CodeValidation, "key must be a notam identity key")
	}
	st, err := models.ParseStatus(status)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "status must be one of unread, read, important")
	}
	if err := s.store.SetStatus(ctx, scope, key, st); err != nil {
		return translateStoreErr(err, "failed to store notam status")
	}
	s.logger.InfoContext(ctx, "notam status set",
		"request_id", requestcontext.RequestID(ctx),
		"scope", scope,
		"key", key,
		"status", st,
	)
	return nil
}

func (s *Service) publishNew(ctx context.Context, result *RefreshResult) {
	var evts []events.NewNotamEvent
	for _, c := range result.Notams {
		if !c.IsNew {
			continue
		}
		evts = append(evts, events.NewNotamEvent{
			EventID:       uuid.NewString(),
			CycleID:       result.CycleID,
			Scope:         result.Scope,
			IdentityKey:   c.IdentityKey,
			NotamID:       c.Notam.ID,
			Location:      c.Notam.Location,
			QCode:         c.Notam.QCode,
			Priority:      c.Priority,
			Rule:          c.Rule,
			EffectiveFrom: c.Notam.EffectiveFrom,
			DetectedAt:    result.RefreshedAt,
		})
	}
	if len(evts) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		s.metrics.IncrementPublishFailures()
		s.logger.WarnContext(ctx, "failed to publish new notam events",
			"scope", result.Scope,
			"cycle_id", result.CycleID,
			"events", len(evts),
			"error", err,
		)
	}
}

func fillDistances(fc flight.Context, inputs []priority.Input) []priority.Input {
	if !fc.HasValidRoute() {
		return inputs
	}
	out := slices.Clone(inputs)
	for i := range out {
		if out[i].DistanceNM != nil || out[i].Notam.Coordinate == nil {
			continue
		}
		if d, ok := geo.DistanceToRouteNM(*out[i].Notam.Coordinate, fc.RouteCoordinates); ok {
			out[i].DistanceNM = &d
		}
	}
	return out
}

func sortClassified(c []ClassifiedNotam) {
	slices.SortStableFunc(c, func(a, b ClassifiedNotam) int {
		if a.Priority != b.Priority {
			return cmp.Compare(b.Priority, a.Priority)
		}
		return a.Notam.EffectiveFrom.Compare(b.Notam.EffectiveFrom)
	})
}

func translateStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "notam store unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func translateContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "notam evaluation timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "notam evaluation aborted")
}
