// Package priority classifies NOTAMs as high, normal or low for a flight.
//
// Classification is a fixed chain of independent rules: the first rule
// that does not abstain decides, and a NOTAM no rule claims is normal.
// This is pure domain logic with no I/O; an Evaluator is safe to share.
package priority

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"notamcore/internal/flight"
	"notamcore/internal/notam/models"
)

// RuleDefault names the outcome when every rule abstains.
const RuleDefault = "default"

// Result is a classification with the rule that produced it.
type Result struct {
	Priority models.Priority
	Rule     string
}

// Input pairs a NOTAM with its externally computed distance to the route.
type Input struct {
	Notam      models.Notam
	DistanceNM *float64
}

type options struct {
	proximityNM         float64
	altitudeToleranceFt int
	concurrency         int
	rules               []Rule
}

// Option configures an Evaluator.
type Option func(*options)

// WithProximityNM overrides the close-to-route threshold.
func WithProximityNM(nm float64) Option {
	return func(o *options) {
		if nm > 0 {
			o.proximityNM = nm
		}
	}
}

// WithAltitudeToleranceFt overrides the cruise band half-width.
func WithAltitudeToleranceFt(ft int) Option {
	return func(o *options) {
		if ft >= 0 {
			o.altitudeToleranceFt = ft
		}
	}
}

// WithConcurrency bounds the workers used by EvaluateAll.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRules replaces the chain. Used by tests that pin ordering.
func WithRules(rules ...Rule) Option {
	return func(o *options) {
		o.rules = slices.Clone(rules)
	}
}

func applyOptions(opts []Option) options {
	o := options{
		proximityNM:         DefaultProximityNM,
		altitudeToleranceFt: DefaultAltitudeToleranceFt,
		concurrency:         runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Evaluator runs the rule chain.
type Evaluator struct {
	rules       []Rule
	concurrency int
}

// Default is the shared evaluator with the standard chain and thresholds.
var Default = New()

// New builds an evaluator. Without WithRules it uses DefaultRules with the
// configured thresholds.
func New(opts ...Option) *Evaluator {
	o := applyOptions(opts)
	rules := o.rules
	if rules == nil {
		rules = DefaultRules(opts...)
	}
	return &Evaluator{rules: rules, concurrency: o.concurrency}
}

// Rules returns the chain in evaluation order.
func (e *Evaluator) Rules() []Rule {
	return slices.Clone(e.rules)
}

// RuleNames returns the names of the chain in evaluation order.
func (e *Evaluator) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate returns the first non-abstaining rule's priority, or normal.
func (e *Evaluator) Evaluate(n models.Notam, distanceNM *float64, fc flight.Context) models.Priority {
	return e.Explain(n, distanceNM, fc).Priority
}

// Explain is Evaluate plus the name of the deciding rule.
func (e *Evaluator) Explain(n models.Notam, distanceNM *float64, fc flight.Context) Result {
	for _, r := range e.rules {
		if p, ok := r.Evaluate(n, distanceNM, fc); ok {
			return Result{Priority: p, Rule: r.Name()}
		}
	}
	return Result{Priority: models.PriorityNormal, Rule: RuleDefault}
}

// EvaluateAll classifies a batch in parallel. results[i] belongs to
// inputs[i]. It only fails when ctx is cancelled.
func (e *Evaluator) EvaluateAll(ctx context.Context, inputs []Input, fc flight.Context) ([]Result, error) {
	results := make([]Result, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Explain(inputs[i].Notam, inputs[i].DistanceNM, fc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The loop may have stopped early on a cancelled parent.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
