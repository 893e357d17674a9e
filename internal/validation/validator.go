// Package validation runs the cross-document rule set over a shipment and
// all of its documents.
//
// Validation is read-only over a snapshot: it never mutates its inputs, every
// rule runs on every pass, and the same snapshot always yields the same
// ordered issue list. Callers may run passes in parallel.
package validation

import (
	"time"

	"exportdocs/internal/compliance"
	docmodels "exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	shipmodels "exportdocs/internal/shipment/models"
	"exportdocs/internal/validation/metrics"
)

const (
	DefaultWeightTolerance = 0.05
	// weights closer than this are treated as equal rounding
	defaultNoiseFloor = 0.001
)

// Config tunes rule thresholds.
type Config struct {
	// WeightTolerance is the relative deviation above which weights
	// contradict each other. Deviations within it raise a WARNING.
	WeightTolerance float64
	// SuggestionThreshold is the extraction confidence below which a bill of
	// lading's container is flagged as unreliable.
	SuggestionThreshold float64
}

func (c Config) withDefaults() Config {
	if c.WeightTolerance <= 0 {
		c.WeightTolerance = DefaultWeightTolerance
	}
	if c.SuggestionThreshold <= 0 {
		c.SuggestionThreshold = extraction.SuggestionThreshold
	}
	return c
}

// Input is the snapshot a rule evaluates.
type Input struct {
	Shipment    *shipmodels.Shipment
	Documents   []*docmodels.Document
	Requirement compliance.Requirement
	AsOf        time.Time
	Config      Config
}

// Report is the outcome of one validation pass.
type Report struct {
	Requirement compliance.Requirement
	Issues      docmodels.Issues
	Summary     shipmodels.Summary
}

// Validator applies a registered rule set.
type Validator struct {
	matrix  *compliance.Matrix
	rules   []Rule
	config  Config
	metrics *metrics.Metrics
}

// Option configures a Validator.
type Option func(*Validator)

// WithConfig overrides the rule thresholds.
func WithConfig(cfg Config) Option {
	return func(v *Validator) {
		v.config = cfg.withDefaults()
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

// WithRules replaces the default rule registry.
func WithRules(rules ...Rule) Option {
	return func(v *Validator) {
		v.rules = append([]Rule(nil), rules...)
	}
}

// New creates a Validator over the given matrix with the default rules.
func New(matrix *compliance.Matrix, opts ...Option) *Validator {
	v := &Validator{
		matrix: matrix,
		rules:  DefaultRules(),
		config: Config{}.withDefaults(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Config returns the effective thresholds.
func (v *Validator) Config() Config {
	return v.config
}

// Matrix returns the requirement table in use.
func (v *Validator) Matrix() *compliance.Matrix {
	return v.matrix
}

// Validate evaluates every rule over the shipment and all its documents.
// Issues are ordered by rule registration, then by document order.
func (v *Validator) Validate(shipment *shipmodels.Shipment, docs []*docmodels.Document, asOf time.Time) Report {
	start := time.Now()
	defer func() {
		v.metrics.ObserveValidateLatency(time.Since(start))
	}()

	in := &Input{
		Shipment:    shipment,
		Documents:   docmodels.SortDocuments(docs),
		Requirement: v.matrix.RequirementsFor(shipment.CommodityCode),
		AsOf:        asOf,
		Config:      v.config,
	}

	var issues docmodels.Issues
	for _, r := range v.rules {
		for _, issue := range r.Check(in) {
			issue.RuleID = r.ID
			issues = append(issues, issue)
			v.metrics.IncrementIssue(r.ID, string(issue.Severity))
		}
	}

	return Report{
		Requirement: in.Requirement,
		Issues:      issues,
		Summary:     shipmodels.Aggregate(in.Requirement, in.Documents, issues),
	}
}
