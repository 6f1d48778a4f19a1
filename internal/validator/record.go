package validator

import (
	"time"

	"agroprice/internal/domain"
)

// WeekEndDateLayout is the accepted format of ParsedPriceRecord.WeekEndDate.
const WeekEndDateLayout = "2006-01-02"

// RecordRule is a single check applied to a reviewed price record before it is saved.
type RecordRule interface {
	RuleKey() string
	Validate(rec domain.ParsedPriceRecord) *domain.ValidationError
}

// Registry maps rule keys to RecordRule implementations and keeps registration order.
type Registry struct {
	keys  []string
	rules map[string]RecordRule
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]RecordRule)}
}

// DefaultRecordRules returns a registry holding the built-in record rules.
func DefaultRecordRules() *Registry {
	r := NewRegistry()
	r.Register(productNameRule{})
	r.Register(weekEndDateRule{})
	r.Register(unitPriceRule{})
	return r
}

// Register adds a rule to the registry, replacing any rule with the same key in place.
func (r *Registry) Register(rule RecordRule) {
	if _, ok := r.rules[rule.RuleKey()]; !ok {
		r.keys = append(r.keys, rule.RuleKey())
	}
	r.rules[rule.RuleKey()] = rule
}

// Get returns the rule for a given key, or nil if not found.
func (r *Registry) Get(key string) RecordRule {
	return r.rules[key]
}

// All returns all registered rules in registration order.
func (r *Registry) All() []RecordRule {
	out := make([]RecordRule, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.rules[k])
	}
	return out
}

// ValidateRecord runs every rule in order and returns the first failure.
func (r *Registry) ValidateRecord(rec domain.ParsedPriceRecord) error {
	for _, rule := range r.All() {
		if verr := rule.Validate(rec); verr != nil {
			return verr
		}
	}
	return nil
}

type productNameRule struct{}

func (productNameRule) RuleKey() string { return "record.product_name" }

func (productNameRule) Validate(rec domain.ParsedPriceRecord) *domain.ValidationError {
	if rec.ProductName == "" {
		return domain.NewValidationError("productName", "product name is required")
	}
	return nil
}

type weekEndDateRule struct{}

func (weekEndDateRule) RuleKey() string { return "record.week_end_date" }

func (weekEndDateRule) Validate(rec domain.ParsedPriceRecord) *domain.ValidationError {
	if _, err := time.Parse(WeekEndDateLayout, rec.WeekEndDate); err != nil {
		return domain.NewValidationError("weekEndDate", "invalid week end date %q for %q", rec.WeekEndDate, rec.ProductName)
	}
	return nil
}

type unitPriceRule struct{}

func (unitPriceRule) RuleKey() string { return "record.unit_price" }

func (unitPriceRule) Validate(rec domain.ParsedPriceRecord) *domain.ValidationError {
	if rec.UnitPrice <= 0 {
		return domain.NewValidationError("unitPrice", "invalid unit price %v for %q", rec.UnitPrice, rec.ProductName)
	}
	return nil
}
