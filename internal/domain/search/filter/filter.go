package filter

import "fmt"

// MaxConditions is the maximum number of conditions per expression.
const MaxConditions = 32

// Expression is a structured metadata filter: the logical AND of its conditions.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(conditions []Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conditions}, nil
}

// Conditions returns the filter conditions.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Matches reports whether metadata satisfies every condition. A condition on a
// key absent from the metadata never matches; an unknown key yields zero
// matches for that clause rather than an error, so filters compose safely
// with optional fields.
func (e Expression) Matches(tags map[string]string, numerics map[string]float64) bool {
	for _, c := range e.conditions {
		if !c.matches(tags, numerics) {
			return false
		}
	}
	return true
}

// Condition is a single filter clause: exact tag match, tag set membership,
// or numeric range. Exactly one kind is set.
type Condition struct {
	key       string
	match     string
	anyOf     []string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewAnyOf creates a tag set membership condition.
func NewAnyOf(key string, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("any_of requires at least one value for key %q", key)
	}
	return Condition{key: key, anyOf: values}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the metadata field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// AnyOf returns the accepted value set.
func (c Condition) AnyOf() []string { return c.anyOf }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is an exact match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsAnyOf reports whether this is a set membership condition.
func (c Condition) IsAnyOf() bool { return len(c.anyOf) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

func (c Condition) matches(tags map[string]string, numerics map[string]float64) bool {
	switch {
	case c.IsMatch():
		v, ok := tags[c.key]
		return ok && v == c.match
	case c.IsAnyOf():
		v, ok := tags[c.key]
		if !ok {
			return false
		}
		for _, accepted := range c.anyOf {
			if v == accepted {
				return true
			}
		}
		return false
	case c.IsRange():
		v, ok := numerics[c.key]
		return ok && c.rangeExpr.contains(v)
	default:
		return false
	}
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeBounds validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeBounds(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

func (r Range) contains(v float64) bool {
	if r.gt != nil && v <= *r.gt {
		return false
	}
	if r.gte != nil && v < *r.gte {
		return false
	}
	if r.lt != nil && v >= *r.lt {
		return false
	}
	if r.lte != nil && v > *r.lte {
		return false
	}
	return true
}
