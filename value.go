package omekas

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/st-keller/omekas-client/types"
)

// Value is a read-only view of one property value of an item.
type Value struct {
	repo   *Repository
	term   string
	record types.ValueRecord
}

func newValue(repo *Repository, term string, record types.ValueRecord) *Value {
	return &Value{repo: repo, term: term, record: record}
}

// Value returns the decoded literal ("@value"), nil for resource/uri values
// without one. Numbers are json.Number.
func (v *Value) Value() any            { return v.record.Literal() }
func (v *Value) IsPublic() bool        { return v.record.IsPublic }
func (v *Value) PropertyID() int       { return v.record.PropertyID }
func (v *Value) PropertyLabel() string { return v.record.PropertyLabel }
func (v *Value) Type() string          { return v.record.Type }
func (v *Value) Term() string          { return v.term }

// Record returns the raw payload.
func (v *Value) Record() types.ValueRecord { return v.record }

// String returns a string literal as is and any other literal as compact JSON.
func (v *Value) String() string {
	literal := v.record.Literal()
	if literal == nil {
		return ""
	}
	if s, ok := literal.(string); ok {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v.record.Value); err != nil {
		return string(v.record.Value)
	}
	return buf.String()
}

// Property looks up the property this value is assigned to.
func (v *Value) Property(ctx context.Context) (*Property, error) {
	return v.repo.GetPropertyByID(ctx, v.record.PropertyID)
}

// DefaultValueType is the type of values added without WithType.
const DefaultValueType = "literal"

// ValueOption configures a value added with Item.AddProperty.
type ValueOption func(*types.ValueRecord)

// Private marks the value as not public.
func Private() ValueOption {
	return func(r *types.ValueRecord) { r.IsPublic = false }
}

// WithType sets the value type (e.g. "uri", "resource").
func WithType(valueType string) ValueOption {
	return func(r *types.ValueRecord) { r.Type = valueType }
}
