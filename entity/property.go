package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Property describes a single declared field of an entity type. It maps a
// developer-facing declaration to a wire field name and knows how to coerce
// and render values of its kind. Implementations are immutable and shared
// by all instances of the declaring type.
type Property interface {
	// Name returns the wire field name the property maps to.
	Name() string
	// IsKey reports whether the property is the declared primary key.
	IsKey() bool
	// FromRaw converts a raw wire value into the property's Go value.
	// A nil raw value converts to nil.
	FromRaw(raw any) (any, error)
	// EscapeValue renders a value as an OData URL literal, used for key
	// segments and the debug representation.
	EscapeValue(value any) string
}

// PropertyOption configures a property descriptor at declaration time.
type PropertyOption func(*propertyBase)

// PrimaryKey marks the property as the entity type's primary key.
// At most one property per type may carry it.
func PrimaryKey() PropertyOption {
	return func(b *propertyBase) { b.key = true }
}

// propertyBase carries the state shared by all concrete descriptors.
type propertyBase struct {
	name string
	key  bool
}

// Name returns the wire field name.
func (b *propertyBase) Name() string { return b.name }

// IsKey reports whether the property is the primary key.
func (b *propertyBase) IsKey() bool { return b.key }

func newBase(name string, opts []PropertyOption) propertyBase {
	b := propertyBase{name: name}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// --- String ---

// StringProperty maps to an Edm.String field.
type StringProperty struct {
	propertyBase
}

// String declares a string property with the given wire name.
func String(name string, opts ...PropertyOption) *StringProperty {
	return &StringProperty{newBase(name, opts)}
}

// FromRaw coerces a raw value to string. Non-string scalars are formatted.
func (p *StringProperty) FromRaw(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", raw), nil
}

// EscapeValue renders a string as a quoted OData literal, doubling
// embedded single quotes.
func (p *StringProperty) EscapeValue(value any) string {
	s, _ := value.(string)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// --- Integer ---

// IntegerProperty maps to an Edm.Int32 or Edm.Int64 field. Values are
// normalized to int64.
type IntegerProperty struct {
	propertyBase
}

// Integer declares an integer property with the given wire name.
func Integer(name string, opts ...PropertyOption) *IntegerProperty {
	return &IntegerProperty{newBase(name, opts)}
}

// FromRaw coerces a raw numeric value to int64.
func (p *IntegerProperty) FromRaw(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as integer", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to integer", raw)
	}
}

// EscapeValue renders an integer as a bare literal.
func (p *IntegerProperty) EscapeValue(value any) string {
	if n, ok := value.(int64); ok {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%v", value)
}

// --- Float ---

// FloatProperty maps to an Edm.Double or Edm.Single field. Values are
// normalized to float64.
type FloatProperty struct {
	propertyBase
}

// Float declares a floating point property with the given wire name.
func Float(name string, opts ...PropertyOption) *FloatProperty {
	return &FloatProperty{newBase(name, opts)}
}

// FromRaw coerces a raw numeric value to float64.
func (p *FloatProperty) FromRaw(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as float", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to float", raw)
	}
}

// EscapeValue renders a float as a bare literal.
func (p *FloatProperty) EscapeValue(value any) string {
	if f, ok := value.(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", value)
}

// --- Decimal ---

// DecimalProperty maps to an Edm.Decimal field. Values are kept as their
// decimal string representation to avoid binary float precision loss.
type DecimalProperty struct {
	propertyBase
}

// Decimal declares a decimal property with the given wire name.
func Decimal(name string, opts ...PropertyOption) *DecimalProperty {
	return &DecimalProperty{newBase(name, opts)}
}

// FromRaw coerces a raw value to its decimal string representation.
func (p *DecimalProperty) FromRaw(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("cannot parse %q as decimal", v)
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to decimal", raw)
	}
}

// EscapeValue renders a decimal as a bare literal.
func (p *DecimalProperty) EscapeValue(value any) string {
	return fmt.Sprintf("%v", value)
}

// --- Boolean ---

// BooleanProperty maps to an Edm.Boolean field.
type BooleanProperty struct {
	propertyBase
}

// Boolean declares a boolean property with the given wire name.
func Boolean(name string, opts ...PropertyOption) *BooleanProperty {
	return &BooleanProperty{newBase(name, opts)}
}

// FromRaw coerces a raw value to bool.
func (p *BooleanProperty) FromRaw(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to boolean", raw)
}

// EscapeValue renders a boolean as true or false.
func (p *BooleanProperty) EscapeValue(value any) string {
	if b, ok := value.(bool); ok && b {
		return "true"
	}
	return "false"
}

// --- Datetime ---

// datetimeLayouts are tried in order when parsing wire datetime strings.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DatetimeProperty maps to an Edm.DateTimeOffset or Edm.Date field.
// Values are normalized to time.Time.
type DatetimeProperty struct {
	propertyBase
}

// Datetime declares a datetime property with the given wire name.
func Datetime(name string, opts ...PropertyOption) *DatetimeProperty {
	return &DatetimeProperty{newBase(name, opts)}
}

// FromRaw coerces a raw value to time.Time.
func (p *DatetimeProperty) FromRaw(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("cannot parse datetime string %q", v)
	default:
		return nil, fmt.Errorf("cannot coerce %T to datetime", raw)
	}
}

// EscapeValue renders a datetime as a bare ISO 8601 literal.
func (p *DatetimeProperty) EscapeValue(value any) string {
	if t, ok := value.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%v", value)
}

// --- Guid ---

// GuidProperty maps to an Edm.Guid field. Values are normalized to uuid.UUID.
type GuidProperty struct {
	propertyBase
}

// Guid declares a GUID property with the given wire name.
func Guid(name string, opts ...PropertyOption) *GuidProperty {
	return &GuidProperty{newBase(name, opts)}
}

// FromRaw coerces a raw value to uuid.UUID.
func (p *GuidProperty) FromRaw(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as guid", v)
		}
		return id, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to guid", raw)
	}
}

// EscapeValue renders a GUID as a bare canonical literal.
func (p *GuidProperty) EscapeValue(value any) string {
	if id, ok := value.(uuid.UUID); ok {
		return id.String()
	}
	return fmt.Sprintf("%v", value)
}
