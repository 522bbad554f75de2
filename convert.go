package ygggo_cassandra

import (
	"fmt"
	"net"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	inf "gopkg.in/inf.v0"
)

// WireType identifies a CQL protocol type on the application/wire boundary.
type WireType int

const (
	WireText WireType = iota + 1
	WireBigint
	WireInt
	WireDouble
	WireBoolean
	WireTimestamp
	WireDate
	WireTime
	WireUUID
	WireTimeUUID
	WireBlob
	WireDecimal
	WireInet
)

func (w WireType) String() string {
	switch w {
	case WireText:
		return "text"
	case WireBigint:
		return "bigint"
	case WireInt:
		return "int"
	case WireDouble:
		return "double"
	case WireBoolean:
		return "boolean"
	case WireTimestamp:
		return "timestamp"
	case WireDate:
		return "date"
	case WireTime:
		return "time"
	case WireUUID:
		return "uuid"
	case WireTimeUUID:
		return "timeuuid"
	case WireBlob:
		return "blob"
	case WireDecimal:
		return "decimal"
	case WireInet:
		return "inet"
	default:
		return "unknown"
	}
}

// WireValue is a bind value in wire-ready form. Value == nil binds as NULL.
type WireValue struct {
	Type  WireType
	Value any
}

// Optional models a maybe-present argument. An absent Optional binds as NULL.
type Optional struct {
	value   any
	present bool
}

// Some wraps a present value.
func Some(v any) Optional { return Optional{value: v, present: true} }

// None is the absent Optional.
func None() Optional { return Optional{} }

func (o Optional) Present() bool { return o.present }

// Get returns the wrapped value; nil when absent.
func (o Optional) Get() any { return o.value }

// ConversionRule converts values of Source into wire form (and back).
// Decode may be nil when the rule is encode-only.
type ConversionRule struct {
	Source reflect.Type
	Wire   WireType
	Encode func(v any) (any, error)
	Decode func(v any) (any, error)
}

type overrideKey struct {
	source reflect.Type
	wire   WireType
}

// conversionTable is an immutable snapshot of the active rule set. Lookups
// never mutate it, so concurrent readers need no locking.
type conversionTable struct {
	bySource   map[reflect.Type]ConversionRule
	byOverride map[overrideKey]ConversionRule
	byWire     map[WireType]ConversionRule
}

func newConversionTable(rules []ConversionRule) *conversionTable {
	t := &conversionTable{
		bySource:   make(map[reflect.Type]ConversionRule, len(rules)),
		byOverride: make(map[overrideKey]ConversionRule, len(rules)),
		byWire:     make(map[WireType]ConversionRule, len(rules)),
	}
	// Last-registered wins for each source type and wire type.
	for _, r := range rules {
		t.bySource[r.Source] = r
		t.byOverride[overrideKey{r.Source, r.Wire}] = r
		t.byWire[r.Wire] = r
	}
	return t
}

// Registry maps Go types to wire types. The whole rule set is swapped
// atomically by Register; Resolve readers observe either the full old set or
// the full new one, never a partial update.
type Registry struct {
	table atomic.Pointer[conversionTable]
}

// NewRegistry creates a registry seeded with the default rule set.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(DefaultRules())
	return r
}

// NewEmptyRegistry creates a registry with no rules; only wire-native values
// resolve until Register is called.
func NewEmptyRegistry() *Registry {
	r := &Registry{}
	r.Register(nil)
	return r
}

// Register replaces the entire active rule set. Rules are installed as one
// unit; there is no incremental add.
func (r *Registry) Register(rules []ConversionRule) {
	r.table.Store(newConversionTable(rules))
}

// Rules returns a copy of the active rule set, in no particular order.
func (r *Registry) Rules() []ConversionRule {
	t := r.table.Load()
	out := make([]ConversionRule, 0, len(t.bySource))
	for _, rule := range t.bySource {
		out = append(out, rule)
	}
	return out
}

// Resolve converts a single argument into wire form. A present Optional is
// unwrapped before type dispatch; an absent one (or a nil pointer) binds as
// NULL. When override is non-zero the (source, override) rule is used instead
// of the source type's default rule.
func (r *Registry) Resolve(value any, override WireType) (WireValue, error) {
	value, present := unwrap(value)
	if !present {
		return WireValue{Type: override, Value: nil}, nil
	}

	t := r.table.Load()
	st := reflect.TypeOf(value)

	if override != 0 {
		if rule, ok := t.byOverride[overrideKey{st, override}]; ok {
			return encodeWith(rule, value)
		}
		if nativeWireType(value) == override {
			return WireValue{Type: override, Value: value}, nil
		}
		return WireValue{}, fmt.Errorf("%w: %s as %s", ErrUnsupportedConversion, st, override)
	}

	if rule, ok := t.bySource[st]; ok {
		return encodeWith(rule, value)
	}
	if w := nativeWireType(value); w != 0 {
		return WireValue{Type: w, Value: value}, nil
	}
	return WireValue{}, fmt.Errorf("%w: %s", ErrUnsupportedConversion, st)
}

// Decode converts a wire value back into application form using the active
// rule for its wire type. Values without a decode rule pass through.
func (r *Registry) Decode(v WireValue) (any, error) {
	if v.Value == nil {
		return nil, nil
	}
	t := r.table.Load()
	if rule, ok := t.byWire[v.Type]; ok && rule.Decode != nil {
		return rule.Decode(v.Value)
	}
	return v.Value, nil
}

func encodeWith(rule ConversionRule, value any) (WireValue, error) {
	out, err := rule.Encode(value)
	if err != nil {
		return WireValue{}, fmt.Errorf("%w: %v", ErrUnsupportedConversion, err)
	}
	return WireValue{Type: rule.Wire, Value: out}, nil
}

// unwrap peels Optional wrappers and nil-able containers. The second result
// is false when the argument is absent and must bind as NULL.
func unwrap(value any) (any, bool) {
	if value == nil {
		return nil, false
	}
	if o, ok := value.(Optional); ok {
		if !o.present {
			return nil, false
		}
		return unwrap(o.value)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		if rv.Kind() == reflect.Pointer {
			// *inf.Dec stays a pointer; its marshaled form is the pointer itself.
			if _, isDec := value.(*inf.Dec); isDec {
				return value, true
			}
			return unwrap(rv.Elem().Interface())
		}
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
	}
	return value, true
}

// nativeWireType reports the wire type a value already carries without a
// conversion rule, or zero when the value is not wire-native.
func nativeWireType(value any) WireType {
	switch value.(type) {
	case string:
		return WireText
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return WireBigint
	case bool:
		return WireBoolean
	case float32, float64:
		return WireDouble
	case time.Time:
		return WireTimestamp
	case time.Duration:
		return WireTime
	case []byte:
		return WireBlob
	case gocql.UUID:
		return WireUUID
	case *inf.Dec:
		return WireDecimal
	case net.IP:
		return WireInet
	default:
		return 0
	}
}

// DefaultRules returns the built-in rule set. The date rule for time.Time is
// reachable only through an explicit WireDate override; the plain time.Time
// rule targets timestamp.
func DefaultRules() []ConversionRule {
	return []ConversionRule{
		{
			Source: reflect.TypeOf(time.Time{}),
			Wire:   WireDate,
			Encode: func(v any) (any, error) {
				t := v.(time.Time).UTC()
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
			},
			Decode: func(v any) (any, error) {
				t := v.(time.Time).UTC()
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
			},
		},
		{
			Source: reflect.TypeOf(time.Time{}),
			Wire:   WireTimestamp,
			Encode: func(v any) (any, error) { return v.(time.Time).UTC(), nil },
			Decode: func(v any) (any, error) { return v.(time.Time).UTC(), nil },
		},
		{
			Source: reflect.TypeOf(uuid.UUID{}),
			Wire:   WireUUID,
			Encode: func(v any) (any, error) { return gocql.UUID(v.(uuid.UUID)), nil },
			Decode: func(v any) (any, error) {
				if g, ok := v.(gocql.UUID); ok {
					return uuid.UUID(g), nil
				}
				return v, nil
			},
		},
		{
			Source: reflect.TypeOf(""),
			Wire:   WireText,
			Encode: func(v any) (any, error) { return v, nil },
			Decode: func(v any) (any, error) { return v, nil },
		},
		{
			Source: reflect.TypeOf(int64(0)),
			Wire:   WireBigint,
			Encode: func(v any) (any, error) { return v, nil },
			Decode: func(v any) (any, error) { return v, nil },
		},
		{
			Source: reflect.TypeOf((*inf.Dec)(nil)),
			Wire:   WireDecimal,
			Encode: func(v any) (any, error) { return v, nil },
			Decode: func(v any) (any, error) { return v, nil },
		},
		{
			Source: reflect.TypeOf(net.IP{}),
			Wire:   WireInet,
			Encode: func(v any) (any, error) { return v, nil },
			Decode: func(v any) (any, error) { return v, nil },
		},
	}
}
