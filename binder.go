package ygggo_cassandra

import (
	"fmt"
	"strings"
)

// QueryTemplate is an immutable CQL statement with zero-indexed positional
// placeholders (?0, ?1, ...). Parsing rewrites them to the driver's bare `?`
// markers while remembering which argument feeds each marker.
type QueryTemplate struct {
	raw   string
	cql   string
	slots []int
	arity int
}

// Raw returns the template as written.
func (t QueryTemplate) Raw() string { return t.raw }

// CQL returns the statement with driver `?` markers.
func (t QueryTemplate) CQL() string { return t.cql }

// Arity returns the number of distinct placeholders.
func (t QueryTemplate) Arity() int { return t.arity }

// ParseTemplate scans query for ?N placeholders outside quoted literals.
// Placeholder indices must cover 0..n-1 without gaps; an index may repeat.
func ParseTemplate(query string) (QueryTemplate, error) {
	var b strings.Builder
	b.Grow(len(query))
	var slots []int
	seen := map[int]bool{}
	max := -1
	inSingle, inDouble := false, false
	i := 0
	for i < len(query) {
		ch := query[i]
		switch ch {
		case '\'':
			inSingle = !inSingle && !inDouble
			b.WriteByte(ch)
			i++
			continue
		case '"':
			inDouble = !inDouble && !inSingle
			b.WriteByte(ch)
			i++
			continue
		case '?':
			if inSingle || inDouble {
				b.WriteByte(ch)
				i++
				continue
			}
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j == i+1 {
				return QueryTemplate{}, fmt.Errorf("ygggo_cassandra: unnumbered placeholder at offset %d in %q", i, query)
			}
			idx := 0
			for _, c := range query[i+1 : j] {
				idx = idx*10 + int(c-'0')
			}
			slots = append(slots, idx)
			seen[idx] = true
			if idx > max {
				max = idx
			}
			b.WriteByte('?')
			i = j
			continue
		}
		b.WriteByte(ch)
		i++
	}
	if len(seen) != max+1 {
		return QueryTemplate{}, fmt.Errorf("%w: placeholders skip an index in %q", ErrArityMismatch, query)
	}
	return QueryTemplate{raw: query, cql: b.String(), slots: slots, arity: len(seen)}, nil
}

// BoundArgument pairs a raw value with an optional wire-type override. When
// Override is set, conversion uses the override rule instead of the rule
// inferred from the value's runtime type.
type BoundArgument struct {
	Value    any
	Override WireType
}

// Arg wraps a plain value.
func Arg(v any) BoundArgument { return BoundArgument{Value: v} }

// ArgTyped wraps a value with an explicit wire type, the equivalent of an
// annotated parameter type on a repository method.
func ArgTyped(v any, w WireType) BoundArgument { return BoundArgument{Value: v, Override: w} }

// Bind resolves args through reg and returns wire values ordered by
// placeholder appearance. Binding is positional: argument k feeds every ?k.
// The argument count must equal the template's distinct placeholder count.
func Bind(tpl QueryTemplate, args []BoundArgument, reg *Registry) ([]WireValue, error) {
	if len(args) != tpl.arity {
		return nil, fmt.Errorf("%w: template %q wants %d arguments, got %d",
			ErrArityMismatch, tpl.raw, tpl.arity, len(args))
	}
	resolved := make([]WireValue, len(args))
	for i, a := range args {
		wv, err := reg.Resolve(a.Value, a.Override)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		resolved[i] = wv
	}
	out := make([]WireValue, len(tpl.slots))
	for i, slot := range tpl.slots {
		out[i] = resolved[slot]
	}
	return out, nil
}

// bindValues is the driver-facing form of Bind.
func bindValues(tpl QueryTemplate, args []BoundArgument, reg *Registry) ([]any, error) {
	wvs, err := Bind(tpl, args, reg)
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(wvs))
	for i, wv := range wvs {
		vals[i] = wv.Value
	}
	return vals, nil
}

// boundArgs normalizes a mixed argument list: BoundArgument values pass
// through, everything else is wrapped with Arg.
func boundArgs(args []any) []BoundArgument {
	out := make([]BoundArgument, len(args))
	for i, a := range args {
		if ba, ok := a.(BoundArgument); ok {
			out[i] = ba
			continue
		}
		out[i] = Arg(a)
	}
	return out
}
