package ygggo_cassandra

import (
	"fmt"
	"reflect"
	"strings"
)

// Rows iterates a result set, decoding values back through the registry.
type Rows struct {
	iter    cqlIter
	reg     *Registry
	stmt    string
	err     error
	done    bool
	onClose func(err error)
}

// ScanMap fills m with the next row's columns and reports whether a row was
// read. Decodable values (uuid, timestamp, date) come back in application
// form.
func (r *Rows) ScanMap(m map[string]any) bool {
	if r == nil || r.done {
		return false
	}
	if !r.iter.mapScan(m) {
		return false
	}
	for k, v := range m {
		if v == nil {
			continue
		}
		if w := nativeWireType(v); w != 0 {
			if decoded, err := r.reg.Decode(WireValue{Type: w, Value: v}); err == nil {
				m[k] = decoded
			}
		}
	}
	return true
}

// ScanStruct reads the next row into dest, matching columns to exported
// fields by `cql` tag or lowercased field name.
func (r *Rows) ScanStruct(dest any) (bool, error) {
	m := map[string]any{}
	if !r.ScanMap(m) {
		return false, nil
	}
	return true, mapToStruct(m, dest)
}

// Err returns the first error seen during iteration or close.
func (r *Rows) Err() error { return r.err }

// Close releases the iterator. Safe to call more than once.
func (r *Rows) Close() error {
	if r == nil || r.done {
		if r == nil {
			return nil
		}
		return r.err
	}
	r.done = true
	r.err = wrapStoreError(r.stmt, r.iter.close())
	if r.onClose != nil {
		r.onClose(r.err)
	}
	return r.err
}

// mapToStruct copies row columns into dest's exported fields. Tag `cql:"-"`
// skips a field; an empty tag falls back to the lowercased field name.
func mapToStruct(m map[string]any, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("ygggo_cassandra: ScanStruct wants a non-nil struct pointer, got %T", dest)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("ygggo_cassandra: ScanStruct wants a struct pointer, got %T", dest)
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name := f.Tag.Get("cql")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		col, ok := m[name]
		if !ok || col == nil {
			continue
		}
		fv := rv.Field(i)
		cv := reflect.ValueOf(col)
		switch {
		case cv.Type().AssignableTo(fv.Type()):
			fv.Set(cv)
		case convertibleKinds(cv.Type(), fv.Type()):
			fv.Set(cv.Convert(fv.Type()))
		default:
			return fmt.Errorf("ygggo_cassandra: column %q (%T) does not fit field %s (%s)",
				name, col, f.Name, fv.Type())
		}
	}
	return nil
}

// convertibleKinds reports whether a column value may convert into a field
// without a lossy cross-kind coercion: numeric widths convert freely,
// everything else must match kinds exactly. reflect's ConvertibleTo alone
// would let a blob column coerce into a text field.
func convertibleKinds(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	if isNumericKind(from.Kind()) && isNumericKind(to.Kind()) {
		return true
	}
	return from.Kind() == to.Kind()
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// structToColumns flattens a struct (or passes a map through) into column
// name/value pairs using `cql` tags. Session.InsertStruct builds its INSERT
// from these pairs.
func structToColumns(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("ygggo_cassandra: expected struct or map, got %T", v)
	}
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := f.Tag.Get("cql")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		out[name] = rv.Field(i).Interface()
	}
	return out, nil
}
