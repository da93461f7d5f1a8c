package fieldrules

import (
	"reflect"
	"strings"

	"github.com/fieldrules/fieldrules/ruleschema"
)

// ruleLiteral converts a FieldConstraints (or any of its nested typed
// rule structs) into a map[string]any keyed by the snake_case rule field
// name, so a free-form CEL expression can bind `rules.min_len` the way
// protovalidate's own cel rules bind against the generated FieldConstraints
// message. This is a small reflection-based struct walker rather than a
// bespoke method per rule type, since the twelve-plus rule structs share
// the same "exported fields, pointer-for-optional, slice-for-repeated"
// shape.
func ruleLiteral(rc *ruleschema.FieldConstraints) any {
	if rc == nil {
		return map[string]any{}
	}
	out := structToMap(reflect.ValueOf(rc).Elem())
	for _, typed := range []any{rc.Bool, rc.Numeric, rc.String, rc.Bytes, rc.Enum, rc.Duration, rc.Timestamp} {
		if v := reflect.ValueOf(typed); v.Kind() == reflect.Ptr && !v.IsNil() {
			for k, val := range structToMap(v.Elem()) {
				out[k] = val
			}
		}
	}
	return out
}

// ruleLiteralAny converts an arbitrary rule struct pointer (e.g.
// *ruleschema.RepeatedRules, *ruleschema.MapRules) into the same
// map[string]any shape ruleLiteral produces for FieldConstraints, for
// container-level free-form expressions bound against the container's own
// rule literal rather than a field's.
func ruleLiteralAny(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return map[string]any{}
	}
	return structToMap(rv.Elem())
}

func structToMap(v reflect.Value) map[string]any {
	out := make(map[string]any)
	if v.Kind() != reflect.Struct {
		return out
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || strings.HasPrefix(f.Name, "Has") {
			continue
		}
		fv := v.Field(i)
		name := snakeCase(f.Name)
		switch fv.Kind() {
		case reflect.Ptr:
			if fv.IsNil() {
				continue
			}
			out[name] = fv.Elem().Interface()
		case reflect.Struct, reflect.Slice, reflect.Map:
			if fv.Kind() == reflect.Slice && fv.IsNil() {
				continue
			}
			out[name] = fv.Interface()
		default:
			out[name] = fv.Interface()
		}
	}
	return out
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
