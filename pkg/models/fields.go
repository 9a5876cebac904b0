package models

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	dateType = reflect.TypeOf(Date{})
	timeType = reflect.TypeOf(time.Time{})
)

// Fields flattens an entity into its stored field dictionary keyed by `db`
// tag. Fields tagged "-" and names starting with an underscore are internal
// and never included. Values are normalised to JSON scalars.
func Fields(v any) map[string]any { return fields(v, false) }

// TrackedFields is Fields without the bookkeeping columns tagged
// `history:"-"`.
func TrackedFields(v any) map[string]any { return fields(v, true) }

func fields(v any, tracked bool) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return map[string]any{}
	}

	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("db")
		if name == "" || name == "-" || strings.HasPrefix(name, "_") {
			continue
		}
		if tracked && f.Tag.Get("history") == "-" {
			continue
		}
		out[name] = scalar(rv.Field(i))
	}
	return out
}

func scalar(v reflect.Value) any {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Type() {
	case dateType:
		return v.Interface().(Date).String()
	case timeType:
		return v.Interface().(time.Time).UTC().Format(time.RFC3339Nano)
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return fmt.Sprint(v.Interface())
}

// Stringify coerces a field value to text. Equal values always give the same
// string; a missing value is the empty string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ""
	}
	return Stringify(scalar(rv))
}

// Attr returns the text value of a case attribute by its stored field name.
// Compliance fields are addressed as "compliance.<field>". The boolean is
// false for unknown names.
func (c *Case) Attr(name string) (string, bool) {
	if rest, ok := strings.CutPrefix(name, "compliance."); ok {
		v, found := Fields(c.Compliance)[rest]
		return Stringify(v), found
	}
	v, found := Fields(c)[name]
	return Stringify(v), found
}
