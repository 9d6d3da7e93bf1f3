package field

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type caster func(v any) (any, error)

var casters = map[Type]caster{
	String:  castString,
	Number:  castNumber,
	Boolean: castBoolean,
	Date:    castDate,
	Array:   castArray,
	Object:  castObject,
	Mixed:   castMixed,
}

var (
	errNotString  = errors.New("must be a string")
	errNotNumber  = errors.New("must be a number")
	errNotBoolean = errors.New("must be a boolean")
	errNotDate    = errors.New("must be a date")
	errNotArray   = errors.New("must be an array")
	errNotObject  = errors.New("must be an object")
)

func castString(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return nil, errNotString
}

func castNumber(v any) (any, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, errNotNumber
		}
		return finite(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil, errNotNumber
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errNotNumber
		}
		return finite(f)
	}
	if f, ok := toFloat(v); ok {
		return finite(f)
	}
	return nil, errNotNumber
}

func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errNotNumber
	}
	return f, nil
}

func castBoolean(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch b {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return nil, errNotBoolean
	}
	if f, ok := toFloat(v); ok {
		switch f {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}
	return nil, errNotBoolean
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func castDate(v any) (any, error) {
	switch d := v.(type) {
	case time.Time:
		return d.UTC(), nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, errNotDate
	case json.Number:
		ms, err := d.Int64()
		if err != nil {
			return nil, errNotDate
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	if f, ok := toFloat(v); ok {
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	return nil, errNotDate
}

func castArray(v any) (any, error) {
	if a, ok := v.([]any); ok {
		return a, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errNotArray
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func castObject(v any) (any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, errNotObject
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

func castMixed(v any) (any, error) { return v, nil }

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// describe renders a value for error messages without dumping large payloads.
func describe(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > 32 {
		s = s[:32] + "..."
	}
	return s
}
