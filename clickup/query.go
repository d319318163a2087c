package clickup

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
)

var (
	timestampType = reflect.TypeOf(Timestamp{})
	timeType      = reflect.TypeOf(time.Time{})
)

// EncodeQuery converts v into query parameters.
//
// v may be nil, url.Values, map[string]string, or a struct (or pointer to
// one). Struct fields are named by their `url` tag, or by the snake_case
// form of the field name; `url:"-"` skips a field. Zero values are
// omitted, so use a pointer to send an explicit false or 0. Slices repeat
// the key with a [] suffix. Timestamps and times encode as epoch
// milliseconds.
func EncodeQuery(v any) (url.Values, error) {
	q := url.Values{}
	switch src := v.(type) {
	case nil:
		return q, nil
	case url.Values:
		for k, vs := range src {
			q[k] = append([]string(nil), vs...)
		}
		return q, nil
	case map[string]string:
		for k, s := range src {
			q.Set(k, s)
		}
		return q, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return q, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("clickup: cannot encode %T as query", v)
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strcase.ToSnake(field.Name)
		if tag, ok := field.Tag.Lookup("url"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}

		fv := rv.Field(i)
		if fv.IsZero() {
			continue
		}
		for fv.Kind() == reflect.Pointer {
			fv = fv.Elem()
		}

		if fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() != reflect.Uint8 {
			for j := 0; j < fv.Len(); j++ {
				s, err := queryValue(fv.Index(j))
				if err != nil {
					return nil, fmt.Errorf("clickup: query field %s: %w", field.Name, err)
				}
				q.Add(name+"[]", s)
			}
			continue
		}

		s, err := queryValue(fv)
		if err != nil {
			return nil, fmt.Errorf("clickup: query field %s: %w", field.Name, err)
		}
		q.Set(name, s)
	}
	return q, nil
}

func queryValue(v reflect.Value) (string, error) {
	switch v.Type() {
	case timestampType:
		return strconv.FormatInt(v.Interface().(Timestamp).Millis(), 10), nil
	case timeType:
		return strconv.FormatInt(v.Interface().(time.Time).UnixMilli(), 10), nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	}
	return "", fmt.Errorf("unsupported kind %s", v.Kind())
}
