// Package form turns loosely typed key/value data (query strings, form posts,
// JSON objects) into footprint inputs.
package form

import (
	"errors"
	"io"
	"log/slog"
	"net/url"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"

	carbonfootprint "github.com/superdango/carbon-footprint"
	"github.com/superdango/carbon-footprint/internal/must"
)

// Decode reads the inputs out of raw values. Unknown keys are ignored and
// every value is coerced to a non-negative quantity, so Decode never fails.
// When several keys resolve to the same field, the first one in lexical order
// wins.
func Decode(raw map[string]any) carbonfootprint.Inputs {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[string]any, len(fields))
	for _, key := range keys {
		field, found := ResolveKey(key)
		if !found {
			slog.Debug("ignoring unknown input key", "key", key)
			continue
		}
		if _, set := resolved[field]; set {
			slog.Debug("ignoring duplicated input key", "key", key, "field", field)
			continue
		}
		resolved[field] = raw[key]
	}

	inputs := carbonfootprint.Inputs{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: coerceHook,
		Result:     &inputs,
	})
	must.NoError(err)
	must.NoError(decoder.Decode(resolved))

	return inputs.Sanitized()
}

// FromValues decodes url values, only the first value of each key is used.
func FromValues(values url.Values) carbonfootprint.Inputs {
	return Decode(Flatten(values))
}

// Flatten keeps the first value of every key.
func Flatten(values url.Values) map[string]any {
	raw := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 0 {
			continue
		}
		raw[k] = v[0]
	}
	return raw
}

// ReadJSON reads a JSON object. An empty body is an empty object.
func ReadJSON(r io.Reader) (map[string]any, error) {
	raw := make(map[string]any)
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return raw, nil
		}
		return nil, &carbonfootprint.DecodeErr{Source: "json", Err: err}
	}
	return raw, nil
}

// FromJSON decodes a JSON object body.
func FromJSON(r io.Reader) (carbonfootprint.Inputs, error) {
	raw, err := ReadJSON(r)
	if err != nil {
		return carbonfootprint.Inputs{}, err
	}
	return Decode(raw), nil
}

var float64Type = reflect.TypeOf(float64(0))

func coerceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != float64Type {
		return data, nil
	}
	return Coerce(data), nil
}

// Coerce converts any raw value into a quantity. Strings are parsed like form
// fields, numbers are sanitized, everything else is zero.
func Coerce(v any) float64 {
	switch value := v.(type) {
	case string:
		return carbonfootprint.ParseQuantity(value)
	case float64:
		return carbonfootprint.Sanitize(value)
	case float32:
		return carbonfootprint.Sanitize(float64(value))
	case int:
		return carbonfootprint.Sanitize(float64(value))
	case int64:
		return carbonfootprint.Sanitize(float64(value))
	case int32:
		return carbonfootprint.Sanitize(float64(value))
	case uint:
		return carbonfootprint.Sanitize(float64(value))
	case uint64:
		return carbonfootprint.Sanitize(float64(value))
	case uint32:
		return carbonfootprint.Sanitize(float64(value))
	case json.Number:
		return carbonfootprint.ParseQuantity(value.String())
	case []string:
		if len(value) > 0 {
			return Coerce(value[0])
		}
	case []any:
		if len(value) == 1 {
			return Coerce(value[0])
		}
	}
	return 0
}
