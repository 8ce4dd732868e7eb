// Package mapping converts between remote rows (flat, snake_case) and the
// domain shapes in models.
//
// Decoding is total: absent columns decode to zero values and nullable
// columns to empty defaults. Encoding is sparse: a patch produces only the
// columns whose fields were set.
package mapping

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/tgienger/stride/internal/store"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	stringSliceType = reflect.TypeOf([]string{})
)

// decode fills out from row. Backends disagree on scalar representations
// (JSON numbers vs integers, JSON arrays vs JSON text), so input is weakly
// typed and normalized by hooks.
func decode(row store.Row, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToTimeHook,
			jsonTextToSliceHook,
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(row))
}

func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if to != timeType || !ok {
		return data, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", s)
}

func jsonTextToSliceHook(from, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if to != stringSliceType || !ok {
		return data, nil
	}
	if s == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode string array: %w", err)
	}
	return out, nil
}

// nullable maps the empty string to SQL NULL
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
