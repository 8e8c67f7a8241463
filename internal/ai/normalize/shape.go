package normalize

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

func (r Result) IsStructured() bool { return r.Kind == KindStructured }

// Object returns the structured value when it is a JSON object.
func (r Result) Object() (map[string]any, bool) {
	if r.Kind != KindStructured {
		return nil, false
	}
	obj, ok := r.Value.(map[string]any)
	return obj, ok
}

// AsMap renders the result in the map shape callers of the REST layer expect.
func (r Result) AsMap() map[string]any {
	switch r.Kind {
	case KindStructured:
		if obj, ok := r.Value.(map[string]any); ok {
			return obj
		}
		return map[string]any{"items": r.Value}
	case KindRawText:
		return map[string]any{"raw_text": r.Text, "note": r.Note}
	default:
		d := r.Diagnostics
		if d == nil {
			d = empty(0).Diagnostics
		}
		return map[string]any{
			"error":       "AI returned empty response",
			"note":        d.Note,
			"input_size":  d.InputSize,
			"suggestions": d.Suggestions,
		}
	}
}

// Decode copies a structured result into out, converting loosely typed
// values such as "85" into the field types of out.
func Decode(r Result, out any) error {
	if r.Kind != KindStructured {
		return fmt.Errorf("cannot decode %s result", r.Kind)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}

	if err := decoder.Decode(r.Value); err != nil {
		return fmt.Errorf("decode structured result: %w", err)
	}
	return nil
}
