// Package normalize turns loosely structured provider replies into a
// tagged result. Parse never fails; every input maps to exactly one of the
// three result kinds.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type Kind int

const (
	KindStructured Kind = iota
	KindRawText
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindRawText:
		return "raw_text"
	case KindEmpty:
		return "empty"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	NoteDoubleEncoded = "double-encoded"
	NoteUnstructured  = "unstructured text returned"
	NoteEmpty         = "The AI service did not return any content. This usually happens when the input is too large or complex."
)

// wrapperKeys are checked first when looking for embedded JSON.
var wrapperKeys = []string{"raw", "raw_analysis", "raw_response", "raw_text", "content", "result"}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// Diagnostics describe an empty provider reply.
type Diagnostics struct {
	InputSize   int      `json:"input_size"`
	Note        string   `json:"note"`
	Suggestions []string `json:"suggestions"`
}

// Result is one of Structured (Value), RawText (Text, Note) or Empty
// (Diagnostics), selected by Kind.
type Result struct {
	Kind        Kind
	Value       any
	Text        string
	Note        string
	Diagnostics *Diagnostics
}

type options struct {
	inputSize int
}

type Option func(*options)

// WithInputSize records the size of the prompt input for empty-reply
// diagnostics.
func WithInputSize(n int) Option {
	return func(o *options) { o.inputSize = n }
}

// Parse applies the fallback chain to text.
func Parse(text string, opts ...Option) Result {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return empty(o.inputSize)
	}

	candidate := StripFence(trimmed)

	if value, ok := decode(candidate); ok {
		return fromValue(value, text)
	}

	if span := outermostJSON(candidate); span != "" {
		if value, ok := decode(span); ok {
			return fromValue(value, text)
		}
	}

	return RawText(text, NoteUnstructured)
}

// Structured wraps an already decoded value.
func Structured(v any) Result {
	return Result{Kind: KindStructured, Value: v}
}

func RawText(text, note string) Result {
	return Result{Kind: KindRawText, Text: text, Note: note}
}

// StripFence returns the body of the first fenced code block, or the text
// unchanged when it carries no fence.
func StripFence(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
			trimmed = trimmed[:idx]
		}
		return strings.TrimSpace(trimmed)
	}

	return text
}

func fromValue(value any, original string) Result {
	switch v := value.(type) {
	case string:
		inner, ok := decode(StripFence(strings.TrimSpace(v)))
		if !ok {
			return RawText(v, NoteDoubleEncoded)
		}
		if s, isString := inner.(string); isString {
			return RawText(s, NoteDoubleEncoded)
		}
		return fromValue(inner, original)
	case map[string]any:
		if nested, ok := embeddedObject(v); ok {
			return Structured(nested)
		}
		return Structured(v)
	case []any:
		return Structured(v)
	default:
		// bare numbers, booleans and null carry no structure worth keeping
		return RawText(original, NoteUnstructured)
	}
}

func embeddedObject(obj map[string]any) (map[string]any, bool) {
	for _, key := range fieldOrder(obj) {
		s, ok := obj[key].(string)
		if !ok {
			continue
		}
		s = StripFence(strings.TrimSpace(s))
		if !strings.HasPrefix(s, "{") {
			continue
		}
		value, ok := decode(s)
		if !ok {
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			return nested, true
		}
	}
	return nil, false
}

func fieldOrder(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	seen := make(map[string]bool, len(wrapperKeys))
	for _, key := range wrapperKeys {
		if _, ok := obj[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}

	rest := make([]string, 0, len(obj))
	for key := range obj {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}

func decode(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var value any
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, false
	}
	return value, true
}

// outermostJSON returns the widest {...} or [...] span in s.
func outermostJSON(s string) string {
	best := ""
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start == -1 || end <= start {
			continue
		}
		if span := s[start : end+1]; len(span) > len(best) {
			best = span
		}
	}
	return best
}

func empty(inputSize int) Result {
	suggestions := []string{
		"Remove any formatting, tables, or special characters",
		"Ensure the input is plain text, not a scanned image",
		"Try copy-pasting just the text content instead of uploading a file",
	}
	if inputSize > 0 {
		suggestions = append([]string{
			fmt.Sprintf("Your input is %d characters. Try reducing it to under 10000 characters.", inputSize),
		}, suggestions...)
	} else {
		suggestions = append([]string{"Try shortening the input and sending it again"}, suggestions...)
	}

	return Result{
		Kind: KindEmpty,
		Diagnostics: &Diagnostics{
			InputSize:   inputSize,
			Note:        NoteEmpty,
			Suggestions: suggestions,
		},
	}
}
