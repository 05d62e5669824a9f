// Package extract recovers a JSON value from free-form completion text.
package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/yungbote/pagegen-backend/internal/pagegen/generr"
)

// DefaultPreviewLimit bounds the raw text attached to a MalformedError.
const DefaultPreviewLimit = 1000

var errNoJSON = errors.New("no JSON object could be recovered")

// objectPattern matches a balanced-looking object with at most one level of nesting.
var objectPattern = regexp.MustCompile(`\{(?:[^{}]|\{[^{}]*\})*\}`)

type Extractor struct {
	// AllowArrays accepts a top-level JSON array as well as an object.
	AllowArrays  bool
	PreviewLimit int
}

// Extract tries, in order: a strict parse of the (fence-stripped) text, a brace-depth scan from
// the first opening brace, a scan that skips braces inside string literals, and a regex recovery
// pass over the whole text. The first strategy that yields an object (or array) wins.
//
// The plain depth scan does not know about string literals, so text such as
// {"a":"}"} is cut short there and only recovered by the string-aware scan.
func (e Extractor) Extract(raw string) (any, error) {
	text := strings.TrimSpace(raw)

	if v, ok := e.decode(stripCodeFence(text), true); ok {
		return v, nil
	}

	for _, start := range e.openings(text) {
		if span := depthSpan(text, start); span != "" {
			if v, ok := e.decode(span, false); ok {
				return v, nil
			}
		}
		if span := stringAwareSpan(text, start); span != "" {
			if v, ok := e.decode(span, false); ok {
				return v, nil
			}
		}
	}

	if m := objectPattern.FindString(text); m != "" {
		if v, ok := e.decode(m, false); ok {
			return v, nil
		}
	}

	limit := e.PreviewLimit
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	return nil, &generr.MalformedError{Preview: generr.Preview(raw, limit), Err: errNoJSON}
}

// decode accepts an object, or with AllowArrays an array holding at least one object. An empty
// array is accepted only when it is the whole completion (strict), so bracketed prose such as
// "Step [1]:" never shadows the JSON that follows it.
func (e Extractor) decode(s string, strict bool) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		return v, true
	case []any:
		if !e.AllowArrays {
			return nil, false
		}
		if len(t) == 0 {
			return v, strict
		}
		for _, item := range t {
			if _, ok := item.(map[string]any); ok {
				return v, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

// openings returns the candidate start offsets in the order they appear in text.
func (e Extractor) openings(text string) []int {
	var out []int
	obj := strings.IndexByte(text, '{')
	if obj >= 0 {
		out = append(out, obj)
	}
	if e.AllowArrays {
		if arr := strings.IndexByte(text, '['); arr >= 0 {
			if obj < 0 || arr < obj {
				out = append([]int{arr}, out...)
			} else {
				out = append(out, arr)
			}
		}
	}
	return out
}

func closerFor(open byte) byte {
	if open == '[' {
		return ']'
	}
	return '}'
}

// depthSpan returns text[start:end] where end is the first point the depth counter returns to
// zero, or "" if it never does.
func depthSpan(text string, start int) string {
	open := text[start]
	closer := closerFor(open)
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func stringAwareSpan(text string, start int) string {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// stripCodeFence removes a surrounding ```json ... ``` fence, if present.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	firstNewline := strings.IndexByte(trimmed, '\n')
	if firstNewline == -1 {
		return trimmed
	}
	lastFence := strings.LastIndex(trimmed, "```")
	if lastFence <= firstNewline {
		return trimmed
	}
	return strings.TrimSpace(trimmed[firstNewline+1 : lastFence])
}
