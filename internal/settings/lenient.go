// Package settings reads and writes admin settings and decodes their weakly
// typed stored values.
package settings

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// Kind tags the outcome of ParseValue.
type Kind int

const (
	KindEmpty Kind = iota
	KindOK
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindOK:
		return "ok"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the decoded form of a stored value. Value is set only for KindOK.
// Reconstructed marks values that needed the repair heuristic to parse.
type Result struct {
	Kind          Kind
	Value         any
	Reconstructed bool
	Raw           string
}

var (
	fragmentRe    = regexp.MustCompile(`^["']?[A-Za-z_][A-Za-z0-9_\-]*["']?\s*:`)
	singleQuoteRe = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)
	bareKeyRe     = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_\-]*)\s*:`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseValue decodes a stored setting value. It never fails: unusable input
// is reported as KindMalformed and logged.
//
// Accepted shapes, in order:
//  1. blank, null or "" is Empty;
//  2. valid JSON is OK; a JSON string holding an object, array or key: value
//     fragment is unwrapped and decoded once more;
//  3. otherwise the text is repaired (bare fragments wrapped in braces,
//     identifier keys quoted, single quotes converted, trailing commas
//     dropped) and decoded as OK with Reconstructed set;
//  4. anything else is Malformed.
func ParseValue(raw []byte) Result {
	return parse(string(raw), true)
}

// ParseText decodes operator-typed text with the same rules as ParseValue.
func ParseText(s string) Result {
	return ParseValue([]byte(s))
}

func parse(s string, unwrap bool) Result {
	text := strings.TrimSpace(s)
	if text == "" || text == "null" || text == `""` {
		return Result{Kind: KindEmpty, Raw: s}
	}

	if v, ok := decode(text); ok {
		str, isString := v.(string)
		if !isString || !unwrap {
			return Result{Kind: KindOK, Value: v, Raw: s}
		}
		inner := strings.TrimSpace(str)
		if inner == "" {
			return Result{Kind: KindEmpty, Raw: s}
		}
		if looksStructured(inner) {
			if r := parse(inner, false); r.Kind == KindOK {
				r.Raw = s
				return r
			}
		}
		return Result{Kind: KindOK, Value: str, Raw: s}
	}

	if v, ok := decode(repair(text)); ok {
		return Result{Kind: KindOK, Value: v, Reconstructed: true, Raw: s}
	}

	slog.Warn("Malformed setting value", slog.String("value", truncate(text, 120)))
	return Result{Kind: KindMalformed, Raw: s}
}

func looksStructured(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") || fragmentRe.MatchString(s)
}

func repair(s string) string {
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		s = "{" + s + "}"
	}
	s = singleQuoteRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[1 : len(m)-1]
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		return `"` + inner + `"`
	})
	s = bareKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = trailingComma.ReplaceAllString(s, `$1`)
	return s
}

func decode(s string) (any, bool) {
	if !json.Valid([]byte(s)) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Pretty renders r for display.
func (r Result) Pretty() string {
	switch r.Kind {
	case KindOK:
		b, err := json.MarshalIndent(r.Value, "", "  ")
		if err != nil {
			return r.Raw
		}
		return string(b)
	case KindMalformed:
		return r.Raw
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
