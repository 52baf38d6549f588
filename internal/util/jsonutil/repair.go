package jsonutil

import (
	"encoding/json"
	"regexp"
	"strings"
)

const fence = "```"

var (
	reFenceOpen    = regexp.MustCompile("^" + fence + "[A-Za-z0-9_+-]*")
	reFenceClose   = regexp.MustCompile(fence + "$")
	reUnquotedKeys = regexp.MustCompile(`([{,])\s*([a-zA-Z0-9_]+)\s*:`)
)

// StripFences trims the reply and removes a leading ```lang marker and a
// trailing ``` marker, then trims again.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Repair coerces a free-form model reply towards a JSON object. The steps run
// in a fixed order:
//
//  1. strip Markdown code fences
//  2. drop raw newline, tab and carriage-return characters
//  3. quote bare object keys (key: -> "key":)
//  4. close an unterminated string when the quote count is odd
//  5. add a missing leading '{' and trailing '}'
//
// The result is not guaranteed to parse, and a successful parse is not
// guaranteed to mean what the model intended: step 3 also rewrites matching
// text inside string values.
func Repair(raw string) string {
	s := StripFences(raw)
	s = strings.NewReplacer("\n", "", "\t", "", "\r", "").Replace(s)
	s = reUnquotedKeys.ReplaceAllString(s, `$1"$2":`)
	if strings.Count(s, `"`)%2 != 0 {
		s += `"`
	}
	if !strings.HasPrefix(s, "{") {
		s = "{" + s
	}
	if !strings.HasSuffix(s, "}") {
		s += "}"
	}
	return s
}

// ParseOrFallback is the single boundary between raw model output and the
// pipeline. It repairs raw, parses it, and returns the string stored under key.
// Any failure (unparseable, missing key, non-string value) yields fallback and
// false.
func ParseOrFallback(raw, key, fallback string) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(Repair(raw)), &obj); err != nil {
		return fallback, false
	}
	v, ok := obj[key]
	if !ok {
		return fallback, false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return fallback, false
	}
	return s, true
}
