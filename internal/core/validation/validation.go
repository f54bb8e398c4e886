// Package validation checks decoded JSON request bodies field by field and
// reports every failing field at once.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Predicate reports whether a present field value is acceptable.
type Predicate func(v any) bool

type Rule struct {
	Field    string
	Optional bool // absent or null values skip Check
	Check    Predicate
	Message  string
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Set []Rule

// Validate runs every rule against body. It returns nil when all pass.
func (s Set) Validate(body map[string]any) Errors {
	var errs Errors
	for _, rule := range s {
		v, ok := body[rule.Field]
		if (!ok || v == nil) && rule.Optional {
			continue
		}
		if !ok || !rule.Check(v) {
			errs = append(errs, FieldError{Field: rule.Field, Message: rule.Message, Value: v})
		}
	}
	return errs
}

// Decode parses a request body keeping numbers as json.Number so integer
// rules can tell 2 from 2.5.
func Decode(data []byte) (map[string]any, error) {
	body := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return body, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

// IntMin accepts integral numbers, or numeric strings, >= min.
func IntMin(min int64) Predicate {
	return func(v any) bool {
		n, ok := AsInt(v)
		return ok && n >= min
	}
}

// FloatMin accepts numbers, or numeric strings, >= min.
func FloatMin(min float64) Predicate {
	return func(v any) bool {
		f, ok := asFloat(v)
		return ok && f >= min
	}
}

func NotEmpty(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

func MinLength(n int) Predicate {
	return func(v any) bool {
		s, ok := v.(string)
		return ok && len([]rune(s)) >= n
	}
}

func Email(v any) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return strings.Contains(s[at+1:], ".")
}

var mobilePhone = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

func MobilePhone(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(s)
	return mobilePhone.MatchString(s)
}

// AsInt converts an already validated field into an int64.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// String returns the field as a string; numbers are rendered as written.
func String(body map[string]any, field string) string {
	switch v := body[field].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Clean trims surrounding whitespace and applies NFC normalisation.
func Clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func NormalizeEmail(s string) string {
	return strings.ToLower(Clean(s))
}
