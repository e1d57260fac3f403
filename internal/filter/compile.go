package filter

import (
	"fmt"
	"strings"
	"time"
)

// Condition is one criterion with its value.
type Condition struct {
	Key   Criterion
	Value any
}

// Check validates value against the shape declared for key.
func Check(key Criterion, value any) error {
	t, ok := lookup(key)
	if !ok {
		return &InvalidKeyError{Key: key}
	}

	invalid := &InvalidValueError{Key: key, Value: value, Expected: t.shape}
	switch t.shape {
	case ShapeString:
		if _, ok := value.(string); !ok {
			return invalid
		}
	case ShapeDate:
		switch v := value.(type) {
		case time.Time:
		case string:
			if _, ok := parseDate(v, time.Now()); !ok {
				return invalid
			}
		default:
			if _, ok := epoch(value); !ok {
				return invalid
			}
		}
	case ShapeFlag:
		if _, ok := value.(bool); !ok {
			return invalid
		}
	case ShapeNone:
		if value != nil {
			return invalid
		}
	}
	return nil
}

// Compiler renders conditions into a predicate. Now supplies the fallback
// time for date strings that cannot be parsed; nil means time.Now.
type Compiler struct {
	Now func() time.Time
}

// Compile renders conds with the default compiler.
func Compile(conds []Condition) (string, error) {
	return Compiler{}.Compile(conds)
}

// Compile renders each condition and joins them with a single space, which
// IMAP reads as AND. Values are not validated; call Check first for that.
func (c Compiler) Compile(conds []Condition) (string, error) {
	rendered := make([]string, 0, len(conds))
	for _, cond := range conds {
		clause, err := c.render(cond)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, clause)
	}
	return strings.Join(rendered, " "), nil
}

func (c Compiler) render(cond Condition) (string, error) {
	t, ok := lookup(cond.Key)
	if !ok {
		return "", &InvalidKeyError{Key: cond.Key}
	}

	switch t.shape {
	case ShapeString:
		value := fmt.Sprint(cond.Value)
		if cond.Value == nil {
			value = ""
		}
		return fmt.Sprintf(`%s "%s"`, t.token, quoteValue(value)), nil
	case ShapeDate:
		return fmt.Sprintf(`%s "%s"`, t.token, c.resolveDate(cond.Value).Local().Format(DateLayout)), nil
	case ShapeFlag:
		set, ok := cond.Value.(bool)
		if !ok {
			set = cond.Value != nil
		}
		if set {
			return t.token, nil
		}
		return "UN" + t.token, nil
	}
	return t.token, nil
}

// quoteValue prepares a string for an IMAP quoted string: quotes are
// dropped and backslashes escaped.
func quoteValue(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `"`, ""), `\`, `\\`)
}

// resolveDate turns a date value into a time. An unparseable string becomes
// the current time rather than an error; existing callers depend on it.
func (c Compiler) resolveDate(v any) time.Time {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}

	switch d := v.(type) {
	case time.Time:
		return d
	case *time.Time:
		if d != nil {
			return *d
		}
	case string:
		if t, ok := parseDate(d, now); ok {
			return t
		}
		return now
	}
	if n, ok := epoch(v); ok {
		return time.Unix(n, 0)
	}
	return now
}
