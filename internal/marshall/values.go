package marshall

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Aman-CERP/scout/internal/mapping"
)

func builtinValues() map[string]ValueConverter {
	return map[string]ValueConverter{
		string(mapping.TypeString):  stringValue{},
		string(mapping.TypeInt):     intValue{bits: strconv.IntSize},
		string(mapping.TypeInt64):   intValue{bits: 64},
		string(mapping.TypeFloat64): floatValue{},
		string(mapping.TypeBool):    boolValue{},
		string(mapping.TypeTime):    timeValue{},
		string(mapping.TypeBytes):   bytesValue{},
	}
}

type stringValue struct{}

func (stringValue) ToString(v any, _ Params) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}

func (stringValue) FromString(s string, _ Params) (any, error) {
	return s, nil
}

// intValue formats integers, optionally through a fmt "format" such as
// "%010d" so that lexical order matches numeric order.
type intValue struct {
	bits int
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func (c intValue) ToString(v any, p Params) (string, error) {
	n, ok := toInt64(v)
	if !ok {
		return "", fmt.Errorf("expected an integer, got %T", v)
	}
	if format, ok := p.Param("format"); ok && format != "" {
		return fmt.Sprintf(format, n), nil
	}
	return strconv.FormatInt(n, 10), nil
}

func (c intValue) FromString(s string, _ Params) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, c.bits)
	if err != nil {
		return nil, err
	}
	if c.bits == 64 {
		return n, nil
	}
	return int(n), nil
}

type floatValue struct{}

func (floatValue) ToString(v any, p Params) (string, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	default:
		i, ok := toInt64(v)
		if !ok {
			return "", fmt.Errorf("expected a number, got %T", v)
		}
		f = float64(i)
	}
	if format, ok := p.Param("format"); ok && format != "" {
		return fmt.Sprintf(format, f), nil
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func (floatValue) FromString(s string, _ Params) (any, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

type boolValue struct{}

func (boolValue) ToString(v any, _ Params) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", fmt.Errorf("expected a bool, got %T", v)
	}
	return strconv.FormatBool(b), nil
}

func (boolValue) FromString(s string, _ Params) (any, error) {
	return strconv.ParseBool(s)
}

// timeValue formats with the Go layout in "format", RFC 3339 by default.
// String input is parsed with the same layout first.
type timeValue struct{}

func layout(p Params) string {
	if f, ok := p.Param("format"); ok && f != "" {
		return f
	}
	return time.RFC3339
}

func (timeValue) ToString(v any, p Params) (string, error) {
	l := layout(p)
	switch t := v.(type) {
	case time.Time:
		return t.Format(l), nil
	case string:
		parsed, err := time.Parse(l, t)
		if err != nil {
			return "", err
		}
		return parsed.Format(l), nil
	default:
		return "", fmt.Errorf("expected a time, got %T", v)
	}
}

func (timeValue) FromString(s string, p Params) (any, error) {
	return time.Parse(layout(p), s)
}

type bytesValue struct{}

func (bytesValue) ToString(v any, _ Params) (string, error) {
	b, ok := v.([]byte)
	if !ok {
		return "", fmt.Errorf("expected bytes, got %T", v)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (bytesValue) FromString(s string, _ Params) (any, error) {
	return base64.StdEncoding.DecodeString(s)
}
