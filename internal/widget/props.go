package widget

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

// ErrInvalidProps is returned when a prop value does not fit its field or is not
// a string, number, boolean or list.
var ErrInvalidProps = errors.New("invalid widget props")

// CoerceProps converts submitted values to the kinds declared by the type's fields.
// Form inputs arrive as strings; numbers and booleans are parsed, lists are joined.
// Missing fields take their defaults. Keys without a field keep their value if it
// is a scalar or a list of scalars.
func CoerceProps(def Definition, props model.Props) (model.Props, error) {
	out := def.DefaultProps.Clone()
	if out == nil {
		out = model.Props{}
	}
	fields := make(map[string]ConfigField, len(def.ConfigFields))
	for _, f := range def.ConfigFields {
		fields[f.Name] = f
	}

	for k, v := range props {
		f, ok := fields[k]
		if !ok {
			if !isPropValue(v) {
				return nil, fmt.Errorf("%w: field %q: unsupported value %v (%T)", ErrInvalidProps, k, v, v)
			}
			out[k] = v
			continue
		}
		cv, err := coerce(f, v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrInvalidProps, k, err)
		}
		if len(f.Options) > 0 {
			if s, isStr := cv.(string); isStr && !contains(f.Options, s) {
				return nil, fmt.Errorf("%w: field %q: %q is not one of %s", ErrInvalidProps, k, s, strings.Join(f.Options, ", "))
			}
		}
		out[k] = cv
	}
	return out.Normalize(), nil
}

func coerce(f ConfigField, v any) (any, error) {
	switch f.Type {
	case FieldNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("not a number: %q", n)
			}
			return parsed, nil
		}
	case FieldBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("not a boolean: %q", b)
			}
			return parsed, nil
		}
	case FieldStringList:
		switch l := v.(type) {
		case string:
			return joinTrimmed(strings.Split(l, ",")), nil
		case []string:
			return joinTrimmed(l), nil
		case []any:
			parts := make([]string, 0, len(l))
			for _, item := range l {
				parts = append(parts, fmt.Sprint(item))
			}
			return joinTrimmed(parts), nil
		}
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case float64, bool, int:
			return fmt.Sprint(s), nil
		}
	}
	return nil, fmt.Errorf("unsupported value %v (%T) for %s field", v, v, f.Type)
}

func isPropValue(v any) bool {
	switch l := v.(type) {
	case string, bool, float64, int, int64:
		return true
	case []string:
		return true
	case []any:
		for _, item := range l {
			switch item.(type) {
			case string, bool, float64, int, int64:
			default:
				return false
			}
		}
		return true
	}
	return false
}

func joinTrimmed(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ",")
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
