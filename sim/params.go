package sim

import (
	"fmt"
	"strconv"
	"strings"
)

// Params holds a parsed policy parameter string. Keys are policy-specific;
// a constructor must call Err with the keys it recognizes so a typo fails
// loudly at construction time instead of being silently ignored.
type Params map[string]string

// ParseParams parses "k1=v1,k2=v2,…" (whitespace tolerated around keys,
// values, and separators). An empty string yields an empty map.
func ParseParams(s string) (Params, error) {
	p := make(Params)
	s = strings.TrimSpace(s)
	if s == "" {
		return p, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("sim: malformed parameter %q (want key=value)", part)
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" {
			return nil, fmt.Errorf("sim: empty key in parameter %q", part)
		}
		p[k] = v
	}
	return p, nil
}

// Err returns an error naming the first key outside the known set,
// or nil when every key is recognized.
func (p Params) Err(known ...string) error {
	for k := range p {
		ok := false
		for _, kn := range known {
			if k == kn {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("sim: unknown parameter key %q (known: %s)", k, strings.Join(known, ", "))
		}
	}
	return nil
}

// Int returns the integer value for key, or def when absent.
func (p Params) Int(key string, def int64) (int64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sim: parameter %s=%q is not an integer", key, v)
	}
	return n, nil
}

// Float returns the float value for key, or def when absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("sim: parameter %s=%q is not a number", key, v)
	}
	return f, nil
}
