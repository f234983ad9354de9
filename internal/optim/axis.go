package optim

import (
	"fmt"
	"strconv"
	"strings"
)

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// ParseAxis parses "name=min:max:n" or "name=v1,v2,...".
func ParseAxis(s string) (string, []float64, error) {
	name, def, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || def == "" {
		return "", nil, fmt.Errorf("invalid axis %q, want name=min:max:n or name=v1,v2", s)
	}

	if parts := strings.Split(def, ":"); len(parts) > 1 {
		if len(parts) != 3 {
			return "", nil, fmt.Errorf("invalid range %q for %s", def, name)
		}
		lo, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", name, err)
		}
		hi, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", name, err)
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return "", nil, fmt.Errorf("%s: invalid point count %q", name, parts[2])
		}
		return name, Linspace(lo, hi, n), nil
	}

	var values []float64
	for _, f := range strings.Split(def, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}
