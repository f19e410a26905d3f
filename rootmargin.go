// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lazyload

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type (
	// Length is a CSS length, restricted to pixels or a percentage.
	Length struct {
		Value   float64
		Percent bool
	}

	// RootMargin is the parsed form of [IntersectionOptions.RootMargin].
	RootMargin struct {
		Top, Right, Bottom, Left Length
	}
)

// Resolve converts the length to pixels, percentages being relative to basis.
func (x Length) Resolve(basis float64) float64 {
	if x.Percent {
		return x.Value * basis / 100
	}
	return x.Value
}

// String formats the length as CSS.
func (x Length) String() string {
	v := strconv.FormatFloat(x.Value, 'f', -1, 64)
	if x.Percent {
		return v + `%`
	}
	return v + `px`
}

// String formats the margin in its four value form.
func (x RootMargin) String() string {
	return x.Top.String() + ` ` + x.Right.String() + ` ` + x.Bottom.String() + ` ` + x.Left.String()
}

// ParseRootMargin parses margins using the CSS margin shorthand, i.e. one to
// four whitespace separated lengths (top, right, bottom, left), each either
// pixels (`px`) or a percentage (`%`). A unitless zero is accepted. An empty
// string is a zero margin.
func ParseRootMargin(s string) (RootMargin, error) {
	fields := strings.Fields(s)
	if len(fields) > 4 {
		return RootMargin{}, fmt.Errorf(`%w: root margin %q: expected at most 4 values`, ErrInvalidField, s)
	}
	values := make([]Length, len(fields))
	for i, field := range fields {
		v, err := parseLength(field)
		if err != nil {
			return RootMargin{}, fmt.Errorf(`%w: root margin %q: %w`, ErrInvalidField, s, err)
		}
		values[i] = v
	}
	switch len(values) {
	case 0:
		return RootMargin{}, nil
	case 1:
		return RootMargin{values[0], values[0], values[0], values[0]}, nil
	case 2:
		return RootMargin{values[0], values[1], values[0], values[1]}, nil
	case 3:
		return RootMargin{values[0], values[1], values[2], values[1]}, nil
	default:
		return RootMargin{values[0], values[1], values[2], values[3]}, nil
	}
}

func parseLength(s string) (Length, error) {
	var (
		v   Length
		num string
	)
	switch {
	case strings.HasSuffix(s, `px`):
		num = s[:len(s)-2]
	case strings.HasSuffix(s, `%`):
		num = s[:len(s)-1]
		v.Percent = true
	case s == `0`:
		return v, nil
	default:
		return v, fmt.Errorf(`length %q must be in px or %%`, s)
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return v, fmt.Errorf(`length %q is not a number`, s)
	}
	v.Value = f
	return v, nil
}
