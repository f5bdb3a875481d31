package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InvalidOffsetError reports a relative-duration expression that could not be
// parsed. Rules carrying such an offset never fire; the error exists so the
// caller can log the configuration bug.
type InvalidOffsetError struct {
	Expr   string
	Reason string
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("invalid offset expression %q: %s", e.Expr, e.Reason)
}

// offsetParts is a parsed relative duration. Calendar units are kept separate
// from clock units so month and year arithmetic stays calendar-relative
// instead of a fixed-second multiple.
type offsetParts struct {
	years  int
	months int
	days   int
	clock  time.Duration
}

// parseOffset parses human-readable relative durations such as "+1 month",
// "14 days" or "1 year 2 weeks". A leading "+" is accepted and ignored.
func parseOffset(expr string) (offsetParts, error) {
	var parts offsetParts

	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return parts, &InvalidOffsetError{Expr: expr, Reason: "empty expression"}
	}
	trimmed = strings.TrimPrefix(trimmed, "+")

	tokens := strings.Fields(trimmed)
	if len(tokens)%2 != 0 {
		return parts, &InvalidOffsetError{Expr: expr, Reason: "expected pairs of amount and unit"}
	}

	for i := 0; i < len(tokens); i += 2 {
		amount, err := strconv.Atoi(tokens[i])
		if err != nil {
			return parts, &InvalidOffsetError{Expr: expr, Reason: fmt.Sprintf("amount %q is not a number", tokens[i])}
		}
		if amount < 0 {
			return parts, &InvalidOffsetError{Expr: expr, Reason: "negative amounts are not allowed"}
		}

		unit := strings.ToLower(strings.TrimSuffix(tokens[i+1], "s"))
		switch unit {
		case "year":
			parts.years += amount
		case "month":
			parts.months += amount
		case "week":
			parts.days += amount * 7
		case "day":
			parts.days += amount
		case "hour":
			parts.clock += time.Duration(amount) * time.Hour
		case "minute", "min":
			parts.clock += time.Duration(amount) * time.Minute
		case "second", "sec":
			parts.clock += time.Duration(amount) * time.Second
		default:
			return parts, &InvalidOffsetError{Expr: expr, Reason: fmt.Sprintf("unknown unit %q", tokens[i+1])}
		}
	}

	return parts, nil
}

// AddOffset adds a relative-duration expression to a timestamp using
// calendar-aware arithmetic. Safe for concurrent use, no side effects.
func AddOffset(t time.Time, expr string) (time.Time, error) {
	parts, err := parseOffset(expr)
	if err != nil {
		return time.Time{}, err
	}

	return t.AddDate(parts.years, parts.months, parts.days).Add(parts.clock), nil
}

// SubtractOffset subtracts a relative-duration expression from a timestamp.
func SubtractOffset(t time.Time, expr string) (time.Time, error) {
	parts, err := parseOffset(expr)
	if err != nil {
		return time.Time{}, err
	}

	return t.AddDate(-parts.years, -parts.months, -parts.days).Add(-parts.clock), nil
}
