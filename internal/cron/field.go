package cron

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// FieldSpec describes one of the five crontab time fields.
type FieldSpec struct {
	Name    string
	Min     int
	Max     int
	Names   map[string]int // case-insensitive aliases such as "jan" or "mon"
	Aliases map[int]int    // applied after expansion, e.g. day-of-week 7 -> 0
}

// The five crontab time fields in line order.
var (
	MinuteField     = FieldSpec{Name: "minute", Min: 0, Max: 59}
	HourField       = FieldSpec{Name: "hour", Min: 0, Max: 23}
	DayOfMonthField = FieldSpec{Name: "day-of-month", Min: 1, Max: 31}
	MonthField      = FieldSpec{Name: "month", Min: 1, Max: 12, Names: map[string]int{
		"jan": 1,
		"feb": 2,
		"mar": 3,
		"apr": 4,
		"may": 5,
		"jun": 6,
		"jul": 7,
		"aug": 8,
		"sep": 9,
		"oct": 10,
		"nov": 11,
		"dec": 12,
	}}
	DayOfWeekField = FieldSpec{Name: "day-of-week", Min: 0, Max: 6, Names: map[string]int{
		"sun": 0,
		"mon": 1,
		"tue": 2,
		"wed": 3,
		"thu": 4,
		"fri": 5,
		"sat": 6,
	}, Aliases: map[int]int{7: 0}}
)

// Field is the expanded form of a crontab time field: either the bare
// wildcard or an explicit set of values. The zero Field matches nothing.
type Field struct {
	wildcard bool
	set      bitset64
}

// bitset64 uses a uint64 as a compact set of integers 0-63.
type bitset64 uint64

func (b bitset64) has(value int) bool { return value >= 0 && value < 64 && b&(1<<uint(value)) != 0 }
func (b *bitset64) set(value int)     { *b |= 1 << uint(value) }

// Wildcard returns the field produced by a bare "*".
func Wildcard() Field { return Field{wildcard: true} }

// Explicit returns a field matching exactly the given values. Values
// outside 0-63 are ignored.
func Explicit(values ...int) Field {
	var f Field
	for _, v := range values {
		if v >= 0 && v < 64 {
			f.set.set(v)
		}
	}
	return f
}

// IsWildcard reports whether the field was written as a bare "*".
func (f Field) IsWildcard() bool { return f.wildcard }

// Matches reports whether value satisfies the field.
func (f Field) Matches(value int) bool {
	return f.wildcard || f.set.has(value)
}

// Len returns the number of explicit values. It is 0 for the wildcard.
func (f Field) Len() int { return bits.OnesCount64(uint64(f.set)) }

// Values returns the explicit values in ascending order, or nil for the
// wildcard.
func (f Field) Values() []int {
	if f.wildcard {
		return nil
	}
	out := make([]int, 0, f.Len())
	for v := 0; v < 64; v++ {
		if f.set.has(v) {
			out = append(out, v)
		}
	}
	return out
}

func (f Field) String() string {
	if f.wildcard {
		return "*"
	}
	values := f.Values()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Expand converts one raw crontab field into the values it matches.
//
// Supported terms, combined with commas:
//
//	*        every value (kept as the wildcard when it is the whole field)
//	*/N      every Nth value from the field minimum
//	A-B      inclusive numeric range, optionally A-B/N
//	V        single number or name, V/N means V through the maximum by N
//
// Named values (jan, mon, ...) are accepted as single values only.
func Expand(raw string, spec FieldSpec) (Field, error) {
	if raw == "*" {
		return Wildcard(), nil
	}

	var result Field
	for _, item := range strings.Split(raw, ",") {
		if item == "" {
			return Field{}, fieldError(spec, raw, item, "empty list item")
		}
		values, err := expandItem(item, spec)
		if err != nil {
			return Field{}, fieldError(spec, raw, item, err.Error())
		}
		for _, v := range values {
			if alias, ok := spec.Aliases[v]; ok {
				v = alias
			}
			if v < spec.Min || v > spec.Max {
				return Field{}, fieldError(spec, raw, item, outOfRange(v, spec).Error())
			}
			result.set.set(v)
		}
	}
	return result, nil
}

// expandItem resolves one comma item, before aliasing.
func expandItem(item string, spec FieldSpec) ([]int, error) {
	body, step, err := splitStep(item)
	if err != nil {
		return nil, err
	}

	var start, end int
	switch {
	case strings.HasPrefix(body, "*"):
		if body != "*" {
			return nil, errors.New("malformed wildcard")
		}
		start, end = spec.Min, spec.Max
	case strings.Contains(body, "-"):
		start, end, err = parseRange(body, spec)
		if err != nil {
			return nil, err
		}
	default:
		start, err = parseValue(body, spec)
		if err != nil {
			return nil, err
		}
		end = start
		if step > 0 {
			// Aliased values such as day-of-week 7 cannot be stepped.
			if start > spec.Max {
				return nil, outOfRange(start, spec)
			}
			end = spec.Max
		}
	}

	if start < spec.Min {
		return nil, outOfRange(start, spec)
	}
	if hi := spec.rawMax(); end > hi {
		return nil, outOfRange(end, spec)
	}

	if step == 0 {
		step = 1
	}
	values := make([]int, 0, (end-start)/step+1)
	for v := start; ; v += step {
		values = append(values, v)
		if end-v < step {
			break
		}
	}
	return values, nil
}

func outOfRange(v int, spec FieldSpec) error {
	return fmt.Errorf("value %d out of range %d-%d", v, spec.Min, spec.Max)
}

// rawMax is the largest value accepted before aliasing.
func (s FieldSpec) rawMax() int {
	hi := s.Max
	for v := range s.Aliases {
		hi = max(hi, v)
	}
	return hi
}

// splitStep strips a "/N" suffix. A zero step means none was given.
func splitStep(item string) (string, int, error) {
	parts := strings.Split(item, "/")
	switch len(parts) {
	case 1:
		return item, 0, nil
	case 2:
		step, ok := parseNumber(parts[1])
		if !ok {
			return "", 0, fmt.Errorf("step %q is not a number", parts[1])
		}
		if step <= 0 {
			return "", 0, errors.New("step must be positive")
		}
		return parts[0], step, nil
	default:
		return "", 0, errors.New("too many slashes")
	}
}

func parseRange(body string, spec FieldSpec) (int, int, error) {
	bounds := strings.Split(body, "-")
	if len(bounds) != 2 {
		return 0, 0, errors.New("too many hyphens")
	}
	for _, b := range bounds {
		if _, named := spec.Names[strings.ToLower(b)]; named {
			return 0, 0, errors.New("named range endpoints are not supported")
		}
	}
	start, ok := parseNumber(bounds[0])
	if !ok {
		return 0, 0, fmt.Errorf("range start %q is not a number", bounds[0])
	}
	end, ok := parseNumber(bounds[1])
	if !ok {
		return 0, 0, fmt.Errorf("range end %q is not a number", bounds[1])
	}
	if start > end {
		return 0, 0, fmt.Errorf("range start %d beyond end %d", start, end)
	}
	return start, end, nil
}

func parseValue(body string, spec FieldSpec) (int, error) {
	if v, ok := spec.Names[strings.ToLower(body)]; ok {
		return v, nil
	}
	v, ok := parseNumber(body)
	if !ok {
		return 0, fmt.Errorf("%q is not a number or known name", body)
	}
	return v, nil
}

// parseNumber accepts unsigned decimal integers only; signs and spaces
// are rejected. Values too large for an int saturate so the domain check
// reports them as out of range.
func parseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, true
	}
	return v, err == nil
}
