package exif

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TagKind classifies a queryable tag as string, integer or float typed.
type TagKind int

const (
	KindString TagKind = iota
	KindInteger
	KindFloat
)

// floatEpsilon is the absolute tolerance for float equality; float-typed
// fields originate from text, so exact bit comparison is meaningless.
const floatEpsilon = 1e-6

// tagKinds is the single source of truth for tag-name -> type classification.
var tagKinds = map[string]TagKind{
	"model":         KindString,
	"lens":          KindString,
	"aperture":      KindFloat,
	"shutter_speed": KindFloat,
	"iso":           KindFloat,
	"focal_len":     KindFloat,
	"width":         KindInteger,
	"height":        KindInteger,
	"year":          KindInteger,
	"month":         KindInteger,
}

// TagNames lists the queryable tags in a fixed order.
func TagNames() []string {
	return []string{
		"width", "height", "month", "year", "aperture",
		"focal_len", "iso", "lens", "model", "shutter_speed",
	}
}

// ClassifyTag maps a tag name to its kind; unknown names are an error.
func ClassifyTag(name string) (TagKind, error) {
	kind, ok := tagKinds[name]
	if !ok {
		return 0, fmt.Errorf("invalid tag name: %s", name)
	}
	return kind, nil
}

// ValidateQuery checks tag name, operator and comparison literal without
// touching any record, so a search can fail fast on a malformed predicate.
func ValidateQuery(tagName, value, operator string) error {
	kind, err := ClassifyTag(tagName)
	if err != nil {
		return err
	}
	switch kind {
	case KindString:
		switch operator {
		case "==", "!=", "contains", "starts_with", "ends_with":
			return nil
		}
		return fmt.Errorf("invalid operator for string tag %s: %s", tagName, operator)
	case KindInteger:
		if _, err := strconv.ParseUint(value, 10, 32); err != nil {
			return fmt.Errorf("invalid number value for comparison: %s", value)
		}
	case KindFloat:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value for comparison: %s", value)
		}
	}
	switch operator {
	case "==", "!=", ">", "<", ">=", "<=":
		return nil
	}
	return fmt.Errorf("invalid operator for numeric tag %s: %s", tagName, operator)
}

// MatchesQuery evaluates a (tag, operator, value) predicate against the
// record with type-appropriate comparison semantics. There is no implicit
// coercion: a numeric operator on a string-typed tag is an error, not false.
func (r Record) MatchesQuery(tagName, value, operator string) (bool, error) {
	kind, err := ClassifyTag(tagName)
	if err != nil {
		return false, err
	}

	switch kind {
	case KindString:
		return matchString(r.stringTag(tagName), value, operator)
	case KindInteger:
		return matchInteger(r.integerTag(tagName), value, operator)
	default:
		stored, err := strconv.ParseFloat(r.floatTag(tagName), 64)
		if err != nil {
			return false, fmt.Errorf("invalid float value in tag %s: %q", tagName, r.floatTag(tagName))
		}
		return matchFloat(stored, value, operator)
	}
}

func (r Record) stringTag(name string) string {
	switch name {
	case "model":
		return r.Model
	default:
		return r.Lens
	}
}

func (r Record) integerTag(name string) uint {
	switch name {
	case "width":
		return r.Width
	case "height":
		return r.Height
	case "year":
		return r.Year
	default:
		return r.Month
	}
}

func (r Record) floatTag(name string) string {
	switch name {
	case "aperture":
		return r.Aperture
	case "shutter_speed":
		return r.ShutterSpeed
	case "iso":
		return r.ISO
	default:
		return r.FocalLen
	}
}

// matchString compares case-insensitively. Stored string fields carry
// surrounding quotes, which are not part of the value.
func matchString(stored, value, operator string) (bool, error) {
	s := strings.ToLower(strings.Trim(stored, `"`))
	v := strings.ToLower(value)
	switch operator {
	case "==":
		return s == v, nil
	case "!=":
		return s != v, nil
	case "contains":
		return strings.Contains(s, v), nil
	case "starts_with":
		return strings.HasPrefix(s, v), nil
	case "ends_with":
		return strings.HasSuffix(s, v), nil
	}
	return false, fmt.Errorf("invalid operator for string: %s", operator)
}

func matchInteger(stored uint, value, operator string) (bool, error) {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return false, fmt.Errorf("invalid number value for comparison: %s", value)
	}
	v := uint(parsed)
	switch operator {
	case "==":
		return stored == v, nil
	case "!=":
		return stored != v, nil
	case ">":
		return stored > v, nil
	case "<":
		return stored < v, nil
	case ">=":
		return stored >= v, nil
	case "<=":
		return stored <= v, nil
	}
	return false, fmt.Errorf("invalid operator for number: %s", operator)
}

func matchFloat(stored float64, value, operator string) (bool, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false, fmt.Errorf("invalid float value for comparison: %s", value)
	}
	switch operator {
	case "==":
		return math.Abs(stored-v) < floatEpsilon, nil
	case "!=":
		return math.Abs(stored-v) >= floatEpsilon, nil
	case ">":
		return stored > v, nil
	case "<":
		return stored < v, nil
	case ">=":
		return stored >= v, nil
	case "<=":
		return stored <= v, nil
	}
	return false, fmt.Errorf("invalid operator for float: %s", operator)
}
