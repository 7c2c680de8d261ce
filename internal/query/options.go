package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// Recognized system query option keys.
const (
	OptionFilter  = "$filter"
	OptionOrderBy = "$orderby"
	OptionTop     = "$top"
	OptionSkip    = "$skip"
)

// Options holds the decoded system query options of one query string.
// Empty strings and nil pointers mark absent options.
type Options struct {
	Filter  string
	OrderBy string
	Top     *int
	Skip    *int
}

// ParseOptions splits a raw query string into its options. Pairs are joined
// by '&' and URI-decoded, so both percent-escapes and '+' for space are
// accepted. A leading '?' is ignored. With foldKeys set, option keys match
// regardless of case.
func ParseOptions(raw string, foldKeys bool) (*Options, error) {
	options := &Options{}
	seen := make(map[string]bool, 4)

	for _, pair := range strings.Split(strings.TrimPrefix(raw, "?"), "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, &queryerrors.QueryError{Message: "malformed escape in option name '" + rawKey + "'", Err: err}
		}
		if foldKeys {
			key = strings.ToLower(key)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, &queryerrors.QueryError{Option: key, Message: "malformed escape", Err: err}
		}

		if key == "" {
			return nil, &queryerrors.QueryError{Message: "option without a name"}
		}
		if seen[key] {
			return nil, &queryerrors.QueryError{Option: key, Message: "specified more than once"}
		}
		seen[key] = true

		if err := options.set(key, value); err != nil {
			return nil, err
		}
	}
	return options, nil
}

func (o *Options) set(key, value string) error {
	switch key {
	case OptionFilter:
		if strings.TrimSpace(value) == "" {
			return &queryerrors.QueryError{Option: key, Message: "must not be empty"}
		}
		o.Filter = value
	case OptionOrderBy:
		if strings.TrimSpace(value) == "" {
			return &queryerrors.QueryError{Option: key, Message: "must not be empty"}
		}
		o.OrderBy = value
	case OptionTop:
		n, err := parseNonNegativeInt(key, value)
		if err != nil {
			return err
		}
		o.Top = &n
	case OptionSkip:
		n, err := parseNonNegativeInt(key, value)
		if err != nil {
			return err
		}
		o.Skip = &n
	default:
		return &queryerrors.QueryError{Option: key, Message: "unknown query option"}
	}
	return nil
}

// parseNonNegativeInt accepts base-10 digits only; signs are rejected.
func parseNonNegativeInt(option, value string) (int, error) {
	if value == "" {
		return 0, &queryerrors.QueryError{Option: option, Message: "must be a non-negative integer"}
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, &queryerrors.QueryError{Option: option, Message: "must be a non-negative integer, got '" + value + "'"}
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &queryerrors.QueryError{Option: option, Message: "value out of range", Err: err}
	}
	return n, nil
}

// Empty reports whether no option was given.
func (o *Options) Empty() bool {
	return o.Filter == "" && o.OrderBy == "" && o.Top == nil && o.Skip == nil
}
