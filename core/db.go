package core

import (
	"strings"

	"github.com/pkg/errors"
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses a comma separated list of fields, prefixed with "-" for descending order.
// Only fields in allowed are accepted.
func ParseOrdering(s string, allowed ...string) ([]DBOrdering, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	ordering := make([]DBOrdering, 0, len(fields))
	for _, fld := range fields {
		fld = strings.TrimSpace(fld)
		asc := !strings.HasPrefix(fld, "-")
		fld = strings.TrimPrefix(fld, "-")
		if !contains(allowed, fld) {
			return nil, NewValidationError(
				errors.New("invalid ordering"),
				FieldError{Field: "ordering", Error: "cannot order by " + fld},
			)
		}
		ordering = append(ordering, DBOrdering{Field: fld, Ascending: asc})
	}
	return ordering, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
