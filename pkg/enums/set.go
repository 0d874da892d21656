package enums

import (
	"fmt"
	"slices"
	"strings"
)

// set lists the accepted values of a string enum in their canonical order.
type set[T ~string] []T

func (s set[T]) has(v T) bool {
	return slices.Contains(s, v)
}

func (s set[T]) values() []T {
	return slices.Clone(s)
}

// parse normalizes raw with fold before matching; the error keeps the caller's input.
func (s set[T]) parse(kind, raw string, fold func(string) string) (T, error) {
	v := T(raw)
	if fold != nil {
		v = T(fold(strings.TrimSpace(raw)))
	}
	if s.has(v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
