package redis

import (
	"reflect"
	"strings"
	"unicode"
)

// eventTypeName derives the CloudEvents type attribute from T's Go name,
// converting PascalCase to dot-separated lowercase.
// Example: OrderCreated → "order.created".
func eventTypeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return splitPascalCase(t.Name(), ".")
}

// splitPascalCase splits a PascalCase string into lowercase words joined by sep.
func splitPascalCase(s string, sep string) string {
	if s == "" {
		return ""
	}

	var words []string
	var current strings.Builder

	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		words = append(words, strings.ToLower(current.String()))
	}

	return strings.Join(words, sep)
}
