package gobus

import "reflect"

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeName returns the package-qualified name used in errors and logs,
// e.g. "mail.Ping". Unnamed types fall back to their type literal.
func typeName[T any]() string {
	return typeOf[T]().String()
}
