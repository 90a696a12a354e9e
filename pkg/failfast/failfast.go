// Package failfast provides constructor-time precondition checks that panic
// on programmer error (nil dependencies, impossible configuration). It is
// never used for runtime protocol, transport, or timeout failures — those
// are surfaced as typed errors per the error taxonomy in groupwire.
package failfast

import (
	"fmt"
	"reflect"
)

// Err panics if err is non-nil.
func Err(err error) {
	if err != nil {
		panic(fmt.Errorf("fail-fast: %w", err))
	}
}

// If panics with a formatted message when condition is false.
func If(condition bool, message string, args ...interface{}) {
	if !condition {
		panic(fmt.Errorf("fail-fast: "+message, args...))
	}
}

// NotNil panics if ptr is nil, including typed nil pointers, maps, slices,
// and function values.
func NotNil(ptr interface{}, name string) {
	if ptr == nil {
		panic(fmt.Errorf("fail-fast: %s is nil", name))
	}
	v := reflect.ValueOf(ptr)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Errorf("fail-fast: %s is nil", name))
		}
	}
}
