// Package typesys stands in for the generic type system collaborator
// that spec.md treats as external: value conversion and signature
// parsing beyond the inner-tuple-extraction contract are out of scope
// for the core. This package implements just that contract, plus a
// minimal codec so the proxy and its tests can exercise real
// round-trips without a full value-conversion layer.
package typesys

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind is a single wire-signature element: one of a small primitive
// alphabet. Tuples are a parenthesized sequence of Kinds.
type Kind byte

const (
	KindInt    Kind = 'i'
	KindUint   Kind = 'u'
	KindString Kind = 's'
	KindBool   Kind = 'b'
	KindDouble Kind = 'd'
)

// Signature is a method or signal's declared wire signature, e.g.
// "(ii)s" for a method taking two ints and returning a string, or
// "(i)" for a signal carrying a single int argument.
type Signature string

// InnerArgs strips the outer parentheses off the argument tuple of a
// declared signature, per spec.md §9: "the declared signature of a
// method (arg1,arg2)ret has inner argument tuple extracted by
// stripping the outer parentheses."
func (s Signature) InnerArgs() (string, error) {
	str := string(s)
	if !strings.HasPrefix(str, "(") {
		return "", fmt.Errorf("typesys: signature %q does not start with '('", str)
	}
	depth := 0
	for i, r := range str {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return str[1:i], nil
			}
		}
	}
	return "", fmt.Errorf("typesys: signature %q has unbalanced parentheses", str)
}

// Return yields the trailing return-type token of a declared method
// signature (everything after the closing paren of the argument
// tuple). Signals have no return type and yield "".
func (s Signature) Return() (string, error) {
	str := string(s)
	depth := 0
	for i, r := range str {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return str[i+1:], nil
			}
		}
	}
	return "", fmt.Errorf("typesys: signature %q has unbalanced parentheses", str)
}

// HashID derives a stable 32-bit selector from a method or signal
// name, the same "name into numeric id" convention the pack's
// xxhash-backed cache keys use. MetaObjects built with NewMetaObject
// use this so callers can address methods/signals by name without the
// core needing to own an id allocator.
func HashID(name string) uint32 {
	return uint32(xxhash.Sum64String(name))
}
