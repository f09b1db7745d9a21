package depreg

import (
	"reflect"
	"sync"
)

// Key identifies a capability by its Go type.
//
// Keys are comparable and safe to use as map keys. Two keys for the same
// type are always equal; types with the same name in different packages
// produce different keys because reflect.Type identity includes the
// package path.
type Key struct {
	t reflect.Type
}

// KeyOf returns the key for capability T.
//
// Interface types keep their identity: KeyOf[io.Reader]() is the key for
// the interface itself, not for whatever implements it.
func KeyOf[T any]() Key {
	return Key{t: reflect.TypeFor[T]()}
}

// Type returns the capability type, or nil for the zero Key.
func (k Key) Type() reflect.Type { return k.t }

// IsZero reports whether the key was never assigned a type.
func (k Key) IsZero() bool { return k.t == nil }

// String returns the package-qualified type name, e.g. "net/http.Handler".
func (k Key) String() string {
	if k.t == nil {
		return "<none>"
	}
	return typeName(k.t)
}

var typeNames sync.Map // reflect.Type -> string

func typeName(t reflect.Type) string {
	if v, ok := typeNames.Load(t); ok {
		return v.(string)
	}
	name := t.String()
	if t.Name() != "" && t.PkgPath() != "" {
		name = t.PkgPath() + "." + t.Name()
	}
	typeNames.Store(t, name)
	return name
}

// conforms reports whether v can be handed out under key k as a T with a
// plain type assertion. Interface keys accept any implementation; other
// keys require the identical dynamic type. A nil value conforms only to
// interface keys.
func (k Key) conforms(v any) bool {
	if v == nil {
		return k.t.Kind() == reflect.Interface
	}
	vt := reflect.TypeOf(v)
	if k.t.Kind() == reflect.Interface {
		return vt.Implements(k.t)
	}
	return vt == k.t
}
