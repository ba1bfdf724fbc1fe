package goGuard

import (
	"context"
	"fmt"
	"reflect"
)

// loadPrincipal resolves the principal for the verified identity. With no
// loader configured it returns (nil, false, nil).
func (g *Guard) loadPrincipal(ctx context.Context, claims Claims) (any, bool, error) {
	if g.loader == nil {
		return nil, false, nil
	}

	identity := claims.Identity(g.cfg.IdentityClaimKey)
	principal, err := g.loader.LoadPrincipal(ctx, identity)
	if err != nil {
		return nil, false, err
	}
	if isNilPrincipal(principal) {
		return nil, false, newError(ErrUserLoad, fmt.Sprintf("user loader returned nil for %v", identity))
	}
	return principal, true, nil
}

// isNilPrincipal also catches typed nils such as (*User)(nil) boxed in any.
func isNilPrincipal(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
