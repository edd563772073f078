package binder

import (
	"net/http"
)

// Query creates a query parameter binder function.
//
// It supports struct tags for custom parameter names:
//   - `query:"name"` binds to query parameter "name"
//   - `query:"-"` skips the field
//
// Supported types are string, signed and unsigned integers, floats, bools,
// slices of those, and pointers for optional fields. Parameters absent from
// the query leave their field untouched.
//
// Example:
//
//	type listQuery struct {
//		Limit *int `query:"limit"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
