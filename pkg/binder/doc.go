// Package binder decodes HTTP request data into Go structs.
//
// JSON() reads an application/json body of at most DefaultMaxJSONSize bytes
// in strict mode: unknown fields and trailing data are rejected. Query() fills
// a struct from URL query parameters using `query:"name"` tags.
//
//	var req sendRequest
//	if err := binder.JSON()(r, &req); err != nil {
//	    // errors.Is(err, binder.ErrUnsupportedMediaType), ...
//	}
//
// Every failure wraps one of the package's sentinel errors so handlers can map
// it to a status code with errors.Is.
package binder
