package models

import "errors"

// ErrVendorNotFound is returned by stores when no vendor has the requested id.
var ErrVendorNotFound = errors.New("vendor not found")
