// Package model defines shared types for the proxy.
package model

import (
	"net/http"
)

// UpstreamResponse is a fully-read upstream reply. A non-2xx status is
// carried here as data, not as an error; classification happens in the
// service layer.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
