package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// backendProxy forwards the backend-owned endpoints (admin run history,
// override submission, PDF inspection, raw tariff/guard payloads) without
// any derived computation. The comparator never interprets these
// responses; they are request/response pass-throughs for the console.
func (s *Server) backendProxy() http.Handler {
	u, err := url.Parse(s.backendURL)
	if err != nil {
		panic(fmt.Errorf("invalid backend-proxy-url (%s): %w", s.backendURL, err))
	}
	proxy := httputil.NewSingleHostReverseProxy(u)
	return proxy
}
