package tenant

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultHeader is the inbound header carrying an explicit tenant id.
	DefaultHeader = "X-Tenant-Id"
	// DefaultQueryParam is the fallback query parameter.
	DefaultQueryParam = "tenant"
)

// Resolver extracts a candidate tenant identity from request metadata.
// It is a pure function over headers, query parameters and the host; it
// performs no I/O and never errors: an invalid candidate is simply absent.
type Resolver struct {
	Header     string
	QueryParam string
}

// NewResolver returns a Resolver with the default header and query names.
func NewResolver() Resolver {
	return Resolver{Header: DefaultHeader, QueryParam: DefaultQueryParam}
}

// Resolve applies the resolution order, first match wins:
//  1. explicit header value
//  2. explicit query parameter
//  3. first subdomain label, only when the host has more than two
//     dot-separated segments (tenant.company.tld)
//
// Each candidate is validated through Parse; a candidate that fails the
// grammar is treated as absent and resolution continues with the next
// source.
func (r Resolver) Resolve(header http.Header, query url.Values, host string) (ID, bool) {
	headerName := r.Header
	if headerName == "" {
		headerName = DefaultHeader
	}
	if candidate := strings.TrimSpace(header.Get(headerName)); candidate != "" {
		if id, ok := Parse(candidate); ok {
			return id, true
		}
	}

	queryName := r.QueryParam
	if queryName == "" {
		queryName = DefaultQueryParam
	}
	if candidate := strings.TrimSpace(query.Get(queryName)); candidate != "" {
		if id, ok := Parse(candidate); ok {
			return id, true
		}
	}

	if label, ok := subdomainLabel(host); ok {
		if id, ok := Parse(label); ok {
			return id, true
		}
	}

	return "", false
}

// subdomainLabel returns the first host label when the host carries more
// than two dot-separated segments. Hosts with exactly two segments
// (company.tld) or fewer carry no tenant evidence. Deeper nesting is not
// interpreted; the first label is taken literally. Raw IP hosts are not
// special-cased: "10.0.0.1" yields the candidate "10", which only matters
// when such a label is also a registered tenant.
func subdomainLabel(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}
	// Strip a port if present.
	if idx := strings.LastIndexByte(host, ':'); idx != -1 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	segments := strings.Split(host, ".")
	if len(segments) <= 2 {
		return "", false
	}
	return segments[0], true
}

// ResolveRequest is a convenience wrapper over Resolve for HTTP handlers.
func (r Resolver) ResolveRequest(req *http.Request) (ID, bool) {
	return r.Resolve(req.Header, req.URL.Query(), req.Host)
}
