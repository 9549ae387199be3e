package tenant

import (
	"strings"

	"github.com/pos/backend/internal/domain/shared"
)

// Resolution is the outcome of resolving an inbound request to a store.
// StoreCode is only set for legacy numeric-domain clients that are mapped
// through the exact-match origin table; it travels alongside the subdomain
// and does not influence subdomain derivation.
type Resolution struct {
	Subdomain string
	StoreCode string
}

// Resolver derives a store subdomain from request attributes. Resolution
// order: an explicit override always wins, then the origin/referer value,
// then the Host header. Development origins (matched by a fixed substring)
// collapse to the canonical default subdomain.
type Resolver struct {
	defaultSubdomain string
	devOriginMarker  string
	storeCodes       map[string]string // exact origin -> legacy store code
}

// NewResolver creates a resolver. storeCodes may be nil when no legacy
// clients need the compatibility path.
func NewResolver(defaultSubdomain, devOriginMarker string, storeCodes map[string]string) *Resolver {
	if storeCodes == nil {
		storeCodes = map[string]string{}
	}
	return &Resolver{
		defaultSubdomain: defaultSubdomain,
		devOriginMarker:  devOriginMarker,
		storeCodes:       storeCodes,
	}
}

// Resolve derives a subdomain (and optional legacy store code) from the
// request's origin, host header and explicit override.
//
// A missing origin falls back to the default subdomain; an origin that is
// present but yields no subdomain at all returns ErrInvalidTenant so the
// caller rejects the request instead of silently writing into the wrong
// store.
func (r *Resolver) Resolve(origin, host, override string) (Resolution, error) {
	res := Resolution{StoreCode: r.storeCodes[origin]}

	if override != "" {
		res.Subdomain = override
		return res, nil
	}

	source := origin
	if source == "" {
		source = host
	}
	if source == "" {
		res.Subdomain = r.defaultSubdomain
		return res, nil
	}

	if r.devOriginMarker != "" && strings.Contains(source, r.devOriginMarker) {
		res.Subdomain = r.defaultSubdomain
		return res, nil
	}

	sub := subdomainOf(source)
	if sub == "" {
		return Resolution{}, shared.ErrInvalidTenant
	}
	res.Subdomain = sub
	return res, nil
}

// subdomainOf strips the scheme and any path/port, then takes the token
// before the first dot. Returns "" when no subdomain can be derived.
func subdomainOf(source string) string {
	s := source
	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
	}
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		s = s[:idx]
	}
	dot := strings.Index(s, ".")
	if dot <= 0 {
		return ""
	}
	sub := s[:dot]
	// a bare port or userinfo prefix is not a subdomain
	if strings.ContainsAny(sub, ":@") {
		return ""
	}
	return sub
}
