package apiclient

import (
	"fmt"
	"net/url"
	"strings"
)

// Resource is a logical billing API resource name.
type Resource string

const (
	Prices        Resource = "PRICES"
	Products      Resource = "PRODUCTS"
	Subscription  Resource = "SUBSCRIPTION"
	Subscriptions Resource = "SUBSCRIPTIONS"
	Checkout      Resource = "CHECKOUT"
	Portal        Resource = "PORTAL"
)

// Endpoint is a resource plus optional path segments below it, such as the
// subscription ID in SUBSCRIPTION/{id}.
type Endpoint struct {
	Resource Resource
	Segments []string
}

// At addresses the resource, or a sub-path of it when segments are given.
// Segments are escaped.
func (r Resource) At(segments ...string) Endpoint {
	return Endpoint{Resource: r, Segments: segments}
}

func (e Endpoint) String() string {
	if len(e.Segments) == 0 {
		return string(e.Resource)
	}
	return string(e.Resource) + "/" + strings.Join(e.Segments, "/")
}

// Resolver maps a resource name to its absolute endpoint path.
type Resolver interface {
	Resolve(r Resource) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r Resource) (string, error)

func (f ResolverFunc) Resolve(r Resource) (string, error) {
	return f(r)
}

// PathResolver resolves resources to prefix-joined paths, for example
// PRICES to /api/v1/prices.
type PathResolver struct {
	paths map[Resource]string
}

// NewPathResolver builds a resolver for the given prefix and paths.
func NewPathResolver(prefix string, p Paths) *PathResolver {
	r := &PathResolver{paths: make(map[Resource]string, 6)}
	for res, path := range map[Resource]string{
		Prices:        p.Prices,
		Products:      p.Products,
		Subscription:  p.Subscription,
		Subscriptions: p.Subscriptions,
		Checkout:      p.Checkout,
		Portal:        p.Portal,
	} {
		if path == "" {
			continue
		}
		joined, err := url.JoinPath("/", prefix, path)
		if err != nil {
			continue
		}
		r.paths[res] = joined
	}
	return r
}

// Resolve implements Resolver.
func (r *PathResolver) Resolve(res Resource) (string, error) {
	path, ok := r.paths[res]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, res)
	}
	return path, nil
}
