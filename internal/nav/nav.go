// Package nav resolves storefront paths to pages and applies the checkout gates.
package nav

import "strings"

type Route string

const (
	RouteHome          Route = "home"
	RouteShop          Route = "shop"
	RouteCollections   Route = "collections"
	RouteHowItWorks    Route = "how-it-works"
	RouteImpact        Route = "impact"
	RouteCheckout      Route = "checkout"
	RouteOrderTracking Route = "order-tracking"
	RouteNotFound      Route = "not-found"
)

var routes = map[string]Route{
	"/":               RouteHome,
	"/shop":           RouteShop,
	"/collections":    RouteCollections,
	"/how-it-works":   RouteHowItWorks,
	"/impact":         RouteImpact,
	"/checkout":       RouteCheckout,
	"/order-tracking": RouteOrderTracking,
}

// View is what the client renders for a resolved route.
type View string

const (
	ViewPage         View = "page"
	ViewEmptyCart    View = "empty_cart"
	ViewAuthRequired View = "auth_required"
	ViewNotFound     View = "not_found"
)

// State is the client state the gates depend on.
type State struct {
	Authenticated bool
	CartCount     int
}

type Decision struct {
	Path  string `json:"path"`
	Route Route  `json:"route"`
	View  View   `json:"view"`
	// DeclineTo is where the client goes when the sign-in prompt is dismissed.
	DeclineTo string `json:"declineTo,omitempty"`
}

// Normalize strips the query, fragment and trailing slashes and lowercases path.
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.ToLower(strings.TrimSpace(path))
	path = strings.TrimRight(path, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Resolve maps path to a route. Checkout shows the empty-cart view before it asks
// for sign-in.
func Resolve(path string, st State) Decision {
	p := Normalize(path)
	route, ok := routes[p]
	if !ok {
		return Decision{Path: p, Route: RouteNotFound, View: ViewNotFound}
	}
	d := Decision{Path: p, Route: route, View: ViewPage}
	if route == RouteCheckout {
		switch {
		case st.CartCount == 0:
			d.View = ViewEmptyCart
		case !st.Authenticated:
			d.View = ViewAuthRequired
			d.DeclineTo = "/"
		}
	}
	return d
}

// Paths lists the known paths.
func Paths() []string {
	return []string{"/", "/shop", "/collections", "/how-it-works", "/impact", "/checkout", "/order-tracking"}
}
