// Package guard keeps navigation consistent with the session: signed-out users
// only see auth screens, signed-in users only see app screens.
package guard

import "strings"

// Group is the top-level screen group of a route.
type Group string

// Screen groups.
const (
	GroupAuth Group = "auth"
	GroupTabs Group = "tabs"
	GroupRoot Group = ""
)

// Route is a navigable screen path.
type Route string

// Known routes.
const (
	RouteIndex   Route = "/"
	RouteLogin   Route = "/(auth)/login"
	RouteSignup  Route = "/(auth)/signup"
	RouteFeed    Route = "/(tabs)/feed"
	RouteCreate  Route = "/(tabs)/create"
	RouteProfile Route = "/(tabs)/profile"
)

// GroupOf returns the group of the route's first segment.
func GroupOf(r Route) Group {
	seg := strings.TrimPrefix(string(r), "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	if strings.HasPrefix(seg, "(") && strings.HasSuffix(seg, ")") {
		return Group(seg[1 : len(seg)-1])
	}
	return GroupRoot
}
