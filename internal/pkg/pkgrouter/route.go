package pkgrouter

import (
	"context"
	"net/http"
)

type routeContextKey struct{}

// withRoute stores the registered path pattern so middleware can log
// "/datasets/:id" instead of the concrete path.
func withRoute(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), routeContextKey{}, pattern)))
	})
}

// Route returns the matched route pattern, or "" outside a routed request.
func Route(ctx context.Context) string {
	pattern, _ := ctx.Value(routeContextKey{}).(string)
	return pattern
}
