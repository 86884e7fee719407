package guard

import (
	"net/http"
	"net/url"
)

// Middleware adapts the guard for a server-rendered admin host: denied
// requests become 302 redirects carrying the denial reason as a query
// parameter.
func Middleware(g *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			decision := g.Admit(r.Context(), r.URL.Path)
			if !decision.Allow {
				http.Redirect(w, r, redirectURL(decision), http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AnonymousOnly is the middleware form of [Guard.RequireAnonymous].
func AnonymousOnly(g *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			decision := g.RequireAnonymous(r.Context(), r.URL.Path)
			if !decision.Allow {
				http.Redirect(w, r, redirectURL(decision), http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func redirectURL(d Decision) string {
	if d.Reason == "" {
		return d.Target
	}
	return d.Target + "?reason=" + url.QueryEscape(d.Reason)
}
