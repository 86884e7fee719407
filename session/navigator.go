package session

import "context"

// Navigator is the host capability the manager redirects through. A web
// host maps Redirect to a router navigation and InstallBackInterceptor to a
// history listener; other hosts supply whatever fits.
type Navigator interface {
	// Redirect sends the user to route.
	Redirect(ctx context.Context, route string) error

	// InstallBackInterceptor registers intercept to run on every backward
	// navigation attempt. When intercept returns block=true the host must
	// cancel the navigation and go to target instead. The interceptor stays
	// installed for the lifetime of the process.
	InstallBackInterceptor(intercept func() (target string, block bool))
}

// NopNavigator is a [Navigator] for hosts without a navigation surface.
type NopNavigator struct{}

func (NopNavigator) Redirect(context.Context, string) error { return nil }

func (NopNavigator) InstallBackInterceptor(func() (string, bool)) {}

// NavigatorFuncs adapts plain functions to [Navigator]. Nil fields are
// no-ops.
type NavigatorFuncs struct {
	RedirectFunc    func(ctx context.Context, route string) error
	InterceptorFunc func(intercept func() (target string, block bool))
}

func (n NavigatorFuncs) Redirect(ctx context.Context, route string) error {
	if n.RedirectFunc == nil {
		return nil
	}
	return n.RedirectFunc(ctx, route)
}

func (n NavigatorFuncs) InstallBackInterceptor(intercept func() (string, bool)) {
	if n.InterceptorFunc != nil {
		n.InterceptorFunc(intercept)
	}
}
