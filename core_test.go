package authcore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fleetadmin/authcore/credential"
	"github.com/fleetadmin/authcore/menu"
	"github.com/fleetadmin/authcore/permission"
)

type fakeFetcher struct {
	calls atomic.Int64
	tree  []menu.Node
	err   error
}

func (f *fakeFetcher) FetchUserMenu(context.Context) ([]menu.Node, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.tree, nil
}

func signToken(t *testing.T, exp time.Time, roles, perms []string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":      "u-1",
		"role":        roles,
		"permissions": perms,
		"exp":         exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func defaultTree() []menu.Node {
	return []menu.Node{
		{
			Route: "/fleet", Label: "Fleet",
			SubItems: []menu.Node{
				{Route: "/fleet/vehicles", Label: "Vehicles", RequiredPermissions: []string{"Vehicle_Read"}},
			},
		},
	}
}

func newCoreTest(t *testing.T) (*Core, *fakeFetcher) {
	t.Helper()
	fetcher := &fakeFetcher{tree: defaultTree()}
	core, err := New().WithFetcher(fetcher).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(core.Close)
	return core, fetcher
}

func TestLoginDerivesStateAndQueries(t *testing.T) {
	core, _ := newCoreTest(t)
	ctx := context.Background()

	token := signToken(t, time.Now().Add(time.Hour), []string{"FLEET_MANAGER"}, []string{"Vehicle_Read"})
	if err := core.Login(ctx, token, "FLEET_MANAGER", "refresh-1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if !core.IsLoggedIn(ctx) {
		t.Fatal("expected logged in after login")
	}
	if !core.HasPermission("Vehicle_Read") {
		t.Fatal("expected derived permission")
	}
	if core.HasPermission("Contract_Delete") {
		t.Fatal("ungranted permission must be denied")
	}
	if !core.HasRole("FLEET_MANAGER") {
		t.Fatal("expected derived role")
	}

	got, err := core.Token(ctx)
	if err != nil || got != token {
		t.Fatalf("token round-trip failed: %q/%v", got, err)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	core, fetcher := newCoreTest(t)
	ctx := context.Background()

	token := signToken(t, time.Now().Add(time.Hour), []string{"FLEET_MANAGER"}, []string{"Vehicle_Read"})
	if err := core.Login(ctx, token, "FLEET_MANAGER", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := core.LoadMenu(ctx); err != nil {
		t.Fatalf("load menu: %v", err)
	}

	if err := core.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if core.IsLoggedIn(ctx) {
		t.Fatal("expected logged out")
	}
	if core.HasPermission("Vehicle_Read") {
		t.Fatal("permissions must be cleared on logout")
	}
	if core.MenuTree() != nil {
		t.Fatal("menu cache must be cleared on logout")
	}

	// A second logout observes identical state.
	if err := core.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}

	// The next user's menu load fetches fresh.
	if err := core.Login(ctx, token, "FLEET_MANAGER", ""); err != nil {
		t.Fatalf("relogin: %v", err)
	}
	if _, err := core.LoadMenu(ctx); err != nil {
		t.Fatalf("menu after relogin: %v", err)
	}
	if fetcher.calls.Load() != 2 {
		t.Fatalf("expected a fresh fetch after logout, got %d calls", fetcher.calls.Load())
	}
}

func TestRestartRehydratesDerivedState(t *testing.T) {
	storage := credential.NewMemoryStorage()
	ctx := context.Background()

	first, err := New().WithStorage(storage).WithFetcher(&fakeFetcher{tree: defaultTree()}).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer first.Close()

	token := signToken(t, time.Now().Add(time.Hour), []string{"SUPER_ADMIN"}, nil)
	if err := first.Login(ctx, token, "SUPER_ADMIN", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A second core over the same storage is the restart: the persisted
	// credential must yield the same derived state without another Login.
	second, err := New().WithStorage(storage).WithFetcher(&fakeFetcher{tree: defaultTree()}).Build()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	defer second.Close()

	if !second.IsLoggedIn(ctx) {
		t.Fatal("persisted credential must survive the rebuild")
	}
	if !second.HasRole("SUPER_ADMIN") {
		t.Fatal("roles must be rederived from the persisted credential")
	}
	if !second.HasPermission("Contract_Delete") {
		t.Fatal("privileged role must satisfy permission queries after a rebuild")
	}
	if d := second.Admit(ctx, "/dashboard"); !d.Allow {
		t.Fatalf("rehydrated session must be admitted, got %+v", d)
	}
}

func TestMenuCachedWithinTTL(t *testing.T) {
	core, fetcher := newCoreTest(t)
	ctx := context.Background()

	token := signToken(t, time.Now().Add(time.Hour), nil, nil)
	if err := core.Login(ctx, token, "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := core.LoadMenu(ctx); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, err := core.LoadMenu(ctx); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if fetcher.calls.Load() != 1 {
		t.Fatalf("expected one fetch within TTL, got %d", fetcher.calls.Load())
	}

	if _, err := core.RefreshMenu(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fetcher.calls.Load() != 2 {
		t.Fatalf("refresh must force a fetch, got %d", fetcher.calls.Load())
	}
}

func TestMenuRequiresSession(t *testing.T) {
	core, _ := newCoreTest(t)

	if _, err := core.LoadMenu(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestMenuFetchFailurePropagates(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("backend down")}
	core, err := New().WithFetcher(fetcher).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(core.Close)
	ctx := context.Background()

	if err := core.Login(ctx, signToken(t, time.Now().Add(time.Hour), nil, nil), "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := core.LoadMenu(ctx); err == nil {
		t.Fatal("expected fetch failure to propagate")
	}

	fetcher.err = nil
	fetcher.tree = defaultTree()
	if _, err := core.LoadMenu(ctx); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestVisibleMenuFiltering(t *testing.T) {
	core, _ := newCoreTest(t)
	ctx := context.Background()

	token := signToken(t, time.Now().Add(time.Hour), []string{"VIEWER"}, nil)
	if err := core.Login(ctx, token, "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	visible, err := core.VisibleMenu(ctx)
	if err != nil {
		t.Fatalf("visible menu: %v", err)
	}
	// The parent has no requirements and stays; the child needs
	// Vehicle_Read which this user lacks.
	if len(visible) != 1 || len(visible[0].SubItems) != 0 {
		t.Fatalf("unexpected visible tree %+v", visible)
	}
}

func TestAdmitScenarios(t *testing.T) {
	core, _ := newCoreTest(t)
	ctx := context.Background()

	// No credential at all.
	d := core.Admit(ctx, "/dashboard")
	if d.Allow || d.Target != "/login" {
		t.Fatalf("expected login redirect, got %+v", d)
	}

	// Expired credential: redirect carries the expired reason.
	if err := core.Login(ctx, signToken(t, time.Now().Add(-time.Second), nil, nil), "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	d = core.Admit(ctx, "/dashboard")
	if d.Allow || d.Reason != "expired" {
		t.Fatalf("expected expired redirect, got %+v", d)
	}
	if token, _ := core.Token(ctx); token != "" {
		t.Fatal("stale credential must be cleared by admission")
	}

	// Live credential.
	if err := core.Login(ctx, signToken(t, time.Now().Add(time.Hour), nil, nil), "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	if d := core.Admit(ctx, "/dashboard"); !d.Allow {
		t.Fatalf("expected allow, got %+v", d)
	}

	// Authenticated users are kept off the login route.
	d = core.RequireAnonymous(ctx, "/login")
	if d.Allow || d.Target != "/dashboard" {
		t.Fatalf("expected landing redirect, got %+v", d)
	}
}

func TestSubscriptionsReceiveUpdates(t *testing.T) {
	core, _ := newCoreTest(t)
	ctx := context.Background()

	var permEvents []permission.Snapshot
	if err := core.SubscribePermissions(func(snap permission.Snapshot) {
		permEvents = append(permEvents, snap)
	}); err != nil {
		t.Fatalf("subscribe permissions: %v", err)
	}
	var menuEvents int
	if err := core.SubscribeMenu(func([]menu.Node) { menuEvents++ }); err != nil {
		t.Fatalf("subscribe menu: %v", err)
	}
	var reasons []string
	if err := core.SubscribeTermination(func(reason string) {
		reasons = append(reasons, reason)
	}); err != nil {
		t.Fatalf("subscribe termination: %v", err)
	}

	token := signToken(t, time.Now().Add(time.Hour), []string{"VIEWER"}, []string{"Vehicle_Read"})
	if err := core.Login(ctx, token, "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := core.LoadMenu(ctx); err != nil {
		t.Fatalf("load menu: %v", err)
	}
	if err := core.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// login recompute + logout clear.
	if len(permEvents) != 2 {
		t.Fatalf("expected 2 permission snapshots, got %d", len(permEvents))
	}
	if menuEvents != 1 {
		t.Fatalf("expected 1 menu publish, got %d", menuEvents)
	}
	if len(reasons) != 1 || reasons[0] != "logout" {
		t.Fatalf("expected one logout termination, got %v", reasons)
	}
}

func TestAuditEventsEmitted(t *testing.T) {
	sink := NewChannelSink(16)
	fetcher := &fakeFetcher{tree: defaultTree()}
	core, err := New().WithFetcher(fetcher).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx := WithClientIP(context.Background(), "10.0.0.7")

	token := signToken(t, time.Now().Add(time.Hour), nil, nil)
	if err := core.Login(ctx, token, "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := core.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	core.Close()

	var events []AuditEvent
	for len(events) < 2 {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		case <-time.After(time.Second):
			t.Fatalf("timed out, got %d events", len(events))
		}
	}

	if events[0].EventType != EventLogin || !events[0].Success {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].EventType != EventLogout || events[1].UserID != "u-1" {
		t.Fatalf("logout event must carry the user id, got %+v", events[1])
	}
	for _, event := range events {
		if event.EventID == "" {
			t.Fatal("audit events must carry an event id")
		}
		if event.IP != "10.0.0.7" {
			t.Fatalf("expected client IP on event, got %q", event.IP)
		}
	}
}

func TestMetricsSnapshot(t *testing.T) {
	core, _ := newCoreTest(t)
	ctx := context.Background()

	if err := core.Login(ctx, signToken(t, time.Now().Add(time.Hour), nil, nil), "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	core.Admit(ctx, "/dashboard")
	if _, err := core.LoadMenu(ctx); err != nil {
		t.Fatalf("load menu: %v", err)
	}
	if _, err := core.LoadMenu(ctx); err != nil {
		t.Fatalf("cached load: %v", err)
	}

	snap := core.MetricsSnapshot()
	if snap.Counters["credential_saved"] != 1 {
		t.Fatalf("expected 1 credential save, got %d", snap.Counters["credential_saved"])
	}
	if snap.Counters["guard_allowed"] != 1 {
		t.Fatalf("expected 1 guard allow, got %d", snap.Counters["guard_allowed"])
	}
	if snap.Counters["menu_cache_hit"] != 1 || snap.Counters["menu_cache_miss"] != 1 {
		t.Fatalf("unexpected menu counters %v", snap.Counters)
	}
}
