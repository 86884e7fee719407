package menu

import (
	"context"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"golang.org/x/sync/singleflight"

	"github.com/fleetadmin/authcore/internal/metrics"
	"github.com/fleetadmin/authcore/permission"
)

// TopicLoaded is published on the event bus with the new []Node tree every
// time a fetch completes.
const TopicLoaded = "authcore.menu.loaded"

// DefaultTTL bounds how long a cached per-user tree is served without a
// refetch.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	tree      []Node
	fetchedAt time.Time
}

// Service caches and serves the authorization menu tree.
type Service struct {
	fetcher Fetcher
	deriver *permission.Deriver
	bus     evbus.Bus
	metrics *metrics.Metrics
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	cache   map[string]cacheEntry
	current []Node
}

// NewService creates a menu [Service]. ttl <= 0 selects [DefaultTTL]; bus
// and m may be nil.
func NewService(fetcher Fetcher, deriver *permission.Deriver, bus evbus.Bus, m *metrics.Metrics, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		fetcher: fetcher,
		deriver: deriver,
		bus:     bus,
		metrics: m,
		ttl:     ttl,
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
}

// Load returns the menu tree for userID. A fresh cache entry is returned
// synchronously; otherwise one fetch runs, with concurrent misses for the
// same user sharing it. Failures propagate and are never cached.
func (s *Service) Load(ctx context.Context, userID string) ([]Node, error) {
	s.mu.Lock()
	if entry, ok := s.cache[userID]; ok {
		if s.now().Sub(entry.fetchedAt) <= s.ttl {
			s.current = entry.tree
			s.mu.Unlock()
			s.metrics.Inc(metrics.MenuCacheHit)
			return entry.tree, nil
		}
		// Lazy invalidation: the stale entry dies on read.
		delete(s.cache, userID)
	}
	s.mu.Unlock()
	s.metrics.Inc(metrics.MenuCacheMiss)

	v, err, _ := s.group.Do(userID, func() (interface{}, error) {
		tree, err := s.fetcher.FetchUserMenu(ctx)
		if err != nil {
			s.metrics.Inc(metrics.MenuFetchFailure)
			return nil, err
		}

		s.mu.Lock()
		s.cache[userID] = cacheEntry{tree: tree, fetchedAt: s.now()}
		s.current = tree
		s.mu.Unlock()

		if s.bus != nil {
			s.bus.Publish(TopicLoaded, tree)
		}
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Node), nil
}

// Refresh drops userID's cache entry and forces a reload. Used after
// permission-affecting events instead of waiting out the TTL.
func (s *Service) Refresh(ctx context.Context, userID string) ([]Node, error) {
	s.Invalidate(userID)
	return s.Load(ctx, userID)
}

// Invalidate drops the cache entry for one user.
func (s *Service) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, userID)
}

// ClearAll drops every cached entry and the current tree. Called on logout
// so a different user never observes a predecessor's menu.
func (s *Service) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cacheEntry)
	s.current = nil
}

// Tree returns the most recently loaded tree.
func (s *Service) Tree() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// FindByRoute searches the current tree in pre-order.
func (s *Service) FindByRoute(route string) *Node {
	return FindByRoute(s.Tree(), route)
}

// Flatten returns the current tree in pre-order, used to answer whether a
// route is reachable at all.
func (s *Service) Flatten() []*Node {
	return Flatten(s.Tree())
}

// BreadcrumbFor builds the root-to-leaf trail for route from the current
// tree.
func (s *Service) BreadcrumbFor(route string) []Crumb {
	return BreadcrumbFor(s.Tree(), route)
}

// IsVisible applies the visibility rule to n for the current caller.
func (s *Service) IsVisible(n *Node) bool {
	if s.deriver == nil {
		return !n.Hidden() && len(n.RequiredPermissions) == 0
	}
	snap := s.deriver.Snapshot()
	return Visible(n, snap.Permissions, snap.Roles, s.deriver.PrivilegedRole())
}

// VisibleTree returns a filtered copy of the current tree containing only
// nodes visible to the caller. An invisible parent hides its subtree.
func (s *Service) VisibleTree() []Node {
	return s.filterVisible(s.Tree())
}

func (s *Service) filterVisible(nodes []Node) []Node {
	var out []Node
	for i := range nodes {
		if !s.IsVisible(&nodes[i]) {
			continue
		}
		kept := nodes[i]
		kept.SubItems = s.filterVisible(nodes[i].SubItems)
		out = append(out, kept)
	}
	return out
}
