package menu

import (
	"encoding/json"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

// testTree is A -> [B -> [C]], D with a duplicate route at depth 2.
func testTree() []Node {
	return []Node{
		{
			Route: "/fleet", Label: "Fleet",
			SubItems: []Node{
				{
					Route: "/fleet/vehicles", Label: "Vehicles",
					SubItems: []Node{
						{Route: "/fleet/vehicles/archive", Label: "Archive"},
					},
				},
				{Route: "/shared", Label: "Fleet Shared"},
			},
		},
		{Route: "/shared", Label: "Top Shared"},
	}
}

func TestFindByRoutePreOrderFirstMatch(t *testing.T) {
	tree := testTree()

	found := FindByRoute(tree, "/shared")
	if found == nil {
		t.Fatal("expected a match")
	}
	// The nested duplicate comes first in pre-order: parent /fleet is
	// visited before the top-level sibling.
	if found.Label != "Fleet Shared" {
		t.Fatalf("expected pre-order-first match, got %q", found.Label)
	}

	if FindByRoute(tree, "/missing") != nil {
		t.Fatal("unknown route must yield nil")
	}
}

func TestFlattenPreOrder(t *testing.T) {
	flat := Flatten(testTree())

	want := []string{"/fleet", "/fleet/vehicles", "/fleet/vehicles/archive", "/shared", "/shared"}
	if len(flat) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(flat))
	}
	for i, n := range flat {
		if n.Route != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], n.Route)
		}
	}
}

func TestBreadcrumbRootToLeaf(t *testing.T) {
	trail := BreadcrumbFor(testTree(), "/fleet/vehicles/archive")

	want := []Crumb{
		{Label: "Fleet", Route: "/fleet"},
		{Label: "Vehicles", Route: "/fleet/vehicles"},
		{Label: "Archive", Route: "/fleet/vehicles/archive"},
	}
	if len(trail) != len(want) {
		t.Fatalf("expected %d crumbs, got %d", len(want), len(trail))
	}
	for i, c := range trail {
		if c != want[i] {
			t.Fatalf("crumb %d: expected %+v, got %+v", i, want[i], c)
		}
	}
}

func TestBreadcrumbUnknownRouteIsEmpty(t *testing.T) {
	if trail := BreadcrumbFor(testTree(), "/nope"); len(trail) != 0 {
		t.Fatalf("expected empty trail, got %+v", trail)
	}
}

func TestVisibleRules(t *testing.T) {
	cases := []struct {
		name  string
		node  Node
		perms []string
		roles []string
		want  bool
	}{
		{
			name:  "matching permission, no role requirement",
			node:  Node{RequiredPermissions: []string{"Vehicle_Read"}},
			perms: []string{"Vehicle_Read"},
			roles: []string{"VIEWER"},
			want:  true,
		},
		{
			name:  "missing permission",
			node:  Node{RequiredPermissions: []string{"Vehicle_Delete"}},
			perms: []string{"Vehicle_Read"},
			want:  false,
		},
		{
			name: "no required permissions is default-visible",
			node: Node{},
			want: true,
		},
		{
			name: "explicit server hide wins",
			node: Node{Visible: boolPtr(false)},
			want: false,
		},
		{
			name:  "permission match but role requirement unmet",
			node:  Node{RequiredPermissions: []string{"Vehicle_Read"}, RequiredRoles: []string{"ADMIN"}},
			perms: []string{"Vehicle_Read"},
			roles: []string{"VIEWER"},
			want:  false,
		},
		{
			name:  "permission and role both match",
			node:  Node{RequiredPermissions: []string{"Vehicle_Read"}, RequiredRoles: []string{"ADMIN", "VIEWER"}},
			perms: []string{"Vehicle_Read"},
			roles: []string{"VIEWER"},
			want:  true,
		},
		{
			name:  "privileged role sees everything, even hidden",
			node:  Node{Visible: boolPtr(false), RequiredPermissions: []string{"X"}},
			roles: []string{"SUPER_ADMIN"},
			want:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Visible(&tc.node, tc.perms, tc.roles, "SUPER_ADMIN"); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNodeWireShape(t *testing.T) {
	raw := `{
		"route": "/contracts",
		"label": "Contracts",
		"icon": "file",
		"requiredPermissions": ["Contract_Read"],
		"requiredRoles": [],
		"subItems": [{"route": "/contracts/new", "label": "New", "isVisible": false}],
		"isVisible": true,
		"badgeValue": "3",
		"badgeClass": "warn"
	}`

	var n Node
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.Route != "/contracts" || n.BadgeValue != "3" {
		t.Fatalf("unexpected node %+v", n)
	}
	if n.Hidden() {
		t.Fatal("isVisible true must not be hidden")
	}
	if len(n.SubItems) != 1 || !n.SubItems[0].Hidden() {
		t.Fatal("explicit isVisible false on the child must hide it")
	}

	var absent Node
	if err := json.Unmarshal([]byte(`{"route":"/x","label":"X"}`), &absent); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if absent.Hidden() {
		t.Fatal("absent isVisible must not count as hidden")
	}
}
