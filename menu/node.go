package menu

// Node is one entry of the hierarchical navigation menu, as described by
// the server contract.
type Node struct {
	Route               string   `json:"route"`
	Label               string   `json:"label"`
	Icon                string   `json:"icon,omitempty"`
	RequiredPermissions []string `json:"requiredPermissions,omitempty"`
	RequiredRoles       []string `json:"requiredRoles,omitempty"`
	SubItems            []Node   `json:"subItems,omitempty"`

	// Visible is the server's explicit visibility override. Only an
	// explicit false hides the node; an absent field leaves visibility to
	// the permission rules.
	Visible *bool `json:"isVisible,omitempty"`

	BadgeValue string `json:"badgeValue,omitempty"`
	BadgeClass string `json:"badgeClass,omitempty"`
}

// Hidden reports whether the server explicitly marked the node invisible.
func (n *Node) Hidden() bool {
	return n.Visible != nil && !*n.Visible
}

// Crumb is one breadcrumb segment.
type Crumb struct {
	Label string
	Route string
}

// FindByRoute returns the first node matching route in pre-order (parent
// before children, left-to-right siblings), or nil.
func FindByRoute(nodes []Node, route string) *Node {
	for i := range nodes {
		if nodes[i].Route == route {
			return &nodes[i]
		}
		if found := FindByRoute(nodes[i].SubItems, route); found != nil {
			return found
		}
	}
	return nil
}

// Flatten returns every node of the tree in pre-order.
func Flatten(nodes []Node) []*Node {
	var out []*Node
	var walk func(ns []Node)
	walk = func(ns []Node) {
		for i := range ns {
			out = append(out, &ns[i])
			walk(ns[i].SubItems)
		}
	}
	walk(nodes)
	return out
}

// BreadcrumbFor returns the root-to-leaf trail of labels and routes ending
// at route, or an empty slice when the route is not in the tree.
func BreadcrumbFor(nodes []Node, route string) []Crumb {
	for i := range nodes {
		n := &nodes[i]
		if n.Route == route {
			return []Crumb{{Label: n.Label, Route: n.Route}}
		}
		if trail := BreadcrumbFor(n.SubItems, route); len(trail) > 0 {
			return append([]Crumb{{Label: n.Label, Route: n.Route}}, trail...)
		}
	}
	return nil
}

// Visible applies the menu visibility rule for a caller holding perms and
// roles. The privileged role sees everything, an explicit server-side hide
// wins next, and a node with no required permissions is visible by default.
func Visible(n *Node, perms, roles []string, privilegedRole string) bool {
	if privilegedRole != "" && containsString(roles, privilegedRole) {
		return true
	}
	if n.Hidden() {
		return false
	}
	if len(n.RequiredPermissions) == 0 {
		return true
	}
	if !intersects(n.RequiredPermissions, perms) {
		return false
	}
	if len(n.RequiredRoles) > 0 && !intersects(n.RequiredRoles, roles) {
		return false
	}
	return true
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func intersects(required, held []string) bool {
	for _, r := range required {
		if containsString(held, r) {
			return true
		}
	}
	return false
}
