// Package teamtree assembles the team hierarchy into a forest and guards
// parent assignments against cycles.
//
// All functions are pure: they work on rows already loaded from the store
// and never fail. Inconsistent hierarchy data (a parent id that names no
// known team) shows up as an extra root rather than an error.
package teamtree

import (
	"sort"

	teammodels "github.com/nikhil/modportal/internal/models/teams"
	usermodels "github.com/nikhil/modportal/internal/models/users"
)

// BuildForest returns the root nodes of the team hierarchy, each with its
// children attached transitively and its members looked up by team id.
// Roots and every children list are sorted by name.
//
// If edges holds more than one row for a child, the last one wins.
func BuildForest(teams []teammodels.Team, edges []teammodels.Edge, membersByTeam map[string][]usermodels.User) []*teammodels.Node {
	parentByChild := make(map[string]*string, len(edges))
	for _, e := range edges {
		parentByChild[e.ChildID] = e.ParentID
	}

	nodes := make(map[string]*teammodels.Node, len(teams))
	order := make([]*teammodels.Node, 0, len(teams))
	for _, t := range teams {
		members := membersByTeam[t.ID]
		if members == nil {
			members = []usermodels.User{}
		}
		n := &teammodels.Node{
			Team:     t,
			ParentID: parentByChild[t.ID],
			Members:  members,
			Children: []*teammodels.Node{},
		}
		nodes[t.ID] = n
		order = append(order, n)
	}

	roots := make([]*teammodels.Node, 0)
	for _, n := range order {
		if n.ParentID != nil {
			if parent, ok := nodes[*n.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sortNodes(roots)
	for _, r := range roots {
		sortTree(r, map[*teammodels.Node]bool{})
	}
	return roots
}

func sortTree(n *teammodels.Node, seen map[*teammodels.Node]bool) {
	// A cyclic edge set leaves the cycle detached from every root, so this
	// never loops; seen keeps it that way if that ever changes.
	if seen[n] {
		return
	}
	seen[n] = true
	sortNodes(n.Children)
	for _, c := range n.Children {
		sortTree(c, seen)
	}
}

func sortNodes(nodes []*teammodels.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// MembersByTeam resolves team_members rows into users grouped by team id.
// Rows naming an unknown user are skipped.
func MembersByTeam(memberships []teammodels.Membership, users []usermodels.User) map[string][]usermodels.User {
	byID := make(map[string]usermodels.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make(map[string][]usermodels.User)
	for _, m := range memberships {
		u, ok := byID[m.UserID]
		if !ok {
			continue
		}
		out[m.TeamID] = append(out[m.TeamID], u)
	}
	return out
}

// Count returns the number of nodes reachable from roots.
func Count(roots []*teammodels.Node) int {
	total := 0
	for _, r := range roots {
		total += 1 + Count(r.Children)
	}
	return total
}
