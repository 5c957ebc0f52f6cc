package teamtree

import (
	"errors"

	teammodels "github.com/nikhil/modportal/internal/models/teams"
)

// ErrCycle is returned when a parent assignment would make a team its own
// ancestor.
var ErrCycle = errors.New("team cannot be its own ancestor")

// WouldCycle reports whether giving childID the parent parentID would close
// a loop in the hierarchy described by edges. It walks the ancestor chain
// of parentID and stops on any loop that already exists in edges.
func WouldCycle(edges []teammodels.Edge, childID, parentID string) bool {
	if childID == parentID {
		return true
	}

	parentByChild := make(map[string]string, len(edges))
	for _, e := range edges {
		if e.ParentID == nil {
			delete(parentByChild, e.ChildID)
			continue
		}
		parentByChild[e.ChildID] = *e.ParentID
	}

	visited := map[string]bool{}
	for cur := parentID; ; {
		if cur == childID {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true

		next, ok := parentByChild[cur]
		if !ok {
			return false
		}
		cur = next
	}
}
