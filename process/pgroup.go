package process

import "sync"

// GroupIndex is a reverse index from group id to member pids, kept
// alongside Table.Descriptor.Group so group signal fan-out is O(1)
// instead of a full table scan.
type GroupIndex struct {
	mu      sync.Mutex
	members map[int]map[int]bool // gid -> set of pids
}

// NewGroupIndex builds an empty reverse index.
func NewGroupIndex() *GroupIndex {
	return &GroupIndex{members: make(map[int]map[int]bool)}
}

// Join adds pid to group gid, removing it from any group it previously
// belonged to.
func (g *GroupIndex) Join(pid, gid int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(pid)
	set, ok := g.members[gid]
	if !ok {
		set = make(map[int]bool)
		g.members[gid] = set
	}
	set[pid] = true
}

// Leave removes pid from whatever group it belongs to, e.g. on exit.
func (g *GroupIndex) Leave(pid int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(pid)
}

func (g *GroupIndex) removeLocked(pid int) {
	for gid, set := range g.members {
		if set[pid] {
			delete(set, pid)
			if len(set) == 0 {
				delete(g.members, gid)
			}
		}
	}
}

// Members returns the pids currently in group gid.
func (g *GroupIndex) Members(gid int) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.members[gid]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(set))
	for pid := range set {
		out = append(out, pid)
	}
	return out
}
