// Package research holds the technology prerequisite graph and the
// per-player research progress that is applied against it.
package research

import (
	"container/heap"
	"fmt"
	"hash/crc32"
	"sort"
	"strings"

	"github.com/vovakirdan/civcore/internal/core"
)

// Technology is one node of the tech tree. Immutable once loaded.
type Technology struct {
	ID       string
	Name     string
	Requires []string
	Cost     int64 // Research bulbs needed to learn it
}

// Tree is the validated, acyclic prerequisite graph. Technologies are stored
// in ascending id order; that order also defines the index used in saves.
type Tree struct {
	techs      []Technology
	index      map[string]int
	requires   [][]int // prerequisite indices per technology, ascending
	dependents [][]int
	order      []int // topological order
}

// NewTree validates techs and builds a Tree. The whole graph is checked
// before anything is returned:
//   - ids are non-empty and unique, costs are positive
//   - every prerequisite id exists (UnknownTechnologyError)
//   - the prerequisite relation has no cycle (CyclicPrerequisiteError)
func NewTree(techs []Technology) (*Tree, error) {
	if len(techs) == 0 {
		return nil, core.RulesetInvalid("ruleset declares no technologies")
	}
	if len(techs) > 1<<16-1 {
		return nil, core.RulesetInvalid("ruleset declares %d technologies, at most %d allowed", len(techs), 1<<16-1)
	}

	sorted := make([]Technology, len(techs))
	for i, t := range techs {
		if t.ID == "" {
			return nil, core.RulesetInvalid("technology #%d has an empty id", i)
		}
		if t.Cost <= 0 {
			return nil, core.RulesetInvalid("technology %q: cost must be positive, got %d", t.ID, t.Cost)
		}
		sorted[i] = Technology{
			ID:       t.ID,
			Name:     t.Name,
			Requires: uniqueSorted(t.Requires),
			Cost:     t.Cost,
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	tree := &Tree{
		techs:      sorted,
		index:      make(map[string]int, len(sorted)),
		requires:   make([][]int, len(sorted)),
		dependents: make([][]int, len(sorted)),
	}
	for i, t := range sorted {
		if _, dup := tree.index[t.ID]; dup {
			return nil, core.RulesetInvalid("technology %q declared twice", t.ID)
		}
		tree.index[t.ID] = i
	}

	for i, t := range sorted {
		reqs := make([]int, 0, len(t.Requires))
		for _, r := range t.Requires {
			j, ok := tree.index[r]
			if !ok {
				return nil, &core.UnknownTechnologyError{ID: r, RequiredBy: t.ID}
			}
			reqs = append(reqs, j)
			tree.dependents[j] = append(tree.dependents[j], i)
		}
		tree.requires[i] = reqs
	}

	if path := tree.findCycle(); path != nil {
		return nil, &core.CyclicPrerequisiteError{Path: path}
	}
	tree.order = tree.kahn()
	return tree, nil
}

func uniqueSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

const (
	unvisited = iota
	visiting
	done
)

// findCycle runs an iterative depth-first search over prerequisite edges and
// returns the first cycle found as a path of ids that starts and ends with
// the same id. Returns nil for an acyclic graph.
func (t *Tree) findCycle() []string {
	type frame struct {
		node int
		next int
	}
	state := make([]uint8, len(t.techs))
	for root := range t.techs {
		if state[root] != unvisited {
			continue
		}
		stack := []frame{{node: root}}
		state[root] = visiting
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(t.requires[top.node]) {
				state[top.node] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := t.requires[top.node][top.next]
			top.next++
			switch state[child] {
			case unvisited:
				state[child] = visiting
				stack = append(stack, frame{node: child})
			case visiting:
				start := 0
				for i, f := range stack {
					if f.node == child {
						start = i
						break
					}
				}
				path := make([]string, 0, len(stack)-start+1)
				for _, f := range stack[start:] {
					path = append(path, t.techs[f.node].ID)
				}
				return append(path, t.techs[child].ID)
			}
		}
	}
	return nil
}

// indexHeap is a min-heap of technology indices. Indices follow ascending
// id order, so popping the minimum breaks ties by id.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (t *Tree) kahn() []int {
	pending := make([]int, len(t.techs))
	ready := &indexHeap{}
	for i := range t.techs {
		pending[i] = len(t.requires[i])
		if pending[i] == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, len(t.techs))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, i)
		for _, d := range t.dependents[i] {
			pending[d]--
			if pending[d] == 0 {
				heap.Push(ready, d)
			}
		}
	}
	return order
}

// Len returns the number of technologies.
func (t *Tree) Len() int { return len(t.techs) }

// Has reports whether id is declared.
func (t *Tree) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

// Technology returns the technology with the given id.
func (t *Tree) Technology(id string) (Technology, bool) {
	i, ok := t.index[id]
	if !ok {
		return Technology{}, false
	}
	return t.techAt(i), true
}

func (t *Tree) techAt(i int) Technology {
	tech := t.techs[i]
	tech.Requires = append([]string(nil), tech.Requires...)
	return tech
}

// Technologies returns every technology in ascending id order.
func (t *Tree) Technologies() []Technology {
	out := make([]Technology, len(t.techs))
	for i := range t.techs {
		out[i] = t.techAt(i)
	}
	return out
}

// Index returns the position of id in ascending id order.
func (t *Tree) Index(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// IDAt returns the id at position i in ascending id order.
func (t *Tree) IDAt(i int) (string, bool) {
	if i < 0 || i >= len(t.techs) {
		return "", false
	}
	return t.techs[i].ID, true
}

// Cost returns the bulb cost of a technology.
func (t *Tree) Cost(id string) (int64, bool) {
	i, ok := t.index[id]
	if !ok {
		return 0, false
	}
	return t.techs[i].Cost, true
}

// IsUnlocked reports whether every prerequisite of target is in known.
// An undeclared target is never unlocked.
func (t *Tree) IsUnlocked(known Set, target string) bool {
	i, ok := t.index[target]
	if !ok {
		return false
	}
	for _, r := range t.techs[i].Requires {
		if !known.Has(r) {
			return false
		}
	}
	return true
}

// TopologicalOrder returns every id such that each technology comes after
// all of its prerequisites. Ties are broken by ascending id.
func (t *Tree) TopologicalOrder() []string {
	out := make([]string, len(t.order))
	for i, idx := range t.order {
		out[i] = t.techs[idx].ID
	}
	return out
}

// closure marks every transitive prerequisite of the given roots, and the
// roots themselves when includeRoots is set.
func (t *Tree) closure(roots []int, includeRoots bool) []bool {
	marked := make([]bool, len(t.techs))
	stack := make([]int, 0, len(roots))
	for _, r := range roots {
		if includeRoots {
			marked[r] = true
		}
		stack = append(stack, t.requires[r]...)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if marked[n] {
			continue
		}
		marked[n] = true
		stack = append(stack, t.requires[n]...)
	}
	return marked
}

func (t *Tree) indices(ids ...string) ([]int, error) {
	out := make([]int, len(ids))
	for k, id := range ids {
		i, ok := t.index[id]
		if !ok {
			return nil, &core.UnknownTechnologyError{ID: id}
		}
		out[k] = i
	}
	return out, nil
}

// Requirements returns every transitive prerequisite of id, sorted.
func (t *Tree) Requirements(id string) ([]string, error) {
	roots, err := t.indices(id)
	if err != nil {
		return nil, err
	}
	marked := t.closure(roots, false)
	var out []string
	for i, m := range marked {
		if m {
			out = append(out, t.techs[i].ID)
		}
	}
	return out, nil
}

// TotalCost returns the cost of id plus the cost of all its transitive
// prerequisites, each counted once.
func (t *Tree) TotalCost(id string) (int64, error) {
	return t.TotalCostCombined(id)
}

// TotalCostCombined returns the cost of learning every listed technology
// from scratch. Shared prerequisites are counted once.
func (t *Tree) TotalCostCombined(ids ...string) (int64, error) {
	roots, err := t.indices(ids...)
	if err != nil {
		return 0, err
	}
	var total int64
	for i, m := range t.closure(roots, true) {
		if m {
			total += t.techs[i].Cost
		}
	}
	return total, nil
}

// ResearchPath lists the technologies a player who knows known still has to
// learn to reach goal, in topological order ending with goal. Returns an
// empty path when goal is already known.
func (t *Tree) ResearchPath(known Set, goal string) ([]string, error) {
	roots, err := t.indices(goal)
	if err != nil {
		return nil, err
	}
	if known.Has(goal) {
		return []string{}, nil
	}
	marked := t.closure(roots, true)
	path := []string{}
	for _, i := range t.order {
		if marked[i] && !known.Has(t.techs[i].ID) {
			path = append(path, t.techs[i].ID)
		}
	}
	return path, nil
}

// Check re-verifies the tree invariants: every prerequisite exists and
// precedes its dependents in the topological order.
func (t *Tree) Check() error {
	if len(t.order) != len(t.techs) {
		return core.RulesetInvalid("topological order covers %d of %d technologies", len(t.order), len(t.techs))
	}
	pos := make([]int, len(t.techs))
	for p, i := range t.order {
		pos[i] = p
	}
	for i, reqs := range t.requires {
		if len(reqs) != len(t.techs[i].Requires) {
			return core.RulesetInvalid("technology %q has unresolved prerequisites", t.techs[i].ID)
		}
		for _, r := range reqs {
			if pos[r] >= pos[i] {
				return &core.CyclicPrerequisiteError{Path: []string{t.techs[r].ID, t.techs[i].ID}}
			}
		}
	}
	return nil
}

// Checksum returns a CRC32 over the canonical text of the tree. Two trees
// with the same technologies always share a checksum.
func (t *Tree) Checksum() uint32 {
	var b strings.Builder
	for _, tech := range t.techs {
		fmt.Fprintf(&b, "%s|%s|%d|%s\n", tech.ID, tech.Name, tech.Cost, strings.Join(tech.Requires, ","))
	}
	return crc32.ChecksumIEEE([]byte(b.String()))
}
