package projects

import (
	"errors"
	"fmt"
	"slices"

	"github.com/papapumpkin/ddk/internal/lexorank"
)

// Rebalance respaces the ranks of every container whose ranks have grown past
// threshold symbols, or of all containers when force is set. It returns the
// number of containers rewritten.
func (d *ProjectsData) Rebalance(threshold int, force bool) int {
	n := 0
	if len(d.Workspaces) > 0 && (force || lexorank.NeedsRebalance(d.Workspaces, threshold)) {
		lexorank.Rebalance(d.Workspaces)
		n++
	}
	for _, list := range d.linkLists() {
		if len(*list) > 0 && (force || lexorank.NeedsRebalance(*list, threshold)) {
			lexorank.Rebalance(*list)
			n++
		}
	}
	return n
}

func (d *ProjectsData) linkLists() []*[]*ProjectLink {
	lists := make([]*[]*ProjectLink, 0, len(d.Workspaces)+1)
	for _, ws := range d.Workspaces {
		lists = append(lists, &ws.ProjectLinks)
	}
	if d.GroupProject != nil {
		lists = append(lists, &d.GroupProject.ProjectLinks)
	}
	return lists
}

// Check verifies the store invariants: ids are unique and within the
// counter, links resolve, no project is orphaned, the active project is
// linked, and ranks within a container are set and distinct. Every violation
// wraps ErrInconsistent.
func (d *ProjectsData) Check() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInconsistent}, args...)...))
	}

	seen := make(map[int]string)
	claim := func(kind string, id int) {
		if id <= 0 {
			fail("%s has non-positive id %d", kind, id)
			return
		}
		if prev, ok := seen[id]; ok {
			fail("id %d used by both %s and %s", id, prev, kind)
			return
		}
		seen[id] = kind
		if id > d.IDCounter {
			fail("%s id %d exceeds id counter %d", kind, id, d.IDCounter)
		}
	}

	for _, p := range d.Projects {
		claim("project", p.ID)
	}
	checkRanks := func(where string, items []lexorank.LexoRank) {
		ranks := make(map[lexorank.LexoRank]bool, len(items))
		for _, r := range items {
			if r.IsZero() {
				fail("%s has an unset rank", where)
				continue
			}
			if ranks[r] {
				fail("%s has duplicate rank %s", where, r)
			}
			ranks[r] = true
		}
	}
	checkLinks := func(where string, links []*ProjectLink) {
		ranks := make([]lexorank.LexoRank, 0, len(links))
		for _, l := range links {
			claim("project link", l.ID)
			if d.Project(l.ProjectID) == nil {
				fail("%s link %d references missing project %d", where, l.ID, l.ProjectID)
			}
			ranks = append(ranks, l.Rank)
		}
		checkRanks(where, ranks)
	}

	wsRanks := make([]lexorank.LexoRank, 0, len(d.Workspaces))
	for _, ws := range d.Workspaces {
		claim("workspace", ws.ID)
		checkLinks(fmt.Sprintf("workspace %d", ws.ID), ws.ProjectLinks)
		wsRanks = append(wsRanks, ws.Rank)
	}
	checkRanks("workspace list", wsRanks)
	if d.GroupProject != nil {
		checkLinks("group project", d.GroupProject.ProjectLinks)
	}

	for _, p := range d.Projects {
		if !d.CanFindAnyLinks(p.ID) {
			fail("project %d is orphaned", p.ID)
		}
	}
	if id := d.ActiveProjectID; id != 0 && (d.Project(id) == nil || !d.CanFindAnyLinks(id)) {
		fail("active project %d is not linked", id)
	}
	return errors.Join(errs...)
}

// Repair fixes what Check would report, in place: dangling links, duplicate
// ids and orphans are dropped, a stale selection is cleared, missing ranks
// are appended and the id counter is raised. It returns one note per fix.
func (d *ProjectsData) Repair() []string {
	var notes []string
	note := func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	seen := make(map[int]bool)
	keep := func(id int) bool {
		if id <= 0 || seen[id] {
			return false
		}
		seen[id] = true
		return true
	}

	d.Projects = slices.DeleteFunc(d.Projects, func(p *Project) bool {
		if keep(p.ID) {
			return false
		}
		note("dropped project %q with invalid or duplicate id %d", p.Name, p.ID)
		return true
	})
	workspaces := d.Workspaces[:0]
	for _, ws := range d.Workspaces {
		if !keep(ws.ID) {
			note("dropped workspace %q with invalid or duplicate id %d", ws.Name, ws.ID)
			continue
		}
		workspaces = append(workspaces, ws)
	}
	d.Workspaces = workspaces

	fixLinks := func(where string, links []*ProjectLink) []*ProjectLink {
		kept := links[:0]
		for _, l := range links {
			switch {
			case d.Project(l.ProjectID) == nil:
				note("dropped %s link %d to missing project %d", where, l.ID, l.ProjectID)
			case !keep(l.ID):
				note("dropped %s link with invalid or duplicate id %d", where, l.ID)
			default:
				kept = append(kept, l)
			}
		}
		return fixRanks(where, kept, note)
	}
	for _, ws := range d.Workspaces {
		ws.ProjectLinks = fixLinks(fmt.Sprintf("workspace %d", ws.ID), ws.ProjectLinks)
	}
	if d.GroupProject != nil {
		d.GroupProject.ProjectLinks = fixLinks("group project", d.GroupProject.ProjectLinks)
	}
	d.Workspaces = fixRanks("workspace list", d.Workspaces, note)

	for _, p := range slices.Clone(d.Projects) {
		if !d.CanFindAnyLinks(p.ID) {
			d.deleteProject(p.ID)
			note("dropped orphaned project %d (%s)", p.ID, p.Name)
		}
	}
	if id := d.ActiveProjectID; id != 0 && d.Project(id) == nil {
		d.ActiveProjectID = 0
		note("cleared stale active project %d", id)
	}
	if top := maxKey(seen); top > d.IDCounter {
		note("raised id counter from %d to %d", d.IDCounter, top)
		d.IDCounter = top
	}
	d.Reindex()
	return notes
}

func maxKey(m map[int]bool) int {
	top := 0
	for k := range m {
		top = max(top, k)
	}
	return top
}

// fixRanks gives unset or duplicate ranks a fresh rank at the end of items.
func fixRanks[T lexorank.Orderable](where string, items []T, note func(string, ...any)) []T {
	used := make(map[lexorank.LexoRank]bool, len(items))
	var broken []T
	for _, it := range items {
		r := it.SortRank()
		if r.IsZero() || used[r] {
			broken = append(broken, it)
			continue
		}
		used[r] = true
	}
	for _, it := range broken {
		var valid []T
		for _, other := range items {
			if r := other.SortRank(); !r.IsZero() {
				valid = append(valid, other)
			}
		}
		it.SetSortRank(lexorank.Append(valid))
		note("assigned %s a new rank %s", where, it.SortRank())
	}
	return items
}
