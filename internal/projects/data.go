package projects

import (
	"slices"

	"github.com/papapumpkin/ddk/internal/lexorank"
)

// groupOwner is the parent-index value for links held by the group project.
// Workspace ids start at 1, so it never collides with one.
const groupOwner = 0

// ProjectsData is the persisted store. Every entity id comes from IDCounter.
// ActiveProjectID is 0 when no project is selected.
type ProjectsData struct {
	IDCounter       int           `toml:"id_counter"`
	ActiveProjectID int           `toml:"active_project_id"`
	Workspaces      []*Workspace  `toml:"workspaces"`
	Projects        []*Project    `toml:"projects"`
	GroupProject    *GroupProject `toml:"group_project,omitempty"`

	// parents maps a link id to the workspace id that holds it, or
	// groupOwner. It is derived state and never persisted.
	parents map[int]int
}

// New returns an empty store.
func New() *ProjectsData {
	return &ProjectsData{parents: make(map[int]int)}
}

// NextID advances the id counter and returns the new value.
func (d *ProjectsData) NextID() int {
	d.IDCounter++
	return d.IDCounter
}

// Reindex rebuilds the link parent index from the containers. Call it after
// decoding a store or editing the containers directly.
func (d *ProjectsData) Reindex() {
	d.parents = make(map[int]int)
	for _, ws := range d.Workspaces {
		for _, l := range ws.ProjectLinks {
			d.parents[l.ID] = ws.ID
		}
	}
	if d.GroupProject != nil {
		for _, l := range d.GroupProject.ProjectLinks {
			d.parents[l.ID] = groupOwner
		}
	}
}

func (d *ProjectsData) index() map[int]int {
	if d.parents == nil {
		d.Reindex()
	}
	return d.parents
}

// links returns the link list of the container identified by owner, or nil
// when that container does not exist.
func (d *ProjectsData) links(owner int) *[]*ProjectLink {
	if owner == groupOwner {
		if d.GroupProject == nil {
			return nil
		}
		return &d.GroupProject.ProjectLinks
	}
	if ws := d.Workspace(owner); ws != nil {
		return &ws.ProjectLinks
	}
	return nil
}

// attach appends a new link for projectID to the container owner.
func (d *ProjectsData) attach(owner, projectID int) *ProjectLink {
	list := d.links(owner)
	link := &ProjectLink{
		ID:        d.NextID(),
		ProjectID: projectID,
		Rank:      lexorank.Append(*list),
	}
	*list = append(*list, link)
	d.index()[link.ID] = owner
	return link
}

// detach removes a link from its container and returns it.
func (d *ProjectsData) detach(linkID int) (*ProjectLink, bool) {
	owner, ok := d.index()[linkID]
	if !ok {
		return nil, false
	}
	delete(d.parents, linkID)
	list := d.links(owner)
	if list == nil {
		return nil, false
	}
	i := slices.IndexFunc(*list, func(l *ProjectLink) bool { return l.ID == linkID })
	if i < 0 {
		return nil, false
	}
	link := (*list)[i]
	*list = slices.Delete(*list, i, i+1)
	return link, true
}

// Link returns the link with id linkID.
func (d *ProjectsData) Link(linkID int) *ProjectLink {
	owner, ok := d.index()[linkID]
	if !ok {
		return nil
	}
	list := d.links(owner)
	if list == nil {
		return nil
	}
	for _, l := range *list {
		if l.ID == linkID {
			return l
		}
	}
	return nil
}

// Project returns the project with the given id, or nil.
func (d *ProjectsData) Project(id int) *Project {
	for _, p := range d.Projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Workspace returns the workspace with the given id, or nil.
func (d *ProjectsData) Workspace(id int) *Workspace {
	for _, ws := range d.Workspaces {
		if ws.ID == id {
			return ws
		}
	}
	return nil
}

// ProjectByDproj returns the project whose project file is path, or nil.
func (d *ProjectsData) ProjectByDproj(path string) *Project {
	for _, p := range d.Projects {
		if samePath(p.Dproj, path) {
			return p
		}
	}
	return nil
}

// ActiveProject returns the selected project, or nil.
func (d *ProjectsData) ActiveProject() *Project {
	if d.ActiveProjectID == 0 {
		return nil
	}
	return d.Project(d.ActiveProjectID)
}

// ProjectsOf resolves links to their projects, skipping dangling links.
func (d *ProjectsData) ProjectsOf(links []*ProjectLink) []*Project {
	out := make([]*Project, 0, len(links))
	for _, l := range links {
		if p := d.Project(l.ProjectID); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// SortedWorkspaces returns the workspaces in rank order without reordering the store.
func (d *ProjectsData) SortedWorkspaces() []*Workspace {
	out := slices.Clone(d.Workspaces)
	lexorank.Sort(out)
	return out
}

// SortedLinks returns links in rank order without reordering the input.
func SortedLinks(links []*ProjectLink) []*ProjectLink {
	out := slices.Clone(links)
	lexorank.Sort(out)
	return out
}

// Sort orders workspaces and every link list by rank in place.
func (d *ProjectsData) Sort() {
	lexorank.Sort(d.Workspaces)
	for _, ws := range d.Workspaces {
		lexorank.Sort(ws.ProjectLinks)
	}
	if d.GroupProject != nil {
		lexorank.Sort(d.GroupProject.ProjectLinks)
	}
}

// CanFindAnyLinks reports whether any workspace or the group project links to
// projectID. A project without links is orphaned and gets deleted.
func (d *ProjectsData) CanFindAnyLinks(projectID int) bool {
	for _, ws := range d.Workspaces {
		for _, l := range ws.ProjectLinks {
			if l.ProjectID == projectID {
				return true
			}
		}
	}
	if d.GroupProject != nil {
		for _, l := range d.GroupProject.ProjectLinks {
			if l.ProjectID == projectID {
				return true
			}
		}
	}
	return false
}

// UsesCompiler reports whether a workspace or the group project builds with key.
func (d *ProjectsData) UsesCompiler(key string) bool {
	for _, ws := range d.Workspaces {
		if ws.Compiler == key {
			return true
		}
	}
	return d.GroupProject != nil && d.GroupProject.Compiler == key
}

// deleteProject drops the project record and clears the selection if it
// pointed there. Links are left to the caller.
func (d *ProjectsData) deleteProject(id int) {
	d.Projects = slices.DeleteFunc(d.Projects, func(p *Project) bool { return p.ID == id })
	if d.ActiveProjectID == id {
		d.ActiveProjectID = 0
	}
}

// pruneOrphans deletes every candidate project that no longer has a link.
func (d *ProjectsData) pruneOrphans(candidates ...int) {
	for _, id := range candidates {
		if !d.CanFindAnyLinks(id) {
			d.deleteProject(id)
		}
	}
}
