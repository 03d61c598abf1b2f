package projects

import (
	"fmt"

	"github.com/papapumpkin/ddk/internal/lexorank"
)

// NewProject registers the project or source file at filePath and links it
// at the end of the workspace. Paths are not discovered; see RefreshProject.
func (d *ProjectsData) NewProject(filePath string, workspaceID int) (*Project, error) {
	const op = "new project"
	if d.Workspace(workspaceID) == nil {
		return nil, opErr(op, workspaceID, missing("workspace", workspaceID))
	}
	kind := classify(filePath)
	if kind == kindUnsupported {
		return nil, opErr(op, 0, fmt.Errorf("%w: %s", ErrUnsupported, filePath))
	}
	p := projectFromFile(d.NextID(), filePath, kind)
	d.Projects = append(d.Projects, p)
	d.attach(workspaceID, p.ID)
	return p, nil
}

// AddProjectLink links an existing project at the end of a workspace.
func (d *ProjectsData) AddProjectLink(projectID, workspaceID int) (*ProjectLink, error) {
	const op = "add project link"
	if d.Project(projectID) == nil {
		return nil, opErr(op, projectID, missing("project", projectID))
	}
	if d.Workspace(workspaceID) == nil {
		return nil, opErr(op, workspaceID, missing("workspace", workspaceID))
	}
	return d.attach(workspaceID, projectID), nil
}

// RemoveProjectLink removes a link from whichever container holds it. A
// project left without links is deleted.
func (d *ProjectsData) RemoveProjectLink(linkID int) error {
	link, ok := d.detach(linkID)
	if !ok {
		return opErr("remove project link", linkID, missing("project link", linkID))
	}
	d.pruneOrphans(link.ProjectID)
	return nil
}

// RemoveProject deletes a project together with every link to it.
func (d *ProjectsData) RemoveProject(projectID int) error {
	if d.Project(projectID) == nil {
		return opErr("remove project", projectID, missing("project", projectID))
	}
	var linkIDs []int
	for _, ws := range d.Workspaces {
		for _, l := range ws.ProjectLinks {
			if l.ProjectID == projectID {
				linkIDs = append(linkIDs, l.ID)
			}
		}
	}
	if d.GroupProject != nil {
		for _, l := range d.GroupProject.ProjectLinks {
			if l.ProjectID == projectID {
				linkIDs = append(linkIDs, l.ID)
			}
		}
	}
	for _, id := range linkIDs {
		d.detach(id)
	}
	d.deleteProject(projectID)
	return nil
}

// MoveProjectLink ranks a link between prev and next, the ranks of its new
// neighbours. A nil neighbour marks the start or end of the list.
func (d *ProjectsData) MoveProjectLink(linkID int, prev, next *lexorank.LexoRank) error {
	const op = "move project link"
	link := d.Link(linkID)
	if link == nil {
		return opErr(op, linkID, missing("project link", linkID))
	}
	if err := lexorank.Move(link, prev, next); err != nil {
		return opErr(op, linkID, err)
	}
	return nil
}

// RefreshProject re-runs path discovery for a project.
func (d *ProjectsData) RefreshProject(projectID int, disc Discoverer) error {
	const op = "refresh project"
	p := d.Project(projectID)
	if p == nil {
		return opErr(op, projectID, missing("project", projectID))
	}
	paths, err := disc.Discover(p.Paths())
	if err != nil {
		return opErr(op, projectID, err)
	}
	p.setPaths(paths)
	return nil
}

// UpdateProject applies the non-nil fields of u.
func (d *ProjectsData) UpdateProject(projectID int, u ProjectUpdate) error {
	p := d.Project(projectID)
	if p == nil {
		return opErr("update project", projectID, missing("project", projectID))
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, u.Name)
	set(&p.Directory, u.Directory)
	set(&p.Dproj, u.Dproj)
	set(&p.Dpr, u.Dpr)
	set(&p.Dpk, u.Dpk)
	set(&p.Exe, u.Exe)
	set(&p.Ini, u.Ini)
	return nil
}

// SelectProject makes a linked project the active one.
func (d *ProjectsData) SelectProject(projectID int) error {
	const op = "select project"
	if d.Project(projectID) == nil {
		return opErr(op, projectID, missing("project", projectID))
	}
	if !d.CanFindAnyLinks(projectID) {
		return opErr(op, projectID, fmt.Errorf("project %d has no links: %w", projectID, ErrNotFound))
	}
	d.ActiveProjectID = projectID
	return nil
}
