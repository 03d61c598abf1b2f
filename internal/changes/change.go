// Package changes defines the mutation commands accepted by ddk and the
// executor that applies a batch of them to the store as one transaction.
package changes

import (
	"fmt"
	"reflect"

	"github.com/papapumpkin/ddk/internal/lexorank"
	"github.com/papapumpkin/ddk/internal/projects"
)

// Change is one mutation command. The set of implementations is closed.
type Change interface {
	// Type is the variant name used as the "type" discriminator on the wire.
	Type() string
	isChange()
}

// ChangeSet is an ordered batch of changes applied atomically.
type ChangeSet struct {
	Changes []Change
}

// NewProject registers a project or source file in a workspace.
type NewProject struct {
	FilePath    string `json:"file_path" validate:"required"`
	WorkspaceID int    `json:"workspace_id" validate:"gt=0"`
}

// AddProject links an existing project into a workspace.
type AddProject struct {
	ProjectID   int `json:"project_id" validate:"gt=0"`
	WorkspaceID int `json:"workspace_id" validate:"gt=0"`
}

// RemoveProject removes one project link. The project goes with it when no
// other link references it.
type RemoveProject struct {
	ProjectLinkID int `json:"project_link_id" validate:"gt=0"`
}

// MoveProject places a project link between two neighbouring ranks. A nil
// neighbour marks an end of the list.
type MoveProject struct {
	ProjectLinkID int                `json:"project_link_id" validate:"gt=0"`
	Previous      *lexorank.LexoRank `json:"previous"`
	Next          *lexorank.LexoRank `json:"next"`
}

// RefreshProject re-discovers a project's paths from its project file.
type RefreshProject struct {
	ProjectID int `json:"project_id" validate:"gt=0"`
}

// UpdateProject overwrites selected project fields.
type UpdateProject struct {
	ProjectID int                    `json:"project_id" validate:"gt=0"`
	Data      projects.ProjectUpdate `json:"data"`
}

// SelectProject makes a project the active one.
type SelectProject struct {
	ProjectID int `json:"project_id" validate:"gt=0"`
}

// AddWorkspace appends a workspace.
type AddWorkspace struct {
	Name     string `json:"name" validate:"required"`
	Compiler string `json:"compiler" validate:"required"`
}

// RemoveWorkspace deletes a workspace and the projects only it referenced.
type RemoveWorkspace struct {
	WorkspaceID int `json:"workspace_id" validate:"gt=0"`
}

// MoveWorkspace places a workspace between two neighbouring ranks.
type MoveWorkspace struct {
	WorkspaceID int                `json:"workspace_id" validate:"gt=0"`
	Previous    *lexorank.LexoRank `json:"previous"`
	Next        *lexorank.LexoRank `json:"next"`
}

// UpdateWorkspace overwrites selected workspace fields.
type UpdateWorkspace struct {
	WorkspaceID int                      `json:"workspace_id" validate:"gt=0"`
	Data        projects.WorkspaceUpdate `json:"data"`
}

// AddCompiler registers a compiler profile.
type AddCompiler struct {
	Key    string                         `json:"key" validate:"required"`
	Config projects.CompilerConfiguration `json:"config"`
}

// RemoveCompiler unregisters a compiler profile that nothing uses.
type RemoveCompiler struct {
	Compiler string `json:"compiler" validate:"required"`
}

// UpdateCompiler overwrites selected fields of a compiler profile.
type UpdateCompiler struct {
	Key  string                                `json:"key" validate:"required"`
	Data projects.PartialCompilerConfiguration `json:"data"`
}

// SetGroupProject replaces the group project with a group file. An empty
// Compiler keeps the current group project's compiler.
type SetGroupProject struct {
	GroupprojPath string `json:"groupproj_path" validate:"required"`
	Compiler      string `json:"compiler,omitempty"`
}

// RemoveGroupProject clears the group project.
type RemoveGroupProject struct{}

// SetGroupProjectCompiler changes the group project's compiler.
type SetGroupProjectCompiler struct {
	Compiler string `json:"compiler" validate:"required"`
}

// RebalanceRanks respaces long ranks. Force respaces every container
// regardless of rank length.
type RebalanceRanks struct {
	Force bool `json:"force,omitempty"`
}

func (NewProject) Type() string              { return "NewProject" }
func (AddProject) Type() string              { return "AddProject" }
func (RemoveProject) Type() string           { return "RemoveProject" }
func (MoveProject) Type() string             { return "MoveProject" }
func (RefreshProject) Type() string          { return "RefreshProject" }
func (UpdateProject) Type() string           { return "UpdateProject" }
func (SelectProject) Type() string           { return "SelectProject" }
func (AddWorkspace) Type() string            { return "AddWorkspace" }
func (RemoveWorkspace) Type() string         { return "RemoveWorkspace" }
func (MoveWorkspace) Type() string           { return "MoveWorkspace" }
func (UpdateWorkspace) Type() string         { return "UpdateWorkspace" }
func (AddCompiler) Type() string             { return "AddCompiler" }
func (RemoveCompiler) Type() string          { return "RemoveCompiler" }
func (UpdateCompiler) Type() string          { return "UpdateCompiler" }
func (SetGroupProject) Type() string         { return "SetGroupProject" }
func (RemoveGroupProject) Type() string      { return "RemoveGroupProject" }
func (SetGroupProjectCompiler) Type() string { return "SetGroupProjectCompiler" }
func (RebalanceRanks) Type() string          { return "RebalanceRanks" }

func (NewProject) isChange()              {}
func (AddProject) isChange()              {}
func (RemoveProject) isChange()           {}
func (MoveProject) isChange()             {}
func (RefreshProject) isChange()          {}
func (UpdateProject) isChange()           {}
func (SelectProject) isChange()           {}
func (AddWorkspace) isChange()            {}
func (RemoveWorkspace) isChange()         {}
func (MoveWorkspace) isChange()           {}
func (UpdateWorkspace) isChange()         {}
func (AddCompiler) isChange()             {}
func (RemoveCompiler) isChange()          {}
func (UpdateCompiler) isChange()          {}
func (SetGroupProject) isChange()         {}
func (RemoveGroupProject) isChange()      {}
func (SetGroupProjectCompiler) isChange() {}
func (RebalanceRanks) isChange()          {}

// Types returns the type names of the changes in order.
func (cs ChangeSet) Types() []string {
	types := make([]string, len(cs.Changes))
	for i, c := range cs.Changes {
		types[i] = typeName(c)
	}
	return types
}

// typeName is c.Type() for the value variants. Nil changes and pointers,
// which the executor rejects, are described without calling into them.
func typeName(c Change) string {
	switch {
	case c == nil:
		return "<nil>"
	case reflect.ValueOf(c).Kind() == reflect.Pointer:
		return fmt.Sprintf("%T", c)
	}
	return c.Type()
}
