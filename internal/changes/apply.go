package changes

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/papapumpkin/ddk/internal/projects"
	"github.com/papapumpkin/ddk/internal/storage"
)

// apply runs one change against the transaction state.
func (e *Executor) apply(tx *storage.Tx, c Change) error {
	d := tx.Data
	switch c := c.(type) {
	case NewProject:
		p, err := d.NewProject(c.FilePath, c.WorkspaceID)
		if err != nil {
			return err
		}
		if err := d.RefreshProject(p.ID, e.disc); err != nil {
			if !errors.Is(err, projects.ErrNotFound) {
				return err
			}
			e.log.Warn("project paths not discovered", zap.Int("project", p.ID), zap.Error(err))
		}
		return nil
	case AddProject:
		_, err := d.AddProjectLink(c.ProjectID, c.WorkspaceID)
		return err
	case RemoveProject:
		return d.RemoveProjectLink(c.ProjectLinkID)
	case MoveProject:
		return d.MoveProjectLink(c.ProjectLinkID, c.Previous, c.Next)
	case RefreshProject:
		return d.RefreshProject(c.ProjectID, e.disc)
	case UpdateProject:
		return d.UpdateProject(c.ProjectID, c.Data)
	case SelectProject:
		return d.SelectProject(c.ProjectID)
	case AddWorkspace:
		_, err := d.NewWorkspace(c.Name, c.Compiler, tx.Compilers)
		return err
	case RemoveWorkspace:
		return d.RemoveWorkspace(c.WorkspaceID)
	case MoveWorkspace:
		return d.MoveWorkspace(c.WorkspaceID, c.Previous, c.Next)
	case UpdateWorkspace:
		return d.UpdateWorkspace(c.WorkspaceID, c.Data, tx.Compilers)
	case AddCompiler:
		return tx.Compilers.Add(c.Key, c.Config)
	case RemoveCompiler:
		return tx.Compilers.Remove(c.Compiler, d)
	case UpdateCompiler:
		return tx.Compilers.Update(c.Key, c.Data)
	case SetGroupProject:
		compiler := c.Compiler
		if compiler == "" && d.GroupProject != nil {
			compiler = d.GroupProject.Compiler
		}
		return d.SetGroupProject(c.GroupprojPath, compiler, tx.Compilers, e.groups, e.disc)
	case RemoveGroupProject:
		d.RemoveGroupProject()
		return nil
	case SetGroupProjectCompiler:
		return d.SetGroupProjectCompiler(c.Compiler, tx.Compilers)
	case RebalanceRanks:
		n := d.Rebalance(e.threshold, c.Force)
		e.log.Info("rebalanced ranks", zap.Int("containers", n), zap.Bool("force", c.Force))
		return nil
	}
	return fmt.Errorf("%w %T", ErrUnknownType, c)
}
