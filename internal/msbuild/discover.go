package msbuild

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/papapumpkin/ddk/internal/projects"
)

// Discoverer locates a project's source, executable and ini files from its
// .dproj file.
type Discoverer struct {
	Macros Macros
	Logger *zap.Logger
}

// NewDiscoverer returns a Discoverer for the default build macros.
func NewDiscoverer(logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{Macros: DefaultMacros(), Logger: logger}
}

// Discover fills in paths from the project file, finding the project file
// next to the .dpr or .dpk first when it is unknown. A .dpr main source
// yields executable and ini paths; a .dpk main source clears them.
func (d *Discoverer) Discover(p projects.ProjectPaths) (projects.ProjectPaths, error) {
	if p.Dproj == "" {
		src := p.Dpr
		if src == "" {
			src = p.Dpk
		}
		if src == "" {
			return p, fmt.Errorf("project %q has no project or source file: %w", p.Name, projects.ErrNotFound)
		}
		dproj, err := FindProjectFile(src)
		if err != nil {
			return p, err
		}
		p.Dproj = dproj
	}

	main, err := d.Macros.MainSource(p.Dproj)
	if err != nil {
		return p, err
	}
	switch strings.ToLower(filepath.Ext(main)) {
	case ".dpr":
		p.Dpr, p.Dpk = main, ""
		d.outputs(&p)
	case ".dpk":
		p.Dpk, p.Dpr, p.Exe, p.Ini = main, "", "", ""
	default:
		return p, fmt.Errorf("main source %s: %w", main, projects.ErrUnsupported)
	}
	d.logger().Debug("discovered project paths",
		zap.String("dproj", p.Dproj),
		zap.String("main", main),
		zap.String("exe", p.Exe))
	return p, nil
}

// outputs sets the executable and ini paths of an application. Without a
// usable output entry in the project file, whichever of the previous exe or
// ini paths is still meaningful is used to derive the other.
func (d *Discoverer) outputs(p *projects.ProjectPaths) {
	if exe, err := d.Macros.ExeOutput(p.Dproj, p.Name); err == nil {
		p.Exe, p.Ini = exe, withExt(exe, ".ini")
		return
	}
	switch {
	case p.Exe != "" && exists(p.Exe):
		p.Ini = withExt(p.Exe, ".ini")
	case p.Ini != "":
		p.Exe = withExt(p.Ini, ".exe")
	default:
		p.Exe, p.Ini = "", ""
	}
}

func (d *Discoverer) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
