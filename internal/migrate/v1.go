// Package migrate imports configuration written by the first generation of
// the extension, a single camelCase JSON document holding workspaces, the
// selected project and group project, and the compiler list.
package migrate

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/papapumpkin/ddk/internal/lexorank"
	"github.com/papapumpkin/ddk/internal/projects"
)

// FallbackCompiler is used when a legacy compiler name matches no profile.
const FallbackCompiler = "23.0"

// importedMarker fills the descriptive fields of compilers only known from a
// legacy rsvars path.
const importedMarker = "unknown (imported from v1)"

type v1Document struct {
	Configuration v1Configuration `json:"configuration"`
	Compilers     []v1Compiler    `json:"compilers"`
	Version       int             `json:"version"`
}

type v1Compiler struct {
	Name           string   `json:"name"`
	RsVersPath     string   `json:"rsVersPath"`
	MsBuildPath    string   `json:"msBuildPath"`
	BuildArguments []string `json:"buildArguments"`
}

type v1Configuration struct {
	ID                    int             `json:"id"`
	Workspaces            []v1Workspace   `json:"workspaces"`
	GroupProjectsCompiler *string         `json:"groupProjectsCompiler"`
	SelectedProject       *v1Project      `json:"selectedProject"`
	SelectedGroupProject  *v1GroupProject `json:"selectedGroupProject"`
}

type v1Workspace struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Compiler  string          `json:"compiler"`
	Projects  []v1ProjectLink `json:"projects"`
	SortValue string          `json:"sortValue"`
}

type v1GroupProject struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	Projects []v1ProjectLink `json:"projects"`
}

type v1ProjectLink struct {
	ID        int       `json:"id"`
	Project   v1Project `json:"project"`
	SortValue string    `json:"sortValue"`
}

type v1Project struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Path  string  `json:"path"`
	Dproj *string `json:"dproj"`
	Dpr   *string `json:"dpr"`
	Dpk   *string `json:"dpk"`
	Exe   *string `json:"exe"`
	Ini   *string `json:"ini"`
}

// importer carries the state of one FromV1 run.
type importer struct {
	data      *projects.ProjectsData
	compilers projects.Compilers
	ids       map[int]int // legacy project id to new project id
	log       *zap.Logger
}

// FromV1 converts a legacy document into a fresh store and a registry that
// extends compilers with the legacy compiler list. Compilers are matched by
// the product version segment of their rsvars path. A project that appears
// in several legacy containers is imported once. Legacy sort values that do
// not parse are replaced by ranks at the end of their container.
func FromV1(raw []byte, compilers projects.Compilers, log *zap.Logger) (*projects.ProjectsData, projects.Compilers, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var doc v1Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decoding v1 configuration: %w", err)
	}

	im := &importer{
		data:      projects.New(),
		compilers: maps.Clone(compilers),
		ids:       make(map[int]int),
		log:       log,
	}
	if im.compilers == nil {
		im.compilers = projects.Compilers{}
	}
	for _, c := range doc.Compilers {
		im.importCompiler(c)
	}

	cfg := doc.Configuration
	if sel := cfg.SelectedProject; sel != nil {
		im.data.ActiveProjectID = im.project(*sel)
	}
	if gp := cfg.SelectedGroupProject; gp != nil {
		compiler := FallbackCompiler
		if cfg.GroupProjectsCompiler != nil {
			compiler = im.compilerKey(*cfg.GroupProjectsCompiler)
		}
		im.data.GroupProject = &projects.GroupProject{
			Name:         gp.Name,
			Path:         gp.Path,
			Compiler:     compiler,
			ProjectLinks: im.links("group project", gp.Projects),
		}
	}
	for _, ws := range cfg.Workspaces {
		im.data.Workspaces = append(im.data.Workspaces, &projects.Workspace{
			ID:           im.data.NextID(),
			Name:         ws.Name,
			Compiler:     im.compilerKey(ws.Compiler),
			Rank:         im.rank("workspace "+ws.Name, ws.SortValue),
			ProjectLinks: im.links("workspace "+ws.Name, ws.Projects),
		})
	}

	for _, note := range im.data.Repair() {
		log.Info("normalised imported store", zap.String("fix", note))
	}
	return im.data, im.compilers, nil
}

// importCompiler merges one legacy compiler into the registry: a known
// product version only takes the legacy build arguments.
func (im *importer) importCompiler(c v1Compiler) {
	version, install, ok := productVersion(c.RsVersPath)
	if !ok {
		im.log.Warn("skipping legacy compiler without a product version",
			zap.String("name", c.Name), zap.String("rsvars", c.RsVersPath))
		return
	}
	key := strconv.FormatFloat(version, 'f', 1, 64)
	if existing, found := im.compilers[key]; found {
		existing.BuildArguments = slices.Clone(c.BuildArguments)
		im.compilers[key] = existing
		return
	}
	im.compilers[key] = projects.CompilerConfiguration{
		Condition:        importedMarker,
		ProductName:      importedMarker,
		ProductVersion:   version,
		InstallationPath: install,
		BuildArguments:   slices.Clone(c.BuildArguments),
	}
	im.log.Info("imported legacy compiler", zap.String("key", key), zap.String("path", install))
}

// productVersion finds the first segment of an rsvars path that is a number,
// such as 22.0 in ...\Studio\22.0\bin\rsvars.bat, and returns it together
// with the path up to and including that segment.
func productVersion(path string) (float64, string, bool) {
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '\\' && path[i] != '/' {
			continue
		}
		seg := path[start:i]
		if v, err := strconv.ParseFloat(seg, 64); err == nil && seg != "" {
			return v, path[:i], true
		}
		start = i + 1
	}
	return 0, "", false
}

// compilerKey resolves a legacy compiler display name to a registry key by
// product name, checking keys in sorted order.
func (im *importer) compilerKey(name string) string {
	if name != "" {
		for _, key := range im.compilers.Keys() {
			if strings.Contains(im.compilers[key].ProductName, name) {
				return key
			}
		}
	}
	im.log.Warn("legacy compiler not registered, using fallback",
		zap.String("name", name), zap.String("fallback", FallbackCompiler))
	return FallbackCompiler
}

// project returns the new id for a legacy project, importing it on first use.
func (im *importer) project(p v1Project) int {
	if id, ok := im.ids[p.ID]; ok {
		return id
	}
	id := im.data.NextID()
	im.ids[p.ID] = id
	im.data.Projects = append(im.data.Projects, &projects.Project{
		ID:        id,
		Name:      p.Name,
		Directory: p.Path,
		Dproj:     deref(p.Dproj),
		Dpr:       deref(p.Dpr),
		Dpk:       deref(p.Dpk),
		Exe:       deref(p.Exe),
		Ini:       deref(p.Ini),
	})
	return id
}

func (im *importer) links(where string, legacy []v1ProjectLink) []*projects.ProjectLink {
	links := make([]*projects.ProjectLink, 0, len(legacy))
	for _, l := range legacy {
		projectID := im.project(l.Project)
		links = append(links, &projects.ProjectLink{
			ID:        im.data.NextID(),
			ProjectID: projectID,
			Rank:      im.rank(where, l.SortValue),
		})
	}
	return links
}

// rank parses a legacy sort value. Unparseable values are left unset so the
// repair pass appends them after the valid ones.
func (im *importer) rank(where, value string) lexorank.LexoRank {
	r, ok := lexorank.ParseOrDefault(value)
	if !ok {
		im.log.Warn("legacy sort value is not a rank", zap.String("in", where), zap.String("value", value))
		return lexorank.LexoRank{}
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
