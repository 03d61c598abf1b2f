// Package msbuild reads the MSBuild files of Delphi projects: .dproj project
// files for source and output paths, and .groupproj files for group members.
package msbuild

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/papapumpkin/ddk/internal/projects"
)

// projectFile is the part of a .dproj document ddk reads.
type projectFile struct {
	XMLName        xml.Name        `xml:"Project"`
	PropertyGroups []propertyGroup `xml:"PropertyGroup"`
}

type propertyGroup struct {
	Condition                 string `xml:"Condition,attr"`
	MainSource                string `xml:"MainSource"`
	DependencyCheckOutputName string `xml:"DCC_DependencyCheckOutputName"`
	ExeOutput                 string `xml:"DCC_ExeOutput"`
}

func readProjectFile(path string) (*projectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project file %s: %w", path, projects.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var pf projectFile
	if err := xml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &pf, nil
}

// Macros holds the values substituted for $(Name) references in paths.
type Macros map[string]string

// DefaultMacros returns the values of a default Win32 debug build.
func DefaultMacros() Macros {
	return Macros{"Platform": "Win32", "Config": "Debug"}
}

// localPath turns a path written in a project file into a host path: macros
// are expanded, separators normalised and relative paths anchored at dir.
func (m Macros) localPath(dir, value string) string {
	value = strings.TrimSpace(value)
	for name, v := range m {
		value = strings.ReplaceAll(value, "$("+name+")", v)
	}
	value = filepath.FromSlash(strings.ReplaceAll(value, `\`, "/"))
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(dir, value)
}

// MainSource returns the first MainSource entry of the project file that
// exists on disk. It fails with projects.ErrNotFound when there is none.
func (m Macros) MainSource(dproj string) (string, error) {
	pf, err := readProjectFile(dproj)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dproj)
	for _, pg := range pf.PropertyGroups {
		if pg.MainSource == "" {
			continue
		}
		if path := m.localPath(dir, pg.MainSource); exists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("main source of %s: %w", dproj, projects.ErrNotFound)
}

// ExeOutput returns the executable the project builds. A
// DCC_DependencyCheckOutputName entry names the file itself; a DCC_ExeOutput
// entry names its directory, in which the executable is called name.exe.
// Only entries that exist on disk count.
func (m Macros) ExeOutput(dproj, name string) (string, error) {
	pf, err := readProjectFile(dproj)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dproj)
	for _, pg := range pf.PropertyGroups {
		if pg.DependencyCheckOutputName != "" {
			if path := m.localPath(dir, pg.DependencyCheckOutputName); exists(path) {
				return path, nil
			}
		}
		if pg.ExeOutput != "" {
			if out := m.localPath(dir, pg.ExeOutput); exists(out) {
				return filepath.Join(out, name+".exe"), nil
			}
		}
	}
	return "", fmt.Errorf("executable output of %s: %w", dproj, projects.ErrNotFound)
}

// FindProjectFile returns the .dproj that sits next to a .dpr or .dpk file.
func FindProjectFile(mainFile string) (string, error) {
	path := withExt(mainFile, ".dproj")
	if !exists(path) {
		return "", fmt.Errorf("project file for %s: %w", mainFile, projects.ErrNotFound)
	}
	return path, nil
}

func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
