package msbuild

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

type groupFile struct {
	XMLName    xml.Name    `xml:"Project"`
	ItemGroups []itemGroup `xml:"ItemGroup"`
}

type itemGroup struct {
	Projects []struct {
		Include string `xml:"Include,attr"`
	} `xml:"Projects"`
}

// GroupParser reads .groupproj files.
type GroupParser struct {
	Macros Macros
}

// ParseGroup returns the member project files of the group file at path in
// document order, resolved against the group file's directory. Members that
// do not exist on disk are skipped.
func (g GroupParser) ParseGroup(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var gf groupFile
	if err := xml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	var members []string
	for _, ig := range gf.ItemGroups {
		for _, p := range ig.Projects {
			if p.Include == "" {
				continue
			}
			if member := g.Macros.localPath(dir, p.Include); exists(member) {
				members = append(members, member)
			}
		}
	}
	return members, nil
}
