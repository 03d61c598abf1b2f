package projects

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"

	toml "github.com/pelletier/go-toml/v2"
)

//go:embed default_compilers.toml
var defaultCompilersTOML []byte

// CompilerConfiguration describes one installed compiler profile.
type CompilerConfiguration struct {
	Condition        string   `toml:"condition" json:"condition" validate:"required"`
	ProductName      string   `toml:"product_name" json:"product_name" validate:"required"`
	ProductVersion   float64  `toml:"product_version" json:"product_version" validate:"gt=0"`
	PackageVersion   int      `toml:"package_version" json:"package_version" validate:"gt=0"`
	CompilerVersion  float64  `toml:"compiler_version" json:"compiler_version" validate:"gt=0"`
	InstallationPath string   `toml:"installation_path" json:"installation_path" validate:"required"`
	BuildArguments   []string `toml:"build_arguments" json:"build_arguments"`
}

// PartialCompilerConfiguration is a partial update; nil fields are left unchanged.
type PartialCompilerConfiguration struct {
	Condition        *string   `json:"condition,omitempty"`
	ProductName      *string   `json:"product_name,omitempty"`
	ProductVersion   *float64  `json:"product_version,omitempty" validate:"omitempty,gt=0"`
	PackageVersion   *int      `json:"package_version,omitempty" validate:"omitempty,gt=0"`
	CompilerVersion  *float64  `json:"compiler_version,omitempty" validate:"omitempty,gt=0"`
	InstallationPath *string   `json:"installation_path,omitempty"`
	BuildArguments   *[]string `json:"build_arguments,omitempty"`
}

// Apply copies the non-nil fields of p onto c.
func (p PartialCompilerConfiguration) Apply(c *CompilerConfiguration) {
	if p.Condition != nil {
		c.Condition = *p.Condition
	}
	if p.ProductName != nil {
		c.ProductName = *p.ProductName
	}
	if p.ProductVersion != nil {
		c.ProductVersion = *p.ProductVersion
	}
	if p.PackageVersion != nil {
		c.PackageVersion = *p.PackageVersion
	}
	if p.CompilerVersion != nil {
		c.CompilerVersion = *p.CompilerVersion
	}
	if p.InstallationPath != nil {
		c.InstallationPath = *p.InstallationPath
	}
	if p.BuildArguments != nil {
		c.BuildArguments = slices.Clone(*p.BuildArguments)
	}
}

// Compilers is the compiler registry, keyed by profile key.
type Compilers map[string]CompilerConfiguration

// compilersFile is the on-disk layout of the registry.
type compilersFile struct {
	Compilers Compilers `toml:"compilers"`
}

// DefaultCompilers returns the built-in registry.
func DefaultCompilers() Compilers {
	c, err := DecodeCompilers(defaultCompilersTOML)
	if err != nil {
		panic(fmt.Sprintf("projects: embedded default compilers: %v", err))
	}
	return c
}

// DecodeCompilers parses a registry file.
func DecodeCompilers(data []byte) (Compilers, error) {
	var f compilersFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding compilers: %w", err)
	}
	if f.Compilers == nil {
		f.Compilers = Compilers{}
	}
	return f.Compilers, nil
}

// EncodeCompilers renders c in the registry file format.
func EncodeCompilers(c Compilers) ([]byte, error) {
	data, err := toml.Marshal(compilersFile{Compilers: c})
	if err != nil {
		return nil, fmt.Errorf("encoding compilers: %w", err)
	}
	return data, nil
}

// HasCompiler reports whether key is registered.
func (c Compilers) HasCompiler(key string) bool {
	_, ok := c[key]
	return ok
}

// Keys returns the registered keys in ascending order.
func (c Compilers) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Add registers a new profile. An existing key is ErrAlreadyExists.
func (c Compilers) Add(key string, cfg CompilerConfiguration) error {
	if _, ok := c[key]; ok {
		return opErr("add compiler", 0, fmt.Errorf("compiler %s: %w", key, ErrAlreadyExists))
	}
	c[key] = cfg
	return nil
}

// Remove unregisters a profile. When data is non-nil a profile still used by
// a workspace or the group project is refused with ErrInUse.
func (c Compilers) Remove(key string, data *ProjectsData) error {
	const op = "remove compiler"
	if _, ok := c[key]; !ok {
		return opErr(op, 0, missing("compiler", key))
	}
	if data != nil && data.UsesCompiler(key) {
		return opErr(op, 0, fmt.Errorf("compiler %s: %w", key, ErrInUse))
	}
	delete(c, key)
	return nil
}

// Update applies a partial update to a registered profile.
func (c Compilers) Update(key string, p PartialCompilerConfiguration) error {
	cfg, ok := c[key]
	if !ok {
		return opErr("update compiler", 0, missing("compiler", key))
	}
	p.Apply(&cfg)
	c[key] = cfg
	return nil
}
