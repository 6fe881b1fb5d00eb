// Package toolset selects which tool categories get registered on the
// MCP server and under which name prefix.
package toolset

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category groups related tools for bundle selection.
type Category string

const (
	CategoryModels         Category = "models"
	CategoryPredictions    Category = "predictions"
	CategoryCodeGeneration Category = "code_generation"
)

// Toolset is a named bundle of tool categories.
type Toolset struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Categories  []Category `yaml:"categories"`
}

// builtinToolsets are always available, with or without a config file.
var builtinToolsets = []Toolset{
	{
		Name:        "basic",
		Description: "Model catalog and prediction tools",
		Categories:  []Category{CategoryModels, CategoryPredictions},
	},
	{
		Name:        "code_focus",
		Description: "Code generation tools only",
		Categories:  []Category{CategoryCodeGeneration},
	},
	{
		Name:        "advanced",
		Description: "All tool categories",
		Categories:  []Category{CategoryModels, CategoryPredictions, CategoryCodeGeneration},
	},
}

// FileConfig is the optional YAML overlay: extra toolsets, a prefix
// override, per-tool description overrides, and per-tool disables. Tool
// names in the file are unprefixed (e.g. "list_models").
type FileConfig struct {
	Prefix       string            `yaml:"prefix,omitempty"`
	Toolsets     []Toolset         `yaml:"toolsets,omitempty"`
	Descriptions map[string]string `yaml:"descriptions,omitempty"`
	Disabled     []string          `yaml:"disabled,omitempty"`
}

// LoadFile loads the toolset overlay from a YAML file. Environment
// variables are expanded in both the path and the file content.
func LoadFile(configPath string) (*FileConfig, error) {
	configPath = os.ExpandEnv(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg FileConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Registry resolves the selected toolset and answers registration-time
// questions: which categories to register, what a tool is named, and
// whether an individual tool is disabled.
type Registry struct {
	prefix       string
	selected     Toolset
	categories   map[Category]bool
	descriptions map[string]string
	disabled     map[string]bool
}

// NewRegistry resolves the named toolset against the builtins plus the
// optional file overlay. File toolsets shadow builtins of the same name.
// An unknown toolset name is a startup error.
func NewRegistry(name, defaultPrefix string, file *FileConfig) (*Registry, error) {
	prefix := strings.TrimSpace(defaultPrefix)
	if file != nil && strings.TrimSpace(file.Prefix) != "" {
		prefix = strings.TrimSpace(file.Prefix)
	}
	if prefix == "" {
		prefix = "replicate"
	}

	available := make(map[string]Toolset, len(builtinToolsets))
	for _, ts := range builtinToolsets {
		available[ts.Name] = ts
	}
	if file != nil {
		for _, ts := range file.Toolsets {
			available[ts.Name] = ts
		}
	}

	selected, ok := available[name]
	if !ok {
		known := make([]string, 0, len(available))
		for n := range available {
			known = append(known, n)
		}
		return nil, fmt.Errorf("unknown toolset %q (available: %s)", name, strings.Join(known, ", "))
	}

	categories := make(map[Category]bool, len(selected.Categories))
	for _, c := range selected.Categories {
		categories[c] = true
	}

	descriptions := make(map[string]string)
	disabled := make(map[string]bool)
	if file != nil {
		for tool, desc := range file.Descriptions {
			descriptions[tool] = desc
		}
		for _, tool := range file.Disabled {
			disabled[tool] = true
		}
	}

	return &Registry{
		prefix:       prefix,
		selected:     selected,
		categories:   categories,
		descriptions: descriptions,
		disabled:     disabled,
	}, nil
}

// Name returns the selected toolset's name.
func (r *Registry) Name() string {
	return r.selected.Name
}

// Prefix returns the tool name prefix.
func (r *Registry) Prefix() string {
	return r.prefix
}

// ToolName prefixes an unprefixed tool name.
func (r *Registry) ToolName(base string) string {
	return r.prefix + "_" + base
}

// HasCategory reports whether the selected toolset includes a category.
func (r *Registry) HasCategory(c Category) bool {
	return r.categories[c]
}

// Enabled reports whether an individual tool (unprefixed name) should
// be registered.
func (r *Registry) Enabled(base string) bool {
	return !r.disabled[base]
}

// Description returns the registered description for a tool, preferring
// a file override over the built-in default.
func (r *Registry) Description(base, fallback string) string {
	if desc, ok := r.descriptions[base]; ok && desc != "" {
		return desc
	}
	return fallback
}

// DescriptionOverrides returns overrides keyed by the full (prefixed)
// tool name, for rewriting tools/list responses.
func (r *Registry) DescriptionOverrides() map[string]string {
	overrides := make(map[string]string, len(r.descriptions))
	for base, desc := range r.descriptions {
		if desc != "" {
			overrides[r.ToolName(base)] = desc
		}
	}
	return overrides
}
