package toolset_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swiftask/services/replicate-tools/internal/infrastructure/toolset"
)

func TestBuiltinToolsets(t *testing.T) {
	tests := []struct {
		name           string
		toolset        string
		wantCategories []toolset.Category
		skipCategories []toolset.Category
	}{
		{
			name:           "basic",
			toolset:        "basic",
			wantCategories: []toolset.Category{toolset.CategoryModels, toolset.CategoryPredictions},
			skipCategories: []toolset.Category{toolset.CategoryCodeGeneration},
		},
		{
			name:           "code_focus",
			toolset:        "code_focus",
			wantCategories: []toolset.Category{toolset.CategoryCodeGeneration},
			skipCategories: []toolset.Category{toolset.CategoryModels, toolset.CategoryPredictions},
		},
		{
			name:    "advanced",
			toolset: "advanced",
			wantCategories: []toolset.Category{
				toolset.CategoryModels, toolset.CategoryPredictions, toolset.CategoryCodeGeneration,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := toolset.NewRegistry(tt.toolset, "replicate", nil)
			if err != nil {
				t.Fatalf("NewRegistry() error = %v", err)
			}
			if registry.Name() != tt.toolset {
				t.Errorf("Name() = %q, want %q", registry.Name(), tt.toolset)
			}
			for _, c := range tt.wantCategories {
				if !registry.HasCategory(c) {
					t.Errorf("HasCategory(%q) = false, want true", c)
				}
			}
			for _, c := range tt.skipCategories {
				if registry.HasCategory(c) {
					t.Errorf("HasCategory(%q) = true, want false", c)
				}
			}
		})
	}
}

func TestUnknownToolsetIsError(t *testing.T) {
	_, err := toolset.NewRegistry("everything", "replicate", nil)
	if err == nil {
		t.Fatal("NewRegistry() error = nil, want unknown toolset error")
	}
	if !strings.Contains(err.Error(), `unknown toolset "everything"`) {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "available:") {
		t.Errorf("error = %v, want available toolsets listed", err)
	}
}

func TestToolNamePrefixing(t *testing.T) {
	registry, err := toolset.NewRegistry("advanced", "replicate", nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if got := registry.ToolName("list_models"); got != "replicate_list_models" {
		t.Errorf("ToolName() = %q, want replicate_list_models", got)
	}
}

func TestEmptyPrefixFallsBack(t *testing.T) {
	registry, err := toolset.NewRegistry("advanced", "  ", nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if registry.Prefix() != "replicate" {
		t.Errorf("Prefix() = %q, want replicate fallback", registry.Prefix())
	}
}

func TestFilePrefixOverridesDefault(t *testing.T) {
	file := &toolset.FileConfig{Prefix: "rep"}
	registry, err := toolset.NewRegistry("advanced", "replicate", file)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if registry.Prefix() != "rep" {
		t.Errorf("Prefix() = %q, want rep", registry.Prefix())
	}
	if got := registry.ToolName("get_model"); got != "rep_get_model" {
		t.Errorf("ToolName() = %q, want rep_get_model", got)
	}
}

func TestFileToolsetShadowsBuiltin(t *testing.T) {
	file := &toolset.FileConfig{
		Toolsets: []toolset.Toolset{
			{Name: "basic", Categories: []toolset.Category{toolset.CategoryModels}},
		},
	}
	registry, err := toolset.NewRegistry("basic", "replicate", file)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if !registry.HasCategory(toolset.CategoryModels) {
		t.Error("HasCategory(models) = false, want true")
	}
	if registry.HasCategory(toolset.CategoryPredictions) {
		t.Error("HasCategory(predictions) = true, the file toolset should shadow the builtin")
	}
}

func TestFileToolsetAddsNewBundle(t *testing.T) {
	file := &toolset.FileConfig{
		Toolsets: []toolset.Toolset{
			{Name: "catalog_only", Categories: []toolset.Category{toolset.CategoryModels}},
		},
	}
	registry, err := toolset.NewRegistry("catalog_only", "replicate", file)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if registry.Name() != "catalog_only" {
		t.Errorf("Name() = %q", registry.Name())
	}
}

func TestDisabledTools(t *testing.T) {
	file := &toolset.FileConfig{Disabled: []string{"delete_model"}}
	registry, err := toolset.NewRegistry("advanced", "replicate", file)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if registry.Enabled("delete_model") {
		t.Error("Enabled(delete_model) = true, want false")
	}
	if !registry.Enabled("list_models") {
		t.Error("Enabled(list_models) = false, want true")
	}
}

func TestDescriptionOverrides(t *testing.T) {
	file := &toolset.FileConfig{
		Descriptions: map[string]string{
			"list_models": "Browse the model catalog",
			"get_model":   "",
		},
	}
	registry, err := toolset.NewRegistry("advanced", "replicate", file)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if got := registry.Description("list_models", "default"); got != "Browse the model catalog" {
		t.Errorf("Description() = %q", got)
	}
	if got := registry.Description("get_model", "default"); got != "default" {
		t.Errorf("Description() = %q, empty overrides must fall back", got)
	}
	if got := registry.Description("search_models", "default"); got != "default" {
		t.Errorf("Description() = %q, want fallback", got)
	}

	overrides := registry.DescriptionOverrides()
	if overrides["replicate_list_models"] != "Browse the model catalog" {
		t.Errorf("overrides = %v, want prefixed key", overrides)
	}
	if _, present := overrides["replicate_get_model"]; present {
		t.Error("empty description must not appear in overrides")
	}
}

func TestLoadFileExpandsEnvVars(t *testing.T) {
	t.Setenv("TOOLSET_TEST_PREFIX", "swiftask")

	path := filepath.Join(t.TempDir(), "toolset.yaml")
	content := `prefix: ${TOOLSET_TEST_PREFIX}
descriptions:
  list_models: "Browse models"
disabled:
  - delete_model
toolsets:
  - name: catalog_only
    description: "Catalog browsing"
    categories:
      - models
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := toolset.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Prefix != "swiftask" {
		t.Errorf("Prefix = %q, want env-expanded swiftask", cfg.Prefix)
	}
	if cfg.Descriptions["list_models"] != "Browse models" {
		t.Errorf("Descriptions = %v", cfg.Descriptions)
	}
	if len(cfg.Disabled) != 1 || cfg.Disabled[0] != "delete_model" {
		t.Errorf("Disabled = %v", cfg.Disabled)
	}
	if len(cfg.Toolsets) != 1 || cfg.Toolsets[0].Categories[0] != toolset.CategoryModels {
		t.Errorf("Toolsets = %v", cfg.Toolsets)
	}
}

func TestLoadFileMissingPath(t *testing.T) {
	if _, err := toolset.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile() error = nil, want error for missing file")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("prefix: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := toolset.LoadFile(path); err == nil {
		t.Error("LoadFile() error = nil, want YAML parse error")
	}
}
