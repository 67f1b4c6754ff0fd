package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/unwrapjs/unwrap/internal/testutil"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.GlobalPolicy != PolicyRewrite {
		t.Fatalf("expected rewrite policy by default, got %q", cfg.GlobalPolicy)
	}
	if len(cfg.Extensions) != 3 {
		t.Fatalf("expected default extensions, got %v", cfg.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadNoFileUsesDefaults(t *testing.T) {
	cfg, path, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != "" {
		t.Fatalf("expected no config path, got %q", path)
	}
	if cfg.GlobalPolicy != PolicyRewrite {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, ".unwrap.yml"), "global_policy: ignore\nexports:\n  vendor/legacy.js:\n    - alpha\n    - beta\n")

	cfg, path, err := Load(root, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path == "" {
		t.Fatalf("expected resolved config path")
	}
	if cfg.GlobalPolicy != PolicyIgnore {
		t.Fatalf("expected ignore policy, got %q", cfg.GlobalPolicy)
	}
	names, ok := cfg.LookupOverride("vendor/legacy.js")
	if !ok || strings.Join(names, ",") != "alpha,beta" {
		t.Fatalf("expected override loaded, got %v", names)
	}
}

func TestLoadYAMLRejectsUnknownField(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, ".unwrap.yml"), "global_policy: rewrite\nunknown_key: true\n")

	if _, _, err := Load(root, ""); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLoadJSON(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "unwrap.json"), "{\n  \"extensions\": [\".js\", \".mjs\"]\n}\n")

	cfg, _, err := Load(root, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if strings.Join(cfg.Extensions, ",") != ".js,.mjs" {
		t.Fatalf("expected extensions from json config, got %v", cfg.Extensions)
	}
}

func TestLoadJSONRejectsUnknownField(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "unwrap.json"), "{\"bogus\": 1}\n")

	if _, _, err := Load(root, ""); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLoadTOML(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "unwrap.toml"), "global_policy = \"ignore\"\n\n[exports]\n\"legacy\" = [\"one\"]\n")

	cfg, _, err := Load(root, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GlobalPolicy != PolicyIgnore {
		t.Fatalf("expected ignore policy, got %q", cfg.GlobalPolicy)
	}
	names, ok := cfg.LookupOverride("legacy")
	if !ok || len(names) != 1 || names[0] != "one" {
		t.Fatalf("expected toml override, got %v", names)
	}
}

func TestLoadSearchOrder(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, ".unwrap.yml"), "global_policy: ignore\n")
	testutil.MustWriteFile(t, filepath.Join(root, "unwrap.json"), "{\"global_policy\": \"rewrite\"}\n")

	cfg, path, err := Load(root, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if filepath.Base(path) != ".unwrap.yml" {
		t.Fatalf("expected yml to win search order, got %q", path)
	}
	if cfg.GlobalPolicy != PolicyIgnore {
		t.Fatalf("expected yml policy, got %q", cfg.GlobalPolicy)
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	if _, _, err := Load(t.TempDir(), "nope.yml"); err == nil {
		t.Fatalf("expected missing config error")
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, ".unwrap.yml"), "global_policy: sometimes\n")

	if _, _, err := Load(root, ""); err == nil {
		t.Fatalf("expected policy validation error")
	}
}

func TestLoadRejectsBadOverrideName(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, ".unwrap.yml"), "exports:\n  legacy.js:\n    - \"not a name\"\n")

	if _, _, err := Load(root, ""); err == nil {
		t.Fatalf("expected override name validation error")
	}
}

func TestLookupOverridePackageName(t *testing.T) {
	cfg := Default()
	cfg.OverrideExports = map[string][]string{
		"left-pad":   {"pad"},
		"@scope/pkg": {"scoped"},
	}

	names, ok := cfg.LookupOverride("node_modules/left-pad/index.js")
	if !ok || names[0] != "pad" {
		t.Fatalf("expected package-name match, got %v", names)
	}
	names, ok = cfg.LookupOverride("node_modules/@scope/pkg/lib/main.js")
	if !ok || names[0] != "scoped" {
		t.Fatalf("expected scoped package match, got %v", names)
	}
	if _, ok := cfg.LookupOverride("src/left-pad.js"); ok {
		t.Fatalf("expected no match outside node_modules")
	}
}

func TestRecognizesFile(t *testing.T) {
	cfg := Default()
	if !cfg.RecognizesFile("a/b/c.js") || !cfg.RecognizesFile("x.CJS") {
		t.Fatalf("expected default extensions recognized")
	}
	if cfg.RecognizesFile("x.ts") {
		t.Fatalf("expected .ts unrecognized by default")
	}
}
