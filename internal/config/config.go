// Package config carries the per-build configuration for the transform:
// export overrides, the global reference policy, and the recognized file
// extensions. A loaded Config is read-only for the duration of a build.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/unwrapjs/unwrap/internal/cjs"
	"github.com/unwrapjs/unwrap/internal/safeio"
)

const (
	readConfigFileErrFmt = "read config file %s: %w"
	parseConfigErrFmt    = "parse config file %s: %w"
)

// Policy selects how free global/self/window references are handled.
type Policy string

const (
	PolicyRewrite Policy = "rewrite"
	PolicyIgnore  Policy = "ignore"
)

// Config is the per-build transform configuration.
type Config struct {
	// OverrideExports forces the named-export list for a module identifier
	// or external package name, bypassing static inference. It is the
	// first-class escape hatch for inference false positives.
	OverrideExports map[string][]string

	// GlobalPolicy governs free global/self/window references.
	GlobalPolicy Policy

	// Extensions are the file suffixes the transform considers.
	Extensions []string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		GlobalPolicy: PolicyRewrite,
		Extensions:   []string{".js", ".cjs", ".jsx"},
	}
}

// Validate rejects unknown policies, malformed override names, and
// extensions missing their leading dot.
func (c Config) Validate() error {
	switch c.GlobalPolicy {
	case PolicyRewrite, PolicyIgnore:
	default:
		return fmt.Errorf("unknown global policy %q (expected rewrite or ignore)", c.GlobalPolicy)
	}
	for id, names := range c.OverrideExports {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("override key must not be empty")
		}
		for _, name := range names {
			if !cjs.ValidExportName(name) {
				return fmt.Errorf("override for %s: %q is not a valid export name", id, name)
			}
		}
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

// RecognizesFile reports whether path has a configured extension.
func (c Config) RecognizesFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range c.Extensions {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

// LookupOverride resolves the forced export list for a module: the exact
// identifier first, then a package-name match against the identifier's
// node_modules tail.
func (c Config) LookupOverride(id string) ([]string, bool) {
	if names, ok := c.OverrideExports[id]; ok {
		return names, true
	}
	for key, names := range c.OverrideExports {
		if strings.Contains(key, "/") && !strings.HasPrefix(key, "@") {
			continue
		}
		if pkg, ok := packageNameOf(id); ok && pkg == key {
			return names, true
		}
	}
	return nil, false
}

// packageNameOf extracts the package name from a resolved identifier that
// passes through node_modules, honoring scoped packages.
func packageNameOf(id string) (string, bool) {
	normalized := strings.ReplaceAll(id, "\\", "/")
	idx := strings.LastIndex(normalized, "node_modules/")
	if idx < 0 {
		return "", false
	}
	rest := normalized[idx+len("node_modules/"):]
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) == 0 || parts[0] == "" {
		return "", false
	}
	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 2 {
			return "", false
		}
		return parts[0] + "/" + parts[1], true
	}
	return parts[0], true
}

type rawConfig struct {
	Exports      map[string][]string `yaml:"exports" json:"exports" toml:"exports"`
	GlobalPolicy string              `yaml:"global_policy" json:"global_policy" toml:"global_policy"`
	Extensions   []string            `yaml:"extensions" json:"extensions" toml:"extensions"`
}

var configFileNames = []string{".unwrap.yml", ".unwrap.yaml", "unwrap.json", "unwrap.toml"}

// Load resolves and parses the build configuration. An explicit path wins;
// otherwise the root directory is searched for the known file names. With no
// file present the defaults apply.
func Load(rootPath, explicitPath string) (Config, string, error) {
	cfg := Default()

	configPath, found, err := resolveConfigPath(rootPath, strings.TrimSpace(explicitPath))
	if err != nil {
		return cfg, "", err
	}
	if !found {
		return cfg, "", nil
	}

	data, err := readConfigFile(rootPath, configPath, explicitPath != "")
	if err != nil {
		return cfg, "", fmt.Errorf(readConfigFileErrFmt, configPath, err)
	}

	raw, err := parseConfig(configPath, data)
	if err != nil {
		return cfg, "", fmt.Errorf(parseConfigErrFmt, configPath, err)
	}

	if len(raw.Exports) > 0 {
		cfg.OverrideExports = raw.Exports
	}
	if strings.TrimSpace(raw.GlobalPolicy) != "" {
		cfg.GlobalPolicy = Policy(strings.TrimSpace(raw.GlobalPolicy))
	}
	if len(raw.Extensions) > 0 {
		cfg.Extensions = raw.Extensions
	}

	if err := cfg.Validate(); err != nil {
		return Default(), "", fmt.Errorf(parseConfigErrFmt, configPath, err)
	}
	return cfg, configPath, nil
}

func resolveConfigPath(rootPath, explicitPath string) (string, bool, error) {
	if explicitPath != "" {
		candidate := explicitPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(rootPath, candidate)
		}
		candidate = filepath.Clean(candidate)
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file not found: %s", candidate)
			}
			return "", false, fmt.Errorf(readConfigFileErrFmt, candidate, err)
		}
		return candidate, true, nil
	}

	for _, name := range configFileNames {
		candidate := filepath.Join(rootPath, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !os.IsNotExist(err) {
			return "", false, fmt.Errorf(readConfigFileErrFmt, candidate, err)
		}
	}

	return "", false, nil
}

func readConfigFile(rootPath, path string, explicitProvided bool) ([]byte, error) {
	if !explicitProvided || isPathUnderRoot(rootPath, path) {
		return safeio.ReadFileUnder(rootPath, path)
	}
	return safeio.ReadFile(path)
}

func parseConfig(path string, data []byte) (rawConfig, error) {
	var raw rawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&raw); err != nil {
			return rawConfig{}, fmt.Errorf("invalid JSON config: %w", err)
		}
		if decoder.More() {
			return rawConfig{}, fmt.Errorf("invalid JSON config: multiple JSON values")
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&raw); err != nil {
			return rawConfig{}, fmt.Errorf("invalid TOML config: %w", err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return rawConfig{}, fmt.Errorf("invalid YAML config: %w", err)
		}
	}
	return raw, nil
}

func isPathUnderRoot(rootPath, targetPath string) bool {
	relative, err := filepath.Rel(rootPath, targetPath)
	if err != nil {
		return false
	}
	return relative != ".." && !strings.HasPrefix(relative, ".."+string(os.PathSeparator))
}
