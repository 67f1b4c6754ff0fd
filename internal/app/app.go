// Package app orchestrates a transform run: configuration, input discovery,
// the worker pool, output writing, and reporting.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/unwrapjs/unwrap/internal/cjs"
	"github.com/unwrapjs/unwrap/internal/config"
	"github.com/unwrapjs/unwrap/internal/report"
	"github.com/unwrapjs/unwrap/internal/safeio"
)

var (
	ErrUnknownMode    = errors.New("unknown mode")
	ErrNoInputFiles   = errors.New("no input files")
	ErrOutDirRequired = errors.New("multiple inputs require an output directory")
)

type App struct {
	Formatter report.Formatter
	// Errout receives warnings in single-file mode, where stdout carries the
	// rewritten module text instead of a report.
	Errout io.Writer
}

func New(errout io.Writer) *App {
	return &App{
		Formatter: report.NewFormatter(),
		Errout:    errout,
	}
}

// Execute runs the requested mode and returns the text for stdout.
func (a *App) Execute(ctx context.Context, req Request) (string, error) {
	switch req.Mode {
	case ModeTransform, ModeExports:
		return a.executeRun(ctx, req)
	default:
		return "", ErrUnknownMode
	}
}

type outcome struct {
	id     string
	result cjs.Result
	err    error
}

func (a *App) executeRun(ctx context.Context, req Request) (string, error) {
	rootPath, err := filepath.Abs(strings.TrimSpace(req.RootPath))
	if err != nil {
		return "", fmt.Errorf("resolve root path: %w", err)
	}

	cfg, _, err := config.Load(rootPath, req.Transform.ConfigPath)
	if err != nil {
		return "", err
	}
	if policy := strings.TrimSpace(req.Transform.GlobalPolicy); policy != "" {
		cfg.GlobalPolicy = config.Policy(policy)
		if err := cfg.Validate(); err != nil {
			return "", err
		}
	}

	files, warnings, err := collectInputs(rootPath, req.Transform.Inputs, cfg)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoInputFiles
	}
	singleFile := req.Mode == ModeTransform && req.Transform.OutDir == ""
	if singleFile && len(files) > 1 {
		return "", ErrOutDirRequired
	}

	outcomes := a.runPool(ctx, req, rootPath, cfg, files)
	for _, item := range outcomes {
		if item.err != nil {
			return "", item.err
		}
	}

	if req.Mode == ModeTransform {
		if singleFile {
			return a.renderSingle(outcomes[0], req.Transform.EmitMap)
		}
		writeWarnings, err := writeOutputs(rootPath, req.Transform.OutDir, files, outcomes, req.Transform.EmitMap)
		if err != nil {
			return "", err
		}
		warnings = append(warnings, writeWarnings...)
	}

	return a.renderReport(rootPath, outcomes, warnings, req.Transform.Format)
}

// runPool fans the files out over a bounded worker pool. Outcomes land at
// their input index, so output order is stable regardless of scheduling.
func (a *App) runPool(ctx context.Context, req Request, rootPath string, cfg config.Config, files []string) []outcome {
	workers := req.Transform.Jobs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	outcomes := make([]outcome, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				if err := ctx.Err(); err != nil {
					outcomes[index] = outcome{id: files[index], err: err}
					continue
				}
				outcomes[index] = transformFile(ctx, rootPath, files[index], cfg, req.Transform.EmitMap)
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func transformFile(ctx context.Context, rootPath, path string, cfg config.Config, emitMap bool) outcome {
	id := moduleID(rootPath, path)

	data, err := readInput(rootPath, path)
	if err != nil {
		return outcome{id: id, err: fmt.Errorf("read %s: %w", id, err)}
	}

	var inputMap []byte
	if emitMap {
		// A sibling .map means the input was itself generated once already.
		if mapData, mapErr := readInput(rootPath, path+".map"); mapErr == nil {
			inputMap = mapData
		}
	}

	overrides, hasOverride := cfg.LookupOverride(id)
	result, err := cjs.Transform(ctx, cjs.Request{
		ID:          id,
		Source:      string(data),
		InputMap:    inputMap,
		Policy:      cjs.GlobalPolicy(cfg.GlobalPolicy),
		Overrides:   overrides,
		HasOverride: hasOverride,
	})
	return outcome{id: id, result: result, err: err}
}

func (a *App) renderSingle(item outcome, emitMap bool) (string, error) {
	if a.Errout != nil {
		for _, warning := range item.result.Warnings {
			fmt.Fprintf(a.Errout, "warning: %s\n", warning)
		}
	}
	code := item.result.Code
	if emitMap && len(item.result.Map) > 0 {
		code += "\n//# sourceMappingURL=data:application/json;base64," +
			base64.StdEncoding.EncodeToString(item.result.Map) + "\n"
	}
	return code, nil
}

func (a *App) renderReport(rootPath string, outcomes []outcome, warnings []string, format report.Format) (string, error) {
	modules := make([]report.ModuleReport, 0, len(outcomes))
	for _, item := range outcomes {
		modules = append(modules, moduleReport(item))
	}
	reportData := report.Report{
		SchemaVersion: report.SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		RootPath:      rootPath,
		Modules:       modules,
		Summary:       report.Summarize(modules),
		Warnings:      warnings,
	}
	return a.Formatter.Format(reportData, format)
}

func moduleReport(item outcome) report.ModuleReport {
	evidence := make([]string, 0, len(item.result.Evidence))
	for _, kind := range item.result.Evidence {
		evidence = append(evidence, string(kind))
	}
	return report.ModuleReport{
		Path:         item.id,
		CommonJS:     item.result.CommonJS,
		Rewritten:    item.result.CommonJS && item.result.Code != "" && item.result.Map != nil,
		Evidence:     evidence,
		Imports:      item.result.Imports,
		NamedExports: item.result.NamedExports,
		Reexports:    item.result.Reexports,
		Warnings:     item.result.Warnings,
	}
}

// collectInputs expands the input arguments into concrete file paths.
// Directories are walked recursively, skipping node_modules and dot
// directories; explicit files with an unrecognized extension are skipped with
// a warning rather than failing the run.
func collectInputs(rootPath string, inputs []string, cfg config.Config) ([]string, []string, error) {
	var files []string
	var warnings []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, input := range inputs {
		path := strings.TrimSpace(input)
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(rootPath, path)
		}
		path = filepath.Clean(path)

		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("input %s: %w", input, err)
		}
		if !info.IsDir() {
			if !cfg.RecognizesFile(path) {
				warnings = append(warnings, fmt.Sprintf("skipping %s: unrecognized extension", input))
				continue
			}
			add(path)
			continue
		}

		err = filepath.WalkDir(path, func(entry string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			name := d.Name()
			if d.IsDir() {
				if entry != path && (name == "node_modules" || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if cfg.RecognizesFile(entry) {
				add(entry)
			}
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("walk %s: %w", input, err)
		}
	}

	return files, warnings, nil
}

// writeOutputs mirrors the input tree under outDir, appending a
// sourceMappingURL comment and writing the sibling .map when a map was
// generated.
func writeOutputs(rootPath, outDir string, files []string, outcomes []outcome, emitMap bool) ([]string, error) {
	var warnings []string
	for i, path := range files {
		relPath := outputRelPath(rootPath, path)
		outPath := filepath.Join(outDir, relPath)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}

		code := outcomes[i].result.Code
		if emitMap && len(outcomes[i].result.Map) > 0 {
			mapPath := outPath + ".map"
			if err := os.WriteFile(mapPath, outcomes[i].result.Map, 0o644); err != nil {
				return nil, fmt.Errorf("write %s: %w", mapPath, err)
			}
			code += "\n//# sourceMappingURL=" + filepath.Base(mapPath) + "\n"
		} else if emitMap {
			warnings = append(warnings, fmt.Sprintf("%s: no source map generated", outcomes[i].id))
		}

		if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	return warnings, nil
}

// moduleID is the stable identifier for a file: its slash-separated path
// relative to the root, or the absolute path when it sits outside.
func moduleID(rootPath, path string) string {
	rel, err := filepath.Rel(rootPath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func outputRelPath(rootPath, path string) string {
	rel, err := filepath.Rel(rootPath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return filepath.Base(path)
	}
	return rel
}

func readInput(rootPath, path string) ([]byte, error) {
	rel, err := filepath.Rel(rootPath, path)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return safeio.ReadFileUnder(rootPath, path)
	}
	return safeio.ReadFile(path)
}
