package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/unwrapjs/unwrap/internal/app"
	"github.com/unwrapjs/unwrap/internal/report"
)

func TestParseArgsNoArgsShowsHelp(t *testing.T) {
	if _, err := ParseArgs(nil); !errors.Is(err, ErrHelpRequested) {
		t.Fatalf("expected help request, got %v", err)
	}
}

func TestParseArgsHelp(t *testing.T) {
	for _, arg := range []string{"-h", "--help", "help"} {
		if _, err := ParseArgs([]string{arg}); !errors.Is(err, ErrHelpRequested) {
			t.Fatalf("expected help request for %q, got %v", arg, err)
		}
	}
}

func TestParseArgsUnknownCommand(t *testing.T) {
	_, err := ParseArgs([]string{"bundle"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseTransformDefaults(t *testing.T) {
	req, err := ParseArgs([]string{"transform", "src/legacy.js"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Mode != app.ModeTransform {
		t.Fatalf("expected transform mode, got %q", req.Mode)
	}
	if len(req.Transform.Inputs) != 1 || req.Transform.Inputs[0] != "src/legacy.js" {
		t.Fatalf("expected input recorded, got %v", req.Transform.Inputs)
	}
	if req.RootPath != "." {
		t.Fatalf("expected default root, got %q", req.RootPath)
	}
	if req.Transform.Format != report.FormatTable {
		t.Fatalf("expected table format default, got %q", req.Transform.Format)
	}
}

func TestParseTransformAllFlags(t *testing.T) {
	req, err := ParseArgs([]string{
		"transform", "src", "vendor",
		"--root", "/repo",
		"--config", "custom.yml",
		"--format", "json",
		"--global-policy", "ignore",
		"--out-dir", "dist",
		"--map",
		"--jobs", "4",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.RootPath != "/repo" {
		t.Fatalf("expected root flag, got %q", req.RootPath)
	}
	if req.Transform.ConfigPath != "custom.yml" {
		t.Fatalf("expected config flag, got %q", req.Transform.ConfigPath)
	}
	if req.Transform.Format != report.FormatJSON {
		t.Fatalf("expected json format, got %q", req.Transform.Format)
	}
	if req.Transform.GlobalPolicy != "ignore" {
		t.Fatalf("expected ignore policy, got %q", req.Transform.GlobalPolicy)
	}
	if req.Transform.OutDir != "dist" {
		t.Fatalf("expected out-dir flag, got %q", req.Transform.OutDir)
	}
	if !req.Transform.EmitMap {
		t.Fatalf("expected map flag set")
	}
	if req.Transform.Jobs != 4 {
		t.Fatalf("expected jobs flag, got %d", req.Transform.Jobs)
	}
	if len(req.Transform.Inputs) != 2 {
		t.Fatalf("expected two inputs, got %v", req.Transform.Inputs)
	}
}

func TestParseTransformInterleavedFlags(t *testing.T) {
	req, err := ParseArgs([]string{"transform", "src", "--map", "more", "--jobs", "2"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(req.Transform.Inputs) != 2 || req.Transform.Inputs[1] != "more" {
		t.Fatalf("expected interleaved positionals collected, got %v", req.Transform.Inputs)
	}
	if !req.Transform.EmitMap || req.Transform.Jobs != 2 {
		t.Fatalf("expected flags parsed, got %+v", req.Transform)
	}
}

func TestParseTransformMissingInput(t *testing.T) {
	_, err := ParseArgs([]string{"transform", "--map"})
	if err == nil || !strings.Contains(err.Error(), "missing input") {
		t.Fatalf("expected missing input error, got %v", err)
	}
}

func TestParseTransformBadFormat(t *testing.T) {
	if _, err := ParseArgs([]string{"transform", "src", "--format", "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestParseTransformBadPolicy(t *testing.T) {
	_, err := ParseArgs([]string{"transform", "src", "--global-policy", "maybe"})
	if err == nil || !strings.Contains(err.Error(), "global-policy") {
		t.Fatalf("expected policy error, got %v", err)
	}
}

func TestParseTransformNegativeJobs(t *testing.T) {
	if _, err := ParseArgs([]string{"transform", "src", "--jobs", "-1"}); err == nil {
		t.Fatalf("expected jobs error")
	}
}

func TestParseExports(t *testing.T) {
	req, err := ParseArgs([]string{"exports", "src", "--format", "json"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Mode != app.ModeExports {
		t.Fatalf("expected exports mode, got %q", req.Mode)
	}
	if req.Transform.Format != report.FormatJSON {
		t.Fatalf("expected json format, got %q", req.Transform.Format)
	}
}

func TestParseExportsRejectsTransformFlags(t *testing.T) {
	_, err := ParseArgs([]string{"exports", "src", "--out-dir", "dist"})
	if err == nil || !strings.Contains(err.Error(), "only apply to transform") {
		t.Fatalf("expected flag scope error, got %v", err)
	}
	if _, err := ParseArgs([]string{"exports", "src", "--map"}); err == nil {
		t.Fatalf("expected flag scope error for --map")
	}
}

func TestParseTransformDoubleDash(t *testing.T) {
	req, err := ParseArgs([]string{"transform", "--map", "--", "--weird-file.js"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(req.Transform.Inputs) != 1 || req.Transform.Inputs[0] != "--weird-file.js" {
		t.Fatalf("expected literal positional after --, got %v", req.Transform.Inputs)
	}
}

func TestParseTransformDoubleDashAfterPositional(t *testing.T) {
	req, err := ParseArgs([]string{"transform", "a.js", "--", "--weird-file.js"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"a.js", "--weird-file.js"}
	if len(req.Transform.Inputs) != len(want) {
		t.Fatalf("expected inputs %v, got %v", want, req.Transform.Inputs)
	}
	for i, input := range want {
		if req.Transform.Inputs[i] != input {
			t.Fatalf("expected inputs %v, got %v", want, req.Transform.Inputs)
		}
	}
}
