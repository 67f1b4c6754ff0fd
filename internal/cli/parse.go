package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/unwrapjs/unwrap/internal/app"
	"github.com/unwrapjs/unwrap/internal/report"
)

var ErrHelpRequested = errors.New("help requested")

func ParseArgs(args []string) (app.Request, error) {
	req := app.DefaultRequest()
	if len(args) == 0 {
		return req, ErrHelpRequested
	}

	if isHelpArg(args[0]) {
		return req, ErrHelpRequested
	}

	switch args[0] {
	case "transform":
		return parseRun(args[1:], req, app.ModeTransform)
	case "exports":
		return parseRun(args[1:], req, app.ModeExports)
	default:
		return req, fmt.Errorf("unknown command: %s", args[0])
	}
}

func parseRun(args []string, req app.Request, mode app.Mode) (app.Request, error) {
	args = normalizeArgs(args)

	fs := flag.NewFlagSet(string(mode), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	rootPath := fs.String("root", req.RootPath, "project root path")
	configPath := fs.String("config", req.Transform.ConfigPath, "config file path")
	formatFlag := fs.String("format", string(req.Transform.Format), "report format")
	globalPolicy := fs.String("global-policy", "", "global reference policy")
	outDir := fs.String("out-dir", "", "output directory")
	emitMap := fs.Bool("map", false, "emit source maps")
	jobs := fs.Int("jobs", req.Transform.Jobs, "parallel workers")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return req, ErrHelpRequested
		}
		return req, err
	}

	if *jobs < 0 {
		return req, fmt.Errorf("--jobs must be >= 0")
	}
	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		return req, err
	}
	switch strings.TrimSpace(*globalPolicy) {
	case "", "rewrite", "ignore":
	default:
		return req, fmt.Errorf("--global-policy must be rewrite or ignore")
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		return req, fmt.Errorf("missing input file or directory")
	}
	if mode == app.ModeExports && (*outDir != "" || *emitMap) {
		return req, fmt.Errorf("--out-dir and --map only apply to transform")
	}

	req.Mode = mode
	req.RootPath = strings.TrimSpace(*rootPath)
	req.Transform = app.TransformRequest{
		Inputs:       inputs,
		ConfigPath:   strings.TrimSpace(*configPath),
		Format:       format,
		GlobalPolicy: strings.TrimSpace(*globalPolicy),
		OutDir:       strings.TrimSpace(*outDir),
		EmitMap:      *emitMap,
		Jobs:         *jobs,
	}

	return req, nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

// normalizeArgs reorders interleaved flags ahead of positionals so the
// standard flag package parses all of them.
func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	flags := make([]string, 0, len(args))
	positionals := make([]string, 0, len(args))
	sawTerminator := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			sawTerminator = true
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			if flagNeedsValue(arg) && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positionals = append(positionals, arg)
	}

	// The terminator must sit ahead of every positional so the flag package
	// stops flag parsing there instead of treating a dash-prefixed input as
	// an undefined flag.
	if sawTerminator {
		flags = append(flags, "--")
	}
	return append(flags, positionals...)
}

func flagNeedsValue(arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	switch arg {
	case "--root", "--config", "--format", "--global-policy", "--out-dir", "--jobs":
		return true
	default:
		return false
	}
}
