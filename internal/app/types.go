package app

import (
	"runtime"

	"github.com/unwrapjs/unwrap/internal/report"
)

type Mode string

const (
	ModeTransform Mode = "transform"
	ModeExports   Mode = "exports"
)

type Request struct {
	Mode      Mode
	RootPath  string
	Transform TransformRequest
}

type TransformRequest struct {
	// Inputs are files or directories, resolved against RootPath.
	Inputs []string

	ConfigPath   string
	Format       report.Format
	GlobalPolicy string
	OutDir       string
	EmitMap      bool
	Jobs         int
}

func DefaultRequest() Request {
	return Request{
		Mode:     ModeTransform,
		RootPath: ".",
		Transform: TransformRequest{
			Format: report.FormatTable,
			Jobs:   runtime.NumCPU(),
		},
	}
}
