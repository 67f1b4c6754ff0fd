// Package report renders transform results for humans and machines.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

const SchemaVersion = "0.1.0"

var ErrUnknownFormat = errors.New("unknown format")

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
	}
}

type Report struct {
	SchemaVersion string         `json:"schemaVersion"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	RootPath      string         `json:"rootPath"`
	Modules       []ModuleReport `json:"modules"`
	Summary       *Summary       `json:"summary,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}

type ModuleReport struct {
	Path         string   `json:"path"`
	CommonJS     bool     `json:"commonJs"`
	Rewritten    bool     `json:"rewritten"`
	Evidence     []string `json:"evidence,omitempty"`
	Imports      []string `json:"imports,omitempty"`
	NamedExports []string `json:"namedExports,omitempty"`
	Reexports    []string `json:"reexports,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

type Summary struct {
	ModuleCount      int `json:"moduleCount"`
	CommonJSCount    int `json:"commonJsCount"`
	RewrittenCount   int `json:"rewrittenCount"`
	NamedExportCount int `json:"namedExportCount"`
	WarningCount     int `json:"warningCount"`
}

// Summarize fills in the aggregate counts from the module rows.
func Summarize(modules []ModuleReport) *Summary {
	summary := &Summary{ModuleCount: len(modules)}
	for _, module := range modules {
		if module.CommonJS {
			summary.CommonJSCount++
		}
		if module.Rewritten {
			summary.RewrittenCount++
		}
		summary.NamedExportCount += len(module.NamedExports)
		summary.WarningCount += len(module.Warnings)
	}
	return summary
}
