package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
)

type Formatter struct{}

func NewFormatter() Formatter {
	return Formatter{}
}

func (f Formatter) Format(report Report, format Format) (string, error) {
	switch format {
	case FormatTable:
		return formatTable(report), nil
	case FormatJSON:
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", err
		}
		return string(payload) + "\n", nil
	default:
		return "", ErrUnknownFormat
	}
}

func formatTable(report Report) string {
	if len(report.Modules) == 0 {
		var buffer bytes.Buffer
		buffer.WriteString("No modules to report.\n")
		appendWarnings(&buffer, report)
		return buffer.String()
	}

	var buffer bytes.Buffer
	appendSummary(&buffer, report.Summary)

	writer := tabwriter.NewWriter(&buffer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(writer, "Module\tKind\tImports\tNamed Exports\tEvidence")
	for _, module := range report.Modules {
		_, _ = fmt.Fprintln(writer, formatModuleRow(module))
	}
	_ = writer.Flush()

	appendWarnings(&buffer, report)
	return buffer.String()
}

func appendSummary(buffer *bytes.Buffer, summary *Summary) {
	if summary == nil {
		return
	}
	_, _ = fmt.Fprintf(
		buffer,
		"Summary: %d modules, CommonJS: %d, rewritten: %d, named exports: %d\n\n",
		summary.ModuleCount,
		summary.CommonJSCount,
		summary.RewrittenCount,
		summary.NamedExportCount,
	)
}

func formatModuleRow(module ModuleReport) string {
	columns := []string{
		module.Path,
		formatKind(module),
		formatCount(len(module.Imports)),
		formatNames(module.NamedExports),
		formatNames(module.Evidence),
	}
	return strings.Join(columns, "\t")
}

func formatKind(module ModuleReport) string {
	switch {
	case module.Rewritten:
		return "commonjs"
	case module.CommonJS:
		return "commonjs (unmodified)"
	default:
		return "es-module"
	}
}

func formatCount(count int) string {
	if count == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", count)
}

const maxNamesPerCell = 6

func formatNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	if len(names) > maxNamesPerCell {
		return strings.Join(names[:maxNamesPerCell], ", ") + fmt.Sprintf(" (+%d)", len(names)-maxNamesPerCell)
	}
	return strings.Join(names, ", ")
}

func appendWarnings(buffer *bytes.Buffer, report Report) {
	if len(report.Warnings) == 0 {
		return
	}
	buffer.WriteString("\nWarnings:\n")
	for _, warning := range report.Warnings {
		buffer.WriteString("- ")
		buffer.WriteString(warning)
		buffer.WriteString("\n")
	}
}
