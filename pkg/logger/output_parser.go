package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// OutputLines holds the first and last lines of a command's output.
type OutputLines struct {
	HeadLines []string `json:"head_lines"`
	TailLines []string `json:"tail_lines"`
}

// ParseOutputLines splits output into lines and keeps at most maxLines from each end.
// When the whole output fits, TailLines is left empty.
func ParseOutputLines(output string, maxLines int) OutputLines {
	if maxLines <= 0 {
		maxLines = 5
	}

	output = strings.ReplaceAll(output, "\r\n", "\n")
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return OutputLines{}
	}
	lines := strings.Split(output, "\n")

	if len(lines) <= maxLines {
		return OutputLines{HeadLines: lines}
	}

	// overlapping windows are fine, the log line is only a hint
	tailStart := len(lines) - maxLines
	return OutputLines{
		HeadLines: append([]string(nil), lines[:maxLines]...),
		TailLines: append([]string(nil), lines[tailStart:]...),
	}
}

// FormatOutputLines renders lines for a single log entry.
func FormatOutputLines(lines OutputLines) string {
	var parts []string
	if len(lines.HeadLines) > 0 {
		parts = append(parts, "head-lines: ["+strings.Join(lines.HeadLines, " ⟩ ")+"]")
	}
	if len(lines.TailLines) > 0 {
		parts = append(parts, "tail-lines: ["+strings.Join(lines.TailLines, " ⟩ ")+"]")
	}
	return strings.Join(parts, ", ")
}

// DebugCommandOutput logs the head and tail of an external command's output at debug level.
func DebugCommandOutput(command string, output string, maxLines int) {
	if GetLogger().Level < logrus.DebugLevel {
		return
	}
	lines := ParseOutputLines(output, maxLines)
	if len(lines.HeadLines) == 0 {
		return
	}
	WithFields(logrus.Fields{
		"command": command,
		"bytes":   len(output),
	}).Debugf("command output %s", FormatOutputLines(lines))
}
