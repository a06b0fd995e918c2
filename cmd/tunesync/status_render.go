package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = [...]struct {
	label string
	color text.Color
}{
	statusInfo:  {"INFO", text.FgBlue},
	statusOK:    {"OK", text.FgGreen},
	statusWarn:  {"WARN", text.FgYellow},
	statusError: {"ERROR", text.FgRed},
}

func (k statusKind) String() string {
	if k < 0 || int(k) >= len(statusStyles) {
		return statusStyles[statusInfo].label
	}
	return statusStyles[k].label
}

// paint wraps s in k's color. The escape sequences are emitted directly so
// the caller alone decides whether the output is a terminal.
func (k statusKind) paint(s string) string {
	if k < 0 || int(k) >= len(statusStyles) {
		k = statusInfo
	}
	return text.Colors{statusStyles[k].color}.EscapeSeq() + s + text.Reset.EscapeSeq()
}

// statusLabelWidth fits the longest label plus its colon.
const statusLabelWidth = 20

// statusLine is one labelled line of the status report.
type statusLine struct {
	Label   string     `json:"label"`
	Kind    statusKind `json:"-"`
	State   string     `json:"state"`
	Message string     `json:"message,omitempty"`
}

func newStatusLine(label string, kind statusKind, message string) statusLine {
	return statusLine{Label: label, Kind: kind, State: strings.ToLower(kind.String()), Message: message}
}

func renderStatusLine(line statusLine, colorize bool) string {
	rendered := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, line.Label+":", line.Kind)
	if line.Message != "" {
		rendered += " " + line.Message
	}
	if colorize {
		return line.Kind.paint(rendered)
	}
	return rendered
}

// renderSectionHeader returns the title line and an underline of equal width.
func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", text.StringWidthWithoutEscSequences(heading))
	if colorize {
		return []string{statusInfo.paint(heading), statusInfo.paint(rule)}
	}
	return []string{heading, rule}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
