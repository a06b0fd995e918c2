package services

import (
	"errors"
	"strings"
)

// Kinds of failure. Every *Error carries exactly one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrTransient     = errors.New("transient failure")
)

// Exit codes reported by the CLI.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// Error is a classified failure from one step of a command.
type Error struct {
	Kind   error
	Stage  string
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.kind().Error())
	b.WriteString(": ")
	wrote := false
	for _, part := range []string{e.Stage, e.Op, e.Detail} {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		if wrote {
			b.WriteString(": ")
		}
		b.WriteString(part)
		wrote = true
	}
	if !wrote {
		b.WriteString("service failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.kind()}
	}
	return []error{e.kind(), e.Err}
}

func (e *Error) kind() error {
	if e.Kind == nil {
		return ErrTransient
	}
	return e.Kind
}

// Wrap classifies err under kind, recording where it happened. A nil kind
// means ErrTransient. err may be nil when the detail says it all.
func Wrap(kind error, stage, operation, detail string, err error) error {
	if kind == nil {
		kind = ErrTransient
	}
	return &Error{Kind: kind, Stage: stage, Op: operation, Detail: detail, Err: err}
}

// ExitCode maps a command error to the process exit status. Problems the user
// can fix in their config or arguments exit with ExitUsage.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrValidation) {
		return ExitUsage
	}
	return ExitFailure
}
