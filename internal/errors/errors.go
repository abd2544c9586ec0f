// Package errors implements the error taxonomy of the Shannon compiler
// and VM: a closed set of Kinds (spec §7), each carrying the source
// location that produced it and an optional wrapped cause.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind is one of the error kinds a ShannonError can carry.
type Kind string

const (
	Internal        Kind = "Internal"
	Duplicate       Kind = "Duplicate"
	NotFound        Kind = "NotFound"
	Parser          Kind = "Parser"
	System          Kind = "System"
	InvalidSubrange Kind = "InvalidSubrange"
	NoContext       Kind = "NoContext"
	RuntimeAssert   Kind = "RuntimeAssert"
)

// Location is a position in a source file.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ShannonError is the single error type surfaced by every layer of the
// compiler and VM. Code is only meaningful for Kind == Internal.
type ShannonError struct {
	Kind     Kind
	Message  string
	Code     int
	Location Location
	cause    error
}

func (e *ShannonError) Error() string {
	var sb strings.Builder
	if e.Kind == Internal && e.Code != 0 {
		fmt.Fprintf(&sb, "internal error %d: %s", e.Code, e.Message)
	} else {
		fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Message)
	}
	if e.Location.Line > 0 || e.Location.File != "" {
		fmt.Fprintf(&sb, " (at %s)", e.Location)
	}
	if e.cause != nil {
		fmt.Fprintf(&sb, ": %s", e.cause)
	}
	return sb.String()
}

// Unwrap lets errors.Is / errors.As from the standard library walk to
// the wrapped cause.
func (e *ShannonError) Unwrap() error { return e.cause }

// Cause returns the wrapped error, if any, matching pkg/errors'
// convention so callers can walk the chain with pkgerrors.Cause.
func (e *ShannonError) Cause() error { return e.cause }

func newErr(kind Kind, loc Location, format string, args ...interface{}) *ShannonError {
	return &ShannonError{Kind: kind, Message: fmt.Sprintf(format, args...), Location: loc}
}

// New creates an error of the given kind at the given location.
func New(kind Kind, loc Location, format string, args ...interface{}) *ShannonError {
	return newErr(kind, loc, format, args...)
}

// Wrap attaches loc and kind to an underlying cause, using pkg/errors to
// preserve a stack trace for Internal errors — the only kind that is a
// genuine programming-bug report rather than a user-facing diagnostic.
func Wrap(kind Kind, loc Location, cause error, format string, args ...interface{}) *ShannonError {
	e := newErr(kind, loc, format, args...)
	if kind == Internal {
		e.cause = pkgerrors.WithStack(cause)
	} else {
		e.cause = cause
	}
	return e
}

// Internalf raises an Internal error carrying a numeric code, mirroring
// the original compiler's `error(code)` assertions (e.g. code 15 for
// "enum too large", spec §8 S2).
func Internalf(code int, format string, args ...interface{}) *ShannonError {
	return &ShannonError{Kind: Internal, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Duplicatef reports a symbol redefinition at loc.
func Duplicatef(loc Location, name string) *ShannonError {
	return newErr(Duplicate, loc, "duplicate identifier %q", name)
}

// NotFoundf reports an unresolved identifier. The compiler package
// reports unknown identifiers with its own Parser-kind error and does
// not call this.
func NotFoundf(loc Location, name string) *ShannonError {
	return newErr(NotFound, loc, "identifier not found: %q", name)
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	se, ok := err.(*ShannonError)
	return ok && se.Kind == NotFound
}

// IsInvalidSubrange reports whether err is an InvalidSubrange error.
func IsInvalidSubrange(err error) bool {
	se, ok := err.(*ShannonError)
	return ok && se.Kind == InvalidSubrange
}

// Parserf reports a lexical or syntactic error.
func Parserf(loc Location, format string, args ...interface{}) *ShannonError {
	return newErr(Parser, loc, format, args...)
}

// Systemf reports an OS-level I/O error.
func Systemf(file string, cause error) *ShannonError {
	return Wrap(System, Location{File: file}, cause, "%s", cause.Error())
}
