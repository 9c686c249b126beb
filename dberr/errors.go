// Package dberr defines the structured error taxonomy surfaced by every
// storage-core component, per spec §6/§7: a Kind plus enough context
// (operation, path, ids) to act on without string-matching messages.
package dberr

import "fmt"

// Kind classifies a storage-core error. Callers should switch on Kind (or
// use Is) rather than inspect Error().
type Kind int

const (
	Internal Kind = iota
	Unix
	FileExists
	FileNotFound
	FileNotClosed
	FileNotOpen
	PageNotExist
	RecordNotFound
	DatabaseExists
	DatabaseNotFound
	TableExists
	TableNotFound
	ColumnNotFound
	IndexExists
	IndexNotFound
)

func (k Kind) String() string {
	switch k {
	case Unix:
		return "Unix"
	case FileExists:
		return "FileExists"
	case FileNotFound:
		return "FileNotFound"
	case FileNotClosed:
		return "FileNotClosed"
	case FileNotOpen:
		return "FileNotOpen"
	case PageNotExist:
		return "PageNotExist"
	case RecordNotFound:
		return "RecordNotFound"
	case DatabaseExists:
		return "DatabaseExists"
	case DatabaseNotFound:
		return "DatabaseNotFound"
	case TableExists:
		return "TableExists"
	case TableNotFound:
		return "TableNotFound"
	case ColumnNotFound:
		return "ColumnNotFound"
	case IndexExists:
		return "IndexExists"
	case IndexNotFound:
		return "IndexNotFound"
	default:
		return "Internal"
	}
}

// Error is the concrete error type every storage-core package returns.
type Error struct {
	Kind Kind
	Op   string // e.g. "disk.OpenFile", "record.GetRecord"
	Path string // file path or table name, when relevant
	Err  error  // wrapped cause, e.g. the underlying os error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Path != "":
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, path string) error {
	return &Error{Kind: kind, Op: op, Path: path}
}

// Wrap builds an *Error around an underlying cause (typically from os/io).
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf extracts the Kind from err, or Internal if err is not a *Error.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
