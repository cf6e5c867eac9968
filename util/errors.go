package util

import "fmt"

// Kind classifies the error families named by the core's error model: I/O
// failures, on-disk corruption, lock contention, caller misuse, missing
// pathways and missing files. AbortException has no Kind of its own; it
// never crosses a public API boundary (see AbortException).
type Kind int

const (
	KindIO Kind = iota
	KindCorruptIndex
	KindLockObtainFailed
	KindIllegalArgument
	KindUnsupportedOperation
	KindFileNotFound
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindCorruptIndex:
		return "CorruptIndex"
	case KindLockObtainFailed:
		return "LockObtainFailed"
	case KindIllegalArgument:
		return "IllegalArgument"
	case KindUnsupportedOperation:
		return "UnsupportedOperation"
	case KindFileNotFound:
		return "FileNotFound"
	default:
		return "Unknown"
	}
}

// Error is the typed error carried across package boundaries so that
// callers can recover the Kind with errors.As instead of string-matching.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Err: cause}
}

func IOError(msg string, cause error) error                 { return newErr(KindIO, msg, cause) }
func CorruptIndexError(msg string, cause error) error        { return newErr(KindCorruptIndex, msg, cause) }
func LockObtainFailedError(msg string) error                 { return newErr(KindLockObtainFailed, msg, nil) }
func IllegalArgumentError(msg string) error                  { return newErr(KindIllegalArgument, msg, nil) }
func UnsupportedOperationError(msg string) error             { return newErr(KindUnsupportedOperation, msg, nil) }
func FileNotFoundError(name string) error                    { return newErr(KindFileNotFound, "file not found: "+name, nil) }

// IsKind reports whether err (or one it wraps) carries the given Kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == k
}

// AbortException is the indexing chain's internal unwind sentinel (§7):
// a per-field or per-thread consumer reports it to signal the in-flight
// document must be discarded; it never escapes DocumentsWriter.AddDocument.
type AbortException struct {
	Cause error
}

func (a *AbortException) Error() string {
	if a.Cause == nil {
		return "abort"
	}
	return "abort: " + a.Cause.Error()
}

func (a *AbortException) Unwrap() error { return a.Cause }
