package errs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Wrap prefixes err with msg. errors.Is/As still see the original.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// OpError names the operation and the record it was applied to, so callers can
// decide between retry, rollback and alerting without parsing messages.
type OpError struct {
	Op       string
	RecordID string
	Err      error
}

func (e *OpError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.RecordID, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Op attaches operation/record context to err.
func Op(op string, recordID string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, RecordID: recordID, Err: err}
}

// RecordID returns the innermost record id found in err's chain, if any.
func RecordID(err error) string {
	id := ""
	for e := err; e != nil; e = errors.Unwrap(e) {
		if op, ok := e.(*OpError); ok && op.RecordID != "" {
			id = op.RecordID
		}
	}
	return id
}

// WithStack records a stack trace once, at the root cause.
func WithStack(err error) error {
	if err == nil {
		return nil
	}

	var se *StackError
	if errors.As(err, &se) {
		return err
	}

	return &StackError{
		err:   err,
		stack: debug.Stack(),
	}
}

type StackError struct {
	err   error
	stack []byte
}

func (e *StackError) Error() string { return e.err.Error() }
func (e *StackError) Unwrap() error { return e.err }
func (e *StackError) Stack() []byte { return e.stack }

type loggable struct{ err error }

// Loggable renders err as a structured slog group:
//
//	slog.Any("err", errs.Loggable(err))
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.Any("chain", ErrorChainStrings(l.err)),
	}
	if id := RecordID(l.err); id != "" {
		attrs = append(attrs, slog.String("record_id", id))
	}

	var se *StackError
	if errors.As(l.err, &se) {
		attrs = append(attrs, slog.String("stack", string(se.Stack())))
	}

	return slog.GroupValue(attrs...)
}

// ErrorChainStrings lists the unwrap chain from outermost to innermost.
func ErrorChainStrings(err error) []string {
	if err == nil {
		return nil
	}

	out := make([]string, 0, 8)
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}
