package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // binary bundle to Bundle
	PhaseEncode   Phase = "encode"   // Bundle to binary
	PhaseValidate Phase = "validate" // structural validation
	PhaseLoad     Phase = "load"     // bundle loading into a tree
	PhaseTree     Phase = "tree"     // element tree operations
	PhaseState    Phase = "state"    // reactive state store
	PhaseDispatch Phase = "dispatch" // event queue and dispatch
	PhaseLayout   Phase = "layout"   // layout pass
	PhaseRender   Phase = "render"   // draw intent emission
	PhaseAlloc    Phase = "alloc"    // block allocator
	PhaseRuntime  Phase = "runtime"  // driver loop
	PhaseScript   Phase = "script"   // function-reference host
)

// Kind categorizes the error
type Kind string

const (
	KindBadMagic        Kind = "bad_magic"
	KindVersionMismatch Kind = "version_mismatch"
	KindChecksum        Kind = "checksum"
	KindSizeLimit       Kind = "size_limit"
	KindSizeMismatch    Kind = "size_mismatch"
	KindUnknownTag      Kind = "unknown_tag"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindInvalidData     Kind = "invalid_data"
	KindUnsupported     Kind = "unsupported"
	KindInvalidHandle   Kind = "invalid_handle"
	KindCyclicReference Kind = "cyclic_reference"
	KindLifecycle       Kind = "lifecycle"
	KindNotFound        Kind = "not_found"
	KindTypeMismatch    Kind = "type_mismatch"
	KindQueueFull       Kind = "queue_full"
	KindOutOfMemory     Kind = "out_of_memory"
	KindDoubleFree      Kind = "double_free"
	KindLeak            Kind = "leak"
	KindReentrantWrite  Kind = "reentrant_write"
	KindInvalidInput    Kind = "invalid_input"
	KindNotInitialized  Kind = "not_initialized"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BadMagic creates a magic number mismatch error
func BadMagic(got, want uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadMagic,
		Detail: fmt.Sprintf("magic 0x%08X, want 0x%08X", got, want),
		Value:  got,
	}
}

// VersionMismatch creates a major version incompatibility error
func VersionMismatch(got, want string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindVersionMismatch,
		Detail: fmt.Sprintf("bundle version %s incompatible with %s", got, want),
		Value:  got,
	}
}

// Checksum creates a checksum mismatch error
func Checksum(computed, stored uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindChecksum,
		Detail: fmt.Sprintf("computed 0x%08X, header says 0x%08X", computed, stored),
	}
}

// SizeLimit creates a declared-size-over-limit error
func SizeLimit(what string, declared, limit uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindSizeLimit,
		Detail: fmt.Sprintf("%s count %d exceeds limit %d", what, declared, limit),
		Value:  declared,
	}
}

// SizeMismatch creates a header-count-vs-payload error
func SizeMismatch(phase Phase, what string, declared, actual int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSizeMismatch,
		Detail: fmt.Sprintf("header declares %d %s, found %d", declared, what, actual),
	}
}

// UnknownTag creates an unrecognized type tag error
func UnknownTag(what string, tag uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownTag,
		Detail: fmt.Sprintf("unknown %s tag 0x%02X", what, tag),
		Value:  tag,
	}
}

// OutOfBounds creates an index out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Unsupported creates an unsupported capability error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidHandle creates an error for operations on dead or foreign handles
func InvalidHandle(phase Phase, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("invalid handle %v", handle),
		Value:  handle,
	}
}

// CyclicReference creates a parent cycle error
func CyclicReference(phase Phase, id uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCyclicReference,
		Detail: fmt.Sprintf("element %d is its own ancestor", id),
		Value:  id,
	}
}

// Lifecycle creates an illegal lifecycle transition error
func Lifecycle(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseTree,
		Kind:   KindLifecycle,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// TypeMismatch creates a value type mismatch error
func TypeMismatch(phase Phase, path []string, got, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("got %s, want %s", got, want),
	}
}

// QueueFull creates a bounded queue overflow error
func QueueFull(capacity int) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindQueueFull,
		Detail: fmt.Sprintf("event queue full (capacity %d)", capacity),
	}
}

// OutOfMemory creates a pool exhaustion error
func OutOfMemory(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindOutOfMemory,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Leak creates a shutdown leak report error
func Leak(count int, bytes uint64) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindLeak,
		Detail: fmt.Sprintf("%d allocations (%d bytes) still live at close", count, bytes),
	}
}

// DoubleFree creates an already-freed error
func DoubleFree(ref any) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindDoubleFree,
		Detail: fmt.Sprintf("ref %v is not live", ref),
		Value:  ref,
	}
}

// ReentrantWrite creates a write-during-notify overflow error
func ReentrantWrite(path string) *Error {
	return &Error{
		Phase:  PhaseState,
		Kind:   KindReentrantWrite,
		Detail: fmt.Sprintf("deferred write loop did not settle at %q", path),
	}
}

// NotInitialized creates a not-initialized error for a missing component
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a bundle loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
