// Package diag classifies and accumulates the errors produced while decoding
// and encoding TMD/TKL files.
package diag

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrMalformedContainer  = errors.New("malformed container")
	ErrUnweightedVertex    = errors.New("unweighted vertex")
	ErrPieceOverflow       = errors.New("piece overflow")
	ErrBoneMismatch        = errors.New("bone mismatch")
	ErrIncompleteKeyframes = errors.New("incomplete keyframes")
	ErrMissingCompanion    = errors.New("missing companion file")
	ErrIOPermission        = errors.New("output not writable")
	ErrKeyPoolOverflow     = errors.New("key pool overflow")
	ErrEmptyMesh           = errors.New("mesh has no faces")
	ErrMissingMaterial     = errors.New("mesh has no material")
)

var kinds = []error{
	ErrMalformedContainer,
	ErrUnweightedVertex,
	ErrPieceOverflow,
	ErrBoneMismatch,
	ErrIncompleteKeyframes,
	ErrMissingCompanion,
	ErrIOPermission,
	ErrKeyPoolOverflow,
	ErrEmptyMesh,
	ErrMissingMaterial,
}

// Error is a classified codec error. Op names the operation that failed,
// e.g. "tmd: decode header" or "partition: mesh body_LOD0_MESH1".
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds an *Error with a formatted cause.
func New(kind error, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. An err that already carries a kind keeps it.
func Wrap(kind error, op string, err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return &Error{Kind: de.Kind, Op: op, Err: de}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind err was classified with, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
