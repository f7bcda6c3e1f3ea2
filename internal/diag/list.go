package diag

import (
	"errors"
	"fmt"
)

// List is an ordered collection of classified errors. Its zero value is an
// empty list ready to use.
type List []*Error

// Add appends e to the list.
func (l *List) Add(e *Error) {
	*l = append(*l, e)
}

func (l List) Len() int { return len(l) }

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// Unwrap exposes the entries to errors.Is and errors.As.
func (l List) Unwrap() []error {
	out := make([]error, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// Err returns the list as an error, or nil when it is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Filter returns the entries classified as kind.
func (l List) Filter(kind error) List {
	var out List
	for _, e := range l {
		if errors.Is(e, kind) {
			out = append(out, e)
		}
	}
	return out
}
