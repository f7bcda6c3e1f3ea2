package diag

import "errors"

// Logger receives a line for every reported error and every progress note.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(format string, args ...any)

func (f LoggerFunc) Printf(format string, args ...any) { f(format, args...) }

// Collector accumulates the errors of one top-level decode or encode call.
// It is not safe for concurrent use; every call gets its own.
type Collector struct {
	errs List
	log  Logger
}

// NewCollector returns an empty collector that echoes to log (may be nil).
func NewCollector(log Logger) *Collector {
	return &Collector{log: log}
}

// Report records e and logs it. A nil Collector discards everything.
func (c *Collector) Report(e *Error) {
	if c == nil {
		return
	}
	c.errs.Add(e)
	if c.log != nil {
		c.log.Printf("%v\n", e)
	}
}

// Reportf records a new error of the given kind.
func (c *Collector) Reportf(kind error, op, format string, args ...any) {
	c.Report(New(kind, op, format, args...))
}

// ReportErr records err, keeping its kind when it already has one.
func (c *Collector) ReportErr(kind error, op string, err error) {
	if err == nil {
		return
	}
	var l List
	if errors.As(err, &l) {
		for _, e := range l {
			c.Report(e)
		}
		return
	}
	c.Report(Wrap(kind, op, err))
}

// Logf writes a progress note without recording an error.
func (c *Collector) Logf(format string, args ...any) {
	if c != nil && c.log != nil {
		c.log.Printf(format, args...)
	}
}

// Errors returns everything reported so far.
func (c *Collector) Errors() List {
	if c == nil {
		return nil
	}
	return c.errs
}

// Err returns the accumulated errors, or nil if none were reported.
func (c *Collector) Err() error { return c.Errors().Err() }

// Has reports whether an error of the given kind was recorded.
func (c *Collector) Has(kind error) bool {
	return len(c.Errors().Filter(kind)) > 0
}
