package logic

import (
	"errors"
	"fmt"
)

// Category says how the controller reacts to a failed operation.
type Category string

const (
	// Transient failures are logged and retried on the next tick.
	Transient Category = "TRANSIENT"
	// Degraded failures are logged and the controller carries on.
	Degraded Category = "DEGRADED"
	// Fatal failures latch the controller until the operator resets it.
	Fatal Category = "FATAL"
)

// Fault is a categorized operation failure.
type Fault struct {
	Category Category
	Op       string
	Err      error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// NewFault wraps err with a category. A nil err returns nil.
func NewFault(c Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Fault{Category: c, Op: op, Err: err}
}

// CategoryOf returns the category of the outermost Fault in err's chain.
// Uncategorized errors are Transient.
func CategoryOf(err error) Category {
	var f *Fault
	if errors.As(err, &f) {
		return f.Category
	}
	return Transient
}

// IsFatal reports whether err carries a Fatal fault.
func IsFatal(err error) bool {
	return err != nil && CategoryOf(err) == Fatal
}
