package lock

import "fmt"

// StoreError is a failed credential store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("lock: %s credential: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
