package connection

import "fmt"

// InvalidDriverError reports a driver factory that failed or produced no
// driver.
type InvalidDriverError struct {
	Err error
}

func (e *InvalidDriverError) Error() string {
	if e.Err == nil {
		return "invalid driver: factory returned no driver"
	}
	return fmt.Sprintf("invalid driver: %v", e.Err)
}

func (e *InvalidDriverError) Unwrap() error { return e.Err }

// InvalidMailboxNameError reports a lookup of a mailbox the server did not
// list.
type InvalidMailboxNameError struct {
	Name string
}

func (e *InvalidMailboxNameError) Error() string {
	return fmt.Sprintf("mailbox '%s' not found", e.Name)
}
