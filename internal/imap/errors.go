package imap

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected      = errors.New("not connected")
	ErrNoMailboxSelected = errors.New("no mailbox selected")
)

// ConnectionError reports a session that could not be established.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to IMAP server %s: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DriverError reports a failed mailbox or fetch operation.
type DriverError struct {
	Op  string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("cannot %s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// MailboxListError reports a failed LIST.
type MailboxListError struct {
	Err error
}

func (e *MailboxListError) Error() string {
	return fmt.Sprintf("cannot get mailboxes from server: %v", e.Err)
}

func (e *MailboxListError) Unwrap() error { return e.Err }

// MailboxSwitchError reports a failed flush or reopen while changing the
// selected mailbox.
type MailboxSwitchError struct {
	Mailbox string
	Err     error
}

func (e *MailboxSwitchError) Error() string {
	return fmt.Sprintf("cannot switch to mailbox '%s': %v", e.Mailbox, e.Err)
}

func (e *MailboxSwitchError) Unwrap() error { return e.Err }

// SearchError reports a failed sorted search.
type SearchError struct {
	Predicate string
	Err       error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("cannot get mails: %v", e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// UnsupportedSearchKeyError reports a search key the transport cannot put on
// the wire.
type UnsupportedSearchKeyError struct {
	Key string
}

func (e *UnsupportedSearchKeyError) Error() string {
	return fmt.Sprintf("search key %s is not supported by this server connection", e.Key)
}
