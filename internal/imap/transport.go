package imap

import (
	"fmt"

	"github.com/bscott/maillib/internal/message"
)

// Security selects how the transport secures the connection.
type Security string

const (
	SecurityTLS      Security = "tls"
	SecuritySTARTTLS Security = "starttls"
	SecurityNone     Security = "none"
)

// ServerSpec describes the server a transport opens.
type ServerSpec struct {
	Host               string
	Port               int
	Security           Security
	Auth               string
	InsecureSkipVerify bool
}

// Addr returns host:port.
func (s ServerSpec) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Reference returns the mailbox reference string that prefixes fully
// qualified folder names, e.g. {imap.example.com:993/imap/ssl}.
func (s ServerSpec) Reference() string {
	flags := "/imap"
	switch s.Security {
	case SecurityTLS:
		flags += "/ssl"
	case SecuritySTARTTLS:
		flags += "/tls"
	case SecurityNone:
		flags += "/notls"
	}
	if s.InsecureSkipVerify {
		flags += "/novalidate-cert"
	}
	return "{" + s.Addr() + flags + "}"
}

func (s ServerSpec) String() string {
	return s.Reference()
}

// Transport is the protocol engine a Session drives. Folder names crossing
// this interface are raw modified UTF-7. Calls are made strictly one at a
// time.
type Transport interface {
	Open(server ServerSpec, username, password string) error
	ListFolders(reference, pattern string) ([]string, error)
	CreateFolder(raw string) error
	RenameFolder(from, to string) error
	DeleteFolder(raw string) error
	Reopen(raw string) error
	Expunge() error
	SortByArrival(predicate, charset string) ([]uint32, error)
	FetchHeaderBlock(uid uint32) ([]byte, error)
	FetchStructure(uid uint32) (*message.Part, error)
	FetchBody(uid uint32, partID string, peek bool) ([]byte, error)
	Close() error
}
