package message

import (
	"strings"
)

// UnknownHost stands in for the domain of an address that has none.
const UnknownHost = "UNKNOWN_HOST"

// Contact is one parsed address from a To, From, Cc or Bcc header.
type Contact struct {
	Mailbox string `json:"mailbox"`
	Host    string `json:"host"`
	Name    string `json:"name,omitempty"`
	ADL     string `json:"adl,omitempty"`
}

// Address returns mailbox@host.
func (c Contact) Address() string {
	if c.Host == "" {
		return c.Mailbox
	}
	return c.Mailbox + "@" + c.Host
}

func (c Contact) String() string {
	if c.Name != "" {
		return c.Name + " <" + c.Address() + ">"
	}
	return c.Address()
}

// ContactList keeps contacts in the order they appeared in the header.
type ContactList []Contact

func (l ContactList) String() string {
	parts := make([]string, len(l))
	for i, c := range l {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Addresses returns the mailbox@host form of every contact.
func (l ContactList) Addresses() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.Address()
	}
	return out
}

func (ContactList) headerValue() {}

// splitAddr splits an addr-spec at its last '@'. A missing host becomes
// UnknownHost.
func splitAddr(addr string) (mailbox, host string) {
	addr = strings.TrimSpace(addr)
	i := strings.LastIndex(addr, "@")
	if i < 0 {
		return addr, UnknownHost
	}
	host = addr[i+1:]
	if host == "" {
		host = UnknownHost
	}
	return addr[:i], host
}
