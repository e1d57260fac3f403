package message

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// ParseAddressList parses an RFC 5322 address list into contacts in source
// order. When the strict parser rejects the list, each entry is parsed on its
// own and entries that still fail are recovered by hand, so one bad address
// does not lose the others.
func ParseAddressList(value string) ContactList {
	value = strings.TrimSpace(value)
	if value == "" {
		return ContactList{}
	}

	if addrs, err := mail.ParseAddressList(value); err == nil {
		list := make(ContactList, 0, len(addrs))
		for _, a := range addrs {
			list = append(list, contactFromAddress(a))
		}
		return list
	}

	list := ContactList{}
	for _, entry := range splitAddressList(value) {
		if a, err := mail.ParseAddress(entry); err == nil {
			list = append(list, contactFromAddress(a))
			continue
		}
		if c, ok := recoverContact(entry); ok {
			list = append(list, c)
		}
	}
	return list
}

func contactFromAddress(a *mail.Address) Contact {
	mailbox, host := splitAddr(a.Address)
	return Contact{Mailbox: mailbox, Host: host, Name: a.Name}
}

// recoverContact handles the forms net/mail refuses: bare local parts,
// source routes and unbalanced quoting.
func recoverContact(entry string) (Contact, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return Contact{}, false
	}

	name, addr := "", entry
	if open := strings.LastIndex(entry, "<"); open >= 0 {
		name = strings.TrimSpace(entry[:open])
		addr = entry[open+1:]
		if end := strings.Index(addr, ">"); end >= 0 {
			addr = addr[:end]
		}
	}
	name = decodeText(strings.Trim(name, `"' `))

	var adl string
	if strings.HasPrefix(addr, "@") {
		if colon := strings.Index(addr, ":"); colon >= 0 {
			adl = addr[:colon]
			addr = addr[colon+1:]
		}
	}

	mailbox, host := splitAddr(addr)
	if mailbox == "" && name == "" {
		return Contact{}, false
	}
	return Contact{Mailbox: mailbox, Host: host, Name: name, ADL: adl}, true
}

// splitAddressList splits on commas that are outside quotes, comments and
// angle brackets.
func splitAddressList(value string) []string {
	var (
		entries []string
		start   int
		quoted  bool
		angle   int
		comment int
	)
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '<':
			angle++
		case c == '>' && angle > 0:
			angle--
		case c == '(':
			comment++
		case c == ')' && comment > 0:
			comment--
		case c == ',' && angle == 0 && comment == 0:
			entries = append(entries, value[start:i])
			start = i + 1
		}
	}
	return append(entries, value[start:])
}
