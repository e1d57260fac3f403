// Package filter compiles typed search conditions into IMAP SEARCH
// predicates.
package filter

import (
	"fmt"
	"strings"
)

// Criterion identifies a search key.
type Criterion int

const (
	Answered Criterion = iota + 1
	Bcc
	Before
	Body
	Cc
	Deleted
	Flagged
	From
	Keyword
	New
	NotKeyword
	Old
	On
	Recent
	Seen
	Since
	Subject
	Text
	To
)

// All lists every known criterion in declaration order.
var All = []Criterion{
	Answered, Bcc, Before, Body, Cc, Deleted, Flagged, From, Keyword, New,
	NotKeyword, Old, On, Recent, Seen, Since, Subject, Text, To,
}

// Shape is the kind of value a criterion accepts.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeFlag
	ShapeString
	ShapeDate
)

func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "no value"
	case ShapeFlag:
		return "bool"
	case ShapeString:
		return "string"
	case ShapeDate:
		return "time.Time, epoch seconds or date string"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

type template struct {
	shape Shape
	token string
	name  string
}

// lookup is the criteria table. Flag templates render as TOKEN or UNTOKEN,
// string and date templates as TOKEN "value", none templates as TOKEN.
func lookup(c Criterion) (template, bool) {
	switch c {
	case Answered:
		return template{ShapeFlag, "ANSWERED", "answered"}, true
	case Bcc:
		return template{ShapeString, "BCC", "bcc"}, true
	case Before:
		return template{ShapeDate, "BEFORE", "before"}, true
	case Body:
		return template{ShapeString, "BODY", "body"}, true
	case Cc:
		return template{ShapeString, "CC", "cc"}, true
	case Deleted:
		return template{ShapeFlag, "DELETED", "deleted"}, true
	case Flagged:
		return template{ShapeFlag, "FLAGGED", "flagged"}, true
	case From:
		return template{ShapeString, "FROM", "from"}, true
	case Keyword:
		return template{ShapeString, "KEYWORD", "keyword"}, true
	case New:
		return template{ShapeNone, "NEW", "new"}, true
	case NotKeyword:
		return template{ShapeString, "UNKEYWORD", "not_keyword"}, true
	case Old:
		return template{ShapeNone, "OLD", "old"}, true
	case On:
		return template{ShapeDate, "ON", "on"}, true
	case Recent:
		return template{ShapeNone, "RECENT", "recent"}, true
	case Seen:
		return template{ShapeFlag, "SEEN", "seen"}, true
	case Since:
		return template{ShapeDate, "SINCE", "since"}, true
	case Subject:
		return template{ShapeString, "SUBJECT", "subject"}, true
	case Text:
		return template{ShapeString, "TEXT", "text"}, true
	case To:
		return template{ShapeString, "TO", "to"}, true
	}
	return template{}, false
}

func (c Criterion) String() string {
	if t, ok := lookup(c); ok {
		return t.name
	}
	return fmt.Sprintf("Criterion(%d)", int(c))
}

// Shape returns the value shape for c. Unknown criteria report false.
func (c Criterion) Shape() (Shape, bool) {
	t, ok := lookup(c)
	return t.shape, ok
}

// ParseCriterion maps a criterion name such as "from" or "not_keyword" to its
// Criterion. Matching ignores case and accepts '-' for '_'.
func ParseCriterion(name string) (Criterion, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, c := range All {
		if c.String() == normalized {
			return c, nil
		}
	}
	return 0, &InvalidKeyError{Name: name}
}
