package connection

import (
	"github.com/bscott/maillib/internal/filter"
	"github.com/bscott/maillib/internal/message"
)

// Selection is a query over one mailbox. Where, Limit, Offset and Order
// return modified copies, so the cached Selection a Connection hands out is
// never changed by a caller building a query.
type Selection struct {
	conn   *Connection
	name   string
	filter *filter.Filter
}

func newSelection(c *Connection, name string) *Selection {
	return &Selection{conn: c, name: name, filter: filter.NewFilter()}
}

func (s *Selection) Name() string {
	return s.name
}

// Filter returns a copy of the selection's filter.
func (s *Selection) Filter() *filter.Filter {
	return s.filter.Clone()
}

func (s *Selection) derive(edit func(f *filter.Filter)) *Selection {
	f := s.filter.Clone()
	edit(f)
	return &Selection{conn: s.conn, name: s.name, filter: f}
}

// Where adds a condition after the driver has validated it.
func (s *Selection) Where(key filter.Criterion, value any) (*Selection, error) {
	if err := s.conn.driver.CheckFilter(key, value); err != nil {
		return nil, err
	}
	return s.derive(func(f *filter.Filter) { f.AddCondition(key, value) }), nil
}

func (s *Selection) Limit(n int) *Selection {
	return s.derive(func(f *filter.Filter) { f.Limit = n })
}

func (s *Selection) Offset(n int) *Selection {
	return s.derive(func(f *filter.Filter) { f.Offset = n })
}

func (s *Selection) Order(o filter.SortOrder) *Selection {
	return s.derive(func(f *filter.Filter) { f.Order = o })
}

func (s *Selection) open() error {
	if err := s.conn.Connect(); err != nil {
		return err
	}
	return s.conn.driver.SwitchMailbox(s.name)
}

// UIDs runs the search and applies order, offset and limit.
func (s *Selection) UIDs() ([]uint32, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	uids, err := s.conn.driver.MailIDs(s.filter.Conditions())
	if err != nil {
		return nil, err
	}
	return s.filter.Apply(uids), nil
}

func (s *Selection) Headers(uid uint32) (message.Headers, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	return s.conn.driver.GetHeaders(uid)
}

func (s *Selection) Structure(uid uint32) (*message.Part, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	return s.conn.driver.GetStructure(uid)
}

// Body returns the plain text parts of uid, or every inline part when the
// message has no text/plain part.
func (s *Selection) Body(uid uint32) (string, error) {
	root, err := s.Structure(uid)
	if err != nil {
		return "", err
	}
	parts := root.BodyParts("text/plain")
	if len(parts) == 0 {
		parts = root.BodyParts()
	}
	return s.conn.driver.GetBody(uid, parts)
}

// Flush expunges deleted messages in this mailbox.
func (s *Selection) Flush() error {
	if err := s.open(); err != nil {
		return err
	}
	return s.conn.driver.Flush()
}
