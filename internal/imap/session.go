package imap

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bscott/maillib/internal/filter"
	"github.com/bscott/maillib/internal/logging"
	"github.com/bscott/maillib/internal/mailbox"
	"github.com/bscott/maillib/internal/message"
)

// SearchCharset is the charset announced with every sorted search.
const SearchCharset = "UTF-8"

type sessionState int

const (
	stateDisconnected sessionState = iota
	stateConnected
	stateSelected
)

func (s sessionState) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateSelected:
		return "selected"
	}
	return "disconnected"
}

// Credentials are what a Session opens its transport with.
type Credentials struct {
	Server   ServerSpec
	Username string
	Password string
}

// Session drives one Transport and tracks which mailbox is selected so that
// repeated switches to the same mailbox cost no round trips. A Session is not
// safe for concurrent use.
type Session struct {
	transport Transport
	creds     Credentials
	compiler  filter.Compiler
	logger    *slog.Logger
	id        string

	state   sessionState
	current string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time used when a date filter value cannot be parsed.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.compiler.Now = now
	}
}

func NewSession(t Transport, creds Credentials, opts ...Option) *Session {
	s := &Session{
		transport: t,
		creds:     creds,
		logger:    slog.Default(),
		id:        uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithSessionID(logging.WithComponent(s.logger, "imap"), s.id)
	return s
}

// ID returns the correlation id used in this session's log lines.
func (s *Session) ID() string {
	return s.id
}

// ServerName returns the server reference, e.g. {imap.example.com:993/imap/ssl}.
func (s *Session) ServerName() string {
	return s.creds.Server.Reference()
}

func (s *Session) IsConnected() bool {
	return s.state != stateDisconnected
}

// CurrentMailbox returns the selected mailbox, if any.
func (s *Session) CurrentMailbox() (string, bool) {
	return s.current, s.state == stateSelected
}

// Connect opens the transport. It does nothing when already connected.
func (s *Session) Connect() error {
	if s.state != stateDisconnected {
		return nil
	}

	s.logger.Debug("connecting", "server", s.creds.Server.Addr(), "user", s.creds.Username)
	if err := s.transport.Open(s.creds.Server, s.creds.Username, s.creds.Password); err != nil {
		s.logger.Debug("connect failed", "error", err)
		return &ConnectionError{Server: s.creds.Server.Addr(), Err: err}
	}
	s.state = stateConnected
	return nil
}

// Close shuts the transport down and forgets the selection.
func (s *Session) Close() error {
	if s.state == stateDisconnected {
		return nil
	}
	s.state, s.current = stateDisconnected, ""
	return s.transport.Close()
}

func (s *Session) requireConnected() error {
	if s.state == stateDisconnected {
		return ErrNotConnected
	}
	return nil
}

func (s *Session) requireSelected() error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	if s.state != stateSelected {
		return ErrNoMailboxSelected
	}
	return nil
}

func (s *Session) deselect() {
	if s.state == stateSelected {
		s.state, s.current = stateConnected, ""
	}
}

// ListMailboxes returns every folder name, decoded to UTF-8.
func (s *Session) ListMailboxes() ([]string, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}

	ref := s.ServerName()
	raw, err := s.transport.ListFolders(ref, "*")
	if err != nil {
		return nil, &MailboxListError{Err: err}
	}

	wire := make([]string, len(raw))
	for i, r := range raw {
		wire[i] = strings.TrimPrefix(r, ref)
	}
	names, err := mailbox.DecodeAll(wire)
	if err != nil {
		return nil, &MailboxListError{Err: err}
	}
	s.logger.Debug("listed mailboxes", "count", len(names))
	return names, nil
}

func (s *Session) CreateMailbox(name string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	raw, err := mailbox.Encode(name)
	if err != nil {
		return err
	}
	if err := s.transport.CreateFolder(raw); err != nil {
		return &DriverError{Op: fmt.Sprintf("create mailbox '%s'", name), Err: err}
	}
	return nil
}

// RenameMailbox renames a folder. Renaming the selected folder drops the
// selection so the next switch reopens it under its new name.
func (s *Session) RenameMailbox(from, to string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	rawFrom, err := mailbox.Encode(from)
	if err != nil {
		return err
	}
	rawTo, err := mailbox.Encode(to)
	if err != nil {
		return err
	}
	if err := s.transport.RenameFolder(rawFrom, rawTo); err != nil {
		return &DriverError{Op: fmt.Sprintf("rename mailbox from '%s' to '%s'", from, to), Err: err}
	}
	if s.current == from {
		s.deselect()
	}
	return nil
}

func (s *Session) DeleteMailbox(name string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	raw, err := mailbox.Encode(name)
	if err != nil {
		return err
	}
	if err := s.transport.DeleteFolder(raw); err != nil {
		return &DriverError{Op: fmt.Sprintf("delete mailbox '%s'", name), Err: err}
	}
	if s.current == name {
		s.deselect()
	}
	return nil
}

// SwitchMailbox selects name. When another mailbox is selected its pending
// deletions are expunged first. Selecting the current mailbox again is a
// no-op. On failure the session is left connected with nothing selected.
func (s *Session) SwitchMailbox(name string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	if s.state == stateSelected && s.current == name {
		return nil
	}

	raw, err := mailbox.Encode(name)
	if err != nil {
		return err
	}

	if s.state == stateSelected {
		if err := s.transport.Expunge(); err != nil {
			s.deselect()
			return &MailboxSwitchError{Mailbox: name, Err: err}
		}
	}
	if err := s.transport.Reopen(raw); err != nil {
		s.deselect()
		return &MailboxSwitchError{Mailbox: name, Err: err}
	}

	s.logger.Debug("switched mailbox", "from", s.current, "to", name)
	s.state, s.current = stateSelected, name
	return nil
}

// Flush expunges messages flagged for deletion in the selected mailbox.
func (s *Session) Flush() error {
	if err := s.requireSelected(); err != nil {
		return err
	}
	if err := s.transport.Expunge(); err != nil {
		return &DriverError{Op: fmt.Sprintf("flush mailbox '%s'", s.current), Err: err}
	}
	return nil
}

// CheckFilter validates a filter condition without touching the network.
func (s *Session) CheckFilter(key filter.Criterion, value any) error {
	return filter.Check(key, value)
}

// BuildFilters compiles conditions into a search predicate.
func (s *Session) BuildFilters(conds []filter.Condition) (string, error) {
	return s.compiler.Compile(conds)
}

// Search runs a compiled predicate against the selected mailbox and returns
// UIDs in arrival order.
func (s *Session) Search(predicate string) ([]uint32, error) {
	if err := s.requireSelected(); err != nil {
		return nil, err
	}

	uids, err := s.transport.SortByArrival(predicate, SearchCharset)
	if err != nil {
		return nil, &SearchError{Predicate: predicate, Err: err}
	}
	if uids == nil {
		uids = []uint32{}
	}
	s.logger.Debug("search", "mailbox", s.current, "predicate", predicate, "results", len(uids))
	return uids, nil
}

// MailIDs compiles conds and searches with them.
func (s *Session) MailIDs(conds []filter.Condition) ([]uint32, error) {
	predicate, err := s.BuildFilters(conds)
	if err != nil {
		return nil, err
	}
	return s.Search(predicate)
}

// GetHeaders fetches and parses the header block of uid without setting
// \Seen.
func (s *Session) GetHeaders(uid uint32) (message.Headers, error) {
	if err := s.requireSelected(); err != nil {
		return nil, err
	}
	raw, err := s.transport.FetchHeaderBlock(uid)
	if err != nil {
		return nil, &DriverError{Op: fmt.Sprintf("fetch headers of message %d", uid), Err: err}
	}
	return message.ParseHeaders(raw), nil
}

// GetStructure fetches the body structure of uid.
func (s *Session) GetStructure(uid uint32) (*message.Part, error) {
	if err := s.requireSelected(); err != nil {
		return nil, err
	}
	root, err := s.transport.FetchStructure(uid)
	if err != nil {
		return nil, &DriverError{Op: fmt.Sprintf("fetch structure of message %d", uid), Err: err}
	}
	return root, nil
}

// GetBody fetches the given parts of uid without setting \Seen, decodes them
// and joins them in order.
func (s *Session) GetBody(uid uint32, parts []message.BodyPart) (string, error) {
	if err := s.requireSelected(); err != nil {
		return "", err
	}

	encoded := make([]message.EncodedPart, 0, len(parts))
	for _, p := range parts {
		data, err := s.transport.FetchBody(uid, p.ID, true)
		if err != nil {
			return "", &DriverError{Op: fmt.Sprintf("fetch part %s of message %d", p.ID, uid), Err: err}
		}
		encoded = append(encoded, message.EncodedPart{Data: data, Encoding: p.Encoding})
	}
	s.logger.Debug("fetched body", "uid", uid, "parts", len(parts))
	return message.AssembleBody(encoded), nil
}
