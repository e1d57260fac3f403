package connection

import (
	"fmt"

	"github.com/bscott/maillib/internal/config"
	"github.com/bscott/maillib/internal/filter"
	"github.com/bscott/maillib/internal/imap"
	"github.com/bscott/maillib/internal/logging"
	"github.com/bscott/maillib/internal/message"
)

// Driver is the mailbox session a Connection works through.
type Driver interface {
	Connect() error
	Close() error
	ServerName() string

	ListMailboxes() ([]string, error)
	CreateMailbox(name string) error
	RenameMailbox(from, to string) error
	DeleteMailbox(name string) error
	SwitchMailbox(name string) error
	Flush() error

	CheckFilter(key filter.Criterion, value any) error
	MailIDs(conds []filter.Condition) ([]uint32, error)

	GetHeaders(uid uint32) (message.Headers, error)
	GetStructure(uid uint32) (*message.Part, error)
	GetBody(uid uint32, parts []message.BodyPart) (string, error)
}

var _ Driver = (*imap.Session)(nil)

// DriverFactory builds the driver for a configuration.
type DriverFactory func(cfg *config.Config) (Driver, error)

// DefaultDriver builds a go-imap backed session from cfg. The password comes
// from the environment or the keyring.
func DefaultDriver(cfg *config.Config) (Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	password, err := cfg.GetPassword()
	if err != nil {
		return nil, err
	}

	creds := imap.Credentials{
		Server:   ServerSpec(cfg.Server),
		Username: cfg.Server.Username,
		Password: password,
	}
	logger := logging.New(cfg.Logging)
	return imap.NewSession(imap.NewClient(), creds, imap.WithLogger(logger)), nil
}

// ServerSpec converts the server section of a configuration.
func ServerSpec(s config.ServerConfig) imap.ServerSpec {
	return imap.ServerSpec{
		Host:               s.Host,
		Port:               s.Port,
		Security:           imap.Security(s.Security),
		Auth:               s.Auth,
		InsecureSkipVerify: s.InsecureSkipVerify,
	}
}
