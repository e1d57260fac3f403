// Package connection is the entry point of the library. A Connection connects
// lazily, lists the server's mailboxes once and hands out a cached Selection
// per mailbox.
package connection

import (
	"log/slog"

	"github.com/bscott/maillib/internal/config"
	"github.com/bscott/maillib/internal/logging"
)

type lifecycle int

const (
	stateNew lifecycle = iota
	stateConnected
	stateInitialized
)

// Connection owns one Driver. It is not safe for concurrent use.
type Connection struct {
	cfg    *config.Config
	driver Driver
	logger *slog.Logger

	state      lifecycle
	serverName string
	names      []string
	mailboxes  map[string]*Selection
}

// Option configures a Connection.
type Option func(*Connection)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds the driver with factory, or DefaultDriver when factory is nil.
// Configuration and keyring failures from DefaultDriver are returned as is;
// an injected factory that fails or yields nil is an *InvalidDriverError.
// Nothing touches the network until the first operation that needs it.
func New(cfg *config.Config, factory DriverFactory, opts ...Option) (*Connection, error) {
	var driver Driver
	var err error
	if factory == nil {
		driver, err = DefaultDriver(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		driver, err = factory(cfg)
		if err != nil {
			return nil, &InvalidDriverError{Err: err}
		}
	}
	if driver == nil {
		return nil, &InvalidDriverError{}
	}

	c := &Connection{
		cfg:       cfg,
		driver:    driver,
		logger:    slog.Default(),
		mailboxes: make(map[string]*Selection),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithComponent(c.logger, "connection")
	return c, nil
}

func (c *Connection) Driver() Driver {
	return c.driver
}

// ServerName returns the server reference. It is empty before Connect.
func (c *Connection) ServerName() string {
	return c.serverName
}

func (c *Connection) IsConnected() bool {
	return c.state >= stateConnected
}

func (c *Connection) IsInitialized() bool {
	return c.state == stateInitialized
}

// Connect connects the driver once.
func (c *Connection) Connect() error {
	if c.state >= stateConnected {
		return nil
	}
	if err := c.driver.Connect(); err != nil {
		return err
	}
	c.serverName = c.driver.ServerName()
	c.state = stateConnected
	c.logger.Debug("connected", "server", c.serverName)
	return nil
}

// InitializeMailboxes connects if needed and caches a Selection for every
// mailbox on the server. Later calls do nothing.
func (c *Connection) InitializeMailboxes() error {
	if c.state == stateInitialized {
		return nil
	}
	if err := c.Connect(); err != nil {
		return err
	}

	names, err := c.driver.ListMailboxes()
	if err != nil {
		return err
	}
	for _, name := range names {
		c.add(name)
	}
	c.state = stateInitialized
	c.logger.Debug("mailboxes initialized", "count", len(names))
	return nil
}

func (c *Connection) add(name string) {
	if _, ok := c.mailboxes[name]; ok {
		return
	}
	c.names = append(c.names, name)
	c.mailboxes[name] = newSelection(c, name)
}

func (c *Connection) remove(name string) {
	delete(c.mailboxes, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			return
		}
	}
}

// Mailboxes returns a Selection per mailbox in listing order.
func (c *Connection) Mailboxes() ([]*Selection, error) {
	if err := c.InitializeMailboxes(); err != nil {
		return nil, err
	}
	out := make([]*Selection, len(c.names))
	for i, name := range c.names {
		out[i] = c.mailboxes[name]
	}
	return out, nil
}

// Mailbox returns the cached Selection for name. An empty name means the
// configured default mailbox.
func (c *Connection) Mailbox(name string) (*Selection, error) {
	if name == "" {
		name = c.defaultMailbox()
	}
	if err := c.InitializeMailboxes(); err != nil {
		return nil, err
	}
	sel, ok := c.mailboxes[name]
	if !ok {
		return nil, &InvalidMailboxNameError{Name: name}
	}
	return sel, nil
}

func (c *Connection) defaultMailbox() string {
	if c.cfg != nil && c.cfg.Defaults.Mailbox != "" {
		return c.cfg.Defaults.Mailbox
	}
	return config.DefaultMailbox
}

// CreateMailbox creates name on the server and caches it when the mailbox
// list is already loaded.
func (c *Connection) CreateMailbox(name string) (*Selection, error) {
	if err := c.Connect(); err != nil {
		return nil, err
	}
	if err := c.driver.CreateMailbox(name); err != nil {
		return nil, err
	}
	if c.state != stateInitialized {
		return c.Mailbox(name)
	}
	c.add(name)
	return c.mailboxes[name], nil
}

// RenameMailbox renames from to to. Selections of the old name are dropped
// from the cache.
func (c *Connection) RenameMailbox(from, to string) error {
	if err := c.Connect(); err != nil {
		return err
	}
	if err := c.driver.RenameMailbox(from, to); err != nil {
		return err
	}
	if c.state == stateInitialized {
		c.remove(from)
		c.add(to)
	}
	return nil
}

func (c *Connection) DeleteMailbox(name string) error {
	if err := c.Connect(); err != nil {
		return err
	}
	if err := c.driver.DeleteMailbox(name); err != nil {
		return err
	}
	if c.state == stateInitialized {
		c.remove(name)
	}
	return nil
}

// Close closes the driver. The Connection can connect again afterwards.
func (c *Connection) Close() error {
	if c.state == stateNew {
		return nil
	}
	c.state = stateNew
	c.names = nil
	c.mailboxes = make(map[string]*Selection)
	return c.driver.Close()
}
