package cli

import (
	"fmt"

	"github.com/bscott/maillib/internal/config"
	"github.com/bscott/maillib/internal/connection"
	"github.com/bscott/maillib/internal/logging"
	"github.com/bscott/maillib/internal/output"
)

var Version = "0.1.0"

type Globals struct {
	JSON     bool   `help:"Output as JSON" name:"json"`
	HelpJSON bool   `help:"Output command help as JSON (AI agent mode)" name:"help-json"`
	Config   string `help:"Path to config file" short:"c" type:"path"`
	Verbose  bool   `help:"Verbose output" short:"v"`
	Quiet    bool   `help:"Suppress non-essential output" short:"q"`
}

type CLI struct {
	Globals

	Config  ConfigCmd  `cmd:"" help:"Configuration management"`
	Mail    MailCmd    `cmd:"" help:"Search and read messages"`
	Mailbox MailboxCmd `cmd:"" help:"Mailbox management"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type Context struct {
	Config    *config.Config
	Formatter *output.Formatter
	Globals   *Globals

	// Driver builds the mailbox driver; nil means connection.DefaultDriver.
	Driver connection.DriverFactory
}

func NewContext(globals *Globals) (*Context, error) {
	formatter := output.New(globals.JSON, globals.Verbose, globals.Quiet)

	var cfg *config.Config
	var err error

	if globals.Config != "" {
		cfg, err = config.Load(globals.Config)
	} else if config.Exists() {
		cfg, err = config.Load("")
	}

	if err != nil || cfg == nil {
		cfg = config.DefaultConfig()
	}

	if !globals.JSON && cfg.Defaults.Format == "json" {
		formatter.JSON = true
	}

	return &Context{
		Config:    cfg,
		Formatter: formatter,
		Globals:   globals,
	}, nil
}

// Connect opens a lazy connection using the loaded configuration. Callers
// must Close it.
func (ctx *Context) Connect() (*connection.Connection, error) {
	if ctx.Config == nil || ctx.Config.Server.Username == "" {
		return nil, fmt.Errorf("not configured - run 'maillib config init' first")
	}

	logger := logging.New(ctx.Config.Logging)
	if ctx.Globals != nil && ctx.Globals.Verbose {
		cfg := ctx.Config.Logging
		cfg.Level = "debug"
		logger = logging.New(cfg)
	}
	return connection.New(ctx.Config, ctx.Driver, connection.WithLogger(logger))
}

// mailboxOrDefault returns name, or the configured default mailbox.
func (ctx *Context) mailboxOrDefault(name string) string {
	if name != "" {
		return name
	}
	if ctx.Config != nil && ctx.Config.Defaults.Mailbox != "" {
		return ctx.Config.Defaults.Mailbox
	}
	return config.DefaultMailbox
}

// ConfigCmd handles configuration management
type ConfigCmd struct {
	Init     ConfigInitCmd     `cmd:"" help:"Interactive setup wizard"`
	Show     ConfigShowCmd     `cmd:"" help:"Display current configuration"`
	Set      ConfigSetCmd      `cmd:"" help:"Set a configuration value"`
	Validate ConfigValidateCmd `cmd:"" help:"Test the IMAP connection"`
	Doctor   ConfigDoctorCmd   `cmd:"" help:"Diagnose configuration issues"`
}

type ConfigInitCmd struct{}

type ConfigShowCmd struct{}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"Configuration key (e.g., server.host, defaults.limit)"`
	Value string `arg:"" help:"Value to set"`
}

type ConfigValidateCmd struct{}

type ConfigDoctorCmd struct{}

// MailCmd handles message operations
type MailCmd struct {
	Search    MailSearchCmd    `cmd:"" help:"Search messages"`
	Headers   MailHeadersCmd   `cmd:"" help:"Show decoded message headers"`
	Structure MailStructureCmd `cmd:"" help:"Show the MIME structure of a message"`
	Read      MailReadCmd      `cmd:"" help:"Read a message"`
}

type MailSearchCmd struct {
	Mailbox    string   `help:"Mailbox to search (defaults to configured mailbox)" short:"m"`
	From       string   `help:"Sender contains"`
	To         string   `help:"Recipient contains"`
	Cc         string   `help:"Cc contains"`
	Bcc        string   `help:"Bcc contains"`
	Subject    string   `help:"Subject contains"`
	Body       string   `help:"Body contains"`
	Text       string   `help:"Headers or body contain"`
	Keyword    []string `help:"Has keyword"`
	NotKeyword []string `help:"Lacks keyword" name:"not-keyword"`
	Since      string   `help:"Arrived on or after date (YYYY-MM-DD, 02 Jan 2006, yesterday)"`
	Before     string   `help:"Arrived before date"`
	On         string   `help:"Arrived on date"`
	Seen       bool     `help:"Only read messages" xor:"seen"`
	Unseen     bool     `help:"Only unread messages" xor:"seen"`
	Answered   bool     `help:"Only answered messages" xor:"answered"`
	Unanswered bool     `help:"Only unanswered messages" xor:"answered"`
	Flagged    bool     `help:"Only flagged messages" xor:"flagged"`
	Unflagged  bool     `help:"Only unflagged messages" xor:"flagged"`
	Deleted    bool     `help:"Only messages marked deleted" xor:"deleted"`
	Undeleted  bool     `help:"Only messages not marked deleted" xor:"deleted"`
	New        bool     `help:"Only new messages (recent and unread)"`
	Old        bool     `help:"Only messages that are not recent"`
	Recent     bool     `help:"Only recent messages"`
	Where      []string `help:"Extra condition as key=value (e.g., since=yesterday, seen=false)" short:"w"`
	Limit      int      `help:"Maximum number of results (0 uses the configured default)" short:"n"`
	Offset     int      `help:"Skip this many results"`
	Reverse    bool     `help:"Newest first" short:"r"`
	Summary    bool     `help:"Show sender, date and subject for each result" short:"s"`
}

type MailHeadersCmd struct {
	UID     uint32 `arg:"" help:"Message UID"`
	Mailbox string `help:"Mailbox name (defaults to configured mailbox)" short:"m"`
	All     bool   `help:"Show every header, not just the common ones" short:"a"`
}

type MailStructureCmd struct {
	UID     uint32 `arg:"" help:"Message UID"`
	Mailbox string `help:"Mailbox name (defaults to configured mailbox)" short:"m"`
}

type MailReadCmd struct {
	UID     uint32   `arg:"" help:"Message UID"`
	Mailbox string   `help:"Mailbox name (defaults to configured mailbox)" short:"m"`
	Part    []string `help:"Read only these part ids (see 'mail structure'); 0 is the whole body of a single-part message" short:"p"`
	Headers bool     `help:"Include all headers"`
}

// MailboxCmd handles mailbox management
type MailboxCmd struct {
	List   MailboxListCmd   `cmd:"" help:"List all mailboxes/folders"`
	Create MailboxCreateCmd `cmd:"" help:"Create new mailbox"`
	Rename MailboxRenameCmd `cmd:"" help:"Rename mailbox"`
	Delete MailboxDeleteCmd `cmd:"" help:"Delete mailbox"`
}

type MailboxListCmd struct{}

type MailboxCreateCmd struct {
	Name           string `arg:"" help:"Mailbox name to create"`
	IdempotencyKey string `help:"Skip the operation if this key was used in the last 24h" name:"idempotency-key"`
}

type MailboxRenameCmd struct {
	From           string `arg:"" help:"Current mailbox name"`
	To             string `arg:"" help:"New mailbox name"`
	IdempotencyKey string `help:"Skip the operation if this key was used in the last 24h" name:"idempotency-key"`
}

type MailboxDeleteCmd struct {
	Name           string `arg:"" help:"Mailbox name to delete"`
	IdempotencyKey string `help:"Skip the operation if this key was used in the last 24h" name:"idempotency-key"`
}

// VersionCmd shows version information
type VersionCmd struct{}
