package cli

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/bscott/maillib/internal/config"
)

func prompt(reader *bufio.Reader, label, current string) string {
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line != "" {
		return line
	}
	return current
}

func (c *ConfigInitCmd) Run(ctx *Context) error {
	fmt.Println("maillib Configuration Wizard")
	fmt.Println("============================")
	fmt.Println()
	fmt.Println("This wizard will configure the IMAP server maillib connects to.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	cfg := config.DefaultConfig()

	cfg.Server.Host = prompt(reader, "IMAP host", cfg.Server.Host)

	portStr := prompt(reader, "IMAP port", strconv.Itoa(cfg.Server.Port))
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid IMAP port: %s", portStr)
	}
	cfg.Server.Port = port

	cfg.Server.Security = prompt(reader, "Security (tls, starttls, none)", cfg.Server.Security)
	cfg.Server.Auth = prompt(reader, "Authentication (login, plain)", "login")

	cfg.Server.Username = prompt(reader, "Username", "")
	if cfg.Server.Username == "" {
		return fmt.Errorf("username is required")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := string(passwordBytes)
	if password == "" {
		return fmt.Errorf("password is required")
	}

	path := ctx.Globals.Config
	if path == "" {
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if err := cfg.SetPassword(password); err != nil {
		return fmt.Errorf("failed to store password in keyring: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", path)
	fmt.Println("Password stored securely in system keyring.")
	fmt.Println()
	fmt.Println("Test your connection with: maillib config validate")

	return nil
}

func (c *ConfigShowCmd) Run(ctx *Context) error {
	if ctx.Config == nil {
		return fmt.Errorf("no configuration found - run 'maillib config init' first")
	}
	cfg := ctx.Config

	_, pwErr := cfg.GetPassword()
	passwordSet := pwErr == nil

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]any{
			"server":       cfg.Server,
			"defaults":     cfg.Defaults,
			"logging":      cfg.Logging,
			"password_set": passwordSet,
		})
	}

	w := ctx.Formatter.Writer
	configPath := ctx.Globals.Config
	if configPath == "" {
		configPath, _ = config.ConfigPath()
	}
	fmt.Fprintf(w, "Configuration file: %s\n\n", configPath)

	fmt.Fprintln(w, "Server:")
	fmt.Fprintf(w, "  Host:     %s\n", cfg.Server.Host)
	fmt.Fprintf(w, "  Port:     %d\n", cfg.Server.Port)
	fmt.Fprintf(w, "  Security: %s\n", cfg.Server.Security)
	if cfg.Server.Auth != "" {
		fmt.Fprintf(w, "  Auth:     %s\n", cfg.Server.Auth)
	}
	fmt.Fprintf(w, "  Username: %s\n", cfg.Server.Username)
	if cfg.Server.InsecureSkipVerify {
		fmt.Fprintf(w, "  %s\n", ctx.Formatter.WarningText("TLS certificate verification disabled"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Defaults:")
	fmt.Fprintf(w, "  Mailbox: %s\n", cfg.Defaults.Mailbox)
	fmt.Fprintf(w, "  Limit:   %d\n", cfg.Defaults.Limit)
	fmt.Fprintf(w, "  Format:  %s\n", cfg.Defaults.Format)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintf(w, "  Level:  %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  Format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "  Output: %s\n", cfg.Logging.Output)

	fmt.Fprintln(w)
	if passwordSet {
		fmt.Fprintln(w, "Password: ********** (stored in keyring or $"+config.PasswordEnv+")")
	} else {
		fmt.Fprintln(w, "Password: not set (run 'maillib config init' to set)")
	}

	return nil
}

func parseBoolValue(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s value: %s (use true or false)", key, value)
	}
	return b, nil
}

func (c *ConfigSetCmd) Run(ctx *Context) error {
	if ctx.Config == nil {
		ctx.Config = config.DefaultConfig()
	}
	cfg := ctx.Config

	section, key, ok := strings.Cut(c.Key, ".")
	if !ok || strings.Contains(key, ".") {
		return fmt.Errorf("invalid key format - use section.key (e.g., server.host, defaults.limit)")
	}

	var err error
	switch section {
	case "server":
		switch key {
		case "host":
			cfg.Server.Host = c.Value
		case "port":
			port, err := strconv.Atoi(c.Value)
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port value: %s", c.Value)
			}
			cfg.Server.Port = port
		case "security":
			switch c.Value {
			case config.SecurityTLS, config.SecuritySTARTTLS, config.SecurityNone:
				cfg.Server.Security = c.Value
			default:
				return fmt.Errorf("security must be 'tls', 'starttls' or 'none'")
			}
		case "auth":
			if c.Value != "login" && c.Value != "plain" {
				return fmt.Errorf("auth must be 'login' or 'plain'")
			}
			cfg.Server.Auth = c.Value
		case "username":
			cfg.Server.Username = c.Value
		case "insecure_skip_verify":
			if cfg.Server.InsecureSkipVerify, err = parseBoolValue(key, c.Value); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown server key: %s", key)
		}
	case "defaults":
		switch key {
		case "mailbox":
			cfg.Defaults.Mailbox = c.Value
		case "limit":
			limit, err := strconv.Atoi(c.Value)
			if err != nil || limit < 0 {
				return fmt.Errorf("invalid limit value: %s", c.Value)
			}
			cfg.Defaults.Limit = limit
		case "format":
			if c.Value != "text" && c.Value != "json" {
				return fmt.Errorf("format must be 'text' or 'json'")
			}
			cfg.Defaults.Format = c.Value
		default:
			return fmt.Errorf("unknown defaults key: %s", key)
		}
	case "logging":
		switch key {
		case "level":
			switch c.Value {
			case "debug", "info", "warn", "error":
				cfg.Logging.Level = c.Value
			default:
				return fmt.Errorf("level must be 'debug', 'info', 'warn' or 'error'")
			}
		case "format":
			if c.Value != "text" && c.Value != "json" {
				return fmt.Errorf("format must be 'text' or 'json'")
			}
			cfg.Logging.Format = c.Value
		case "output":
			cfg.Logging.Output = c.Value
		case "add_source":
			if cfg.Logging.AddSource, err = parseBoolValue(key, c.Value); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown logging key: %s", key)
		}
	default:
		return fmt.Errorf("unknown section: %s (use 'server', 'defaults' or 'logging')", section)
	}

	if err := cfg.Save(ctx.Globals.Config); err != nil {
		return err
	}

	ctx.Formatter.PrintSuccess(fmt.Sprintf("Set %s = %s", c.Key, c.Value))
	return nil
}

func (c *ConfigValidateCmd) Run(ctx *Context) error {
	conn, err := ctx.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]any{
			"success": true,
			"server":  conn.ServerName(),
			"message": "Successfully connected and authenticated",
		})
	}

	ctx.Formatter.PrintSuccess(fmt.Sprintf("Connected to %s", conn.ServerName()))
	return nil
}

type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (c *ConfigDoctorCmd) Run(ctx *Context) error {
	var results []checkResult

	check := func(name string, err error, okMessage string) bool {
		r := checkResult{Name: name, Status: "ok", Message: okMessage}
		if err != nil {
			r.Status, r.Message = "fail", err.Error()
		}
		results = append(results, r)

		if !ctx.Formatter.JSON {
			prefix := ctx.Formatter.SuccessText("[OK]")
			if err != nil {
				prefix = ctx.Formatter.ErrorText("[FAIL]")
			}
			if r.Message != "" {
				fmt.Fprintf(ctx.Formatter.Writer, "%s %s - %s\n", prefix, name, r.Message)
			} else {
				fmt.Fprintf(ctx.Formatter.Writer, "%s %s\n", prefix, name)
			}
		}
		return err == nil
	}

	// Config file exists and parses
	path := ctx.Globals.Config
	if path == "" {
		path, _ = config.ConfigPath()
	}
	cfg := ctx.Config
	if _, err := os.Stat(path); err != nil {
		check("Config file exists", fmt.Errorf("not found at %s", path), "")
	} else if loaded, err := config.Load(path); check("Config file valid", err, path) {
		cfg = loaded
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	configOK := check("Server settings complete", cfg.Validate(), cfg.Server.Username)

	passwordOK := false
	if cfg.Server.Username != "" {
		_, err := cfg.GetPassword()
		passwordOK = check("Password available", err, "")
	} else {
		check("Password available", fmt.Errorf("cannot check - username not configured"), "")
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err == nil {
		conn.Close()
	} else {
		err = fmt.Errorf("cannot connect to %s", addr)
	}
	reachable := check("IMAP port reachable", err, addr)

	if configOK && passwordOK && reachable {
		ctx.Config = cfg
		err := func() error {
			mc, err := ctx.Connect()
			if err != nil {
				return err
			}
			defer mc.Close()
			return mc.Connect()
		}()
		check("IMAP login succeeds", err, "")
	} else {
		check("IMAP login succeeds", fmt.Errorf("skipped - fix the checks above first"), "")
	}

	if ctx.Formatter.JSON {
		healthy := true
		for _, r := range results {
			if r.Status == "fail" {
				healthy = false
				break
			}
		}
		return ctx.Formatter.PrintJSON(map[string]any{
			"checks":  results,
			"healthy": healthy,
		})
	}

	return nil
}
