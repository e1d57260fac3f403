package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode"
)

type HelpSchema struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Commands    []CommandSchema `json:"commands"`
	GlobalFlags []FlagSchema    `json:"global_flags"`
}

type CommandSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	Args        []ArgSchema     `json:"args,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
	Examples    []string        `json:"examples,omitempty"`
}

type FlagSchema struct {
	Name        string `json:"name"`
	Short       string `json:"short,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description"`
}

type ArgSchema struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

func GenerateHelpJSON(cli *CLI) ([]byte, error) {
	schema := HelpSchema{
		Name:        "maillib",
		Version:     Version,
		Description: "Search and read mail on any IMAP server",
		GlobalFlags: extractGlobalFlags(),
		Commands:    extractCommands(cli),
	}

	return json.MarshalIndent(schema, "", "  ")
}

func extractGlobalFlags() []FlagSchema {
	return []FlagSchema{
		{Name: "--json", Type: "bool", Description: "Output as JSON (applies to all commands)"},
		{Name: "--help-json", Type: "bool", Description: "Output command help as JSON (AI agent mode)"},
		{Name: "--config", Short: "-c", Type: "string", Description: "Path to config file"},
		{Name: "--verbose", Short: "-v", Type: "bool", Description: "Verbose output and debug logging"},
		{Name: "--quiet", Short: "-q", Type: "bool", Description: "Suppress non-essential output"},
	}
}

func extractCommands(cli *CLI) []CommandSchema {
	return []CommandSchema{
		extractConfigCommands(),
		extractMailCommands(),
		extractMailboxCommands(),
		{
			Name:        "version",
			Description: "Show version information",
			Examples:    []string{"maillib version", "maillib version --json"},
		},
	}
}

// command builds a schema entry whose flags and args come from the kong
// tags on v.
func command(name, description string, v any, examples ...string) CommandSchema {
	flags, args := extractFieldsFromStruct(reflect.TypeOf(v))
	return CommandSchema{
		Name:        name,
		Description: description,
		Flags:       flags,
		Args:        args,
		Examples:    examples,
	}
}

func extractConfigCommands() CommandSchema {
	return CommandSchema{
		Name:        "config",
		Description: "Configuration management",
		Subcommands: []CommandSchema{
			command("config init", "Interactive setup wizard for the IMAP server", ConfigInitCmd{},
				"maillib config init"),
			command("config show", "Display current configuration", ConfigShowCmd{},
				"maillib config show", "maillib config show --json"),
			command("config set", "Set a configuration value", ConfigSetCmd{},
				"maillib config set server.host imap.example.com",
				"maillib config set server.security starttls",
				"maillib config set defaults.limit 50",
				"maillib config set logging.level debug",
			),
			command("config validate", "Connect and log in with the current configuration", ConfigValidateCmd{},
				"maillib config validate"),
			command("config doctor", "Diagnose configuration and connectivity issues", ConfigDoctorCmd{},
				"maillib config doctor", "maillib config doctor --json"),
		},
	}
}

func extractMailCommands() CommandSchema {
	return CommandSchema{
		Name:        "mail",
		Description: "Search and read messages",
		Subcommands: []CommandSchema{
			command("mail search", "Search a mailbox and print matching UIDs", MailSearchCmd{},
				"maillib mail search --unseen",
				"maillib mail search --from alice --since yesterday -s",
				"maillib mail search -m Archive -w 'subject=invoice' -w 'before=2024-01-01' --json",
				"maillib mail search --flagged -r -n 5 --offset 5",
			),
			command("mail headers", "Show decoded message headers", MailHeadersCmd{},
				"maillib mail headers 42",
				"maillib mail headers 42 --all --json",
			),
			command("mail structure", "Show the MIME structure of a message", MailStructureCmd{},
				"maillib mail structure 42",
			),
			command("mail read", "Read the decoded body of a message", MailReadCmd{},
				"maillib mail read 42",
				"maillib mail read 42 -p 1.2",
				"maillib mail read 42 -m Sent --headers --json",
			),
		},
	}
}

func extractMailboxCommands() CommandSchema {
	return CommandSchema{
		Name:        "mailbox",
		Description: "Mailbox management",
		Subcommands: []CommandSchema{
			command("mailbox list", "List all mailboxes/folders", MailboxListCmd{},
				"maillib mailbox list", "maillib mailbox list --json"),
			command("mailbox create", "Create new mailbox", MailboxCreateCmd{},
				"maillib mailbox create 'Work Projects'",
				"maillib mailbox create Entwürfe --idempotency-key drafts-2024"),
			command("mailbox rename", "Rename mailbox", MailboxRenameCmd{},
				"maillib mailbox rename Old New"),
			command("mailbox delete", "Delete mailbox", MailboxDeleteCmd{},
				"maillib mailbox delete 'Old Folder'"),
		},
	}
}

// extractFieldsFromStruct reads flag and arg information from kong struct
// tags using reflection.
func extractFieldsFromStruct(t reflect.Type) ([]FlagSchema, []ArgSchema) {
	var flags []FlagSchema
	var args []ArgSchema

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip embedded structs
		if field.Anonymous {
			continue
		}

		helpTag := field.Tag.Get("help")
		if helpTag == "" {
			continue
		}

		name := kebab(field.Name)
		if nameTag := field.Tag.Get("name"); nameTag != "" {
			name = nameTag
		}

		if _, ok := field.Tag.Lookup("arg"); ok {
			args = append(args, ArgSchema{
				Name:        name,
				Type:        getTypeString(field.Type),
				Required:    field.Tag.Get("optional") != "true",
				Description: helpTag,
			})
			continue
		}

		flag := FlagSchema{
			Name:        "--" + name,
			Type:        getTypeString(field.Type),
			Description: helpTag,
			Default:     field.Tag.Get("default"),
			Required:    field.Tag.Get("required") == "true",
		}
		if short := field.Tag.Get("short"); short != "" {
			flag.Short = "-" + short
		}

		flags = append(flags, flag)
	}

	return flags, args
}

// kebab converts a Go field name to kong's default flag name. Runs of
// capitals stay together, so UID becomes uid.
func kebab(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && !unicode.IsUpper(r[i-1])
			nextLower := i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) && unicode.IsUpper(r[i-1])
			if prevLower || nextLower {
				b.WriteByte('-')
			}
			c = unicode.ToLower(c)
		}
		b.WriteRune(c)
	}
	return b.String()
}

func getTypeString(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "[]" + getTypeString(t.Elem())
	default:
		return t.String()
	}
}

func PrintHelpJSON(w io.Writer, cli *CLI) error {
	data, err := GenerateHelpJSON(cli)
	if err != nil {
		return fmt.Errorf("failed to generate help JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
