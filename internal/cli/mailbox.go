package cli

import (
	"fmt"

	"github.com/bscott/maillib/internal/config"
)

func (c *MailboxListCmd) Run(ctx *Context) error {
	conn, err := ctx.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx.Formatter.Verbosef("Listing mailboxes...")

	selections, err := conn.Mailboxes()
	if err != nil {
		return err
	}
	names := make([]string, len(selections))
	for i, sel := range selections {
		names[i] = sel.Name()
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]any{
			"server":    conn.ServerName(),
			"count":     len(names),
			"mailboxes": names,
		})
	}

	w := ctx.Formatter.Writer
	if len(names) == 0 {
		fmt.Fprintln(w, "No mailboxes found.")
		return nil
	}

	fmt.Fprintf(w, "Mailboxes on %s (%d):\n\n", conn.ServerName(), len(names))
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}

// idempotent runs op unless key was used recently, and records key after op
// succeeds.
func idempotent(ctx *Context, key string, op func() error) (skipped bool, err error) {
	used, err := config.CheckIdempotencyKey(key)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if used {
		ctx.Formatter.Verbosef("Idempotency key %q already used, skipping", key)
		return true, nil
	}
	if err := op(); err != nil {
		return false, err
	}
	if err := config.RecordIdempotencyKey(key); err != nil {
		ctx.Formatter.Warnf("failed to record idempotency key: %v", err)
	}
	return false, nil
}

func reportMailboxChange(ctx *Context, skipped bool, mailbox, message string) error {
	if skipped {
		message = "Skipped (idempotency key already used)"
	}
	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]any{
			"success": true,
			"skipped": skipped,
			"mailbox": mailbox,
			"message": message,
		})
	}
	ctx.Formatter.PrintSuccess(fmt.Sprintf("%s: '%s'", message, mailbox))
	return nil
}

func (c *MailboxCreateCmd) Run(ctx *Context) error {
	conn, err := ctx.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	skipped, err := idempotent(ctx, c.IdempotencyKey, func() error {
		_, err := conn.CreateMailbox(c.Name)
		return err
	})
	if err != nil {
		return err
	}
	return reportMailboxChange(ctx, skipped, c.Name, "Mailbox created")
}

func (c *MailboxRenameCmd) Run(ctx *Context) error {
	conn, err := ctx.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	skipped, err := idempotent(ctx, c.IdempotencyKey, func() error {
		return conn.RenameMailbox(c.From, c.To)
	})
	if err != nil {
		return err
	}
	return reportMailboxChange(ctx, skipped, c.To, fmt.Sprintf("Mailbox '%s' renamed", c.From))
}

func (c *MailboxDeleteCmd) Run(ctx *Context) error {
	conn, err := ctx.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	skipped, err := idempotent(ctx, c.IdempotencyKey, func() error {
		return conn.DeleteMailbox(c.Name)
	})
	if err != nil {
		return err
	}
	return reportMailboxChange(ctx, skipped, c.Name, "Mailbox deleted")
}
