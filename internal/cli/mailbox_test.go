package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bscott/maillib/internal/config"
)

func TestMailboxListCmd(t *testing.T) {
	d := &fakeDriver{mailboxes: []string{"INBOX", "Sent", "Entwürfe"}}
	ctx, buf := newTestContext(t, d, false)

	if err := (&MailboxListCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "Mailboxes on {imap.example.com:993/imap/ssl} (3):\n\n  INBOX\n  Sent\n  Entwürfe\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestMailboxListCmdEmpty(t *testing.T) {
	ctx, buf := newTestContext(t, &fakeDriver{}, false)

	if err := (&MailboxListCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if buf.String() != "No mailboxes found.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestMailboxListCmdJSON(t *testing.T) {
	d := &fakeDriver{mailboxes: []string{"INBOX", "Archive"}}
	ctx, buf := newTestContext(t, d, true)

	if err := (&MailboxListCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	result := decodeJSON(t, buf)
	if result["count"] != float64(2) {
		t.Errorf("count = %v", result["count"])
	}
	if got := result["mailboxes"]; !reflect.DeepEqual(got, []any{"INBOX", "Archive"}) {
		t.Errorf("mailboxes = %v", got)
	}
}

func TestMailboxCommandsRequireConfig(t *testing.T) {
	cmds := map[string]interface{ Run(*Context) error }{
		"list":   &MailboxListCmd{},
		"create": &MailboxCreateCmd{Name: "Work"},
		"rename": &MailboxRenameCmd{From: "Work", To: "Job"},
		"delete": &MailboxDeleteCmd{Name: "Work"},
	}

	for name, cmd := range cmds {
		t.Run(name, func(t *testing.T) {
			ctx, _ := newTestContext(t, &fakeDriver{}, false)
			ctx.Config.Server.Username = ""
			if err := cmd.Run(ctx); err == nil || !strings.Contains(err.Error(), "not configured") {
				t.Errorf("Run() error = %v, want not configured", err)
			}
		})
	}
}

func TestMailboxCreateRenameDelete(t *testing.T) {
	d := &fakeDriver{}
	ctx, buf := newTestContext(t, d, false)

	if err := (&MailboxCreateCmd{Name: "Work"}).Run(ctx); err != nil {
		t.Fatalf("create error = %v", err)
	}
	if err := (&MailboxRenameCmd{From: "Work", To: "Job"}).Run(ctx); err != nil {
		t.Fatalf("rename error = %v", err)
	}
	if err := (&MailboxDeleteCmd{Name: "Job"}).Run(ctx); err != nil {
		t.Fatalf("delete error = %v", err)
	}

	if !reflect.DeepEqual(d.created, []string{"Work"}) {
		t.Errorf("created = %v", d.created)
	}
	if !reflect.DeepEqual(d.renamed, [][2]string{{"Work", "Job"}}) {
		t.Errorf("renamed = %v", d.renamed)
	}
	if !reflect.DeepEqual(d.deleted, []string{"Job"}) {
		t.Errorf("deleted = %v", d.deleted)
	}

	for _, want := range []string{
		"Mailbox created: 'Work'",
		"Mailbox 'Work' renamed: 'Job'",
		"Mailbox deleted: 'Job'",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestMailboxCreateIdempotencyKey(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	if dir, err := config.ConfigDir(); err != nil || !strings.HasPrefix(dir, tmp) {
		t.Skip("config directory cannot be redirected on this platform")
	}

	d := &fakeDriver{}
	ctx, buf := newTestContext(t, d, true)
	cmd := &MailboxCreateCmd{Name: "Work", IdempotencyKey: "create-work"}

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if decodeJSON(t, buf)["skipped"] != false {
		t.Error("first run should not be skipped")
	}

	buf.Reset()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	result := decodeJSON(t, buf)
	if result["skipped"] != true || result["success"] != true {
		t.Errorf("second run = %v, want skipped", result)
	}

	if len(d.created) != 1 {
		t.Errorf("CreateMailbox called %d times, want 1", len(d.created))
	}
}
