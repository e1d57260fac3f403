package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bscott/maillib/internal/connection"
	"github.com/bscott/maillib/internal/filter"
	"github.com/bscott/maillib/internal/message"
	"github.com/bscott/maillib/internal/output"
)

// commonHeaders are shown by 'mail headers' and 'mail read' unless all
// headers are requested.
var commonHeaders = []string{"Date", "From", "To", "Cc", "Subject", "Message-ID"}

// MessageSummary is one row of 'mail search --summary'.
type MessageSummary struct {
	UID     uint32 `json:"uid"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
}

// Message is the result of 'mail read'.
type Message struct {
	UID     uint32          `json:"uid"`
	Mailbox string          `json:"mailbox"`
	Headers message.Headers `json:"headers"`
	Body    string          `json:"body"`
}

// conditions turns the search flags into filter conditions in flag order.
func (c *MailSearchCmd) conditions() ([]filter.Condition, error) {
	var conds []filter.Condition
	str := func(key filter.Criterion, v string) {
		if v != "" {
			conds = append(conds, filter.Condition{Key: key, Value: v})
		}
	}
	flag := func(key filter.Criterion, set, unset bool) {
		if set || unset {
			conds = append(conds, filter.Condition{Key: key, Value: set})
		}
	}
	none := func(key filter.Criterion, set bool) {
		if set {
			conds = append(conds, filter.Condition{Key: key})
		}
	}

	str(filter.From, c.From)
	str(filter.To, c.To)
	str(filter.Cc, c.Cc)
	str(filter.Bcc, c.Bcc)
	str(filter.Subject, c.Subject)
	str(filter.Body, c.Body)
	str(filter.Text, c.Text)
	for _, k := range c.Keyword {
		str(filter.Keyword, k)
	}
	for _, k := range c.NotKeyword {
		str(filter.NotKeyword, k)
	}
	str(filter.Since, c.Since)
	str(filter.Before, c.Before)
	str(filter.On, c.On)
	flag(filter.Seen, c.Seen, c.Unseen)
	flag(filter.Answered, c.Answered, c.Unanswered)
	flag(filter.Flagged, c.Flagged, c.Unflagged)
	flag(filter.Deleted, c.Deleted, c.Undeleted)
	none(filter.New, c.New)
	none(filter.Old, c.Old)
	none(filter.Recent, c.Recent)

	for _, w := range c.Where {
		cond, err := parseWhere(w)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

// parseWhere reads key=value. Flag keys take a boolean and default to true,
// keys without a value take none.
func parseWhere(s string) (filter.Condition, error) {
	name, value, hasValue := strings.Cut(s, "=")
	key, err := filter.ParseCriterion(name)
	if err != nil {
		return filter.Condition{}, err
	}

	shape, _ := key.Shape()
	switch shape {
	case filter.ShapeNone:
		if hasValue {
			return filter.Condition{}, fmt.Errorf("%s takes no value", key)
		}
		return filter.Condition{Key: key}, nil
	case filter.ShapeFlag:
		if !hasValue {
			return filter.Condition{Key: key, Value: true}, nil
		}
		set, err := strconv.ParseBool(value)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return filter.Condition{Key: key, Value: set}, nil
	}
	if !hasValue {
		return filter.Condition{}, fmt.Errorf("%s needs a value (%s=...)", key, key)
	}
	return filter.Condition{Key: key, Value: value}, nil
}

func (c *MailSearchCmd) Run(ctx *Context) error {
	conds, err := c.conditions()
	if err != nil {
		return err
	}

	conn, err := ctx.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	name := ctx.mailboxOrDefault(c.Mailbox)
	sel, err := conn.Mailbox(name)
	if err != nil {
		return err
	}
	for _, cond := range conds {
		if sel, err = sel.Where(cond.Key, cond.Value); err != nil {
			return err
		}
	}

	limit := c.Limit
	if limit == 0 {
		limit = ctx.Config.Defaults.Limit
	}
	sel = sel.Limit(limit).Offset(c.Offset)
	if c.Reverse {
		sel = sel.Order(filter.Descending)
	}

	ctx.Formatter.Verbosef("Searching %s...", name)
	uids, err := sel.UIDs()
	if err != nil {
		return err
	}

	if !c.Summary {
		if ctx.Formatter.JSON {
			return ctx.Formatter.PrintJSON(map[string]any{
				"mailbox": name,
				"count":   len(uids),
				"uids":    uids,
			})
		}
		for _, uid := range uids {
			fmt.Fprintln(ctx.Formatter.Writer, uid)
		}
		return nil
	}

	summaries := make([]MessageSummary, 0, len(uids))
	for _, uid := range uids {
		h, err := sel.Headers(uid)
		if err != nil {
			return err
		}
		summaries = append(summaries, MessageSummary{
			UID:     uid,
			From:    h.Contacts("From").String(),
			Date:    h.Text("Date"),
			Subject: h.Text("Subject"),
		})
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(map[string]any{
			"mailbox":  name,
			"count":    len(summaries),
			"messages": summaries,
		})
	}

	if len(summaries) == 0 {
		fmt.Fprintln(ctx.Formatter.Writer, "No messages found.")
		return nil
	}
	table := ctx.Formatter.NewTable("UID", "FROM", "DATE", "SUBJECT")
	for _, s := range summaries {
		table.AddRow(strconv.FormatUint(uint64(s.UID), 10), truncate(s.From, 30), s.Date, truncate(s.Subject, 60))
	}
	table.Flush()
	return nil
}

func openMailbox(ctx *Context, name string) (*connection.Connection, *connection.Selection, error) {
	conn, err := ctx.Connect()
	if err != nil {
		return nil, nil, err
	}
	sel, err := conn.Mailbox(ctx.mailboxOrDefault(name))
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, sel, nil
}

func headerFields(h message.Headers, all bool) []output.Field {
	names := commonHeaders
	if all {
		names = h.Names()
	}
	fields := make([]output.Field, 0, len(names))
	for _, name := range names {
		if v, ok := h.Get(name); ok {
			fields = append(fields, output.Field{Name: name, Value: v.String()})
		}
	}
	return fields
}

func (c *MailHeadersCmd) Run(ctx *Context) error {
	conn, sel, err := openMailbox(ctx, c.Mailbox)
	if err != nil {
		return err
	}
	defer conn.Close()

	h, err := sel.Headers(c.UID)
	if err != nil {
		return err
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(h)
	}
	ctx.Formatter.PrintFields(headerFields(h, c.All))
	return nil
}

func structureTree(p *message.Part) output.Tree {
	label := p.MediaType()
	if p.ID != "" {
		label = p.ID + " " + label
	}
	if !p.IsMultipart() {
		label += fmt.Sprintf(" %s %s", p.Encoding, formatSize(int64(p.Size)))
	}
	if p.IsAttachment() {
		label += " attachment"
		if p.Filename != "" {
			label += " " + strconv.Quote(p.Filename)
		}
	}

	t := output.Tree{Label: label}
	for _, child := range p.Children {
		t.Children = append(t.Children, structureTree(child))
	}
	return t
}

func (c *MailStructureCmd) Run(ctx *Context) error {
	conn, sel, err := openMailbox(ctx, c.Mailbox)
	if err != nil {
		return err
	}
	defer conn.Close()

	root, err := sel.Structure(c.UID)
	if err != nil {
		return err
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(root)
	}
	ctx.Formatter.PrintTree(structureTree(root))
	return nil
}

// selectParts resolves part ids against the structure so each part is
// decoded with its own transfer encoding.
func selectParts(root *message.Part, ids []string) ([]message.BodyPart, error) {
	parts := make([]message.BodyPart, 0, len(ids))
	for _, id := range ids {
		p := root.Find(id)
		if p == nil || p.IsMultipart() {
			return nil, fmt.Errorf("message has no content part %q - see 'maillib mail structure'", id)
		}
		parts = append(parts, message.BodyPart{ID: p.ID, Encoding: p.Encoding})
	}
	return parts, nil
}

func (c *MailReadCmd) Run(ctx *Context) error {
	conn, sel, err := openMailbox(ctx, c.Mailbox)
	if err != nil {
		return err
	}
	defer conn.Close()

	h, err := sel.Headers(c.UID)
	if err != nil {
		return err
	}

	var body string
	if len(c.Part) == 0 {
		body, err = sel.Body(c.UID)
	} else {
		var root *message.Part
		if root, err = sel.Structure(c.UID); err != nil {
			return err
		}
		var parts []message.BodyPart
		if parts, err = selectParts(root, c.Part); err != nil {
			return err
		}
		body, err = conn.Driver().GetBody(c.UID, parts)
	}
	if err != nil {
		return err
	}

	if ctx.Formatter.JSON {
		return ctx.Formatter.PrintJSON(Message{
			UID:     c.UID,
			Mailbox: sel.Name(),
			Headers: h,
			Body:    body,
		})
	}

	ctx.Formatter.PrintFields(headerFields(h, c.Headers))
	fmt.Fprintln(ctx.Formatter.Writer)
	fmt.Fprintln(ctx.Formatter.Writer, body)
	return nil
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
