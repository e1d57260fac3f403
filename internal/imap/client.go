package imap

import (
	"crypto/tls"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"

	"github.com/bscott/maillib/internal/mailbox"
	"github.com/bscott/maillib/internal/message"
)

// Client is a Transport backed by go-imap's imapclient. imapclient encodes
// mailbox names itself, so raw names are decoded before they are handed to it
// and LIST results are encoded again on the way back.
type Client struct {
	client *imapclient.Client
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Open(server ServerSpec, username, password string) error {
	options := &imapclient.Options{
		TLSConfig: &tls.Config{
			InsecureSkipVerify: server.InsecureSkipVerify,
			ServerName:         server.Host,
		},
	}

	var (
		client *imapclient.Client
		err    error
	)
	switch server.Security {
	case SecurityTLS:
		client, err = imapclient.DialTLS(server.Addr(), options)
	case SecurityNone:
		client, err = imapclient.DialInsecure(server.Addr(), options)
	default:
		client, err = imapclient.DialStartTLS(server.Addr(), options)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := authenticate(client, server.Auth, username, password); err != nil {
		client.Close()
		return fmt.Errorf("IMAP login failed: %w", err)
	}

	c.client = client
	return nil
}

func authenticate(client *imapclient.Client, mechanism, username, password string) error {
	switch strings.ToLower(mechanism) {
	case "", "login":
		return client.Login(username, password).Wait()
	case "plain":
		return client.Authenticate(sasl.NewPlainClient("", username, password))
	}
	return fmt.Errorf("unsupported auth mechanism %q", mechanism)
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	// Logout errors are irrelevant, the connection is closed either way.
	_ = c.client.Logout().Wait()
	err := c.client.Close()
	c.client = nil
	return err
}

func (c *Client) connected() error {
	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	return nil
}

// ListFolders lists folders matching pattern. Server references in the
// {host:port/flags} form only mean something to c-client style engines and are
// sent as the empty reference.
func (c *Client) ListFolders(reference, pattern string) ([]string, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(reference, "{") {
		reference = ""
	}

	mailboxes, err := c.client.List(reference, pattern, nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}

	result := make([]string, 0, len(mailboxes))
	for _, mb := range mailboxes {
		raw, err := mailbox.Encode(mb.Mailbox)
		if err != nil {
			return nil, err
		}
		result = append(result, raw)
	}
	return result, nil
}

func (c *Client) CreateFolder(raw string) error {
	name, err := c.folderName(raw)
	if err != nil {
		return err
	}
	if err := c.client.Create(name, nil).Wait(); err != nil {
		return fmt.Errorf("failed to create mailbox %s: %w", name, err)
	}
	return nil
}

func (c *Client) RenameFolder(from, to string) error {
	oldName, err := c.folderName(from)
	if err != nil {
		return err
	}
	newName, err := mailbox.Decode(to)
	if err != nil {
		return err
	}
	if err := c.client.Rename(oldName, newName, nil).Wait(); err != nil {
		return fmt.Errorf("failed to rename mailbox %s: %w", oldName, err)
	}
	return nil
}

func (c *Client) DeleteFolder(raw string) error {
	name, err := c.folderName(raw)
	if err != nil {
		return err
	}
	if err := c.client.Delete(name).Wait(); err != nil {
		return fmt.Errorf("failed to delete mailbox %s: %w", name, err)
	}
	return nil
}

func (c *Client) Reopen(raw string) error {
	name, err := c.folderName(raw)
	if err != nil {
		return err
	}
	if _, err := c.client.Select(name, nil).Wait(); err != nil {
		return fmt.Errorf("failed to select mailbox %s: %w", name, err)
	}
	return nil
}

func (c *Client) Expunge() error {
	if err := c.connected(); err != nil {
		return err
	}
	if err := c.client.Expunge().Close(); err != nil {
		return fmt.Errorf("failed to expunge: %w", err)
	}
	return nil
}

func (c *Client) folderName(raw string) (string, error) {
	if err := c.connected(); err != nil {
		return "", err
	}
	return mailbox.Decode(raw)
}

// SortByArrival runs UID SORT (ARRIVAL) when the server has SORT and falls
// back to UID SEARCH, whose ascending UIDs follow arrival order. imapclient
// picks the search charset itself, so charset is informational.
func (c *Client) SortByArrival(predicate, charset string) ([]uint32, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}

	criteria, err := ParseCriteria(predicate)
	if err != nil {
		return nil, err
	}

	if c.client.Caps().Has(imap.CapSort) {
		uids, err := c.client.UIDSort(&imapclient.SortOptions{
			SearchCriteria: criteria,
			SortCriteria:   []imapclient.SortCriterion{{Key: imapclient.SortKeyArrival}},
		}).Wait()
		if err != nil {
			return nil, fmt.Errorf("sort failed: %w", err)
		}
		return uids, nil
	}

	data, err := c.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	found := data.AllUIDs()
	uids := make([]uint32, len(found))
	for i, uid := range found {
		uids[i] = uint32(uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

func (c *Client) fetchOne(uid uint32, options *imap.FetchOptions) (*imapclient.FetchMessageBuffer, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}

	msgs, err := c.client.Fetch(imap.UIDSetNum(imap.UID(uid)), options).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}
	return msgs[0], nil
}

func (c *Client) FetchHeaderBlock(uid uint32) ([]byte, error) {
	section := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierHeader, Peek: true}
	buf, err := c.fetchOne(uid, &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	})
	if err != nil {
		return nil, err
	}
	return buf.FindBodySection(section), nil
}

func (c *Client) FetchStructure(uid uint32) (*message.Part, error) {
	buf, err := c.fetchOne(uid, &imap.FetchOptions{
		UID:           true,
		BodyStructure: &imap.FetchItemBodyStructure{Extended: true},
	})
	if err != nil {
		return nil, err
	}
	if buf.BodyStructure == nil {
		return nil, fmt.Errorf("no body structure for message UID %d", uid)
	}
	return convertStructure(buf.BodyStructure, nil), nil
}

// FetchBody fetches one body part. Part "0" is the whole body text of a
// message that is not multipart.
func (c *Client) FetchBody(uid uint32, partID string, peek bool) ([]byte, error) {
	section := &imap.FetchItemBodySection{Peek: peek}
	if partID == message.RootPartID || partID == "" {
		section.Specifier = imap.PartSpecifierText
	} else {
		section.Part = splitPartNum(partID)
		if section.Part == nil {
			return nil, fmt.Errorf("invalid part id %q", partID)
		}
	}

	buf, err := c.fetchOne(uid, &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	})
	if err != nil {
		return nil, err
	}
	return buf.FindBodySection(section), nil
}

// convertStructure maps a go-imap body structure onto message.Part. A
// single-part root gets message.RootPartID.
func convertStructure(bs imap.BodyStructure, path []int) *message.Part {
	id := joinPartNum(path)
	if path == nil {
		id = message.RootPartID
	}

	switch bs := bs.(type) {
	case *imap.BodyStructureMultiPart:
		part := &message.Part{Type: "multipart", Subtype: strings.ToLower(bs.Subtype)}
		if path != nil {
			part.ID = id
		}
		if bs.Extended != nil {
			part.Params = bs.Extended.Params
		}
		for i, child := range bs.Children {
			childPath := append(append([]int(nil), path...), i+1)
			part.Children = append(part.Children, convertStructure(child, childPath))
		}
		return part
	case *imap.BodyStructureSinglePart:
		part := &message.Part{
			ID:       id,
			Type:     strings.ToLower(bs.Type),
			Subtype:  strings.ToLower(bs.Subtype),
			Params:   bs.Params,
			Encoding: message.ParseTransferEncoding(bs.Encoding),
			Size:     bs.Size,
			Filename: bs.Filename(),
		}
		if d := bs.Disposition(); d != nil {
			part.Disposition = strings.ToLower(d.Value)
		}
		return part
	}
	return &message.Part{ID: id}
}

func splitPartNum(s string) []int {
	if s == "" {
		return nil
	}
	fields := strings.Split(s, ".")
	nums := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 {
			return nil
		}
		nums = append(nums, n)
	}
	return nums
}

func joinPartNum(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
