package imap

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/bscott/maillib/internal/message"
)

func TestNewClient(t *testing.T) {
	client := NewClient()
	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.client != nil {
		t.Error("internal client should be nil before Open()")
	}
}

func TestClientCloseWithoutOpen(t *testing.T) {
	client := NewClient()

	// Close should not panic when not connected
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestSplitPartNum(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []int
	}{
		{"empty string", "", nil},
		{"single number", "1", []int{1}},
		{"two numbers", "1.2", []int{1, 2}},
		{"three numbers", "1.2.3", []int{1, 2, 3}},
		{"larger numbers", "10.20.30", []int{10, 20, 30}},
		{"not a number", "1.x", nil},
		{"zero", "0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitPartNum(tt.input)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("splitPartNum(%q) = %v, want nil", tt.input, result)
				}
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("splitPartNum(%q) length = %d, want %d", tt.input, len(result), len(tt.expected))
				return
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("splitPartNum(%q)[%d] = %d, want %d", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestJoinPartNum(t *testing.T) {
	if got := joinPartNum([]int{1, 2, 3}); got != "1.2.3" {
		t.Errorf("joinPartNum() = %q, want %q", got, "1.2.3")
	}
	if got := joinPartNum(nil); got != "" {
		t.Errorf("joinPartNum(nil) = %q, want empty", got)
	}
}

func TestConvertStructureSinglePart(t *testing.T) {
	bs := &imap.BodyStructureSinglePart{
		Type:     "TEXT",
		Subtype:  "PLAIN",
		Params:   map[string]string{"charset": "utf-8"},
		Encoding: "QUOTED-PRINTABLE",
		Size:     120,
	}

	part := convertStructure(bs, nil)
	if part.ID != message.RootPartID {
		t.Errorf("ID = %q, want %q", part.ID, message.RootPartID)
	}
	if part.MediaType() != "text/plain" {
		t.Errorf("MediaType() = %q", part.MediaType())
	}
	if part.Encoding != message.EncodingQuotedPrintable {
		t.Errorf("Encoding = %v", part.Encoding)
	}
	if part.Size != 120 {
		t.Errorf("Size = %d", part.Size)
	}
}

func TestConvertStructureMultiPart(t *testing.T) {
	bs := &imap.BodyStructureMultiPart{
		Subtype: "MIXED",
		Children: []imap.BodyStructure{
			&imap.BodyStructureMultiPart{
				Subtype: "ALTERNATIVE",
				Children: []imap.BodyStructure{
					&imap.BodyStructureSinglePart{Type: "text", Subtype: "plain", Encoding: "7BIT"},
					&imap.BodyStructureSinglePart{Type: "text", Subtype: "html", Encoding: "BASE64"},
				},
			},
			&imap.BodyStructureSinglePart{
				Type:     "application",
				Subtype:  "pdf",
				Encoding: "base64",
				Params:   map[string]string{"name": "report.pdf"},
				Extended: &imap.BodyStructureSinglePartExt{
					Disposition: &imap.BodyStructureDisposition{Value: "attachment", Params: map[string]string{"filename": "report.pdf"}},
				},
			},
		},
	}

	root := convertStructure(bs, nil)
	if root.ID != "" || !root.IsMultipart() {
		t.Fatalf("root = %+v, want multipart without id", root)
	}

	wantIDs := []string{"1.1", "1.2", "2"}
	leaves := root.Leaves()
	if len(leaves) != len(wantIDs) {
		t.Fatalf("Leaves() = %d parts, want %d", len(leaves), len(wantIDs))
	}
	for i, leaf := range leaves {
		if leaf.ID != wantIDs[i] {
			t.Errorf("leaf %d ID = %q, want %q", i, leaf.ID, wantIDs[i])
		}
	}

	attachment := root.Find("2")
	if attachment == nil || !attachment.IsAttachment() || attachment.Filename != "report.pdf" {
		t.Errorf("Find(2) = %+v, want report.pdf attachment", attachment)
	}

	parts := root.BodyParts("text/plain")
	if len(parts) != 1 || parts[0].ID != "1.1" || parts[0].Encoding != message.Encoding7Bit {
		t.Errorf("BodyParts(text/plain) = %+v", parts)
	}
}

func TestClientMethodsRequireConnection(t *testing.T) {
	client := NewClient()

	// All these methods should fail gracefully when not connected

	t.Run("ListFolders without connection", func(t *testing.T) {
		if _, err := client.ListFolders("", "*"); err == nil {
			t.Error("expected error when not connected")
		}
	})

	t.Run("Reopen without connection", func(t *testing.T) {
		if err := client.Reopen("INBOX"); err == nil {
			t.Error("expected error when not connected")
		}
	})

	t.Run("CreateFolder without connection", func(t *testing.T) {
		if err := client.CreateFolder("TestFolder"); err == nil {
			t.Error("expected error when not connected")
		}
	})

	t.Run("DeleteFolder without connection", func(t *testing.T) {
		if err := client.DeleteFolder("TestFolder"); err == nil {
			t.Error("expected error when not connected")
		}
	})

	t.Run("SortByArrival without connection", func(t *testing.T) {
		if _, err := client.SortByArrival("ALL", SearchCharset); err == nil {
			t.Error("expected error when not connected")
		}
	})

	t.Run("FetchBody without connection", func(t *testing.T) {
		if _, err := client.FetchBody(1, "1", true); err == nil {
			t.Error("expected error when not connected")
		}
	})
}

// searchServer answers UID SEARCH with a fixed result over an in-memory pipe
// and records every command line it receives.
type searchServer struct {
	mu    sync.Mutex
	lines []string
}

func (s *searchServer) serve(conn net.Conn) {
	defer conn.Close()
	if _, err := conn.Write([]byte("* OK [CAPABILITY IMAP4rev1] ready\r\n")); err != nil {
		return
	}
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()

		tag, rest, _ := strings.Cut(line, " ")
		if strings.HasPrefix(strings.ToUpper(rest), "UID SEARCH") {
			conn.Write([]byte("* SEARCH 7 3\r\n"))
		}
		conn.Write([]byte(tag + " OK done\r\n"))
	}
}

func (s *searchServer) searchLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, line := range s.lines {
		if strings.Contains(strings.ToUpper(line), "SEARCH") {
			out = append(out, line)
		}
	}
	return out
}

func newPipeClient(t *testing.T) (*Client, *searchServer) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	srv := &searchServer{}
	go srv.serve(serverConn)
	c := &Client{client: imapclient.New(clientConn, nil)}
	t.Cleanup(func() { c.client.Close() })
	return c, srv
}

func TestSortByArrivalSearchesOnTheWire(t *testing.T) {
	c, srv := newPipeClient(t)

	uids, err := c.SortByArrival(`UNSEEN FROM "alice"`, "UTF-8")
	if err != nil {
		t.Fatalf("SortByArrival() error = %v", err)
	}
	if len(uids) != 2 || uids[0] != 3 || uids[1] != 7 {
		t.Errorf("SortByArrival() = %v, want [3 7]", uids)
	}

	lines := srv.searchLines()
	if len(lines) != 1 {
		t.Fatalf("search commands = %q, want one", lines)
	}
	upper := strings.ToUpper(lines[0])
	if !strings.Contains(upper, "UID SEARCH") || !strings.Contains(upper, "UNSEEN") {
		t.Errorf("search command = %q, want UID SEARCH with UNSEEN", lines[0])
	}
	if strings.Contains(upper, "KEYWORD") {
		t.Errorf("search command = %q, should not carry a KEYWORD key", lines[0])
	}
}

func TestSortByArrivalRejectsRecencyKeysBeforeSending(t *testing.T) {
	c, srv := newPipeClient(t)

	for _, predicate := range []string{"NEW", "OLD", "RECENT"} {
		_, err := c.SortByArrival(predicate, "UTF-8")
		var unsupported *UnsupportedSearchKeyError
		if !errors.As(err, &unsupported) {
			t.Fatalf("SortByArrival(%q) error = %v, want *UnsupportedSearchKeyError", predicate, err)
		}
		if unsupported.Key != predicate {
			t.Errorf("UnsupportedSearchKeyError.Key = %q, want %q", unsupported.Key, predicate)
		}
	}
	if lines := srv.searchLines(); len(lines) != 0 {
		t.Errorf("search commands = %q, want none", lines)
	}
}
