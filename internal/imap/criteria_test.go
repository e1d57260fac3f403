package imap

import (
	"errors"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/bscott/maillib/internal/filter"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token
	}{
		{"empty", "", nil},
		{"atoms", "SEEN  UNFLAGGED", []token{{text: "SEEN"}, {text: "UNFLAGGED"}}},
		{"quoted", `FROM "Ann Lee"`, []token{{text: "FROM"}, {text: "Ann Lee", quoted: true}}},
		{"escaped quote", `SUBJECT "a \"b\""`, []token{{text: "SUBJECT"}, {text: `a "b"`, quoted: true}}},
		{"empty string", `BODY ""`, []token{{text: "BODY"}, {text: "", quoted: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tokenize(tt.input)
			if err != nil {
				t.Fatalf("tokenize(%q) error = %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := tokenize(`FROM "open`); err == nil {
		t.Error("expected error for unterminated string")
	}
}

func TestParseCriteriaFlags(t *testing.T) {
	c, err := ParseCriteria("SEEN UNANSWERED FLAGGED UNDELETED")
	if err != nil {
		t.Fatalf("ParseCriteria() error = %v", err)
	}
	if len(c.Flag) != 2 || c.Flag[0] != imap.FlagSeen || c.Flag[1] != imap.FlagFlagged {
		t.Errorf("Flag = %v", c.Flag)
	}
	if len(c.NotFlag) != 2 || c.NotFlag[0] != imap.FlagAnswered || c.NotFlag[1] != imap.FlagDeleted {
		t.Errorf("NotFlag = %v", c.NotFlag)
	}
}

func TestParseCriteriaRejectsRecencyKeys(t *testing.T) {
	for _, predicate := range []string{"NEW", "OLD", "RECENT", `FROM "ann" RECENT`} {
		_, err := ParseCriteria(predicate)
		var unsupported *UnsupportedSearchKeyError
		if !errors.As(err, &unsupported) {
			t.Errorf("ParseCriteria(%q) error = %v, want *UnsupportedSearchKeyError", predicate, err)
		}
	}
}

func TestParseCriteriaBackslashRoundTrip(t *testing.T) {
	for _, value := range []string{`C:\path`, `foo\`, `\\server\share`} {
		predicate, err := filter.Compile([]filter.Condition{{Key: filter.From, Value: value}})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		c, err := ParseCriteria(predicate)
		if err != nil {
			t.Fatalf("ParseCriteria(%q) error = %v", predicate, err)
		}
		if len(c.Header) != 1 || c.Header[0].Value != value {
			t.Errorf("ParseCriteria(%q) header = %v, want %q", predicate, c.Header, value)
		}
	}
}

func TestParseCriteriaArguments(t *testing.T) {
	c, err := ParseCriteria(`FROM "alice" SUBJECT "Q3 report" BODY "budget" TEXT "x" KEYWORD "$Work" UNKEYWORD "$Junk"`)
	if err != nil {
		t.Fatalf("ParseCriteria() error = %v", err)
	}

	wantHeader := []imap.SearchCriteriaHeaderField{{Key: "From", Value: "alice"}, {Key: "Subject", Value: "Q3 report"}}
	if len(c.Header) != len(wantHeader) {
		t.Fatalf("Header = %v", c.Header)
	}
	for i := range wantHeader {
		if c.Header[i] != wantHeader[i] {
			t.Errorf("Header[%d] = %v, want %v", i, c.Header[i], wantHeader[i])
		}
	}
	if len(c.Body) != 1 || c.Body[0] != "budget" {
		t.Errorf("Body = %v", c.Body)
	}
	if len(c.Text) != 1 || c.Text[0] != "x" {
		t.Errorf("Text = %v", c.Text)
	}
	if len(c.Flag) != 1 || c.Flag[0] != "$Work" {
		t.Errorf("Flag = %v", c.Flag)
	}
	if len(c.NotFlag) != 1 || c.NotFlag[0] != "$Junk" {
		t.Errorf("NotFlag = %v", c.NotFlag)
	}
}

func TestParseCriteriaDates(t *testing.T) {
	day := time.Date(2023, time.March, 5, 0, 0, 0, 0, time.UTC)

	c, err := ParseCriteria(`SINCE "05 Mar 2023" BEFORE "10 Mar 2023"`)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Since.Equal(day) {
		t.Errorf("Since = %v, want %v", c.Since, day)
	}
	if !c.Before.Equal(day.AddDate(0, 0, 5)) {
		t.Errorf("Before = %v", c.Before)
	}

	c, err = ParseCriteria(`ON "5-Mar-2023"`)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Since.Equal(day) || !c.Before.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("ON = since %v before %v", c.Since, c.Before)
	}
}

func TestParseCriteriaErrors(t *testing.T) {
	tests := []string{
		"FROM",
		`"alice"`,
		`SINCE "not a date"`,
		"LARGER 100",
	}
	for _, predicate := range tests {
		if _, err := ParseCriteria(predicate); err == nil {
			t.Errorf("ParseCriteria(%q) expected error", predicate)
		}
	}
}

func TestParseCriteriaAll(t *testing.T) {
	for _, predicate := range []string{"", "ALL"} {
		c, err := ParseCriteria(predicate)
		if err != nil {
			t.Fatalf("ParseCriteria(%q) error = %v", predicate, err)
		}
		if len(c.Flag) != 0 || len(c.Header) != 0 || !c.Since.IsZero() {
			t.Errorf("ParseCriteria(%q) = %+v, want match-all", predicate, c)
		}
	}
}
