package filter

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validValue(s Shape) any {
	switch s {
	case ShapeString:
		return "value"
	case ShapeDate:
		return time.Date(2024, time.January, 15, 12, 0, 0, 0, time.Local)
	case ShapeFlag:
		return true
	}
	return nil
}

func invalidValues(s Shape) []any {
	switch s {
	case ShapeString:
		return []any{42, true, nil, time.Now(), []byte("bytes")}
	case ShapeDate:
		return []any{true, nil, "not a date at all", 3.5}
	case ShapeFlag:
		return []any{"yes", 1, nil}
	}
	return []any{true, "x", 0}
}

func TestCheckAcceptsDeclaredShapes(t *testing.T) {
	for _, key := range All {
		shape, ok := key.Shape()
		if !ok {
			t.Fatalf("%v has no table entry", key)
		}
		if err := Check(key, validValue(shape)); err != nil {
			t.Errorf("Check(%v, valid) error = %v", key, err)
		}
	}
}

func TestCheckRejectsMismatchedShapes(t *testing.T) {
	for _, key := range All {
		shape, _ := key.Shape()
		for _, v := range invalidValues(shape) {
			t.Run(key.String(), func(t *testing.T) {
				err := Check(key, v)
				var valErr *InvalidValueError
				if !errors.As(err, &valErr) {
					t.Fatalf("Check(%v, %#v) error = %v, want *InvalidValueError", key, v, err)
				}
				if valErr.Expected != shape {
					t.Errorf("Expected = %v, want %v", valErr.Expected, shape)
				}
			})
		}
	}
}

func TestCheckUnknownKey(t *testing.T) {
	err := Check(Criterion(999), "x")
	var keyErr *InvalidKeyError
	if !errors.As(err, &keyErr) {
		t.Fatalf("Check() error = %v, want *InvalidKeyError", err)
	}
}

func TestCheckDateForms(t *testing.T) {
	values := []any{
		time.Now(),
		1705320000,
		int64(1705320000),
		uint32(1705320000),
		"2024-01-15",
		"15 Jan 2024",
		"yesterday",
	}
	for _, v := range values {
		if err := Check(Since, v); err != nil {
			t.Errorf("Check(Since, %#v) error = %v", v, err)
		}
	}
}

func TestCompileEmpty(t *testing.T) {
	got, err := Compile(nil)
	if err != nil {
		t.Fatalf("Compile(nil) error = %v", err)
	}
	if got != "" {
		t.Errorf("Compile(nil) = %q, want empty", got)
	}
}

func TestCompile(t *testing.T) {
	day := time.Date(2024, time.January, 5, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name  string
		conds []Condition
		want  string
	}{
		{"flag set", []Condition{{Seen, true}}, "SEEN"},
		{"flag unset", []Condition{{Seen, false}}, "UNSEEN"},
		{"answered unset", []Condition{{Answered, false}}, "UNANSWERED"},
		{"string", []Condition{{From, "alice@example.com"}}, `FROM "alice@example.com"`},
		{"keyword", []Condition{{Keyword, "$Work"}}, `KEYWORD "$Work"`},
		{"not keyword", []Condition{{NotKeyword, "$Junk"}}, `UNKEYWORD "$Junk"`},
		{"date object", []Condition{{Since, day}}, `SINCE "05 Jan 2024"`},
		{"date epoch", []Condition{{Before, day.Unix()}}, `BEFORE "05 Jan 2024"`},
		{"date string", []Condition{{On, "2024-01-05"}}, `ON "05 Jan 2024"`},
		{"no value", []Condition{{Recent, nil}}, "RECENT"},
		{
			"ordered join",
			[]Condition{{Subject, "report"}, {Seen, false}, {New, nil}, {To, "bob"}},
			`SUBJECT "report" UNSEEN NEW TO "bob"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compile(tt.conds)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompileStripsQuotes(t *testing.T) {
	for _, key := range All {
		if shape, _ := key.Shape(); shape != ShapeString {
			continue
		}
		got, err := Compile([]Condition{{key, `say "hi" "there"`}})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		inner := got[strings.Index(got, `"`)+1 : len(got)-1]
		if strings.Contains(inner, `"`) {
			t.Errorf("Compile(%v) = %q leaves a quote inside the value", key, got)
		}
		if inner != "say hi there" {
			t.Errorf("Compile(%v) value = %q, want %q", key, inner, "say hi there")
		}
	}
}

func TestCompileEscapesBackslashes(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{`C:\path`, `FROM "C:\\path"`},
		{`foo\`, `FROM "foo\\"`},
		{`a\"b`, `FROM "a\\b"`},
	}

	for _, tt := range tests {
		got, err := Compile([]Condition{{From, tt.value}})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("Compile(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestCompileUnparseableDateFallsBackToNow(t *testing.T) {
	now := time.Date(2023, time.March, 9, 14, 0, 0, 0, time.Local)
	c := Compiler{Now: func() time.Time { return now }}

	got, err := c.Compile([]Condition{{Since, "definitely not a date"}})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if got != `SINCE "09 Mar 2023"` {
		t.Errorf("Compile() = %q, want %q", got, `SINCE "09 Mar 2023"`)
	}
}

func TestCompileUnknownKey(t *testing.T) {
	_, err := Compile([]Condition{{Criterion(0), nil}})
	var keyErr *InvalidKeyError
	if !errors.As(err, &keyErr) {
		t.Fatalf("Compile() error = %v, want *InvalidKeyError", err)
	}
}

func TestParseCriterion(t *testing.T) {
	tests := []struct {
		input string
		want  Criterion
	}{
		{"from", From},
		{"FROM", From},
		{"not_keyword", NotKeyword},
		{"not-keyword", NotKeyword},
		{" since ", Since},
	}
	for _, tt := range tests {
		got, err := ParseCriterion(tt.input)
		if err != nil {
			t.Fatalf("ParseCriterion(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseCriterion(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := ParseCriterion("larger"); err == nil {
		t.Error("ParseCriterion(larger) expected error")
	}
}

func TestFilterWhere(t *testing.T) {
	f := NewFilter()
	if err := f.Where(From, "alice"); err != nil {
		t.Fatalf("Where() error = %v", err)
	}
	if err := f.Where(Seen, "no"); err == nil {
		t.Error("Where() expected error for bad value")
	}
	f.AddCondition(Recent, nil)

	conds := f.Conditions()
	if len(conds) != 2 {
		t.Fatalf("len(Conditions()) = %d, want 2", len(conds))
	}
	if conds[0].Key != From || conds[1].Key != Recent {
		t.Errorf("Conditions() = %v, want [from recent]", conds)
	}

	got, err := f.Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if got != `FROM "alice" RECENT` {
		t.Errorf("Compile() = %q", got)
	}
}

func TestFilterClone(t *testing.T) {
	f := NewFilter().AddCondition(Seen, true)
	c := f.Clone()
	c.AddCondition(Flagged, true)
	c.Limit = 5

	if len(f.Conditions()) != 1 {
		t.Errorf("original gained conditions from clone")
	}
	if f.Limit != 0 {
		t.Errorf("original Limit = %d, want 0", f.Limit)
	}
}

func TestFilterApply(t *testing.T) {
	uids := []uint32{1, 2, 3, 4, 5}

	tests := []struct {
		name   string
		filter Filter
		want   []uint32
	}{
		{"unset", Filter{}, []uint32{1, 2, 3, 4, 5}},
		{"limit", Filter{Limit: 2}, []uint32{1, 2}},
		{"offset", Filter{Offset: 3}, []uint32{4, 5}},
		{"offset past end", Filter{Offset: 10}, []uint32{}},
		{"descending paged", Filter{Order: Descending, Offset: 1, Limit: 2}, []uint32{4, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(uids)
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Apply() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}

	if uids[0] != 1 {
		t.Error("Apply() modified its input")
	}
}
