package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"
)

// Formatter renders command results as text or JSON. Results go to Writer,
// diagnostics to ErrWriter.
type Formatter struct {
	JSON      bool
	Verbose   bool
	Quiet     bool
	NoColor   bool
	Writer    io.Writer
	ErrWriter io.Writer
}

// New returns a formatter on stdout/stderr. Colors are off when NO_COLOR is
// set or stdout is not a terminal.
func New(jsonOutput, verbose, quiet bool) *Formatter {
	return &Formatter{
		JSON:      jsonOutput,
		Verbose:   verbose,
		Quiet:     quiet,
		NoColor:   os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())),
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

// Color wraps text in ANSI color codes if colors are enabled
func (f *Formatter) Color(color, text string) string {
	if f.NoColor || f.JSON {
		return text
	}
	return color + text + Reset
}

func (f *Formatter) Bold(text string) string        { return f.Color(Bold, text) }
func (f *Formatter) SuccessText(text string) string { return f.Color(Green, text) }
func (f *Formatter) ErrorText(text string) string   { return f.Color(Red, text) }
func (f *Formatter) WarningText(text string) string { return f.Color(Yellow, text) }
func (f *Formatter) InfoText(text string) string    { return f.Color(Cyan, text) }
func (f *Formatter) MutedText(text string) string   { return f.Color(Gray, text) }

func (f *Formatter) Print(v any) error {
	if f.JSON {
		return f.PrintJSON(v)
	}
	_, err := fmt.Fprintln(f.Writer, v)
	return err
}

func (f *Formatter) PrintJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *Formatter) PrintSuccess(message string) {
	if f.Quiet {
		return
	}
	if f.JSON {
		f.PrintJSON(JSONResponse{Success: true, Message: message})
		return
	}
	fmt.Fprintln(f.Writer, f.SuccessText("✓")+" "+message)
}

// Warnf reports a non-fatal condition on ErrWriter.
func (f *Formatter) Warnf(format string, args ...any) {
	if f.Quiet {
		return
	}
	fmt.Fprintln(f.ErrWriter, f.WarningText("Warning:")+" "+fmt.Sprintf(format, args...))
}

func (f *Formatter) Verbosef(format string, args ...any) {
	if f.Verbose && !f.Quiet {
		fmt.Fprintln(f.ErrWriter, f.MutedText(fmt.Sprintf(format, args...)))
	}
}

type TableWriter struct {
	w *tabwriter.Writer
}

func (f *Formatter) NewTable(headers ...string) *TableWriter {
	tw := &TableWriter{w: tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)}
	if len(headers) > 0 {
		bold := make([]string, len(headers))
		for i, h := range headers {
			bold[i] = f.Bold(h)
		}
		fmt.Fprintln(tw.w, strings.Join(bold, "\t"))
	}
	return tw
}

func (t *TableWriter) AddRow(values ...string) {
	fmt.Fprintln(t.w, strings.Join(values, "\t"))
}

func (t *TableWriter) Flush() {
	t.w.Flush()
}

// Field is one labelled line of a record.
type Field struct {
	Name  string
	Value string
}

// PrintFields writes fields as aligned "Name: value" lines. Empty values are
// skipped.
func (f *Formatter) PrintFields(fields []Field) {
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 1, ' ', 0)
	for _, field := range fields {
		if field.Value == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", f.Bold(field.Name+":"), field.Value)
	}
	tw.Flush()
}

// Tree is a node printed by PrintTree.
type Tree struct {
	Label    string
	Children []Tree
}

// PrintTree writes t with two spaces of indentation per level.
func (f *Formatter) PrintTree(t Tree) {
	f.printTree(t, 0)
}

func (f *Formatter) printTree(t Tree, depth int) {
	fmt.Fprintf(f.Writer, "%s%s\n", strings.Repeat("  ", depth), t.Label)
	for _, c := range t.Children {
		f.printTree(c, depth+1)
	}
}

type JSONResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Success wraps data in a JSONResponse. It prints nothing in text mode.
func (f *Formatter) Success(data any) error {
	if f.JSON {
		return f.PrintJSON(JSONResponse{
			Success: true,
			Data:    data,
		})
	}
	return nil
}

// Error reports err. In JSON mode the error becomes a JSONResponse on Writer
// and the return value is the encoding error, if any. In text mode err is
// printed to ErrWriter and returned.
func (f *Formatter) Error(err error) error {
	if f.JSON {
		return f.PrintJSON(JSONResponse{
			Success: false,
			Error:   err.Error(),
		})
	}
	fmt.Fprintf(f.ErrWriter, "%s %s\n", f.ErrorText("Error:"), err)
	return err
}
