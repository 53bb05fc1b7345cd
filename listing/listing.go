// Package listing formats the assembly listing of the palx assembler.
package listing

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ezrec/palx/pal"
)

const (
	LINES_PER_PAGE   = 60  // Default listing lines per page
	COLUMNS_PER_PAGE = 120 // Default listing columns per page
)

// Banner is printed at the top of every listing page.
var Banner = "PALX - PDP-8/IM6100/HD6120 Cross Assembler"

// Contents is a table of contents entry.
type Contents struct {
	Title string
	Page  int
}

// Writer writes a paginated assembly listing. Lines with errors are also
// written to the Errors writer, if it is set.
type Writer struct {
	Output io.Writer
	Errors io.Writer

	LinesPerPage   int
	ColumnsPerPage int

	FileName string    // Source file name, shown on every page.
	Date     time.Time // Time stamp of every page.

	options  pal.ListOptions
	title    string
	pages    int
	lines    int
	newPage  bool
	contents []Contents
	err      error
}

// NewWriter creates a listing writer with the default page geometry.
func NewWriter(output io.Writer, fileName string) *Writer {
	return &Writer{
		Output:         output,
		LinesPerPage:   LINES_PER_PAGE,
		ColumnsPerPage: COLUMNS_PER_PAGE,
		FileName:       fileName,
		Date:           time.Now(),
		options:        pal.DefaultListOptions,
		newPage:        true,
	}
}

// Err returns the first error writing the listing.
func (lw *Writer) Err() error {
	return lw.err
}

// Pages returns the number of listing pages started so far.
func (lw *Writer) Pages() int {
	return lw.pages
}

// Contents returns the table of contents collected so far.
func (lw *Writer) Contents() []Contents {
	return lw.contents
}

func (lw *Writer) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.Output, format, args...)
}

// padLeft right justifies text in a field of width characters.
func padLeft(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", width-len(text)) + text
}

// padRight left justifies text in a field of width characters.
func padRight(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return text + strings.Repeat(" ", width-len(text))
}

// page starts a new listing page with its header.
func (lw *Writer) page() {
	lw.newPage = false
	if !lw.options.Paginate {
		return
	}

	if lw.pages > 0 {
		lw.printf("\f")
	}
	lw.pages++

	date := pal.FormatDate(lw.Date)
	width := max(lw.ColumnsPerPage-len(Banner)-22, len(date))
	lw.printf("%s %s %8s    Page %3d\n", Banner, padLeft(date, width), pal.FormatTime(lw.Date), lw.pages)

	half := lw.ColumnsPerPage / 2
	lw.printf("%s%s\n", padRight(lw.title, half), padLeft(lw.FileName, half))
	lw.printf("\n")

	lw.lines = 3
}

// line counts an output line, starting a new page when needed.
func (lw *Writer) line() {
	lw.lines++
	if lw.lines > lw.LinesPerPage || lw.newPage {
		lw.page()
	}
}

// addContents records a title at the page it will appear on.
func (lw *Writer) addContents(title string) {
	page := lw.pages
	if lw.newPage {
		page++
	}
	lw.contents = append(lw.contents, Contents{Title: title, Page: page})
}

// Format returns the listing text of a line, without a newline.
func Format(line *pal.Listing) string {
	var sb strings.Builder

	flags := line.Flags
	if line.Macro {
		flags += "+"
	}

	if line.HasSource && !line.Macro {
		fmt.Fprintf(&sb, "%4d%-4s", line.LineNo, flags)
	} else {
		fmt.Fprintf(&sb, "    %-4s", flags)
	}

	if line.HasAddress {
		fmt.Fprintf(&sb, "%01o%04o", line.Field&7, line.Address&pal.WORD_MASK)
	} else {
		sb.WriteString("     ")
	}
	sb.WriteString("    ")

	if line.HasCode {
		fmt.Fprintf(&sb, "%04o", line.Code&pal.WORD_MASK)
	} else {
		sb.WriteString("    ")
	}

	if line.HasSource {
		sb.WriteString("   ")
		sb.WriteString(line.Source)
	}

	return sb.String()
}

// List implements pal.Lister.
func (lw *Writer) List(line *pal.Listing) {
	text := Format(line)

	lw.line()
	lw.printf("%s\n", text)

	if line.Flags != "" && lw.Errors != nil {
		fmt.Fprintln(lw.Errors, text)
	}
}

// Eject implements pal.Lister.
func (lw *Writer) Eject() {
	lw.newPage = true
}

// Title implements pal.Lister.
func (lw *Writer) Title(title string) {
	lw.title = title
	lw.addContents(title)
}

// SetOptions implements pal.Lister.
func (lw *Writer) SetOptions(options pal.ListOptions) {
	lw.options = options
}
