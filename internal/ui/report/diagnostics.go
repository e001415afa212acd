// # internal/ui/report/diagnostics.go
package report

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hbind/internal/core/errors"
	"hbind/internal/engine/ast"
	"hbind/internal/engine/binding"
)

const bannerWidth = 48

// Diagnostics writes stage banners and fatal error reports, normally to
// stderr. Source files named by coordinates are resolved against Root.
type Diagnostics struct {
	w        io.Writer
	root     string
	internal func(ast.Coord) bool

	banner lipgloss.Style
	title  lipgloss.Style
	marked lipgloss.Style
	faint  lipgloss.Style
}

func NewDiagnostics(w io.Writer, root string, internal func(ast.Coord) bool) *Diagnostics {
	r := lipgloss.NewRenderer(w)
	return &Diagnostics{
		w:        w,
		root:     root,
		internal: internal,
		banner:   r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		title:    r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		marked:   r.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		faint:    r.NewStyle().Foreground(lipgloss.Color("#64748B")),
	}
}

// Banner announces a pipeline stage, e.g. "Preprocessing".
func (d *Diagnostics) Banner(stage string) {
	fmt.Fprintln(d.w, d.banner.Render(BannerText(stage)))
}

// BannerText centers stage in a fixed-width rule of '=' characters.
func BannerText(stage string) string {
	pad := bannerWidth - len(stage) - 2
	if pad < 2 {
		pad = 2
	}
	left := pad / 2
	return strings.Repeat("=", left) + " " + stage + " " + strings.Repeat("=", pad-left)
}

// Report renders err. Unsupported declarations get the AST dump and the
// source span; parse failures get the source around the failing line.
func (d *Diagnostics) Report(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(d.w, d.title.Render("error: "+err.Error()))

	var unsupported *binding.UnsupportedError
	if stderrors.As(err, &unsupported) {
		d.Declaration(unsupported.Decl)
		return
	}

	var de *errors.DomainError
	if stderrors.As(err, &de) && de.Code == errors.CodeParseFailure {
		file, _ := de.Context[errors.CtxPath].(string)
		line, _ := de.Context[errors.CtxLine].(int)
		if file == "" || line == 0 {
			return
		}
		content, readErr := d.read(file)
		if readErr != nil {
			fmt.Fprintln(d.w, d.faint.Render(fmt.Sprintf("(source unavailable: %v)", readErr)))
			return
		}
		d.excerpt(ParseExcerpt(file, content, line))
	}
}

// Declaration writes the AST dump of decl followed by the source lines its
// coordinates span.
func (d *Diagnostics) Declaration(decl ast.Decl) {
	fmt.Fprintln(d.w, ast.Dump(decl, d.internal))

	file, first, last, ok := ast.LineSpan(decl, d.internal)
	if !ok {
		return
	}
	content, err := d.read(file)
	if err != nil {
		fmt.Fprintln(d.w, d.faint.Render(fmt.Sprintf("(source unavailable: %v)", err)))
		return
	}
	d.excerpt(SpanExcerpt(file, content, first, last))
}

func (d *Diagnostics) excerpt(ex Excerpt) {
	fmt.Fprintln(d.w, d.faint.Render("--> "+ex.File))
	for _, line := range ex.Lines {
		if len(line) > 6 && line[6] == ':' {
			line = d.marked.Render(line)
		}
		fmt.Fprintln(d.w, line)
	}
}

func (d *Diagnostics) read(file string) ([]byte, error) {
	path := file
	if !filepath.IsAbs(path) && d.root != "" {
		path = filepath.Join(d.root, path)
	}
	return os.ReadFile(path)
}
