package prettyprinter

import (
	"bytes"
	"strings"

	"github.com/funvibe/schemec/internal/config"
	"github.com/funvibe/schemec/internal/sexpr"
)

// --- Code Printer (Output is a Scheme library) ---

// Forms whose first operand stays on the head line while the remaining
// operands are indented as a body.
var bodyForms = map[string]int{
	"library": 1,
	"define":  1,
	"lambda":  1,
	"let":     1,
	"let*":    1,
	"when":    1,
	"unless":  1,
	"cond":    0,
	"begin":   0,
	"export":  0,
	"import":  0,
}

const bodyIndent = 2

type CodePrinter struct {
	buf       bytes.Buffer
	lineWidth int // max line width (0 = unlimited)
	column    int // current column position
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{lineWidth: config.DefaultLineWidth}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{lineWidth: width}
}

func (p *CodePrinter) SetLineWidth(width int) {
	p.lineWidth = width
}

// Print renders a whole node followed by a newline.
func Print(n sexpr.Node, width int) string {
	p := NewCodePrinterWithWidth(width)
	p.PrintTopLevel(n)
	return p.String()
}

// PrintTopLevel renders n starting at column zero. Definitions inside a
// library form are separated by a blank line.
func (p *CodePrinter) PrintTopLevel(n sexpr.Node) {
	l, ok := n.(sexpr.List)
	if !ok || l.Head() != "library" || len(l.Items) < 2 {
		p.printNode(n)
		p.writeln()
		return
	}
	p.write("(library ")
	p.printNode(l.Items[1])
	for i, item := range l.Items[2:] {
		p.writeln()
		// export and import clauses stay together, definitions are spaced
		if i > 0 && isDefinition(item) {
			p.writeln()
		}
		p.writeIndentTo(bodyIndent)
		p.printNode(item)
	}
	p.write(")")
	p.writeln()
}

func isDefinition(n sexpr.Node) bool {
	l, ok := n.(sexpr.List)
	return ok && l.Head() == "define"
}

func (p *CodePrinter) writeIndentTo(col int) {
	for i := 0; i < col; i++ {
		p.buf.WriteByte(' ')
	}
	p.column = col
}

func (p *CodePrinter) fits(s string) bool {
	return p.lineWidth <= 0 || p.column+len(s) <= p.lineWidth
}

// printNode prints a node flat when it fits on the current line and
// breaks lists over several lines otherwise.
func (p *CodePrinter) printNode(n sexpr.Node) {
	l, ok := n.(sexpr.List)
	if !ok {
		p.write(n.Flat())
		return
	}
	flat := l.Flat()
	if p.fits(flat) || len(l.Items) < 2 {
		p.write(flat)
		return
	}

	start := p.column
	open, close := l.Delims()
	p.write(open)

	head := l.Head()
	if keep, isBody := bodyForms[head]; isBody {
		p.write(head)
		rest := l.Items[1:]
		for i := 0; i < keep && i < len(rest); i++ {
			p.write(" ")
			p.printNode(rest[i])
		}
		if keep > len(rest) {
			keep = len(rest)
		}
		for _, item := range rest[keep:] {
			p.writeln()
			p.writeIndentTo(start + bodyIndent)
			p.printNode(item)
		}
		p.write(close)
		return
	}

	if head != "" {
		// Call form: operands aligned under the first operand
		p.write(head)
		p.write(" ")
		col := p.column
		for i, item := range l.Items[1:] {
			if i > 0 {
				p.writeln()
				p.writeIndentTo(col)
			}
			p.printNode(item)
		}
		p.write(close)
		return
	}

	// Data or binding list: every item aligned under the first
	col := p.column
	for i, item := range l.Items {
		if i > 0 {
			p.writeln()
			p.writeIndentTo(col)
		}
		p.printNode(item)
	}
	p.write(close)
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	// Track column position
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}
