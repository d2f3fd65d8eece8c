// Package sexpr is the symbolic-expression tree emitted by the code
// generator and rendered by the pretty printer.
package sexpr

import (
	"strings"
)

// Node is an atom, a string literal or a list.
type Node interface {
	sexprNode()
	// Flat renders the node on a single line.
	Flat() string
}

// Atom is a symbol, number or other self-delimiting token, rendered as is.
type Atom string

// Str is a string literal. The value is already escaped for the target.
type Str string

// List is a parenthesized sequence. Brackets are used when Square is set,
// which Chez accepts anywhere parentheses are.
type List struct {
	Items  []Node
	Square bool
}

func (Atom) sexprNode() {}
func (Str) sexprNode()  {}
func (List) sexprNode() {}

func (a Atom) Flat() string { return string(a) }
func (s Str) Flat() string  { return `"` + string(s) + `"` }

func (l List) Flat() string {
	var sb strings.Builder
	open, close := l.Delims()
	sb.WriteString(open)
	for i, item := range l.Items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(item.Flat())
	}
	sb.WriteString(close)
	return sb.String()
}

// Delims returns the opening and closing delimiter of the list.
func (l List) Delims() (string, string) {
	if l.Square {
		return "[", "]"
	}
	return "(", ")"
}

// Head returns the leading atom of the list, or "".
func (l List) Head() string {
	if len(l.Items) == 0 {
		return ""
	}
	if a, ok := l.Items[0].(Atom); ok {
		return string(a)
	}
	return ""
}

// L builds a list.
func L(items ...Node) List {
	return List{Items: items}
}

// Sq builds a square-bracketed list, used for binding pairs and cond arms.
func Sq(items ...Node) List {
	return List{Items: items, Square: true}
}

// Call builds `(fn args...)`.
func Call(fn string, args ...Node) List {
	return List{Items: append([]Node{Atom(fn)}, args...)}
}

// Quote renders 'sym.
func Quote(sym string) Atom {
	return Atom("'" + sym)
}

var (
	True  = Atom("#t")
	False = Atom("#f")
	Empty = Atom("'()")
)

// Binding is one `[name value]` pair of a let form.
type Binding struct {
	Name  string
	Value Node
}

// Let builds `(let ([n v] ...) body)`.
func Let(bindings []Binding, body Node) List {
	return letForm("let", bindings, body)
}

// LetStar builds `(let* ([n v] ...) body...)`.
func LetStar(bindings []Binding, body ...Node) List {
	l := letForm("let*", bindings, nil)
	l.Items = append(l.Items[:2], body...)
	return l
}

func letForm(head string, bindings []Binding, body Node) List {
	pairs := make([]Node, len(bindings))
	for i, b := range bindings {
		pairs[i] = Sq(Atom(b.Name), b.Value)
	}
	items := []Node{Atom(head), L(pairs...)}
	if body != nil {
		items = append(items, body)
	}
	return List{Items: items}
}

// Begin wraps several forms; a single form is returned unchanged and
// nested begins are flattened.
func Begin(forms ...Node) Node {
	var flat []Node
	for _, f := range forms {
		if l, ok := f.(List); ok && l.Head() == "begin" && !l.Square {
			flat = append(flat, l.Items[1:]...)
			continue
		}
		flat = append(flat, f)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Call("begin", flat...)
}

// And builds a conjunction, dropping literal #t operands and splicing
// nested conjunctions.
func And(tests ...Node) Node {
	var kept []Node
	for _, t := range tests {
		if a, ok := t.(Atom); ok && a == True {
			continue
		}
		if l, ok := t.(List); ok && l.Head() == "and" && !l.Square {
			kept = append(kept, l.Items[1:]...)
			continue
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return True
	case 1:
		return kept[0]
	}
	return Call("and", kept...)
}

// Or builds a disjunction of the given tests.
func Or(tests ...Node) Node {
	if len(tests) == 1 {
		return tests[0]
	}
	return Call("or", tests...)
}

// EscapeString converts the source text of a string literal (with the
// front end's escapes) into an R6RS string body.
func EscapeString(src string) string {
	var sb strings.Builder
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '\\' || i+1 >= len(src) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch src[i] {
		case 'n':
			sb.WriteString(`\n`)
		case 'r':
			sb.WriteString(`\r`)
		case 't':
			sb.WriteString(`\t`)
		case 'f':
			sb.WriteString(`\f`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case 'u':
			// \u{1F600} becomes the R6RS hex escape \x1F600;
			end := strings.IndexByte(src[i:], '}')
			if i+1 < len(src) && src[i+1] == '{' && end > 0 {
				sb.WriteString(`\x`)
				sb.WriteString(src[i+2 : i+end])
				sb.WriteByte(';')
				i += end
			} else {
				sb.WriteString(`\\u`)
			}
		default:
			sb.WriteByte('\\')
			sb.WriteByte(src[i])
		}
	}
	return sb.String()
}
