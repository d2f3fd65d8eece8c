package prettyprinter

import (
	"strings"
	"testing"

	"github.com/funvibe/schemec/internal/sexpr"
)

func TestPrintFlatWhenItFits(t *testing.T) {
	n := sexpr.Call("define", sexpr.Atom("m.x"), sexpr.Call("+", sexpr.Atom("1"), sexpr.Atom("2")))
	got := Print(n, 80)
	want := "(define m.x (+ 1 2))\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintBreaksBodyForms(t *testing.T) {
	n := sexpr.Call("define", sexpr.Atom("m.add"),
		sexpr.Call("lambda", sexpr.L(sexpr.Atom("$a"), sexpr.Atom("$b")),
			sexpr.Call("+", sexpr.Atom("$a"), sexpr.Atom("$b"))))
	got := Print(n, 20)
	want := strings.Join([]string{
		"(define m.add",
		"  (lambda ($a $b)",
		"    (+ $a $b)))",
		"",
	}, "\n")
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintAlignsCallOperands(t *testing.T) {
	n := sexpr.Call("string-append", sexpr.Str("aaaaaaaa"), sexpr.Str("bbbbbbbb"), sexpr.Str("cccccccc"))
	got := Print(n, 20)
	want := strings.Join([]string{
		`(string-append "aaaaaaaa"`,
		`               "bbbbbbbb"`,
		`               "cccccccc")`,
		"",
	}, "\n")
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintLibrarySeparatesDefinitions(t *testing.T) {
	lib := sexpr.Call("library", sexpr.L(sexpr.Atom("app")),
		sexpr.Call("export", sexpr.Atom("app.a")),
		sexpr.Call("import", sexpr.L(sexpr.Atom("chezscheme"))),
		sexpr.Call("define", sexpr.Atom("app.a"), sexpr.Atom("1")),
		sexpr.Call("define", sexpr.Atom("app.b"), sexpr.Atom("2")),
	)
	got := Print(lib, 80)
	want := strings.Join([]string{
		"(library (app)",
		"  (export app.a)",
		"  (import (chezscheme))",
		"",
		"  (define app.a 1)",
		"",
		"  (define app.b 2))",
		"",
	}, "\n")
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnlimitedWidthNeverBreaks(t *testing.T) {
	n := sexpr.Call("begin", sexpr.Atom(strings.Repeat("x", 200)), sexpr.Atom("y"))
	got := Print(n, 0)
	if strings.Count(got, "\n") != 1 {
		t.Errorf("expected a single line, got %q", got)
	}
}
