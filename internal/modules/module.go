package modules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/schemec/internal/ast"
	"github.com/funvibe/schemec/internal/config"
)

// rawModule is the document root of a typed module file:
//
//	module: app/main
//	definitions:
//	  - kind: fn
//	    name: main
//	    public: true
//	    body:
//	      - {kind: int, value: "1"}
type rawModule struct {
	Module      string     `yaml:"module"`
	Definitions []*rawNode `yaml:"definitions"`
}

// rawNode is one node of the typed tree. Definitions, statements,
// expressions, patterns, guards and constants are all mappings with a
// kind key; which other keys are read depends on the kind and on the
// position of the node.
type rawNode struct {
	line int

	Kind   string   `yaml:"kind"`
	Name   string   `yaml:"name"`
	Module string   `yaml:"module"`
	Label  string   `yaml:"label"`
	Value  string   `yaml:"value"`
	Op     string   `yaml:"op"`
	Ref    string   `yaml:"ref"`
	As     string   `yaml:"as"`
	Rest   string   `yaml:"rest"`
	Index  int      `yaml:"index"`
	Arity  int      `yaml:"arity"`
	Public bool     `yaml:"public"`
	Opaque bool     `yaml:"opaque"`
	Assert bool     `yaml:"assert"`
	Params []string `yaml:"params"`
	Fields []string `yaml:"fields"`

	Expr     *rawNode `yaml:"expr"`
	Message  *rawNode `yaml:"message"`
	Left     *rawNode `yaml:"left"`
	Right    *rawNode `yaml:"right"`
	Pattern  *rawNode `yaml:"pattern"`
	Tail     *rawNode `yaml:"tail"`
	Guard    *rawNode `yaml:"guard"`
	Then     *rawNode `yaml:"then"`
	Finally  *rawNode `yaml:"finally"`
	Const    *rawNode `yaml:"const"`
	External *rawNode `yaml:"external"`

	Items        []*rawNode   `yaml:"items"`
	Body         []*rawNode   `yaml:"body"`
	Subjects     []*rawNode   `yaml:"subjects"`
	Clauses      []*rawNode   `yaml:"clauses"`
	Patterns     []*rawNode   `yaml:"patterns"`
	Alternatives [][]*rawNode `yaml:"alternatives"`
	Constructors []*rawNode   `yaml:"constructors"`
	Updates      []*rawNode   `yaml:"updates"`
	Steps        []*rawNode   `yaml:"steps"`
}

// UnmarshalYAML records the source line of the node for error messages.
func (n *rawNode) UnmarshalYAML(value *yaml.Node) error {
	type plain rawNode
	if err := value.Decode((*plain)(n)); err != nil {
		return err
	}
	n.line = value.Line
	return nil
}

// Parse decodes a typed module. The path is used in error messages only.
// Spans of the decoded nodes hold the YAML line of the node.
func Parse(data []byte, path string) (*ast.Module, error) {
	var raw rawModule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if raw.Module == "" {
		return nil, fmt.Errorf("%s: module name is required", path)
	}
	if strings.HasPrefix(raw.Module, "/") || strings.HasSuffix(raw.Module, "/") || strings.Contains(raw.Module, "//") {
		return nil, fmt.Errorf("%s: invalid module name %q", path, raw.Module)
	}

	d := &decoder{path: path, module: raw.Module}
	mod := &ast.Module{Name: raw.Module}
	for _, n := range raw.Definitions {
		def, err := d.definition(n)
		if err != nil {
			return nil, err
		}
		mod.Definitions = append(mod.Definitions, def)
	}
	return mod, nil
}

type decoder struct {
	path   string
	module string
}

func (d *decoder) errorf(n *rawNode, format string, args ...interface{}) error {
	line := 0
	if n != nil {
		line = n.line
	}
	return fmt.Errorf("%s:%d: %s", d.path, line, fmt.Sprintf(format, args...))
}

func span(n *rawNode) ast.SrcSpan {
	return ast.SrcSpan{Start: uint32(n.line), End: uint32(n.line)}
}

func publicity(public bool) ast.Publicity {
	if public {
		return ast.Public
	}
	return ast.Private
}

// moduleOr defaults a missing module reference to the module being loaded.
func (d *decoder) moduleOr(module string) string {
	if module == "" {
		return d.module
	}
	return module
}

func (d *decoder) definition(n *rawNode) (ast.Definition, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: empty definition", d.path)
	}
	switch n.Kind {
	case "fn":
		f := &ast.Function{
			Span:      span(n),
			Name:      n.Name,
			Publicity: publicity(n.Public),
			Arguments: params(n),
		}
		if n.Name == "" {
			return nil, d.errorf(n, "function without a name")
		}
		if n.External != nil {
			f.External = &ast.ExternalBinding{Module: n.External.Module, Name: n.External.Name}
			if f.External.Name == "" {
				return nil, d.errorf(n, "external binding of %s has no name", n.Name)
			}
			return f, nil
		}
		body, err := d.statements(n, n.Body)
		if err != nil {
			return nil, err
		}
		f.Body = body
		return f, nil

	case "type":
		t := &ast.CustomType{
			Span:       span(n),
			Name:       n.Name,
			Publicity:  publicity(n.Public),
			Opaque:     n.Opaque,
			Parameters: n.Params,
		}
		for _, c := range n.Constructors {
			if c == nil || c.Name == "" {
				return nil, d.errorf(n, "constructor of %s without a name", n.Name)
			}
			ctor := ast.RecordConstructor{Span: span(c), Name: c.Name}
			if len(c.Fields) > 0 {
				for _, label := range c.Fields {
					ctor.Arguments = append(ctor.Arguments, ast.RecordConstructorArg{Label: label})
				}
			} else {
				ctor.Arguments = make([]ast.RecordConstructorArg, c.Arity)
			}
			t.Constructors = append(t.Constructors, ctor)
		}
		return t, nil

	case "const":
		value, err := d.constant(n.Const)
		if err != nil {
			return nil, err
		}
		return &ast.ModuleConstant{Span: span(n), Name: n.Name, Publicity: publicity(n.Public), Value: value}, nil

	case "import":
		return &ast.Import{Span: span(n), Module: n.Module, As: n.As}, nil

	case "alias":
		return &ast.TypeAlias{Span: span(n), Name: n.Name, Publicity: publicity(n.Public)}, nil
	}
	return nil, d.errorf(n, "unknown definition kind %q", n.Kind)
}

// params decodes parameter names; names starting with _ are discards.
func params(n *rawNode) []ast.Arg {
	args := make([]ast.Arg, len(n.Params))
	for i, p := range n.Params {
		names := ast.ArgNames{Kind: ast.ArgNamed, Name: p}
		if p == "" || (strings.HasPrefix(p, "_") && p != config.PipeVariable && p != config.CaptureVariable) {
			names.Kind = ast.ArgDiscard
		}
		args[i] = ast.Arg{Span: span(n), Names: names}
	}
	return args
}

func (d *decoder) statements(parent *rawNode, nodes []*rawNode) ([]ast.Statement, error) {
	if len(nodes) == 0 {
		return nil, d.errorf(parent, "empty body")
	}
	out := make([]ast.Statement, len(nodes))
	for i, n := range nodes {
		s, err := d.statement(n)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (d *decoder) statement(n *rawNode) (ast.Statement, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: empty statement", d.path)
	}
	switch n.Kind {
	case "let":
		pattern, err := d.pattern(n.Pattern)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		a := &ast.Assignment{Span: span(n), Pattern: pattern, Value: value}
		if n.Assert {
			a.Kind = ast.LetAssert
		}
		if n.Message != nil {
			if a.Message, err = d.expr(n.Message); err != nil {
				return nil, err
			}
		}
		return a, nil
	case "use":
		return &ast.Use{Span: span(n)}, nil
	}
	e, err := d.expr(n)
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Expression: e}, nil
}

func (d *decoder) exprs(nodes []*rawNode) ([]ast.Expr, error) {
	out := make([]ast.Expr, len(nodes))
	for i, n := range nodes {
		e, err := d.expr(n)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (d *decoder) optionalExpr(n *rawNode) (ast.Expr, error) {
	if n == nil {
		return nil, nil
	}
	return d.expr(n)
}

func (d *decoder) expr(n *rawNode) (ast.Expr, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing expression", d.path)
	}
	sp := span(n)
	switch n.Kind {
	case "int":
		return &ast.IntLiteral{Span: sp, Value: n.Value}, nil
	case "float":
		return &ast.FloatLiteral{Span: sp, Value: n.Value}, nil
	case "string":
		return &ast.StringLiteral{Span: sp, Value: n.Value}, nil

	case "var":
		variant, err := d.variant(n)
		if err != nil {
			return nil, err
		}
		return &ast.VarExpression{Span: sp, Name: n.Name, Constructor: ast.ValueConstructor{Variant: variant}}, nil

	case "fn":
		body, err := d.statements(n, n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.FnExpression{Span: sp, Arguments: params(n), Body: body}, nil

	case "list":
		elems, err := d.exprs(n.Items)
		if err != nil {
			return nil, err
		}
		tail, err := d.optionalExpr(n.Tail)
		if err != nil {
			return nil, err
		}
		return &ast.ListExpression{Span: sp, Elements: elems, Tail: tail}, nil

	case "call":
		fun, err := d.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(n.Items)
		if err != nil {
			return nil, err
		}
		call := &ast.CallExpression{Span: sp, Fun: fun}
		for _, a := range args {
			call.Args = append(call.Args, ast.CallArg{Span: a.Location(), Value: a})
		}
		return call, nil

	case "binop":
		op, ok := ast.BinOpFromString(n.Op)
		if !ok {
			return nil, d.errorf(n, "unknown operator %q", n.Op)
		}
		left, err := d.expr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.expr(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.BinOpExpression{Span: sp, Name: op, Left: left, Right: right}, nil

	case "case":
		return d.caseExpr(n)

	case "field":
		record, err := d.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.RecordAccess{Span: sp, Label: n.Label, Index: n.Index, Record: record}, nil

	case "select":
		if n.Module == "" {
			return nil, d.errorf(n, "module select without a module")
		}
		variant, err := d.variant(n)
		if err != nil {
			return nil, err
		}
		return &ast.ModuleSelect{Span: sp, Label: n.Label, ModuleName: n.Module, ModuleAlias: n.As, Constructor: variant}, nil

	case "tuple":
		elems, err := d.exprs(n.Items)
		if err != nil {
			return nil, err
		}
		return &ast.TupleExpression{Span: sp, Elements: elems}, nil

	case "tuple_index":
		tuple, err := d.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.TupleIndex{Span: sp, Index: n.Index, Tuple: tuple}, nil

	case "todo", "panic":
		msg, err := d.optionalExpr(n.Message)
		if err != nil {
			return nil, err
		}
		if n.Kind == "todo" {
			return &ast.TodoExpression{Span: sp, Message: msg}, nil
		}
		return &ast.PanicExpression{Span: sp, Message: msg}, nil

	case "update":
		spread, err := d.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		u := &ast.RecordUpdate{Span: sp, Spread: spread}
		for _, f := range n.Updates {
			if f == nil {
				return nil, d.errorf(n, "empty record update field")
			}
			v, err := d.expr(f.Expr)
			if err != nil {
				return nil, err
			}
			u.Args = append(u.Args, ast.RecordUpdateArg{Span: span(f), Label: f.Label, Index: f.Index, Value: v})
		}
		return u, nil

	case "not":
		v, err := d.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.NegateBool{Span: sp, Value: v}, nil

	case "negate":
		v, err := d.expr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.NegateInt{Span: sp, Value: v}, nil

	case "block":
		body, err := d.statements(n, n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.BlockExpression{Span: sp, Statements: body}, nil

	case "pipeline":
		p := &ast.PipelineExpression{Span: sp}
		for _, s := range n.Steps {
			if s == nil {
				return nil, d.errorf(n, "empty pipeline step")
			}
			v, err := d.expr(s.Expr)
			if err != nil {
				return nil, err
			}
			name := s.Name
			if name == "" {
				name = config.PipeVariable
			}
			p.Assignments = append(p.Assignments, ast.PipelineAssignment{Span: span(s), Name: name, Value: v})
		}
		finally, err := d.expr(n.Finally)
		if err != nil {
			return nil, err
		}
		p.Finally = finally
		return p, nil

	case "invalid":
		return &ast.InvalidExpression{Span: sp}, nil
	}
	return nil, d.errorf(n, "unknown expression kind %q", n.Kind)
}

// variant decodes what a name refers to from the ref key.
func (d *decoder) variant(n *rawNode) (ast.ValueConstructorVariant, error) {
	name := n.Name
	if name == "" {
		name = n.Label
	}
	switch n.Ref {
	case "", "local":
		return &ast.LocalVariable{Span: span(n)}, nil
	case "fn":
		return &ast.ModuleFn{Module: d.moduleOr(n.Module), Name: name, Arity: n.Arity}, nil
	case "const":
		return &ast.ModuleConstantVariant{Module: d.moduleOr(n.Module)}, nil
	case "record":
		return &ast.Record{Module: d.moduleOr(n.Module), Name: name, Arity: n.Arity}, nil
	case "local_const":
		c, err := d.constant(n.Const)
		if err != nil {
			return nil, err
		}
		return &ast.LocalConstant{Literal: c}, nil
	}
	return nil, d.errorf(n, "unknown reference kind %q", n.Ref)
}

func (d *decoder) caseExpr(n *rawNode) (ast.Expr, error) {
	subjects, err := d.exprs(n.Subjects)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, d.errorf(n, "case without subjects")
	}
	c := &ast.CaseExpression{Span: span(n), Subjects: subjects}
	for _, cl := range n.Clauses {
		if cl == nil {
			return nil, d.errorf(n, "empty case clause")
		}
		patterns, err := d.patterns(cl, cl.Patterns, len(subjects))
		if err != nil {
			return nil, err
		}
		clause := ast.Clause{Span: span(cl), Patterns: patterns}
		for _, alt := range cl.Alternatives {
			ps, err := d.patterns(cl, alt, len(subjects))
			if err != nil {
				return nil, err
			}
			clause.AlternativePatterns = append(clause.AlternativePatterns, ps)
		}
		if cl.Guard != nil {
			if clause.Guard, err = d.guard(cl.Guard); err != nil {
				return nil, err
			}
		}
		if clause.Then, err = d.expr(cl.Then); err != nil {
			return nil, err
		}
		c.Clauses = append(c.Clauses, clause)
	}
	return c, nil
}

func (d *decoder) patterns(parent *rawNode, nodes []*rawNode, want int) ([]ast.Pattern, error) {
	if len(nodes) != want {
		return nil, d.errorf(parent, "clause has %d patterns for %d subjects", len(nodes), want)
	}
	out := make([]ast.Pattern, len(nodes))
	for i, n := range nodes {
		p, err := d.pattern(n)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (d *decoder) pattern(n *rawNode) (ast.Pattern, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing pattern", d.path)
	}
	sp := span(n)
	switch n.Kind {
	case "int":
		return &ast.IntPattern{Span: sp, Value: n.Value}, nil
	case "float":
		return &ast.FloatPattern{Span: sp, Value: n.Value}, nil
	case "string":
		return &ast.StringPattern{Span: sp, Value: n.Value}, nil
	case "var":
		return &ast.VariablePattern{Span: sp, Name: n.Name}, nil
	case "discard":
		return &ast.DiscardPattern{Span: sp, Name: n.Name}, nil
	case "assign":
		inner, err := d.pattern(n.Pattern)
		if err != nil {
			return nil, err
		}
		return &ast.AssignPattern{Span: sp, Name: n.Name, Pattern: inner}, nil
	case "list":
		elems, err := d.patternList(n.Items)
		if err != nil {
			return nil, err
		}
		p := &ast.ListPattern{Span: sp, Elements: elems}
		if n.Tail != nil {
			if p.Tail, err = d.pattern(n.Tail); err != nil {
				return nil, err
			}
		}
		return p, nil
	case "ctor":
		args, err := d.patternList(n.Items)
		if err != nil {
			return nil, err
		}
		return &ast.ConstructorPattern{Span: sp, Module: d.moduleOr(n.Module), Name: n.Name, Arguments: args}, nil
	case "tuple":
		elems, err := d.patternList(n.Items)
		if err != nil {
			return nil, err
		}
		return &ast.TuplePattern{Span: sp, Elements: elems}, nil
	case "prefix":
		return &ast.StringPrefixPattern{Span: sp, LeftSideString: n.Value, LeftAssignment: n.As, RightAssignment: n.Rest}, nil
	case "invalid":
		return &ast.InvalidPattern{Span: sp}, nil
	}
	return nil, d.errorf(n, "unknown pattern kind %q", n.Kind)
}

func (d *decoder) patternList(nodes []*rawNode) ([]ast.Pattern, error) {
	out := make([]ast.Pattern, len(nodes))
	for i, n := range nodes {
		p, err := d.pattern(n)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (d *decoder) guard(n *rawNode) (ast.ClauseGuard, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing guard", d.path)
	}
	switch n.Kind {
	case "const":
		c, err := d.constant(n.Const)
		if err != nil {
			return nil, err
		}
		return &ast.GuardConstant{Value: c}, nil
	case "var":
		return &ast.GuardVar{Name: n.Name}, nil
	case "tuple_index":
		tuple, err := d.guard(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.GuardTupleIndex{Index: n.Index, Tuple: tuple}, nil
	case "field":
		container, err := d.guard(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.GuardFieldAccess{Label: n.Label, Index: n.Index, Container: container}, nil
	case "select":
		return &ast.GuardModuleSelect{Module: n.Module, Label: n.Label}, nil
	case "not":
		inner, err := d.guard(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.GuardNot{Expression: inner}, nil
	case "binop":
		op, ok := ast.BinOpFromString(n.Op)
		if !ok {
			return nil, d.errorf(n, "unknown operator %q", n.Op)
		}
		left, err := d.guard(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.guard(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.GuardBinOp{Name: op, Left: left, Right: right}, nil
	}
	return nil, d.errorf(n, "unknown guard kind %q", n.Kind)
}

func (d *decoder) constant(n *rawNode) (ast.Constant, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: missing constant", d.path)
	}
	switch n.Kind {
	case "int":
		return &ast.ConstInt{Value: n.Value}, nil
	case "float":
		return &ast.ConstFloat{Value: n.Value}, nil
	case "string":
		return &ast.ConstString{Value: n.Value}, nil
	case "tuple", "list":
		elems, err := d.constantList(n.Items)
		if err != nil {
			return nil, err
		}
		if n.Kind == "tuple" {
			return &ast.ConstTuple{Elements: elems}, nil
		}
		return &ast.ConstList{Elements: elems}, nil
	case "record":
		args, err := d.constantList(n.Items)
		if err != nil {
			return nil, err
		}
		return &ast.ConstRecord{Module: d.moduleOr(n.Module), Name: n.Name, Arguments: args}, nil
	case "var":
		variant, err := d.variant(n)
		if err != nil {
			return nil, err
		}
		if _, local := variant.(*ast.LocalVariable); local {
			return nil, d.errorf(n, "constant %s cannot refer to a local variable", n.Name)
		}
		return &ast.ConstVar{Module: n.Module, Name: n.Name, Constructor: ast.ValueConstructor{Variant: variant}}, nil
	case "concat":
		left, err := d.constant(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.constant(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.ConstStringConcat{Left: left, Right: right}, nil
	case "invalid":
		return &ast.ConstInvalid{}, nil
	}
	return nil, d.errorf(n, "unknown constant kind %q", n.Kind)
}

func (d *decoder) constantList(nodes []*rawNode) ([]ast.Constant, error) {
	out := make([]ast.Constant, len(nodes))
	for i, n := range nodes {
		c, err := d.constant(n)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
