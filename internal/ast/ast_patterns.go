package ast

// Pattern is a typed pattern used by case clauses and assignments.
type Pattern interface {
	patternNode()
	Location() SrcSpan
}

type IntPattern struct {
	Span  SrcSpan
	Value string
}

type FloatPattern struct {
	Span  SrcSpan
	Value string
}

type StringPattern struct {
	Span  SrcSpan
	Value string
}

// VariablePattern binds the whole subject to Name.
type VariablePattern struct {
	Span SrcSpan
	Name string
}

// AssignPattern is `pattern as name`.
type AssignPattern struct {
	Span    SrcSpan
	Name    string
	Pattern Pattern
}

// DiscardPattern is `_` or `_name`.
type DiscardPattern struct {
	Span SrcSpan
	Name string
}

// ListPattern is `[a, b, ..tail]`. Tail is nil when the list must end
// after Elements.
type ListPattern struct {
	Span     SrcSpan
	Elements []Pattern
	Tail     Pattern
}

// ConstructorPattern matches a custom type variant and its fields.
type ConstructorPattern struct {
	Span      SrcSpan
	Module    string
	Name      string
	Arguments []Pattern
}

type TuplePattern struct {
	Span     SrcSpan
	Elements []Pattern
}

// StringPrefixPattern is `"prefix" as left <> right`.
// LeftAssignment is empty when the prefix is not bound. RightAssignment
// is empty when the suffix is discarded.
type StringPrefixPattern struct {
	Span            SrcSpan
	LeftSideString  string
	LeftAssignment  string
	RightAssignment string
}

// InvalidPattern stands in for a pattern that failed analysis.
type InvalidPattern struct {
	Span SrcSpan
}

func (*IntPattern) patternNode()          {}
func (*FloatPattern) patternNode()        {}
func (*StringPattern) patternNode()       {}
func (*VariablePattern) patternNode()     {}
func (*AssignPattern) patternNode()       {}
func (*DiscardPattern) patternNode()      {}
func (*ListPattern) patternNode()         {}
func (*ConstructorPattern) patternNode()  {}
func (*TuplePattern) patternNode()        {}
func (*StringPrefixPattern) patternNode() {}
func (*InvalidPattern) patternNode()      {}

func (p *IntPattern) Location() SrcSpan          { return p.Span }
func (p *FloatPattern) Location() SrcSpan        { return p.Span }
func (p *StringPattern) Location() SrcSpan       { return p.Span }
func (p *VariablePattern) Location() SrcSpan     { return p.Span }
func (p *AssignPattern) Location() SrcSpan       { return p.Span }
func (p *DiscardPattern) Location() SrcSpan      { return p.Span }
func (p *ListPattern) Location() SrcSpan         { return p.Span }
func (p *ConstructorPattern) Location() SrcSpan  { return p.Span }
func (p *TuplePattern) Location() SrcSpan        { return p.Span }
func (p *StringPrefixPattern) Location() SrcSpan { return p.Span }
func (p *InvalidPattern) Location() SrcSpan      { return p.Span }

// BoundNames returns the variable names bound by p in first-occurrence order.
func BoundNames(p Pattern) []string {
	var names []string
	seen := map[string]bool{}
	var walk func(Pattern)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	walk = func(p Pattern) {
		switch p := p.(type) {
		case *VariablePattern:
			add(p.Name)
		case *AssignPattern:
			add(p.Name)
			walk(p.Pattern)
		case *ListPattern:
			for _, el := range p.Elements {
				walk(el)
			}
			if p.Tail != nil {
				walk(p.Tail)
			}
		case *ConstructorPattern:
			for _, arg := range p.Arguments {
				walk(arg)
			}
		case *TuplePattern:
			for _, el := range p.Elements {
				walk(el)
			}
		case *StringPrefixPattern:
			add(p.LeftAssignment)
			add(p.RightAssignment)
		}
	}
	walk(p)
	return names
}

// Clause is one arm of a case expression. Patterns has one entry per
// subject; each alternative has the same length.
type Clause struct {
	Span                SrcSpan
	Patterns            []Pattern
	AlternativePatterns [][]Pattern
	Guard               ClauseGuard
	Then                Expr
}

// BoundNames returns every name bound by the clause's primary and
// alternative patterns.
func (c *Clause) BoundNames() []string {
	var names []string
	seen := map[string]bool{}
	collect := func(patterns []Pattern) {
		for _, p := range patterns {
			for _, name := range BoundNames(p) {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	collect(c.Patterns)
	for _, alt := range c.AlternativePatterns {
		collect(alt)
	}
	return names
}

// ClauseGuard is the restricted expression language allowed after `if` in
// a clause. It never contains calls.
type ClauseGuard interface {
	guardNode()
}

// GuardConstant is a literal or constant value.
type GuardConstant struct {
	Value Constant
}

// GuardVar reads a variable bound by the clause or an enclosing scope.
type GuardVar struct {
	Name string
}

type GuardTupleIndex struct {
	Index int
	Tuple ClauseGuard
}

// GuardFieldAccess reads a record field by positional index.
type GuardFieldAccess struct {
	Label     string
	Index     int
	Container ClauseGuard
}

// GuardModuleSelect references a constant from another module.
type GuardModuleSelect struct {
	Module string
	Label  string
}

type GuardNot struct {
	Expression ClauseGuard
}

// GuardBinOp covers comparisons, arithmetic and the logical connectives.
type GuardBinOp struct {
	Name  BinOp
	Left  ClauseGuard
	Right ClauseGuard
}

func (*GuardConstant) guardNode()     {}
func (*GuardVar) guardNode()          {}
func (*GuardTupleIndex) guardNode()   {}
func (*GuardFieldAccess) guardNode()  {}
func (*GuardModuleSelect) guardNode() {}
func (*GuardNot) guardNode()          {}
func (*GuardBinOp) guardNode()        {}
