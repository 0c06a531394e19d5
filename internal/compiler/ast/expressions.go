package ast

// ExprNode represents an expression inside an interpolation site
type ExprNode interface {
	Node
	exprNode()
}

// LiteralExpr represents a literal value (int64, float64, string, bool, nil)
type LiteralExpr struct {
	Value interface{} // The actual value
	Loc   SourceLocation
}

func (l *LiteralExpr) node()     {}
func (l *LiteralExpr) exprNode() {}

func (l *LiteralExpr) Location() SourceLocation {
	return l.Loc
}

// NameExpr represents a variable reference resolved through the environment
type NameExpr struct {
	Name string
	Loc  SourceLocation
}

func (n *NameExpr) node()     {}
func (n *NameExpr) exprNode() {}

func (n *NameExpr) Location() SourceLocation {
	return n.Loc
}

// BinaryExpr represents a binary operation (a + b, a << b, etc.)
type BinaryExpr struct {
	Left     ExprNode
	Operator string // "+", "-", "*", "/", "//", "%", "**", "&", "|", "^", "<<", ">>"
	Right    ExprNode
	Loc      SourceLocation
}

func (b *BinaryExpr) node()     {}
func (b *BinaryExpr) exprNode() {}

func (b *BinaryExpr) Location() SourceLocation {
	return b.Loc
}

// UnaryExpr represents a unary operation (-x, +x, ~x, not x)
type UnaryExpr struct {
	Operator string // "-", "+", "~", "not"
	Operand  ExprNode
	Loc      SourceLocation
}

func (u *UnaryExpr) node()     {}
func (u *UnaryExpr) exprNode() {}

func (u *UnaryExpr) Location() SourceLocation {
	return u.Loc
}

// LogicalExpr represents logical operations (and, or). The result is one of the operands.
type LogicalExpr struct {
	Left     ExprNode
	Operator string // "and", "or"
	Right    ExprNode
	Loc      SourceLocation
}

func (l *LogicalExpr) node()     {}
func (l *LogicalExpr) exprNode() {}

func (l *LogicalExpr) Location() SourceLocation {
	return l.Loc
}

// CompareExpr represents a (possibly chained) comparison: a < b <= c.
// len(Operators) == len(Operands)-1.
type CompareExpr struct {
	Operands  []ExprNode
	Operators []string // "==", "!=", "<", ">", "<=", ">=", "in", "not in", "is", "is not"
	Loc       SourceLocation
}

func (c *CompareExpr) node()     {}
func (c *CompareExpr) exprNode() {}

func (c *CompareExpr) Location() SourceLocation {
	return c.Loc
}

// ConditionalExpr represents `Then if Condition else Else`
type ConditionalExpr struct {
	Condition ExprNode
	Then      ExprNode
	Else      ExprNode
	Loc       SourceLocation
}

func (c *ConditionalExpr) node()     {}
func (c *ConditionalExpr) exprNode() {}

func (c *ConditionalExpr) Location() SourceLocation {
	return c.Loc
}

// AttributeExpr represents attribute access (obj.name)
type AttributeExpr struct {
	Object ExprNode
	Name   string
	Loc    SourceLocation
}

func (a *AttributeExpr) node()     {}
func (a *AttributeExpr) exprNode() {}

func (a *AttributeExpr) Location() SourceLocation {
	return a.Loc
}

// IndexExpr represents subscription (obj[index])
type IndexExpr struct {
	Object ExprNode
	Index  ExprNode
	Loc    SourceLocation
}

func (i *IndexExpr) node()     {}
func (i *IndexExpr) exprNode() {}

func (i *IndexExpr) Location() SourceLocation {
	return i.Loc
}

// SliceExpr represents slicing (obj[low:high:step]); any bound may be nil
type SliceExpr struct {
	Object ExprNode
	Low    ExprNode
	High   ExprNode
	Step   ExprNode
	Loc    SourceLocation
}

func (s *SliceExpr) node()     {}
func (s *SliceExpr) exprNode() {}

func (s *SliceExpr) Location() SourceLocation {
	return s.Loc
}

// KeywordArg is a name=value argument in a call
type KeywordArg struct {
	Name  string
	Value ExprNode
	Loc   SourceLocation
}

// CallExpr represents a call of any callable value
type CallExpr struct {
	Callee    ExprNode
	Arguments []ExprNode   // Positional arguments
	Keywords  []KeywordArg // Keyword arguments in source order
	Loc       SourceLocation
}

func (c *CallExpr) node()     {}
func (c *CallExpr) exprNode() {}

func (c *CallExpr) Location() SourceLocation {
	return c.Loc
}

// ListExpr represents a list literal
type ListExpr struct {
	Elements []ExprNode
	Loc      SourceLocation
}

func (l *ListExpr) node()     {}
func (l *ListExpr) exprNode() {}

func (l *ListExpr) Location() SourceLocation {
	return l.Loc
}

// TupleExpr represents a tuple display, parenthesised or bare (a, b)
type TupleExpr struct {
	Elements []ExprNode
	Loc      SourceLocation
}

func (t *TupleExpr) node()     {}
func (t *TupleExpr) exprNode() {}

func (t *TupleExpr) Location() SourceLocation {
	return t.Loc
}

// DictEntry is a key: value pair in a dict literal
type DictEntry struct {
	Key   ExprNode
	Value ExprNode
}

// DictExpr represents a dict literal
type DictExpr struct {
	Entries []DictEntry
	Loc     SourceLocation
}

func (d *DictExpr) node()     {}
func (d *DictExpr) exprNode() {}

func (d *DictExpr) Location() SourceLocation {
	return d.Loc
}

// FStringExpr represents an f-string literal nested inside an expression
type FStringExpr struct {
	Template *Template
	Loc      SourceLocation
}

func (f *FStringExpr) node()     {}
func (f *FStringExpr) exprNode() {}

func (f *FStringExpr) Location() SourceLocation {
	return f.Loc
}
