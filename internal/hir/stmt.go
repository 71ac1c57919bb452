package hir

import "hirindex/internal/source"

// StmtKind enumerates HIR statement kinds.
type StmtKind uint8

const (
	// StmtLocal represents `let pat: ty = init else { ... };`.
	StmtLocal StmtKind = iota
	// StmtItem declares a nested item owner inside a block.
	StmtItem
	// StmtExpr represents an expression without a trailing semicolon.
	StmtExpr
	// StmtSemi represents an expression followed by a semicolon.
	StmtSemi
)

func (k StmtKind) String() string {
	switch k {
	case StmtLocal:
		return "Local"
	case StmtItem:
		return "Item"
	case StmtExpr:
		return "Expr"
	case StmtSemi:
		return "Semi"
	default:
		return "Unknown"
	}
}

// Stmt represents an HIR statement.
type Stmt struct {
	Kind  StmtKind
	Span  source.Span
	Attrs []Attribute
	Data  StmtData // Kind-specific payload
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// LocalStmtData holds data for StmtLocal.
type LocalStmtData struct {
	Local *Local
}

func (LocalStmtData) stmtData() {}

// ItemStmtData holds data for StmtItem.
type ItemStmtData struct {
	Item *Item
}

func (ItemStmtData) stmtData() {}

// ExprStmtData holds data for StmtExpr and StmtSemi.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// Local is a let binding. Ty, Init and Else may be nil.
type Local struct {
	Pat   *Pat
	Ty    *Ty
	Init  *Expr
	Else  *Block
	Span  source.Span
	Attrs []Attribute
}

func (*Stmt) NodeKind() NodeKind  { return NodeStmt }
func (*Local) NodeKind() NodeKind { return NodeLocal }

func (n *Stmt) NodeSpan() source.Span  { return n.Span }
func (n *Local) NodeSpan() source.Span { return n.Span }

func (n *Stmt) NodeAttrs() []Attribute  { return n.Attrs }
func (n *Local) NodeAttrs() []Attribute { return n.Attrs }
