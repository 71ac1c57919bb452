package hir

import "hirindex/internal/source"

// ExprKind enumerates HIR expression kinds.
type ExprKind uint8

const (
	// ExprLit represents literals.
	ExprLit ExprKind = iota
	// ExprPath represents a resolved path (local, item, primitive).
	ExprPath
	ExprUnary
	ExprBinary
	ExprCall
	// ExprMethodCall represents `recv.method(args)`.
	ExprMethodCall
	ExprField
	ExprIndex
	ExprTuple
	ExprArray
	// ExprStruct represents `Path { f: e, ..base }`.
	ExprStruct
	ExprIf
	ExprMatch
	ExprLoop
	ExprBlock
	ExprAssign
	ExprReturn
	ExprBreak
	ExprContinue
	// ExprClosure introduces a nested closure owner.
	ExprClosure
	// ExprConstBlock is an inline `const { ... }` with its own body.
	ExprConstBlock
	ExprCast
	ExprRef
)

var exprKindNames = [...]string{
	ExprLit:        "Lit",
	ExprPath:       "Path",
	ExprUnary:      "Unary",
	ExprBinary:     "Binary",
	ExprCall:       "Call",
	ExprMethodCall: "MethodCall",
	ExprField:      "Field",
	ExprIndex:      "Index",
	ExprTuple:      "Tuple",
	ExprArray:      "Array",
	ExprStruct:     "Struct",
	ExprIf:         "If",
	ExprMatch:      "Match",
	ExprLoop:       "Loop",
	ExprBlock:      "Block",
	ExprAssign:     "Assign",
	ExprReturn:     "Return",
	ExprBreak:      "Break",
	ExprContinue:   "Continue",
	ExprClosure:    "Closure",
	ExprConstBlock: "ConstBlock",
	ExprCast:       "Cast",
	ExprRef:        "Ref",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Unknown"
}

// Expr represents an HIR expression.
type Expr struct {
	Kind  ExprKind
	Span  source.Span
	Attrs []Attribute
	Data  ExprData // Kind-specific payload
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// UnOp is a unary operator.
type UnOp uint8

const (
	UnNeg UnOp = iota
	UnNot
	UnDeref
)

func (op UnOp) String() string {
	switch op {
	case UnNeg:
		return "-"
	case UnNot:
		return "!"
	case UnDeref:
		return "*"
	default:
		return "?"
	}
}

// BinOp is a binary operator.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

var binOpNames = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinRem: "%",
	BinAnd: "&&", BinOr: "||", BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^",
	BinShl: "<<", BinShr: ">>", BinEq: "==", BinNe: "!=",
	BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

// ParseBinOp maps operator text to a BinOp.
func ParseBinOp(s string) (BinOp, bool) {
	for i, name := range binOpNames {
		if name == s {
			return BinOp(i), true
		}
	}
	return 0, false
}

// LitData holds data for ExprLit.
type LitData struct {
	Lit Lit
}

func (LitData) exprData() {}

// PathData holds data for ExprPath.
type PathData struct {
	Path Path
}

func (PathData) exprData() {}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func (CallData) exprData() {}

// MethodCallData holds data for ExprMethodCall.
type MethodCallData struct {
	Receiver *Expr
	Method   Ident
	Args     []*Expr
}

func (MethodCallData) exprData() {}

// FieldData holds data for ExprField.
type FieldData struct {
	Object *Expr
	Name   Ident
}

func (FieldData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Object *Expr
	Index  *Expr
}

func (IndexData) exprData() {}

// TupleData holds data for ExprTuple.
type TupleData struct {
	Elems []*Expr
}

func (TupleData) exprData() {}

// ArrayData holds data for ExprArray.
type ArrayData struct {
	Elems []*Expr
}

func (ArrayData) exprData() {}

// StructExprField is one `name: value` entry of a struct expression.
type StructExprField struct {
	Name  Ident
	Value *Expr
}

// StructExprData holds data for ExprStruct. Base is nil without `..base`.
type StructExprData struct {
	Path   Path
	Fields []StructExprField
	Base   *Expr
}

func (StructExprData) exprData() {}

// IfData holds data for ExprIf. Else is nil, a block or another if.
type IfData struct {
	Cond *Expr
	Then *Block
	Else *Expr
}

func (IfData) exprData() {}

// MatchData holds data for ExprMatch.
type MatchData struct {
	Scrutinee *Expr
	Arms      []*Arm
}

func (MatchData) exprData() {}

// LoopData holds data for ExprLoop.
type LoopData struct {
	Label Ident
	Body  *Block
}

func (LoopData) exprData() {}

// BlockData holds data for ExprBlock.
type BlockData struct {
	Block *Block
}

func (BlockData) exprData() {}

// AssignData holds data for ExprAssign.
type AssignData struct {
	Lhs *Expr
	Rhs *Expr
}

func (AssignData) exprData() {}

// ReturnData holds data for ExprReturn. Value may be nil.
type ReturnData struct {
	Value *Expr
}

func (ReturnData) exprData() {}

// BreakData holds data for ExprBreak. Value may be nil.
type BreakData struct {
	Label Ident
	Value *Expr
}

func (BreakData) exprData() {}

// ContinueData holds data for ExprContinue.
type ContinueData struct {
	Label Ident
}

func (ContinueData) exprData() {}

// ClosureData holds data for ExprClosure.
type ClosureData struct {
	Closure *Closure
}

func (ClosureData) exprData() {}

// ConstBlockData holds data for ExprConstBlock.
type ConstBlockData struct {
	Body *Body
}

func (ConstBlockData) exprData() {}

// CastData holds data for ExprCast.
type CastData struct {
	Expr *Expr
	Ty   *Ty
}

func (CastData) exprData() {}

// RefData holds data for ExprRef.
type RefData struct {
	Mutable bool
	Expr    *Expr
}

func (RefData) exprData() {}

// Arm is one arm of a match. Guard may be nil.
type Arm struct {
	Pat   *Pat
	Guard *Expr
	Body  *Expr
	Span  source.Span
	Attrs []Attribute
}

// Block is a braced sequence of statements with an optional tail.
type Block struct {
	Stmts  []*Stmt
	Expr   *Expr
	Unsafe bool
	Span   source.Span
}

func (*Expr) NodeKind() NodeKind  { return NodeExpr }
func (*Arm) NodeKind() NodeKind   { return NodeArm }
func (*Block) NodeKind() NodeKind { return NodeBlock }

func (n *Expr) NodeSpan() source.Span  { return n.Span }
func (n *Arm) NodeSpan() source.Span   { return n.Span }
func (n *Block) NodeSpan() source.Span { return n.Span }

func (n *Expr) NodeAttrs() []Attribute { return n.Attrs }
func (n *Arm) NodeAttrs() []Attribute  { return n.Attrs }
