package compiler

// StmtKind selects how a top-level Statement binds its Expr.
type StmtKind int

const (
	// StmtBus binds Expr's compiled graph output to the named bus
	// ("~name: expr").
	StmtBus StmtKind = iota
	// StmtOutput routes Expr into an output ("out:", "o2:", ...).
	StmtOutput
	// StmtTempo sets the transport's bpm.
	StmtTempo
	// StmtCPS sets the transport's cps directly.
	StmtCPS
	// StmtBPM is an alias of StmtTempo kept distinct for clearer errors.
	StmtBPM
	// StmtEffectTemplate records a modifier bus ("~name # chain") without
	// compiling it immediately.
	StmtEffectTemplate
)

// Statement is one line of a compiled program.
type Statement struct {
	Kind StmtKind
	Name string
	Expr Expr
}

// Expr is any compilable expression node.
type Expr interface{ isExpr() }

// NumberExpr is a bare numeric literal.
type NumberExpr struct{ Value float64 }

func (NumberExpr) isExpr() {}

// StringExpr is a mini-notation source string, compiled according to the
// type-directed position it appears in (sample token pattern vs. numeric
// pattern).
type StringExpr struct{ Source string }

func (StringExpr) isExpr() {}

// BusRef refers to a previously bound "~name" bus.
type BusRef struct{ Name string }

func (BusRef) isExpr() {}

// Call invokes a builtin by name with positional arguments.
type Call struct {
	Fn   string
	Args []Expr
}

func (Call) isExpr() {}

// Chain is Tidal's "#": apply Right as a context-setting/effect modifier
// on top of Left.
type Chain struct{ Left, Right Expr }

func (Chain) isExpr() {}

// Apply is Tidal's "$": apply Transform (a pattern-to-pattern function
// expression) to Pattern, avoiding a parenthesis nest.
type Apply struct{ Transform, Pattern Expr }

func (Apply) isExpr() {}

// BinOp is a numeric/signal infix operator ('+','-','*','/').
type BinOp struct {
	Op   byte
	L, R Expr
}

func (BinOp) isExpr() {}
