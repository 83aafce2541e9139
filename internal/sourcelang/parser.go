package sourcelang

import (
	"strings"

	"github.com/cbegin/phonon/internal/compiler"
)

// Parse turns program text into a statement list. Blank lines and "//"
// comments are skipped; every other line must be one complete
// "name: expr" statement (declarations never wrap across lines).
func Parse(src string) ([]compiler.Statement, error) {
	var stmts []compiler.Statement
	for lineNo, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		st, err := parseStatement(line)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Line = lineNo + 1
			}
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}

// cursor walks a token slice with a one-token lookahead, mirroring the
// index-based walk the rest of this package's lexer uses.
type cursor struct {
	toks []token
	pos  int
}

func (c *cursor) peek() token { return c.toks[c.pos] }

func (c *cursor) next() token {
	t := c.toks[c.pos]
	if c.pos+1 < len(c.toks) {
		c.pos++
	}
	return t
}

func parseStatement(line string) (compiler.Statement, error) {
	toks, err := tokenizeLine(line)
	if err != nil {
		return compiler.Statement{}, err
	}
	c := &cursor{toks: toks}

	var name string
	var kind compiler.StmtKind
	switch c.peek().kind {
	case tokBusRef:
		name = c.next().text
		kind = compiler.StmtBus
	case tokIdent:
		name = c.next().text
		kind = classifyStatementName(name)
	default:
		return compiler.Statement{}, &ParseError{Pos: c.peek().pos, Msg: "expected a bus name or statement keyword"}
	}

	if c.peek().kind != tokColon {
		return compiler.Statement{}, &ParseError{Pos: c.peek().pos, Msg: "expected ':'"}
	}
	c.next()

	expr, err := parseChain(c)
	if err != nil {
		return compiler.Statement{}, err
	}
	if c.peek().kind != tokEOF {
		return compiler.Statement{}, &ParseError{Pos: c.peek().pos, Msg: "unexpected trailing input"}
	}
	return compiler.Statement{Kind: kind, Name: name, Expr: expr}, nil
}

func classifyStatementName(name string) compiler.StmtKind {
	switch name {
	case "tempo":
		return compiler.StmtTempo
	case "cps":
		return compiler.StmtCPS
	case "bpm":
		return compiler.StmtBPM
	default:
		return compiler.StmtOutput
	}
}

// parseChain is "#", left-associative and lowest precedence after "$":
// "s \"bd sn\" # gain 0.8 # pan 0.5" builds Chain(Chain(s, gain), pan).
func parseChain(c *cursor) (compiler.Expr, error) {
	left, err := parseApply(c)
	if err != nil {
		return nil, err
	}
	for c.peek().kind == tokHash {
		c.next()
		right, err := parseApply(c)
		if err != nil {
			return nil, err
		}
		left = compiler.Chain{Left: left, Right: right}
	}
	return left, nil
}

// parseApply is "$", right-associative: "jux (rev) $ s \"bd*2\"".
func parseApply(c *cursor) (compiler.Expr, error) {
	left, err := parseAdd(c)
	if err != nil {
		return nil, err
	}
	if c.peek().kind == tokDollar {
		c.next()
		right, err := parseApply(c)
		if err != nil {
			return nil, err
		}
		return compiler.Apply{Transform: left, Pattern: right}, nil
	}
	return left, nil
}

func parseAdd(c *cursor) (compiler.Expr, error) {
	left, err := parseMul(c)
	if err != nil {
		return nil, err
	}
	for c.peek().kind == tokPlus || c.peek().kind == tokMinus {
		op := byte('+')
		if c.next().kind == tokMinus {
			op = '-'
		}
		right, err := parseMul(c)
		if err != nil {
			return nil, err
		}
		left = compiler.BinOp{Op: op, L: left, R: right}
	}
	return left, nil
}

func parseMul(c *cursor) (compiler.Expr, error) {
	left, err := parsePrimaryOrCall(c)
	if err != nil {
		return nil, err
	}
	for c.peek().kind == tokStar || c.peek().kind == tokSlash {
		op := byte('*')
		if c.next().kind == tokSlash {
			op = '/'
		}
		right, err := parsePrimaryOrCall(c)
		if err != nil {
			return nil, err
		}
		left = compiler.BinOp{Op: op, L: left, R: right}
	}
	return left, nil
}

// isArgStart reports whether tok can begin another juxtaposed argument
// (Tidal-style "fn arg1 arg2", no commas or parens required).
func isArgStart(tok token) bool {
	switch tok.kind {
	case tokNumber, tokString, tokBusRef, tokLParen, tokIdent:
		return true
	}
	return false
}

func parsePrimaryOrCall(c *cursor) (compiler.Expr, error) {
	tok := c.peek()
	switch tok.kind {
	case tokNumber:
		c.next()
		return compiler.NumberExpr{Value: tok.num}, nil
	case tokString:
		c.next()
		return compiler.StringExpr{Source: tok.text}, nil
	case tokBusRef:
		c.next()
		return compiler.BusRef{Name: tok.text}, nil
	case tokLParen:
		c.next()
		inner, err := parseChain(c)
		if err != nil {
			return nil, err
		}
		if c.peek().kind != tokRParen {
			return nil, &ParseError{Pos: c.peek().pos, Msg: "expected ')'"}
		}
		c.next()
		return inner, nil
	case tokIdent:
		name := c.next().text
		var args []compiler.Expr
		if c.peek().kind == tokLParen {
			c.next()
			for c.peek().kind != tokRParen {
				arg, err := parseAdd(c)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if c.peek().kind == tokComma {
					c.next()
					continue
				}
				break
			}
			if c.peek().kind != tokRParen {
				return nil, &ParseError{Pos: c.peek().pos, Msg: "expected ')'"}
			}
			c.next()
			return compiler.Call{Fn: name, Args: args}, nil
		}
		for isArgStart(c.peek()) {
			arg, err := parsePrimaryOrCall(c)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return compiler.Call{Fn: name, Args: args}, nil
	}
	return nil, &ParseError{Pos: tok.pos, Msg: "expected a number, string, bus reference, or function call"}
}
