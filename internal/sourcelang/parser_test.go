package sourcelang

import (
	"testing"

	"github.com/cbegin/phonon/internal/compiler"
)

func TestParseTempoStatement(t *testing.T) {
	stmts, err := Parse("tempo: 120")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if stmts[0].Kind != compiler.StmtTempo {
		t.Fatalf("expected StmtTempo, got %v", stmts[0].Kind)
	}
	n, ok := stmts[0].Expr.(compiler.NumberExpr)
	if !ok || n.Value != 120 {
		t.Fatalf("expected NumberExpr{120}, got %#v", stmts[0].Expr)
	}
}

func TestParseBusWithChainedParams(t *testing.T) {
	stmts, err := Parse(`~d1: s "bd sn*2" # gain 0.8 # pan 0.5`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	st := stmts[0]
	if st.Kind != compiler.StmtBus || st.Name != "d1" {
		t.Fatalf("expected bus d1, got %+v", st)
	}
	outer, ok := st.Expr.(compiler.Chain)
	if !ok {
		t.Fatalf("expected outer Chain, got %#v", st.Expr)
	}
	panCall, ok := outer.Right.(compiler.Call)
	if !ok || panCall.Fn != "pan" {
		t.Fatalf("expected pan call on the right, got %#v", outer.Right)
	}
	inner, ok := outer.Left.(compiler.Chain)
	if !ok {
		t.Fatalf("expected inner Chain, got %#v", outer.Left)
	}
	gainCall, ok := inner.Right.(compiler.Call)
	if !ok || gainCall.Fn != "gain" {
		t.Fatalf("expected gain call, got %#v", inner.Right)
	}
	sCall, ok := inner.Left.(compiler.Call)
	if !ok || sCall.Fn != "s" {
		t.Fatalf("expected s(...) at the base, got %#v", inner.Left)
	}
	str, ok := sCall.Args[0].(compiler.StringExpr)
	if !ok || str.Source != "bd sn*2" {
		t.Fatalf("expected mini-notation string arg, got %#v", sCall.Args)
	}
}

func TestParseOutputStatement(t *testing.T) {
	stmts, err := Parse("out: ~d1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if stmts[0].Kind != compiler.StmtOutput {
		t.Fatalf("expected StmtOutput, got %v", stmts[0].Kind)
	}
	ref, ok := stmts[0].Expr.(compiler.BusRef)
	if !ok || ref.Name != "d1" {
		t.Fatalf("expected BusRef{d1}, got %#v", stmts[0].Expr)
	}
}

func TestParseApplyOperatorWithParenthesizedTransform(t *testing.T) {
	stmts, err := Parse(`~d2: jux (rev) $ s "bd sn"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	app, ok := stmts[0].Expr.(compiler.Apply)
	if !ok {
		t.Fatalf("expected an Apply for '$', got %#v", stmts[0].Expr)
	}
	jux, ok := app.Transform.(compiler.Call)
	if !ok || jux.Fn != "jux" {
		t.Fatalf("expected jux(...) as the transform, got %#v", app.Transform)
	}
	if len(jux.Args) != 1 {
		t.Fatalf("expected jux to take the parenthesized rev transform, got %d args", len(jux.Args))
	}
	transform, ok := jux.Args[0].(compiler.Call)
	if !ok || transform.Fn != "rev" {
		t.Fatalf("expected rev transform as first arg, got %#v", jux.Args[0])
	}
	sCall, ok := app.Pattern.(compiler.Call)
	if !ok || sCall.Fn != "s" {
		t.Fatalf("expected the pattern on the right of '$', got %#v", app.Pattern)
	}
}

func TestParseSignalArithmeticAndNegativeLiterals(t *testing.T) {
	stmts, err := Parse("~lfo: sine 2 * 0.5 + -1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	top, ok := stmts[0].Expr.(compiler.BinOp)
	if !ok || top.Op != '+' {
		t.Fatalf("expected top-level '+' BinOp, got %#v", stmts[0].Expr)
	}
	neg, ok := top.R.(compiler.NumberExpr)
	if !ok || neg.Value != -1 {
		t.Fatalf("expected NumberExpr{-1} on the right, got %#v", top.R)
	}
	mul, ok := top.L.(compiler.BinOp)
	if !ok || mul.Op != '*' {
		t.Fatalf("expected '*' BinOp on the left, got %#v", top.L)
	}
	sine, ok := mul.L.(compiler.Call)
	if !ok || sine.Fn != "sine" {
		t.Fatalf("expected sine(2) on the left of '*', got %#v", mul.L)
	}
}

func TestParseEffectTemplateSelfReferenceHole(t *testing.T) {
	stmts, err := Parse("~verb: ~verb # reverb 0.5 0.7 0.3")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	st := stmts[0]
	if st.Kind != compiler.StmtBus || st.Name != "verb" {
		t.Fatalf("expected bus verb, got %+v", st)
	}
	chain, ok := st.Expr.(compiler.Chain)
	if !ok {
		t.Fatalf("expected Chain, got %#v", st.Expr)
	}
	ref, ok := chain.Left.(compiler.BusRef)
	if !ok || ref.Name != "verb" {
		t.Fatalf("expected self-referential BusRef hole, got %#v", chain.Left)
	}
}

func TestParseSkipsBlankLinesAndComments(t *testing.T) {
	stmts, err := Parse("// a comment\n\ntempo: 120\n// trailing\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected comments/blank lines skipped, got %d statements", len(stmts))
	}
}

func TestParseUnterminatedStringIsAnError(t *testing.T) {
	_, err := Parse(`~d1: s "bd sn`)
	if err == nil {
		t.Fatalf("expected an error for an unterminated string")
	}
}

func TestParseUnknownStatementStartIsAnError(t *testing.T) {
	_, err := Parse("123: 4")
	if err == nil {
		t.Fatalf("expected an error for a statement starting with a bare number")
	}
}
