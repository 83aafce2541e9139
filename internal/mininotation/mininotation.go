// Package mininotation parses the compact "mini-notation" step sequence
// language (e.g. "bd ~ [sn sn] hh*2") into a pattern.Pattern[string],
// whose string values the compiler resolves against a sample bank or
// treats as numeric literals depending on context.
package mininotation

import (
	"fmt"
	"strconv"

	"github.com/cbegin/phonon/internal/pattern"
	"github.com/cbegin/phonon/internal/rational"
)

// ParseError reports a mini-notation syntax error at a byte offset. Parse
// errors never panic; every malformed input returns one of these instead.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("mininotation: %s at %d", e.Msg, e.Pos) }

// Parse parses src as a top-level sequence (equivalent to being wrapped in
// a single pair of brackets) into a Pattern[string].
func Parse(src string) (pattern.Pattern[string], error) {
	p := &parser{src: src}
	seq, next, err := p.parseSequence(0, -1)
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	next = p.skipSpace(next)
	if next != len(src) {
		return pattern.Pattern[string]{}, &ParseError{Pos: next, Msg: "unexpected trailing input"}
	}
	return seq, nil
}

type parser struct{ src string }

// step is one parsed token of a sequence, carrying its pattern and its
// relative weight (for "@w" and the default weight of 1).
type step struct {
	pat    pattern.Pattern[string]
	weight rational.Time
}

// parseSequence parses a whitespace- or comma-separated run of steps until
// it hits the closing delimiter (']', '>', or end-of-input when
// closeCh == -1). A top-level comma list becomes a Stack; otherwise steps
// are concatenated with CatWeighted.
func (p *parser) parseSequence(at int, closeCh rune) (pattern.Pattern[string], int, error) {
	var groups [][]step
	var cur []step
	i := p.skipSpace(at)
	for {
		if i >= len(p.src) {
			if closeCh != -1 {
				return pattern.Pattern[string]{}, i, &ParseError{Pos: i, Msg: "unexpected end of input, expected closing delimiter"}
			}
			break
		}
		ch := rune(p.src[i])
		if closeCh != -1 && ch == closeCh {
			break
		}
		if ch == ',' {
			groups = append(groups, cur)
			cur = nil
			i = p.skipSpace(i + 1)
			continue
		}
		st, next, err := p.parseStep(i)
		if err != nil {
			return pattern.Pattern[string]{}, 0, err
		}
		cur = append(cur, st)
		i = p.skipSpace(next)
	}
	groups = append(groups, cur)

	layers := make([]pattern.Pattern[string], 0, len(groups))
	for _, g := range groups {
		layers = append(layers, sequenceOf(g))
	}
	if len(layers) == 1 {
		return layers[0], i, nil
	}
	return pattern.Stack(layers...), i, nil
}

func sequenceOf(steps []step) pattern.Pattern[string] {
	if len(steps) == 0 {
		return pattern.Silence[string]()
	}
	if len(steps) == 1 {
		return steps[0].pat
	}
	ps := make([]pattern.Pattern[string], len(steps))
	ws := make([]rational.Time, len(steps))
	for i, s := range steps {
		ps[i] = s.pat
		ws[i] = s.weight
	}
	return pattern.CatWeighted(ps, ws)
}

// parseStep parses one token: a bracket group, angle-bracket alternation,
// rest, or word, followed by any of the postfix modifiers */ (k,n[,r]) ?
// ?p @w :n.
func (p *parser) parseStep(at int) (step, int, error) {
	var base pattern.Pattern[string]
	i := at
	switch {
	case i < len(p.src) && p.src[i] == '[':
		seq, next, err := p.parseSequence(i+1, ']')
		if err != nil {
			return step{}, 0, err
		}
		if next >= len(p.src) || p.src[next] != ']' {
			return step{}, 0, &ParseError{Pos: next, Msg: "expected ']'"}
		}
		base, i = seq, next+1
	case i < len(p.src) && p.src[i] == '<':
		alts, next, err := p.parseAlternation(i + 1)
		if err != nil {
			return step{}, 0, err
		}
		base, i = pattern.SlowCat(alts...), next
	case i < len(p.src) && p.src[i] == '~':
		base, i = pattern.Silence[string](), i+1
	default:
		word, next, err := p.parseWord(i)
		if err != nil {
			return step{}, 0, err
		}
		base, i = pattern.Pure(word), next
	}

	weight := rational.One
	for {
		if i >= len(p.src) {
			break
		}
		switch p.src[i] {
		case '*':
			k, next, err := p.parseNumber(i + 1)
			if err != nil {
				return step{}, 0, err
			}
			base, i = pattern.Fast(k, base), next
		case '/':
			k, next, err := p.parseNumber(i + 1)
			if err != nil {
				return step{}, 0, err
			}
			base, i = pattern.Slow(k, base), next
		case '(':
			hits, steps, rot, next, err := p.parseEuclidArgs(i + 1)
			if err != nil {
				return step{}, 0, err
			}
			base, i = pattern.EuclidGate(hits, steps, rot, base), next
		case '?':
			prob := 0.5
			next := i + 1
			if next < len(p.src) && isDigitOrDot(p.src[next]) {
				num, n2, err := p.parseFloat(next)
				if err != nil {
					return step{}, 0, err
				}
				prob, next = num, n2
			}
			base, i = pattern.DegradeBy(prob, base), next
		case '@':
			w, next, err := p.parseFloat(i + 1)
			if err != nil {
				return step{}, 0, err
			}
			weight, i = rational.FromFloat(w), next
		case ':':
			idx, next, err := p.parseWord(i + 1)
			if err != nil {
				return step{}, 0, err
			}
			base, i = pattern.WithContext(base, "bankIndex", idx), next
		default:
			return step{pat: base, weight: weight}, i, nil
		}
	}
	return step{pat: base, weight: weight}, i, nil
}

// parseAlternation parses the whitespace-separated steps of a "<...>" and
// returns them as the alternatives; closed by '>'.
func (p *parser) parseAlternation(at int) ([]pattern.Pattern[string], int, error) {
	var alts []pattern.Pattern[string]
	i := p.skipSpace(at)
	for {
		st, next, err := p.parseStep(i)
		if err != nil {
			return nil, 0, err
		}
		alts = append(alts, st.pat)
		i = p.skipSpace(next)
		if i < len(p.src) && p.src[i] == '>' {
			return alts, i + 1, nil
		}
		if i >= len(p.src) {
			return nil, 0, &ParseError{Pos: i, Msg: "expected '>'"}
		}
	}
}

// parseEuclidArgs parses "k,n" or "k,n,r" up to and including the closing
// ')'.
func (p *parser) parseEuclidArgs(at int) (k, n, r int, next int, err error) {
	i := p.skipSpace(at)
	kt, i, e := p.parseIntLiteral(i)
	if e != nil {
		return 0, 0, 0, 0, e
	}
	i = p.skipSpace(i)
	if i >= len(p.src) || p.src[i] != ',' {
		return 0, 0, 0, 0, &ParseError{Pos: i, Msg: "expected ',' in euclid args"}
	}
	i = p.skipSpace(i + 1)
	nt, i, e := p.parseIntLiteral(i)
	if e != nil {
		return 0, 0, 0, 0, e
	}
	i = p.skipSpace(i)
	rt := 0
	if i < len(p.src) && p.src[i] == ',' {
		i = p.skipSpace(i + 1)
		rt, i, e = p.parseIntLiteral(i)
		if e != nil {
			return 0, 0, 0, 0, e
		}
		i = p.skipSpace(i)
	}
	if i >= len(p.src) || p.src[i] != ')' {
		return 0, 0, 0, 0, &ParseError{Pos: i, Msg: "expected ')' closing euclid args"}
	}
	return kt, nt, rt, i + 1, nil
}

func (p *parser) parseWord(at int) (string, int, error) {
	i := at
	for i < len(p.src) && isWordByte(p.src[i]) {
		i++
	}
	if i == at {
		return "", 0, &ParseError{Pos: at, Msg: "expected a token"}
	}
	return p.src[at:i], i, nil
}

func (p *parser) parseNumber(at int) (rational.Time, int, error) {
	f, next, err := p.parseFloat(at)
	if err != nil {
		return rational.Zero, 0, err
	}
	return rational.FromFloat(f), next, nil
}

func (p *parser) parseIntLiteral(at int) (int, int, error) {
	i := at
	neg := false
	if i < len(p.src) && p.src[i] == '-' {
		neg = true
		i++
	}
	start := i
	for i < len(p.src) && p.src[i] >= '0' && p.src[i] <= '9' {
		i++
	}
	if i == start {
		return 0, 0, &ParseError{Pos: at, Msg: "expected integer"}
	}
	n, err := strconv.Atoi(p.src[start:i])
	if err != nil {
		return 0, 0, &ParseError{Pos: at, Msg: "invalid integer"}
	}
	if neg {
		n = -n
	}
	return n, i, nil
}

func (p *parser) parseFloat(at int) (float64, int, error) {
	i := at
	start := i
	if i < len(p.src) && p.src[i] == '-' {
		i++
	}
	for i < len(p.src) && isDigitOrDot(p.src[i]) {
		i++
	}
	if i == start {
		return 0, 0, &ParseError{Pos: at, Msg: "expected a number"}
	}
	f, err := strconv.ParseFloat(p.src[start:i], 64)
	if err != nil {
		return 0, 0, &ParseError{Pos: at, Msg: "invalid number"}
	}
	return f, i, nil
}

func (p *parser) skipSpace(at int) int {
	i := at
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t' || p.src[i] == '\n' || p.src[i] == '\r') {
		i++
	}
	return i
}

func isWordByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '[', ']', '<', '>', '~', '*', '/', '(', ')', ',', '?', '@', ':':
		return false
	default:
		return true
	}
}

func isDigitOrDot(b byte) bool { return (b >= '0' && b <= '9') || b == '.' }
