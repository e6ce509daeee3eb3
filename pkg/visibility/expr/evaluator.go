// Package expr implements a small boolean rule language for hide rules.
//
// Supported forms:
//   - truthiness: `enabled`, `!enabled`
//   - comparisons: `kind == "company"`, `count != 3`, `age >= 18`
//   - composition: `a && (b || !c)`
//
// Identifiers are dotted store paths resolved with pkg/path. The `extras.`
// prefix reads from visibility.Context.Extras instead.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-forms/pkg/path"
	"github.com/goliatone/go-forms/pkg/visibility"
)

const extrasPrefix = "extras."

// Evaluator compiles rules on first use and caches them.
type Evaluator struct {
	mu    sync.RWMutex
	rules map[string]*Rule
}

var _ visibility.Evaluator = (*Evaluator)(nil)

// New returns an Evaluator with an empty rule cache.
func New() *Evaluator {
	return &Evaluator{rules: make(map[string]*Rule)}
}

// Eval compiles rule (or reuses the cached compilation) and evaluates it.
// A blank rule is false: nothing to hide.
func (e *Evaluator) Eval(rule string, ctx visibility.Context) (bool, error) {
	compiled, err := e.compile(rule)
	if err != nil {
		return false, err
	}
	return compiled.Eval(ctx)
}

func (e *Evaluator) compile(rule string) (*Rule, error) {
	key := strings.TrimSpace(rule)

	e.mu.RLock()
	cached, ok := e.rules[key]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	compiled, err := Compile(key)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.rules == nil {
		e.rules = make(map[string]*Rule)
	}
	e.rules[key] = compiled
	e.mu.Unlock()
	return compiled, nil
}

// Rule is a compiled expression.
type Rule struct {
	source string
	root   node
}

// Compile parses rule into a reusable Rule.
func Compile(rule string) (*Rule, error) {
	source := strings.TrimSpace(rule)
	if source == "" {
		return &Rule{}, nil
	}
	tokens, err := scan(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q", tok.text)
	}
	return &Rule{source: source, root: root}, nil
}

// String returns the rule source.
func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.source
}

// Eval evaluates the rule against ctx.
func (r *Rule) Eval(ctx visibility.Context) (bool, error) {
	if r == nil || r.root == nil {
		return false, nil
	}
	return r.root.eval(ctx)
}

type kind int

const (
	kIdent kind = iota
	kString
	kNumber
	kBool
	kNull
	kEq
	kNeq
	kLt
	kLte
	kGt
	kGte
	kAnd
	kOr
	kNot
	kLParen
	kRParen
)

var operators = map[kind]string{
	kEq: "==", kNeq: "!=", kLt: "<", kLte: "<=", kGt: ">", kGte: ">=",
}

type token struct {
	kind kind
	text string
}

// twoChar lists operators that take a second character.
var twoChar = map[string]kind{
	"==": kEq, "!=": kNeq, "<=": kLte, ">=": kGte, "&&": kAnd, "||": kOr,
}

var oneChar = map[byte]kind{
	'!': kNot, '<': kLt, '>': kGt, '(': kLParen, ')': kRParen,
}

func scan(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case isSpace(ch):
			i++
		case i+1 < len(input) && twoChar[input[i:i+2]] != 0:
			op := input[i : i+2]
			tokens = append(tokens, token{kind: twoChar[op], text: op})
			i += 2
		case oneChar[ch] != 0:
			tokens = append(tokens, token{kind: oneChar[ch], text: string(ch)})
			i++
		case ch == '=' || ch == '&' || ch == '|':
			return nil, fmt.Errorf("visibility/expr: unexpected %q; use %q", string(ch), strings.Repeat(string(ch), 2))
		case ch == '"' || ch == '\'':
			text, next, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: kString, text: text})
			i = next
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			tokens = append(tokens, word(input[start:i]))
		}
	}
	return tokens, nil
}

func scanString(input string, start int) (string, int, error) {
	quote := input[start]
	var b strings.Builder
	for i := start + 1; i < len(input); i++ {
		ch := input[i]
		switch {
		case ch == '\\' && i+1 < len(input):
			i++
			switch input[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(input[i])
			}
		case ch == quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(ch)
		}
	}
	return "", 0, errors.New("visibility/expr: unterminated string literal")
}

func word(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kind: kBool, text: strings.ToLower(raw)}
	case "null", "nil":
		return token{kind: kNull, text: "null"}
	}
	if looksNumeric(raw) {
		return token{kind: kNumber, text: raw}
	}
	return token{kind: kIdent, text: raw}
}

func looksNumeric(raw string) bool {
	if raw == "" || strings.IndexByte("0123456789+-.", raw[0]) < 0 {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDelimiter(ch byte) bool {
	return isSpace(ch) || strings.IndexByte("()!=<>&|\"'", ch) >= 0
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) accept(kinds ...kind) (token, bool) {
	tok, ok := p.peek()
	if !ok {
		return token{}, false
	}
	for _, k := range kinds {
		if tok.kind == k {
			p.pos++
			return tok, true
		}
	}
	return token{}, false
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(kOr); !ok {
			return left, nil
		}
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(kAnd); !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
}

func (p *parser) unary() (node, error) {
	if _, ok := p.accept(kNot); ok {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if _, ok := p.accept(kLParen); ok {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept(kRParen); !ok {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := p.accept(kIdent)
	if !ok {
		tok, more := p.peek()
		if !more {
			return nil, errors.New("visibility/expr: unexpected end of expression")
		}
		return nil, fmt.Errorf("visibility/expr: expected identifier, got %q", tok.text)
	}

	op, ok := p.accept(kEq, kNeq, kLt, kLte, kGt, kGte)
	if !ok {
		return truthyNode{ident: ident.text}, nil
	}
	lit, ok := p.accept(kString, kNumber, kBool, kNull, kIdent)
	if !ok {
		return nil, fmt.Errorf("visibility/expr: missing value after %q", op.text)
	}
	if lit.kind == kIdent {
		// bare words on the right are strings
		lit.kind = kString
	}
	cmp := compareNode{ident: ident.text, op: op.kind, lit: lit}
	if cmp.ordered() && lit.kind != kNumber {
		return nil, fmt.Errorf("visibility/expr: %q needs a number, got %q", op.text, lit.text)
	}
	return cmp, nil
}

type node interface {
	eval(ctx visibility.Context) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(ctx)
}

type andNode struct{ left, right node }

func (n andNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(ctx)
}

type notNode struct{ inner node }

func (n notNode) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	return !ok && err == nil, err
}

type truthyNode struct{ ident string }

func (n truthyNode) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.ident)
	return truthy(value), nil
}

type compareNode struct {
	ident string
	op    kind
	lit   token
}

func (n compareNode) ordered() bool {
	return n.op == kLt || n.op == kLte || n.op == kGt || n.op == kGte
}

func (n compareNode) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.ident)

	switch n.lit.kind {
	case kNull:
		return n.equality(value == nil)
	case kBool:
		return n.equality(truthy(value) == (n.lit.text == "true"))
	case kString:
		return n.equality(toString(value) == n.lit.text)
	case kNumber:
		want, err := strconv.ParseFloat(n.lit.text, 64)
		if err != nil {
			return false, fmt.Errorf("visibility/expr: invalid number %q", n.lit.text)
		}
		got, ok := toNumber(value)
		if !ok {
			if n.ordered() {
				return false, nil
			}
			return n.equality(false)
		}
		switch n.op {
		case kLt:
			return got < want, nil
		case kLte:
			return got <= want, nil
		case kGt:
			return got > want, nil
		case kGte:
			return got >= want, nil
		}
		return n.equality(got == want)
	}
	return false, fmt.Errorf("visibility/expr: unsupported operator %q", operators[n.op])
}

func (n compareNode) equality(equal bool) (bool, error) {
	switch n.op {
	case kEq:
		return equal, nil
	case kNeq:
		return !equal, nil
	}
	return false, fmt.Errorf("visibility/expr: unsupported operator %q", operators[n.op])
}

func lookup(ctx visibility.Context, key string) (any, bool) {
	if strings.HasPrefix(strings.ToLower(key), extrasPrefix) {
		return resolve(ctx.Extras, key[len(extrasPrefix):])
	}
	return resolve(ctx.Values, key)
}

func resolve(values map[string]any, key string) (any, bool) {
	if len(values) == 0 {
		return nil, false
	}
	// exact keys win over traversal so "cta.headline" stored flat still matches
	if value, ok := values[key]; ok {
		return value, true
	}
	return path.GetString(values, key)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := toNumber(value); ok {
		return n != 0
	}
	return true
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(value)
}
