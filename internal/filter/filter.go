// Package filter narrows option legs with a user-supplied boolean expression
// before clustering, e.g.
//
//	strike >= spot * 0.8 && strike <= spot * 1.2 && open_interest > 0
//
// Available variables: strike, open_interest (alias oi), spot and
// moneyness (strike / spot).
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/oi-clusters/internal/data"
)

// ErrInvalidExpression is returned for expressions that do not compile or do
// not evaluate to a boolean.
var ErrInvalidExpression = errors.New("invalid strike filter expression")

// Expr is a compiled leg filter. A nil *Expr keeps every leg.
type Expr struct {
	source string
	eval   *govaluate.EvaluableExpression
}

// Compile parses expr. An empty expression returns a nil *Expr.
func Compile(expr string) (*Expr, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	eval, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	for _, v := range eval.Vars() {
		switch v {
		case "strike", "open_interest", "oi", "spot", "moneyness":
		default:
			return nil, fmt.Errorf("%w: unknown variable %q", ErrInvalidExpression, v)
		}
	}
	return &Expr{source: expr, eval: eval}, nil
}

// String returns the expression text.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

// Match reports whether leg passes the filter at the given spot price.
func (e *Expr) Match(leg data.OptionLeg, spot float64) (bool, error) {
	if e == nil {
		return true, nil
	}
	moneyness := 0.0
	if spot != 0 {
		moneyness = leg.Strike / spot
	}
	params := map[string]interface{}{
		"strike":        leg.Strike,
		"open_interest": float64(leg.OpenInterest),
		"oi":            float64(leg.OpenInterest),
		"spot":          spot,
		"moneyness":     moneyness,
	}

	result, err := e.eval.Evaluate(params)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("%w: %q evaluates to %T, want bool", ErrInvalidExpression, e.source, result)
	}
	return ok, nil
}

// Apply returns the legs that pass the filter as a new slice.
func (e *Expr) Apply(legs []data.OptionLeg, spot float64) ([]data.OptionLeg, error) {
	out := make([]data.OptionLeg, 0, len(legs))
	for _, leg := range legs {
		ok, err := e.Match(leg, spot)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, leg)
		}
	}
	return out, nil
}
