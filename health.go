package xldash

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Health labels written by the classification formula.
const (
	HealthStrong   = "Strong"
	HealthModerate = "Moderate"
	HealthAtRisk   = "At Risk"
)

// HealthBand is one step of the margin classification: a margin satisfying
// "margin <Op> Threshold" gets Label. The last band has no Op and catches
// everything else.
type HealthBand struct {
	Label     string  `mapstructure:"label" yaml:"label" json:"label"`
	Op        string  `mapstructure:"op" yaml:"op,omitempty" json:"op,omitempty"` // ">" or ">="; empty for the catch-all band
	Threshold float64 `mapstructure:"threshold" yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// Cell colors used by the conditional format for this label.
	FillColor string `mapstructure:"fill_color" yaml:"fill_color" json:"fill_color"`
	FontColor string `mapstructure:"font_color" yaml:"font_color" json:"font_color"`
}

// HealthBands is an ordered classification; the first matching band wins.
type HealthBands []HealthBand

// DefaultHealthBands: Strong above 35%, Moderate from 20% to 35%
// inclusive, At Risk below 20%.
var DefaultHealthBands = HealthBands{
	{Label: HealthStrong, Op: ">", Threshold: 0.35, FillColor: "C6EFCE", FontColor: "006100"},
	{Label: HealthModerate, Op: ">=", Threshold: 0.20, FillColor: "FFEB9C", FontColor: "9C6500"},
	{Label: HealthAtRisk, FillColor: "FFC7CE", FontColor: "9C0006"},
}

// Labels returns the band labels in order.
func (hb HealthBands) Labels() []string {
	labels := make([]string, len(hb))
	for i, b := range hb {
		labels[i] = b.Label
	}
	return labels
}

// Formula builds the nested IF classifying the value at cell, e.g.
// IF(D8>0.35,"Strong",IF(D8>=0.2,"Moderate","At Risk")).
func (hb HealthBands) Formula(cell string) string {
	if len(hb) == 0 {
		return `""`
	}
	last := hb[len(hb)-1]
	if last.Op != "" || len(hb) == 1 {
		return quoteString(last.Label)
	}
	var b strings.Builder
	for _, band := range hb[:len(hb)-1] {
		fmt.Fprintf(&b, "IF(%s%s%s,%s,", cell, band.Op, formatNumber(band.Threshold), quoteString(band.Label))
	}
	b.WriteString(quoteString(last.Label))
	b.WriteString(strings.Repeat(")", len(hb)-1))
	return b.String()
}

// Classify returns the label of the first band the margin satisfies.
func (hb HealthBands) Classify(margin float64) (string, error) {
	env := map[string]any{"margin": margin}
	for _, band := range hb {
		if band.Op == "" {
			return band.Label, nil
		}
		ok, err := bandEvaluator.isTrue(band.condition(), env)
		if err != nil {
			return "", fmt.Errorf("classify margin %v: %w", margin, err)
		}
		if ok {
			return band.Label, nil
		}
	}
	return "", fmt.Errorf("classify margin %v: no band matched", margin)
}

// condition renders the band as an expression over "margin".
func (b HealthBand) condition() string {
	return "margin " + b.Op + " " + formatNumber(b.Threshold)
}

// bandEvaluator compiles band conditions once per distinct expression.
var bandEvaluator = &conditionEvaluator{}

type conditionEvaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

func (e *conditionEvaluator) isTrue(condition string, env map[string]any) (bool, error) {
	program, err := e.compile(condition, env)
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", condition, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", condition, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q evaluated to %T, expected bool", condition, result)
	}
	return b, nil
}

func (e *conditionEvaluator) compile(condition string, env map[string]any) (*vm.Program, error) {
	if cached, ok := e.cache.Load(condition); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(condition, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}
	e.cache.Store(condition, program)
	return program, nil
}

// formatNumber writes a float the shortest way a formula accepts (0.2, 0.35).
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// quoteString renders a formula string literal.
func quoteString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
