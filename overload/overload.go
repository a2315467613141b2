// Package overload builds effective overload sets for operations and
// constructors and plans their argument conversion.
//
// Dispatch is by argument count only: the generated method declares the
// parameters of the shortest candidate as required and converts a position
// only when every candidate agrees on its type, optionality and default.
package overload

import (
	"sort"
	"strings"

	"github.com/dennwc/webidl2js/ast"
)

// Optionality tags one position of a candidate.
type Optionality int

const (
	Required Optionality = iota
	Optional
	Variadic
)

func (o Optionality) String() string {
	switch o {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Variadic:
		return "variadic"
	}
	return "unknown"
}

// Signature is one declared form of an operation or constructor.
type Signature struct {
	Decl   ast.Node
	Params []*ast.Parameter
}

// Candidate is one entry of an effective overload set.
type Candidate struct {
	Decl ast.Node
	// Params holds the declared parameter at each position; repetitions of
	// a variadic parameter point to the same declaration.
	Params      []*ast.Parameter
	Optionality []Optionality
}

// Len is the number of arguments the candidate takes.
func (c *Candidate) Len() int { return len(c.Params) }

// Names returns the argument names by position.
func (c *Candidate) Names() []string {
	out := make([]string, len(c.Params))
	for i, p := range c.Params {
		out[i] = p.Name
	}
	return out
}

// Types returns the argument types by position.
func (c *Candidate) Types() []ast.Type {
	out := make([]ast.Type, len(c.Params))
	for i, p := range c.Params {
		out[i] = p.Type
	}
	return out
}

// Required returns the number of leading required positions.
func (c *Candidate) Required() int {
	n := 0
	for _, o := range c.Optionality {
		if o != Required {
			break
		}
		n++
	}
	return n
}

// FromOperations turns operation overloads into signatures.
func FromOperations(ops []*ast.Operation) []Signature {
	out := make([]Signature, 0, len(ops))
	for _, op := range ops {
		out = append(out, Signature{Decl: op, Params: op.Parameters})
	}
	return out
}

// FromParameterLists turns constructor parameter lists into signatures.
func FromParameterLists(lists [][]*ast.Parameter) []Signature {
	out := make([]Signature, 0, len(lists))
	for _, params := range lists {
		out = append(out, Signature{Params: params})
	}
	return out
}

// MaxParams returns the longest declared parameter list.
func MaxParams(sigs []Signature) int {
	max := 0
	for _, s := range sigs {
		if len(s.Params) > max {
			max = len(s.Params)
		}
	}
	return max
}

func tag(p *ast.Parameter) Optionality {
	switch {
	case p.Variadic:
		return Variadic
	case p.Optional:
		return Optional
	}
	return Required
}

// EffectiveSet computes the effective overload set of sigs for a call with
// argCount arguments. Variadic signatures are expanded up to the longest
// parameter list or argCount, whichever is larger, and trailing optional
// positions are dropped one by one.
func EffectiveSet(sigs []Signature, argCount int) []*Candidate {
	maxArgs := MaxParams(sigs)
	if argCount > maxArgs {
		maxArgs = argCount
	}

	var (
		out  []*Candidate
		seen = make(map[candidateKey]bool)
	)
	add := func(c *keyed) {
		k := candidateKey{sig: c.sig, n: c.Len()}
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, &c.Candidate)
	}

	for si, s := range sigs {
		n := len(s.Params)
		full := &keyed{sig: si, Candidate: Candidate{Decl: s.Decl}}
		for _, p := range s.Params {
			full.Params = append(full.Params, p)
			full.Optionality = append(full.Optionality, tag(p))
		}
		add(full)

		if n > 0 && s.Params[n-1].Variadic {
			last := s.Params[n-1]
			for i := n; i < maxArgs; i++ {
				c := &keyed{sig: si, Candidate: Candidate{Decl: s.Decl}}
				c.Params = append(c.Params, full.Params[:n-1]...)
				c.Optionality = append(c.Optionality, full.Optionality[:n-1]...)
				for j := n - 1; j <= i; j++ {
					c.Params = append(c.Params, last)
					c.Optionality = append(c.Optionality, Variadic)
				}
				add(c)
			}
		}

		for i := n - 1; i >= 0; i-- {
			if full.Optionality[i] == Required {
				break
			}
			add(&keyed{sig: si, Candidate: Candidate{
				Decl:        s.Decl,
				Params:      full.Params[:i],
				Optionality: full.Optionality[:i],
			}})
		}
	}
	return out
}

type candidateKey struct {
	sig int
	n   int
}

type keyed struct {
	Candidate
	sig int
}

// Minimum returns the first candidate of the smallest length.
func Minimum(set []*Candidate) *Candidate {
	var min *Candidate
	for _, c := range set {
		if min == nil || c.Len() < min.Len() {
			min = c
		}
	}
	return min
}

// Position is an argument position every candidate agrees on.
type Position struct {
	Index       int
	Param       *ast.Parameter
	Optionality Optionality
}

// Name of the argument at this position.
func (p *Position) Name() string { return p.Param.Name }

// Type of the argument at this position.
func (p *Position) Type() ast.Type { return p.Param.Type }

// Default value, or nil.
func (p *Position) Default() *ast.Literal { return p.Param.Init }

// Annotations of the parameter; they select conversion options.
func (p *Position) Annotations() []*ast.Annotation { return p.Param.Annotations }

// ProveSimilarity checks, for a call with arity arguments, which positions
// have the same type, optionality and default in every candidate that
// reaches them. The result has arity entries; positions that differ are nil.
func ProveSimilarity(set []*Candidate, arity int) []*Position {
	out := make([]*Position, arity)
	for i := 0; i < arity; i++ {
		var (
			pos *Position
			key string
			ok  = true
		)
		for _, c := range set {
			if i >= c.Len() {
				continue
			}
			k := positionKey(c.Params[i], c.Optionality[i])
			if pos == nil {
				pos = &Position{Index: i, Param: c.Params[i], Optionality: c.Optionality[i]}
				key = k
			} else if k != key {
				ok = false
				break
			}
		}
		if ok {
			out[i] = pos
		}
	}
	return out
}

// positionKey identifies everything that changes the conversion of a
// position, including the range annotations.
func positionKey(p *ast.Parameter, o Optionality) string {
	var sb strings.Builder
	sb.WriteString(o.String())
	sb.WriteByte('|')
	sb.WriteString(ast.TypeString(p.Type))
	sb.WriteByte('|')
	if p.Init != nil {
		sb.WriteString(p.Init.String())
	}
	var names []string
	for _, a := range p.Annotations {
		names = append(names, a.Name+"="+a.Value)
	}
	sort.Strings(names)
	sb.WriteByte('|')
	sb.WriteString(strings.Join(names, ","))
	return sb.String()
}

// Plan is the dispatch decision for one operation name or constructor.
type Plan struct {
	Set []*Candidate
	// Min is the shortest candidate; its length is the number of arguments
	// the generated function requires.
	Min *Candidate
	// Positions covers every declared position; nil entries are passed to
	// the implementation unconverted.
	Positions []*Position
}

// Required is the number of arguments a call must supply.
func (p *Plan) Required() int {
	if p.Min == nil {
		return 0
	}
	return p.Min.Len()
}

// Variadic returns the trailing variadic position when every signature
// that reaches it agrees on it.
func (p *Plan) Variadic() *Position {
	if n := len(p.Positions); n > 0 {
		if last := p.Positions[n-1]; last != nil && last.Optionality == Variadic {
			return last
		}
	}
	return nil
}

// Resolve builds the dispatch plan for sigs.
func Resolve(sigs []Signature) *Plan {
	set := EffectiveSet(sigs, 0)
	arity := MaxParams(sigs)
	return &Plan{
		Set:       set,
		Min:       Minimum(set),
		Positions: ProveSimilarity(set, arity),
	}
}
