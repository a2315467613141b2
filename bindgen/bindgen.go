// Package bindgen generates one CommonJS module per IDL construct.
//
// Interfaces become a class installed on a global object together with the
// is/isImpl/create/createImpl/setup surface; legacy platform objects are
// additionally wrapped in a Proxy whose traps come from a declarative table.
// Dictionaries, enumerations, callback functions and callback interfaces get
// a convert function other modules require by name.
package bindgen

import (
	"path"
	"strings"

	"github.com/dennwc/webidl2js/convert"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/logger"
	"github.com/dennwc/webidl2js/semantic"
)

// Options configure a Generator.
type Options struct {
	// ImplDir is the directory of the implementation modules, relative to
	// the directory the generated modules are written to.
	ImplDir string
	// ImplSuffix is appended to the construct name, e.g. Node-impl.js.
	ImplSuffix string
	// ConversionsModule is the module of the builtin conversion table.
	ConversionsModule string
	// DefaultExposure is the global an interface without [Exposed] is
	// installed on.
	DefaultExposure string
}

const (
	DefaultImplDir    = "../impl"
	DefaultImplSuffix = "-impl"
	DefaultExposure   = "Window"
)

// Module is the generated code of one construct.
type Module struct {
	Name     string
	Kind     semantic.Kind
	Requires []string
	Code     string
}

// FileName is the name the module is written under.
func (m *Module) FileName() string { return m.Name + ".js" }

// Generator produces modules from a linked context. It only reads the
// context, so Generate can be called for different constructs concurrently.
type Generator struct {
	ctx  *semantic.Context
	opts Options
	conv *convert.Engine
}

// New returns a generator for a linked context.
func New(ctx *semantic.Context, opts Options) (*Generator, error) {
	if ctx == nil || !ctx.Linked() {
		return nil, errors.AssertionFailedf("generator requires a linked context")
	}
	if opts.ImplDir == "" {
		opts.ImplDir = DefaultImplDir
	}
	if opts.ImplSuffix == "" {
		opts.ImplSuffix = DefaultImplSuffix
	}
	if opts.ConversionsModule == "" {
		opts.ConversionsModule = convert.DefaultConversionsModule
	}
	if opts.DefaultExposure == "" {
		opts.DefaultExposure = DefaultExposure
	}
	return &Generator{
		ctx:  ctx,
		opts: opts,
		conv: convert.New(ctx, convert.Options{ConversionsModule: opts.ConversionsModule}),
	}, nil
}

// Context returns the semantic context the generator reads.
func (g *Generator) Context() *semantic.Context { return g.ctx }

// ImplPath is the require path of the implementation module of name.
func (g *Generator) ImplPath(name string) string {
	p := path.Join(g.opts.ImplDir, name+g.opts.ImplSuffix+".js")
	if !strings.HasPrefix(p, "../") && !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "/") {
		p = "./" + p
	}
	return p
}

// Generate emits the module of one construct.
func (g *Generator) Generate(c semantic.Construct) (*Module, error) {
	b := g.builder(c.ConstructName())
	var err error
	switch c := c.(type) {
	case *semantic.Interface:
		err = b.iface(c)
	case *semantic.Dictionary:
		err = b.dictionary(c)
	case *semantic.Enum:
		err = b.enum(c)
	case *semantic.CallbackFunction:
		err = b.callbackFunction(c)
	case *semantic.CallbackInterface:
		err = b.callbackInterface(c)
	default:
		err = errors.AssertionFailedf("cannot generate %s %s", c.Kind(), c.ConstructName())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "generating %s %s", c.Kind(), c.ConstructName())
	}
	m := &Module{
		Name:     c.ConstructName(),
		Kind:     c.Kind(),
		Requires: b.frag.Requires.Names(),
		Code:     b.render(),
	}
	logger.Logger.Debugw("generated construct",
		"name", m.Name,
		"kind", m.Kind.String(),
		"requires", len(m.Requires),
	)
	return m, nil
}

// GenerateAll emits every construct of the context in name order.
func (g *Generator) GenerateAll() ([]*Module, error) {
	var out []*Module
	for _, c := range g.ctx.Constructs() {
		m, err := g.Generate(c)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
