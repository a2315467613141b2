// Package generate runs the whole pipeline: it reads and parses IDL sources,
// links them into one context and emits a module per construct. Either every
// module is produced or the run fails.
package generate

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dennwc/webidl2js/ast"
	"github.com/dennwc/webidl2js/bindgen"
	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/globals"
	"github.com/dennwc/webidl2js/jscheck"
	"github.com/dennwc/webidl2js/logger"
	"github.com/dennwc/webidl2js/parser"
	"github.com/dennwc/webidl2js/semantic"
)

// Extensions lists the file extensions picked up from input directories.
var Extensions = []string{".webidl", ".idl"}

// Options configure a run.
type Options struct {
	// Inputs are IDL files or directories containing them.
	Inputs []string
	// Bindgen is passed to the module generator as is.
	Bindgen bindgen.Options
	// SuppressErrors drops declarations that fail to link.
	SuppressErrors bool
	// VerifySyntax parses every emitted module before returning it.
	VerifySyntax bool
	// Workers bounds the number of constructs generated at once;
	// zero means GOMAXPROCS.
	Workers int
}

// Result is the output of a successful run.
type Result struct {
	Modules []*bindgen.Module
	// Order is the install order of the interfaces.
	Order []string
	// Index is the source of the index module.
	Index string
}

// Source is one IDL file read from disk.
type Source struct {
	Path string
	Text string
}

// Run executes the pipeline.
func Run(ctx context.Context, opts Options) (*Result, error) {
	paths, err := Sources(opts.Inputs)
	if err != nil {
		return nil, err
	}
	srcs, err := Read(ctx, paths)
	if err != nil {
		return nil, err
	}
	return FromSources(ctx, srcs, opts)
}

// FromSources runs the pipeline over already loaded sources.
func FromSources(ctx context.Context, srcs []Source, opts Options) (*Result, error) {
	files, err := parse(ctx, srcs, opts.Workers)
	if err != nil {
		return nil, err
	}

	sc := semantic.New(semantic.Options{SuppressErrors: opts.SuppressErrors})
	for i, f := range files {
		if err := sc.AddFile(f, srcs[i].Path); err != nil {
			return nil, errors.Wrapf(err, "loading %s", srcs[i].Path)
		}
	}
	if err := sc.Link(); err != nil {
		return nil, err
	}

	g, err := bindgen.New(sc, opts.Bindgen)
	if err != nil {
		return nil, err
	}
	mods, err := generateAll(ctx, g, opts)
	if err != nil {
		return nil, err
	}

	order, err := globals.Order(sc)
	if err != nil {
		return nil, err
	}
	index, err := globals.Index(order)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Modules: mods,
		Order:   order,
		Index:   index,
	}
	if opts.VerifySyntax {
		if err := jscheck.Verify(globals.IndexFile, res.Index); err != nil {
			return nil, errors.AssertionFailedf("index module: %v", err)
		}
	}
	logger.Logger.Infow("Generated bindings",
		"sources", len(srcs),
		"modules", len(mods),
		"installable", len(order),
	)
	return res, nil
}

// Sources expands directories into the IDL files they contain and returns
// every path sorted, so runs do not depend on directory listing order.
func Sources(inputs []string) ([]string, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no input files")
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, in := range inputs {
		st, err := os.Stat(in)
		if err != nil {
			return nil, errors.Wrapf(err, "input %s", in)
		}
		if !st.IsDir() {
			add(filepath.Clean(in))
			continue
		}
		err = filepath.WalkDir(in, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isIDL(p) {
				add(filepath.Clean(p))
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scanning %s", in)
		}
	}
	sort.Strings(out)
	return out, nil
}

func isIDL(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Read loads every file concurrently. The result keeps the order of paths.
func Read(ctx context.Context, paths []string) ([]Source, error) {
	out := make([]Source, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return errors.Wrapf(err, "reading %s", p)
			}
			out[i] = Source{Path: p, Text: string(data)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parse(ctx context.Context, srcs []Source, workers int) ([]*ast.File, error) {
	files := make([]*ast.File, len(srcs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit(workers))
	for i, s := range srcs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := parser.ParseFile(s.Path, s.Text)
			if err != nil {
				return errors.Wrapf(err, "parsing %s", s.Path)
			}
			files[i] = f
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// generateAll emits every construct. The context is linked and read-only at
// this point, so constructs are generated in parallel.
func generateAll(ctx context.Context, g *bindgen.Generator, opts Options) ([]*bindgen.Module, error) {
	constructs := g.Context().Constructs()
	mods := make([]*bindgen.Module, len(constructs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit(opts.Workers))
	for i, c := range constructs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := g.Generate(c)
			if err != nil {
				return err
			}
			if opts.VerifySyntax {
				if err := jscheck.Verify(m.FileName(), m.Code); err != nil {
					return errors.AssertionFailedf("generated %s %s is not valid JavaScript: %v",
						c.Kind().String(), c.ConstructName(), err)
				}
			}
			mods[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return mods, nil
}

func limit(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}
