package jscheck

import (
	"path"
	"strings"

	"github.com/dop251/goja"

	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/runtime"
)

// Loader is a CommonJS module loader over an in-memory file set.
type Loader struct {
	vm      *goja.Runtime
	sources map[string]string
	aliases map[string]string
	cache   map[string]*goja.Object
}

// NewLoader returns a loader over modules (file name -> source). The runtime
// files are always available as "./utils.js" and, through conversionsModule,
// as the conversion table.
func NewLoader(vm *goja.Runtime, modules map[string]string, conversionsModule string) *Loader {
	l := &Loader{
		vm:      vm,
		sources: make(map[string]string),
		aliases: make(map[string]string),
		cache:   make(map[string]*goja.Object),
	}
	for name, src := range runtime.Files(true) {
		l.sources[name] = src
	}
	for name, src := range modules {
		l.sources[normalize(name)] = src
	}
	if conversionsModule != "" {
		l.aliases[conversionsModule] = runtime.ConversionsFile
	}
	return l
}

// Runtime returns the engine the modules run in.
func (l *Loader) Runtime() *goja.Runtime { return l.vm }

// Add registers or replaces a module source. Already loaded modules are kept.
func (l *Loader) Add(name, src string) {
	l.sources[normalize(name)] = src
}

func normalize(id string) string {
	return path.Clean(strings.TrimPrefix(id, "./"))
}

func (l *Loader) resolve(id string) (string, bool) {
	if a, ok := l.aliases[id]; ok {
		return a, true
	}
	key := normalize(id)
	if _, ok := l.sources[key]; ok {
		return key, true
	}
	// ../impl/Foo-impl.js and friends
	rel := key
	for strings.HasPrefix(rel, "../") {
		rel = rel[len("../"):]
	}
	if _, ok := l.sources[rel]; ok {
		return rel, true
	}
	base := path.Base(key)
	if _, ok := l.sources[base]; ok {
		return base, true
	}
	return "", false
}

// Require loads a module and returns its exports.
func (l *Loader) Require(id string) (*goja.Object, error) {
	key, ok := l.resolve(id)
	if !ok {
		return nil, errors.Newf("cannot find module %q", id)
	}
	if exp, ok := l.cache[key]; ok {
		return exp, nil
	}

	prg, err := goja.Compile(key, wrap(l.sources[key]), true)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %s", key)
	}
	fnv, err := l.vm.RunProgram(prg)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", key)
	}
	fn, ok := goja.AssertFunction(fnv)
	if !ok {
		return nil, errors.AssertionFailedf("module wrapper of %s is not a function", key)
	}

	module := l.vm.NewObject()
	exports := l.vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	// registered before running so that require cycles see partial exports
	l.cache[key] = exports

	require := l.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		v, err := l.Require(call.Argument(0).String())
		if err != nil {
			panic(l.vm.NewGoError(err))
		}
		return v
	})
	if _, err := fn(goja.Undefined(), exports, require, module); err != nil {
		delete(l.cache, key)
		return nil, errors.Wrapf(err, "running %s", key)
	}

	// module.exports may have been reassigned
	final := module.Get("exports").ToObject(l.vm)
	l.cache[key] = final
	return final, nil
}

// Run evaluates a script in the loader's engine with require available as a
// global function.
func (l *Loader) Run(src string) (goja.Value, error) {
	if err := l.vm.Set("require", func(call goja.FunctionCall) goja.Value {
		v, err := l.Require(call.Argument(0).String())
		if err != nil {
			panic(l.vm.NewGoError(err))
		}
		return v
	}); err != nil {
		return nil, err
	}
	return l.vm.RunString(src)
}
