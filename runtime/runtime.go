// Package runtime embeds the JavaScript support code every generated binding
// module requires: the shared utility surface (utils.js) and the built-in
// conversion table for primitive IDL types (conversions.js).
package runtime

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/dennwc/webidl2js/errors"
)

//go:embed js/*.js
var assets embed.FS

const (
	// UtilsFile is the module name generated code requires as "./utils.js".
	UtilsFile = "utils.js"
	// ConversionsFile is the file name of the built-in conversion table.
	ConversionsFile = "conversions.js"
)

func read(name string) string {
	data, err := assets.ReadFile("js/" + name)
	if err != nil {
		// embedded at build time
		panic(err)
	}
	return string(data)
}

// Utils returns the source of utils.js.
func Utils() string { return read(UtilsFile) }

// Conversions returns the source of conversions.js.
func Conversions() string { return read(ConversionsFile) }

// Files returns the runtime modules to write next to generated bindings, keyed
// by file name. The conversion table is included only when requested; otherwise
// the bindings load it from an installed package.
func Files(withConversions bool) map[string]string {
	files := map[string]string{UtilsFile: Utils()}
	if withConversions {
		files[ConversionsFile] = Conversions()
	}
	return files
}

// WriteTo writes the runtime modules into dir.
func WriteTo(dir string, withConversions bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	for name, src := range Files(withConversions) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return nil
}
