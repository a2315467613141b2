package generate

import (
	"os"
	"path/filepath"

	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/globals"
	"github.com/dennwc/webidl2js/logger"
	"github.com/dennwc/webidl2js/runtime"
)

// Write stores the modules, the index and the runtime support files in dir.
func Write(dir string, res *Result, withConversions bool) error {
	if res == nil {
		return errors.AssertionFailedf("nothing to write")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	for _, m := range res.Modules {
		if err := writeFile(dir, m.FileName(), m.Code); err != nil {
			return err
		}
	}
	if err := writeFile(dir, globals.IndexFile, res.Index); err != nil {
		return err
	}
	if err := runtime.WriteTo(dir, withConversions); err != nil {
		return err
	}
	logger.Logger.Infow("Wrote bindings", "dir", dir, "modules", len(res.Modules))
	return nil
}

func writeFile(dir, name, src string) error {
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", p)
	}
	return nil
}

// ImplDir returns the implementation directory as seen from the output
// directory, in the slash-separated form require paths use.
func ImplDir(outputDir, implDir string) (string, error) {
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", outputDir)
	}
	impl, err := filepath.Abs(implDir)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", implDir)
	}
	rel, err := filepath.Rel(out, impl)
	if err != nil {
		return "", errors.Wrapf(err, "relating %s to %s", implDir, outputDir)
	}
	return filepath.ToSlash(rel), nil
}
