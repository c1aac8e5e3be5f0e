package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/MJE43/jokers-gambit/internal/joker"
)

// LoadDir compiles every *.js file in dir and registers it. It stops at the
// first failure and returns the ids registered so far.
func LoadDir(dir string, registry *joker.Registry, opts ...Option) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.js"))
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	sort.Strings(paths)

	loaded := make([]string, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("read %s: %w", path, err)
		}
		def, err := Compile(filepath.Base(path), string(src), opts...)
		if err != nil {
			return loaded, err
		}
		if err := registry.Register(def); err != nil {
			return loaded, fmt.Errorf("register %s: %w", path, err)
		}
		loaded = append(loaded, def.ID)
	}
	return loaded, nil
}
