package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
)

type toolFile struct {
	Tools []Tool `toml:"tools"`
}

// LoadFromFS loads every *.toml file in dir, in file-name order.
func LoadFromFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading embedded catalog: %w", err)
	}

	var allTools []Tool
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		var tf toolFile
		if err := toml.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		allTools = append(allTools, tf.Tools...)
	}

	return New(allTools)
}
