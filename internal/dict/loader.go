package dict

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// dictionaryFile is the YAML shape of a dictionary on disk.
//
//	providers:
//	  - namespace: minecraft
//	    blocks: [air, stone, water]
//
// Provider ids are assigned in file order starting at 0, block ids in list
// order starting at 0, so a file pins the full numeric mapping.
type dictionaryFile struct {
	Providers []providerEntry `yaml:"providers"`
}

type providerEntry struct {
	Namespace string   `yaml:"namespace"`
	Blocks    []string `yaml:"blocks"`
}

// Load reads and parses a dictionary file.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load dictionary %s: %w", path, err)
	}
	return d, nil
}

// Parse builds a Dictionary from YAML bytes.
func Parse(data []byte) (*Dictionary, error) {
	var file dictionaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("parse dictionary: no providers defined")
	}

	d := New()
	seen := map[string]bool{}
	for _, p := range file.Providers {
		if p.Namespace == "" {
			return nil, fmt.Errorf("parse dictionary: provider with empty namespace")
		}
		if seen[p.Namespace] {
			return nil, fmt.Errorf("parse dictionary: duplicate namespace %q", p.Namespace)
		}
		seen[p.Namespace] = true

		t := NewTable(p.Namespace)
		for _, name := range p.Blocks {
			t.AddName(name)
		}
		d.AddTable(t)
	}
	return d, nil
}
