package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shubham-shewale/portfolio-price-stream/pkg/models"
)

// LoadFile parses one portfolio JSON file.
func LoadFile(path string) (*models.Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio file: %w", err)
	}

	var p models.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse portfolio file %s: %w", filepath.Base(path), err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("portfolio file %s has no id", filepath.Base(path))
	}
	return &p, nil
}

// LoadDir loads every *.json portfolio file in dir into the registry and
// returns how many were loaded. Individual bad files are skipped, not fatal.
func (r *Registry) LoadDir(dir string) (int, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, []error{fmt.Errorf("read portfolio dir: %w", err)}
	}

	var errs []error
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		p, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.Load(p)
		loaded++
	}
	return loaded, errs
}
