// File: internal/harness/items.go
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/warden-cli/api/schemas"
)

// LoadItems reads a batch file of evaluation items. The file is YAML, which
// also admits JSON batch files unchanged.
func LoadItems(path string) ([]schemas.BatchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %q: %w", path, err)
	}

	var items []schemas.BatchItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %q: %w", path, err)
	}

	for i, item := range items {
		if item.Instruction == "" {
			return nil, fmt.Errorf("batch item %d has no instruction", i)
		}
		switch item.Category {
		case "", schemas.CategoryBenign, schemas.CategoryForbidden:
		default:
			return nil, fmt.Errorf("batch item %d has unknown category %q", i, item.Category)
		}
	}
	return items, nil
}
