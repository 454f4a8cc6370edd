package fx

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/econindex/classifier/internal/models"
)

// LoadFallback reads a fallback FXTable from a JSON file on disk. Live FX
// acquisition is out of scope here; this is the "fxFallback" table a
// deployment ships alongside its service config, loaded once at startup
// and again on every scheduled refresh so an operator can roll a new
// rates snapshot out without a restart.
func LoadFallback(path string) (models.FXTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.FXTable{}, fmt.Errorf("failed to read FX fallback table: %w", err)
	}
	var table models.FXTable
	if err := json.Unmarshal(data, &table); err != nil {
		return models.FXTable{}, fmt.Errorf("failed to parse FX fallback table: %w", err)
	}
	if table.Base == "" {
		return models.FXTable{}, fmt.Errorf("FX fallback table missing base currency")
	}
	table.Source = "fallback"
	return table, nil
}
