package builder

import (
	"fmt"

	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

// Build turns windowed rows into records, windows in ascending start order
// and rows in the order each window holds them.
func Build(windows models.Windows) ([]models.Record, error) {
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows to build records from: %w", models.ErrEmptyResult)
	}
	records := make([]models.Record, 0, windows.Len())
	for _, start := range windows.Starts() {
		for _, row := range windows[start] {
			records = append(records, models.NewRecord(row))
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no valid repair orders found in %d windows: %w", len(windows), models.ErrEmptyResult)
	}
	return records, nil
}
