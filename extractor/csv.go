package extractor

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/use-agent/tabgate/models"
)

// writeCSV serializes rows to path as RFC 4180 CSV (UTF-8, comma-delimited,
// quoting only where needed, trailing newline), creating parent directories
// and overwriting any existing file.
func writeCSV(path string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return models.NewSessionError(
				models.ErrCodeIOWrite,
				"failed to create output directory "+dir,
				err,
			)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return models.NewSessionError(
			models.ErrCodeIOWrite,
			"failed to create output file "+path,
			err,
		)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return models.NewSessionError(
			models.ErrCodeIOWrite,
			"failed to write CSV to "+path,
			err,
		)
	}
	if err := f.Close(); err != nil {
		return models.NewSessionError(
			models.ErrCodeIOWrite,
			"failed to flush "+path,
			err,
		)
	}
	return nil
}
