package domain

// MaxImportItems bounds the size of one import batch.
const MaxImportItems = 1000

// ImportError describes why the item at Index (0-based) was not imported.
type ImportError struct {
	Index  int
	Reason string
}

// ImportResult summarises an import batch.
type ImportResult struct {
	Created int
	Failed  int
	Errors  []ImportError
}

// ExportFormat selects the export rendering.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// Valid reports whether f is a supported format.
func (f ExportFormat) Valid() bool {
	return f == ExportJSON || f == ExportCSV
}

// ExportBundle is the rendered export. Failed counts records that could not be
// opened; they appear in Data flagged, never as ciphertext.
type ExportBundle struct {
	Format      ExportFormat
	ContentType string
	Data        []byte
	Exported    int
	Failed      int
}

// RotationResult summarises a master key change.
type RotationResult struct {
	Reencrypted int
}
