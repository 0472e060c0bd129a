package models

import "time"

// RawDatasetRow is one decoded observation from a source dataset before any
// merging into the fact relation. Dimension codes/labels are kept as maps so
// datasets with different dimensionality share one table shape.
type RawDatasetRow struct {
	DatasetCode string
	Value       *float64
	ExtractedAt time.Time
	DimCodes    map[string]string
	DimLabels   map[string]string
}
