package eurostat

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"EconPulse/internal/domain/models"
	"EconPulse/pkg/util"
)

// Document is the JSON-stat v2 payload returned by the dissemination API.
// Values are index-compressed: the Value map is keyed by a single flattened
// index computed from the per-dimension category positions and the dimension
// sizes, and only populated cells appear.
type Document struct {
	Label     string               `json:"label"`
	ID        []string             `json:"id"`
	Size      []int                `json:"size"`
	Dimension map[string]Dimension `json:"dimension"`
	Value     map[string]*float64  `json:"value"`
	Status    map[string]string    `json:"status"`
	Extension map[string]any       `json:"extension"`
}

type Dimension struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

type Category struct {
	Index map[string]int    `json:"index"`
	Label map[string]string `json:"label"`
}

// strides returns, per dimension, the number of flattened cells one step in
// that dimension spans: the product of all trailing dimension sizes.
func strides(sizes []int) []int {
	out := make([]int, len(sizes))
	stride := 1
	for i := len(sizes) - 1; i >= 0; i-- {
		out[i] = stride
		stride *= sizes[i]
	}
	return out
}

// Decode expands the index-compressed document into flat rows, one per
// populated cell, in ascending flat-index order. Each row carries the
// decoded category code and label for every dimension.
func (d *Document) Decode(datasetCode string, extractedAt time.Time) ([]models.RawDatasetRow, error) {
	if len(d.ID) != len(d.Size) {
		return nil, fmt.Errorf("jsonstat: id/size length mismatch (%d vs %d)", len(d.ID), len(d.Size))
	}

	// Invert each dimension's index map: position -> code.
	codesByPos := make([]map[int]string, len(d.ID))
	for i, dimID := range d.ID {
		dim, ok := d.Dimension[dimID]
		if !ok {
			return nil, fmt.Errorf("jsonstat: dimension %q missing from document", dimID)
		}
		inv := make(map[int]string, len(dim.Category.Index))
		for code, pos := range dim.Category.Index {
			inv[pos] = code
		}
		codesByPos[i] = inv
	}

	flatIndices := make([]int, 0, len(d.Value))
	for key := range d.Value {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("jsonstat: non-numeric value index %q", key)
		}
		flatIndices = append(flatIndices, idx)
	}
	sort.Ints(flatIndices)

	str := strides(d.Size)
	rows := make([]models.RawDatasetRow, 0, len(flatIndices))
	for _, flat := range flatIndices {
		row := models.RawDatasetRow{
			DatasetCode: datasetCode,
			Value:       d.Value[strconv.Itoa(flat)],
			ExtractedAt: extractedAt,
			DimCodes:    make(map[string]string, len(d.ID)),
			DimLabels:   make(map[string]string, len(d.ID)),
		}
		remaining := flat
		for i, dimID := range d.ID {
			pos := remaining / str[i]
			remaining = remaining % str[i]
			code, ok := codesByPos[i][pos]
			if !ok {
				code = strconv.Itoa(pos)
			}
			row.DimCodes[dimID] = code
			label, ok := d.Dimension[dimID].Category.Label[code]
			if !ok {
				label = code
			}
			row.DimLabels[dimID] = label
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Observation is one (geo, month, value) triple extracted from a decoded
// monthly dataset.
type Observation struct {
	Geo   string
	Date  time.Time
	Value *float64
}

// MonthlyObservations projects decoded rows onto (geo, month, value),
// skipping rows whose time code is not a monthly period.
func MonthlyObservations(rows []models.RawDatasetRow) []Observation {
	out := make([]Observation, 0, len(rows))
	for _, r := range rows {
		geo := r.DimCodes["geo"]
		date, err := util.ParseYearMonth(r.DimCodes["time"])
		if geo == "" || err != nil {
			continue
		}
		out = append(out, Observation{Geo: geo, Date: date, Value: r.Value})
	}
	return out
}
