package eurostat

import (
	"testing"
	"time"
)

func fv(x float64) *float64 { return &x }

// sampleDoc is a 2x3 (geo x time) monthly dataset with one missing cell.
func sampleDoc() *Document {
	return &Document{
		ID:   []string{"geo", "time"},
		Size: []int{2, 3},
		Dimension: map[string]Dimension{
			"geo": {
				Label: "Geopolitical entity",
				Category: Category{
					Index: map[string]int{"DE": 0, "FR": 1},
					Label: map[string]string{"DE": "Germany", "FR": "France"},
				},
			},
			"time": {
				Label: "Time",
				Category: Category{
					Index: map[string]int{"2024-01": 0, "2024-02": 1, "2024-03": 2},
					Label: map[string]string{"2024-01": "2024-01", "2024-02": "2024-02", "2024-03": "2024-03"},
				},
			},
		},
		Value: map[string]*float64{
			"0": fv(3.1),
			"1": fv(3.2),
			"2": fv(3.3),
			"3": fv(7.4),
			// "4" missing: France has no February value
			"5": fv(7.6),
		},
	}
}

func TestStrides(t *testing.T) {
	got := strides([]int{2, 3, 4})
	if got[0] != 12 || got[1] != 4 || got[2] != 1 {
		t.Fatalf("strides = %v, want [12 4 1]", got)
	}
}

func TestDecodeExpandsFlatIndices(t *testing.T) {
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	rows, err := sampleDoc().Decode("une_rt_m", now)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5 populated cells", len(rows))
	}

	first := rows[0]
	if first.DatasetCode != "une_rt_m" || !first.ExtractedAt.Equal(now) {
		t.Fatalf("row bookkeeping wrong: %+v", first)
	}
	if first.DimCodes["geo"] != "DE" || first.DimCodes["time"] != "2024-01" {
		t.Fatalf("first cell codes = %v", first.DimCodes)
	}
	if first.DimLabels["geo"] != "Germany" {
		t.Fatalf("first cell labels = %v", first.DimLabels)
	}
	if first.Value == nil || *first.Value != 3.1 {
		t.Fatalf("first cell value = %v", first.Value)
	}

	// Flat index 5 is (FR, 2024-03).
	last := rows[len(rows)-1]
	if last.DimCodes["geo"] != "FR" || last.DimCodes["time"] != "2024-03" {
		t.Fatalf("last cell codes = %v", last.DimCodes)
	}
	if *last.Value != 7.6 {
		t.Fatalf("last cell value = %v", *last.Value)
	}
}

func TestDecodeRejectsMismatchedShape(t *testing.T) {
	doc := sampleDoc()
	doc.Size = []int{2}
	if _, err := doc.Decode("une_rt_m", time.Now()); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
}

func TestDecodeRejectsMissingDimension(t *testing.T) {
	doc := sampleDoc()
	delete(doc.Dimension, "time")
	if _, err := doc.Decode("une_rt_m", time.Now()); err == nil {
		t.Fatalf("expected missing dimension error")
	}
}

func TestMonthlyObservations(t *testing.T) {
	rows, err := sampleDoc().Decode("une_rt_m", time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obs := MonthlyObservations(rows)
	if len(obs) != 5 {
		t.Fatalf("got %d observations, want 5", len(obs))
	}
	if obs[0].Geo != "DE" || !obs[0].Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first observation = %+v", obs[0])
	}
}

func TestMonthlyObservationsSkipsAnnualPeriods(t *testing.T) {
	doc := sampleDoc()
	doc.Dimension["time"] = Dimension{
		Category: Category{
			Index: map[string]int{"2022": 0, "2023": 1, "2024": 2},
			Label: map[string]string{"2022": "2022", "2023": "2023", "2024": "2024"},
		},
	}
	rows, err := doc.Decode("nama_10_gdp", time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := MonthlyObservations(rows); len(got) != 0 {
		t.Fatalf("annual periods must be skipped, got %d", len(got))
	}
}

func TestCatalogueIndicators(t *testing.T) {
	specs := Catalogue([]string{"DE", "FR"})
	if len(specs) != 4 {
		t.Fatalf("got %d datasets, want 4", len(specs))
	}
	var monthly int
	for _, s := range specs {
		if s.Monthly {
			monthly++
			if s.Indicator() == "" {
				t.Fatalf("monthly dataset %s must map to an indicator", s.Code)
			}
		}
		if len(s.Params["geo"]) != 2 {
			t.Fatalf("dataset %s must carry the geo filter", s.Code)
		}
	}
	if monthly != 2 {
		t.Fatalf("got %d monthly datasets, want 2", monthly)
	}
}
