package series

import (
	"testing"
	"time"

	"EconPulse/internal/domain/models"
)

func reading(country string, y int, m time.Month) models.IndicatorReading {
	return models.IndicatorReading{
		CountryCode:    country,
		ReferenceDate:  time.Date(y, m, 1, 0, 0, 0, 0, time.UTC),
		ReferenceYear:  y,
		ReferenceMonth: int(m),
	}
}

func TestPartitionGroupsAndSorts(t *testing.T) {
	rows := []models.IndicatorReading{
		reading("FR", 2024, 2),
		reading("DE", 2024, 3),
		reading("DE", 2024, 1),
		reading("FR", 2024, 1),
		reading("DE", 2024, 2),
	}

	got, invalid := Partition(rows)
	if len(invalid) != 0 {
		t.Fatalf("unexpected invalid rows: %v", invalid)
	}
	if len(got) != 2 {
		t.Fatalf("got %d series, want 2", len(got))
	}
	if got[0].CountryCode != "DE" || got[1].CountryCode != "FR" {
		t.Fatalf("countries must come out sorted, got %s %s", got[0].CountryCode, got[1].CountryCode)
	}
	if got[0].Len() != 3 {
		t.Fatalf("DE has %d readings, want 3", got[0].Len())
	}
	for i := 1; i < got[0].Len(); i++ {
		if !got[0].Readings[i-1].ReferenceDate.Before(got[0].Readings[i].ReferenceDate) {
			t.Fatalf("DE readings not ascending at %d", i)
		}
	}
}

func TestPartitionDropsMalformedRows(t *testing.T) {
	rows := []models.IndicatorReading{
		reading("DE", 2024, 1),
		{CountryCode: "", ReferenceDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{CountryCode: "DE"},
	}

	got, invalid := Partition(rows)
	if len(got) != 1 || got[0].Len() != 1 {
		t.Fatalf("only the valid row should survive, got %v", got)
	}
	if len(invalid) != 2 {
		t.Fatalf("got %d invalid rows, want 2", len(invalid))
	}
	if invalid[0].Error() == "" {
		t.Fatalf("invalid rows must describe themselves")
	}
}

func TestPartitionDeduplicatesDates(t *testing.T) {
	first := reading("DE", 2024, 1)
	first.UnemploymentRate = ptr(5.0)
	dup := reading("DE", 2024, 1)
	dup.UnemploymentRate = ptr(9.9)

	got, invalid := Partition([]models.IndicatorReading{first, dup})
	if got[0].Len() != 1 {
		t.Fatalf("duplicate date must be dropped, got %d readings", got[0].Len())
	}
	if *got[0].Readings[0].UnemploymentRate != 5.0 {
		t.Fatalf("first occurrence must win, got %v", *got[0].Readings[0].UnemploymentRate)
	}
	if len(invalid) != 1 {
		t.Fatalf("duplicate must be reported, got %v", invalid)
	}
}

func ptr(x float64) *float64 { return &x }
