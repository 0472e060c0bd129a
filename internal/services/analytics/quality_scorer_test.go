package analytics

import (
	"testing"
	"time"

	"EconPulse/internal/domain/models"
)

func varied(base float64, n int) []*float64 {
	out := make([]*float64, n)
	for i := range out {
		out[i] = ptr(base + 0.1*float64(i%7))
	}
	return out
}

func TestScoreHealthySeries(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	series := mkSeries("DE", varied(5, 24), varied(0.2, 24))
	now := series.LatestDate().AddDate(0, 0, 30)

	rec := s.Score(series, now)
	if rec.CompletenessScore != 100 {
		t.Fatalf("completeness = %v, want 100", rec.CompletenessScore)
	}
	if rec.TimelinessScore != 100 {
		t.Fatalf("timeliness = %v, want 100", rec.TimelinessScore)
	}
	if rec.ValidityScore != 100 {
		t.Fatalf("validity = %v, want 100", rec.ValidityScore)
	}
	if rec.ConsistencyScore != 100 {
		t.Fatalf("consistency = %v, want 100", rec.ConsistencyScore)
	}
	if rec.OverallQualityScore != 100 || rec.QualityGrade != "A" {
		t.Fatalf("overall = %v grade = %q", rec.OverallQualityScore, rec.QualityGrade)
	}
	if rec.PrimaryIssue != "none" || rec.RequiresAttention {
		t.Fatalf("healthy series must not raise issues")
	}
	if rec.TotalRecords != 24 || rec.ScoredAt != now {
		t.Fatalf("record bookkeeping wrong: %+v", rec)
	}
}

func TestScoreTimelinessDecay(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	series := mkSeries("DE", varied(5, 24), varied(0.2, 24))
	now := series.LatestDate().AddDate(0, 0, 200)

	rec := s.Score(series, now)
	// 200 days is 110 past the threshold: 100 - (110/30)*10.
	want := 100 - (110.0/30.0)*10
	if !almost(rec.TimelinessScore, want, 1e-9) {
		t.Fatalf("timeliness = %v, want %v", rec.TimelinessScore, want)
	}
	if rec.DaysSinceLatest == nil || *rec.DaysSinceLatest != 200 {
		t.Fatalf("days since latest = %v, want 200", rec.DaysSinceLatest)
	}
}

func TestScoreTimelinessFloor(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	series := mkSeries("DE", varied(5, 24), varied(0.2, 24))
	now := series.LatestDate().AddDate(3, 0, 0)

	rec := s.Score(series, now)
	if rec.TimelinessScore != 0 {
		t.Fatalf("timeliness = %v, want floor 0", rec.TimelinessScore)
	}
}

func TestScoreCompletenessPartial(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	unemp := varied(5, 24)
	for i := 0; i < 12; i++ {
		unemp[i] = nil
	}
	series := mkSeries("DE", unemp, varied(0.2, 24))
	rec := s.Score(series, series.LatestDate())

	if rec.UnemploymentCompleteness != 50 {
		t.Fatalf("unemployment completeness = %v, want 50", rec.UnemploymentCompleteness)
	}
	if rec.InflationCompleteness != 100 {
		t.Fatalf("inflation completeness = %v, want 100", rec.InflationCompleteness)
	}
	if rec.CompletenessScore != 75 {
		t.Fatalf("completeness = %v, want 75", rec.CompletenessScore)
	}
	if rec.PrimaryIssue != "completeness" {
		t.Fatalf("primary issue = %q, want completeness", rec.PrimaryIssue)
	}
}

func TestScoreValidityOutOfRange(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	unemp := varied(5, 24)
	unemp[0] = ptr(45)  // above the unemployment ceiling
	unemp[1] = ptr(-2)  // below zero
	series := mkSeries("DE", unemp, varied(0.2, 24))
	rec := s.Score(series, series.LatestDate())

	want := float64(22) / 24 * 100
	if !almost(rec.UnemploymentValidity, want, 1e-9) {
		t.Fatalf("unemployment validity = %v, want %v", rec.UnemploymentValidity, want)
	}
	if rec.InflationValidity != 100 {
		t.Fatalf("inflation validity = %v, want 100", rec.InflationValidity)
	}
}

func TestScoreConsistencyRepetition(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	// 12 identical present values: 11 of 12 transitions repeat.
	series := mkSeries("DE", repeat(5, 12), nil)
	rec := s.Score(series, series.LatestDate())

	// p = 11/12, score floors at 0.
	if rec.ConsistencyScore != 0 {
		t.Fatalf("consistency = %v, want 0", rec.ConsistencyScore)
	}
}

func TestScoreConsistencyVacuous(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	// 10 present values is at the minimum sample, so the dimension defaults.
	series := mkSeries("DE", repeat(5, 10), nil)
	rec := s.Score(series, series.LatestDate())
	if rec.ConsistencyScore != 100 {
		t.Fatalf("consistency = %v, want vacuous 100", rec.ConsistencyScore)
	}
}

func TestScoreEmptySeries(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	rec := s.Score(models.CountrySeries{CountryCode: "XX"}, time.Now())

	if rec.CompletenessScore != 0 || rec.TimelinessScore != 0 {
		t.Fatalf("empty series: completeness/timeliness must be 0")
	}
	if rec.ValidityScore != 100 || rec.ConsistencyScore != 100 {
		t.Fatalf("empty series: validity/consistency are vacuously 100")
	}
	if rec.DaysSinceLatest != nil || rec.LatestDataDate != nil {
		t.Fatalf("empty series must not report staleness")
	}
	if !rec.RequiresAttention || rec.PrimaryIssue != "completeness" {
		t.Fatalf("empty series must require attention, got %+v", rec)
	}
}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "A"}, {90, "A"}, {89.999, "B"}, {80, "B"},
		{79.999, "C"}, {70, "C"}, {69.999, "D"}, {60, "D"}, {59.999, "F"}, {0, "F"},
	}
	for _, c := range cases {
		if got := gradeFor(c.score); got != c.want {
			t.Fatalf("gradeFor(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestPrimaryIssueOrder(t *testing.T) {
	s := NewQualityScorer(DefaultConfig())
	rec := models.QualityScoreRecord{
		CompletenessScore: 85,
		TimelinessScore:   50,
		ValidityScore:     40,
		ConsistencyScore:  30,
	}
	if got := s.primaryIssue(rec); got != "timeliness" {
		t.Fatalf("primary issue = %q, want timeliness (first below threshold in order)", got)
	}
}
