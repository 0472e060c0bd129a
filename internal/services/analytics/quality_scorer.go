package analytics

import (
	"time"

	"EconPulse/internal/domain/models"
)

// QualityScorer condenses a country series into one record covering four
// scored dimensions: completeness, timeliness, validity, and consistency.
// Each dimension lands in [0,100]; the overall score is their weighted sum.
type QualityScorer struct {
	cfg Config
}

func NewQualityScorer(cfg Config) *QualityScorer {
	return &QualityScorer{cfg: cfg}
}

// Score computes the quality record for one country. now is the reference
// instant for timeliness and the snapshot timestamp; injecting it keeps
// scoring reproducible.
func (s *QualityScorer) Score(series models.CountrySeries, now time.Time) models.QualityScoreRecord {
	rec := models.QualityScoreRecord{
		CountryCode:         series.CountryCode,
		TotalRecords:        series.Len(),
		ScoredAt:            now,
		ScoringModelVersion: models.ModelVersion,
	}

	s.completeness(&rec, series)
	s.timeliness(&rec, series, now)
	s.validity(&rec, series)
	s.consistency(&rec, series)

	rec.OverallQualityScore = s.cfg.CompletenessWeight*rec.CompletenessScore +
		s.cfg.TimelinessWeight*rec.TimelinessScore +
		s.cfg.ValidityWeight*rec.ValidityScore +
		s.cfg.ConsistencyWeight*rec.ConsistencyScore

	rec.QualityGrade = gradeFor(rec.OverallQualityScore)
	rec.PrimaryIssue = s.primaryIssue(rec)
	rec.RequiresAttention = rec.OverallQualityScore < s.cfg.AttentionThreshold
	return rec
}

// completeness is the mean percentage of non-missing values across tracked
// columns; 0 when there are no tracked columns at all.
func (s *QualityScorer) completeness(rec *models.QualityScoreRecord, series models.CountrySeries) {
	total := series.Len()
	perColumn := make([]float64, 0, len(models.TrackedIndicators))
	for _, ind := range models.TrackedIndicators {
		pct := 0.0
		if total > 0 {
			pct = float64(len(dropMissing(series.IndicatorValues(ind)))) / float64(total) * 100
		}
		switch ind {
		case models.IndicatorUnemployment:
			rec.UnemploymentCompleteness = pct
		case models.IndicatorInflation:
			rec.InflationCompleteness = pct
		}
		perColumn = append(perColumn, pct)
	}
	if len(perColumn) == 0 {
		rec.CompletenessScore = 0
		return
	}
	rec.CompletenessScore = mean(perColumn)
}

// timeliness scores 100 up to the staleness threshold, then decays linearly
// by TimelinessDecayPerMonth points per 30 days.
func (s *QualityScorer) timeliness(rec *models.QualityScoreRecord, series models.CountrySeries, now time.Time) {
	latest := series.LatestDate()
	if latest.IsZero() {
		rec.TimelinessScore = 0
		return
	}
	days := int(now.Sub(latest).Hours() / 24)
	rec.DaysSinceLatest = &days
	rec.LatestDataDate = &latest

	if days <= s.cfg.TimelinessThresholdDays {
		rec.TimelinessScore = 100
		return
	}
	monthsLate := float64(days-s.cfg.TimelinessThresholdDays) / 30
	score := 100 - monthsLate*s.cfg.TimelinessDecayPerMonth
	if score < 0 {
		score = 0
	}
	rec.TimelinessScore = score
}

// validity is the mean percentage of non-missing values inside each column's
// plausible range, across columns that have data; vacuously 100 otherwise.
func (s *QualityScorer) validity(rec *models.QualityScoreRecord, series models.CountrySeries) {
	perColumn := make([]float64, 0, len(models.TrackedIndicators))
	for _, ind := range models.TrackedIndicators {
		present := dropMissing(series.IndicatorValues(ind))
		if len(present) == 0 {
			continue
		}
		lo, hi := s.cfg.IndicatorRange(string(ind))
		inRange := 0
		for _, v := range present {
			if v >= lo && v <= hi {
				inRange++
			}
		}
		pct := float64(inRange) / float64(len(present)) * 100
		switch ind {
		case models.IndicatorUnemployment:
			rec.UnemploymentValidity = pct
		case models.IndicatorInflation:
			rec.InflationValidity = pct
		}
		perColumn = append(perColumn, pct)
	}
	if len(perColumn) == 0 {
		rec.ValidityScore = 100
		return
	}
	rec.ValidityScore = mean(perColumn)
}

// consistency penalizes suspicious repetition: the fraction p of consecutive
// equal-value transitions costs 200·p points. Columns at or below the
// minimum sample default to 100.
func (s *QualityScorer) consistency(rec *models.QualityScoreRecord, series models.CountrySeries) {
	perColumn := make([]float64, 0, len(models.TrackedIndicators))
	for _, ind := range models.TrackedIndicators {
		present := dropMissing(series.IndicatorValues(ind))
		if len(present) <= s.cfg.MinConsistencySample {
			continue
		}
		repeated := 0
		for _, d := range diffs(present) {
			if d == 0 {
				repeated++
			}
		}
		p := float64(repeated) / float64(len(present))
		score := 100 - 200*p
		if score < 0 {
			score = 0
		}
		perColumn = append(perColumn, score)
	}
	if len(perColumn) == 0 {
		rec.ConsistencyScore = 100
		return
	}
	rec.ConsistencyScore = mean(perColumn)
}

// gradeFor maps the overall score to a letter grade; boundaries are
// inclusive at the lower bound of each tier.
func gradeFor(overall float64) string {
	switch {
	case overall >= 90:
		return "A"
	case overall >= 80:
		return "B"
	case overall >= 70:
		return "C"
	case overall >= 60:
		return "D"
	default:
		return "F"
	}
}

// primaryIssue walks the dimensions in fixed priority order and returns the
// first one below the issue threshold.
func (s *QualityScorer) primaryIssue(rec models.QualityScoreRecord) string {
	ordered := []struct {
		name  string
		score float64
	}{
		{"completeness", rec.CompletenessScore},
		{"timeliness", rec.TimelinessScore},
		{"validity", rec.ValidityScore},
		{"consistency", rec.ConsistencyScore},
	}
	for _, dim := range ordered {
		if dim.score < s.cfg.IssueThreshold {
			return dim.name
		}
	}
	return "none"
}
