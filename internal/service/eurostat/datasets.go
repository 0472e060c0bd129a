package eurostat

// DatasetSpec describes one dataset pulled from the dissemination API and
// where its decoded rows land.
type DatasetSpec struct {
	Code        string
	Description string
	RawTable    string
	Monthly     bool
	Params      map[string][]string
}

// Indicator returns the fact-relation column fed by this dataset, or ""
// for raw-only datasets.
func (s DatasetSpec) Indicator() string {
	switch s.Code {
	case "une_rt_m":
		return "unemployment_rate_pct"
	case "prc_hicp_mmor":
		return "inflation_rate_mom_pct"
	default:
		return ""
	}
}

// Catalogue returns the default dataset set for the given geographies.
// Unemployment and inflation feed the monthly fact relation; GDP and
// population are kept raw-only for reporting joins.
func Catalogue(geos []string) []DatasetSpec {
	return []DatasetSpec{
		{
			Code:        "une_rt_m",
			Description: "Unemployment rate",
			RawTable:    "raw_unemployment",
			Monthly:     true,
			Params: map[string][]string{
				"s_adj": {"SA"},     // seasonally adjusted
				"age":   {"TOTAL"},
				"unit":  {"PC_ACT"}, // % of active population
				"sex":   {"T"},
				"geo":   geos,
			},
		},
		{
			Code:        "prc_hicp_mmor",
			Description: "HICP monthly rate of change",
			RawTable:    "raw_inflation",
			Monthly:     true,
			Params: map[string][]string{
				"coicop": {"CP00"}, // all-items HICP
				"geo":    geos,
			},
		},
		{
			Code:        "nama_10_gdp",
			Description: "GDP and main components",
			RawTable:    "raw_gdp",
			Params: map[string][]string{
				"unit":    {"CP_MEUR"},
				"na_item": {"B1GQ"},
				"geo":     geos,
			},
		},
		{
			Code:        "demo_pjan",
			Description: "Population on 1 January",
			RawTable:    "raw_population",
			Params: map[string][]string{
				"sex": {"T"},
				"age": {"TOTAL"},
				"geo": geos,
			},
		},
	}
}
