// Package model holds the record types shared across the risk engine: the
// per-(region, disease, date) regional statistic, the typed partial update used
// for atomic upserts, and the signals the engine emits.
package model

import "time"

// DiseaseAll is the sentinel disease code for the per-region rollup record.
// For a given (region, date) the "ALL" record's total equals the sum of every
// non-"ALL" record.
const DiseaseAll = "ALL"

// DateLayout is the calendar key format. Dates are grouping keys, not
// timestamps; they compare correctly as plain strings.
const DateLayout = "2006-01-02"

// RiskLevel is a deterministic step function of the risk score. It is never
// set independently of the score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// StatKey identifies one RegionalStat. The key is unique: writers upsert,
// never duplicate-insert.
type StatKey struct {
	Region  string
	Disease string
	Date    string
}

// RegionalStat is the persisted per-region daily statistic. Count and
// environment fields are owned by the aggregation stage, score fields by the
// scoring stage; the two merge through StatUpdate without clobbering each
// other.
type RegionalStat struct {
	Region     string    `json:"region"`
	Disease    string    `json:"disease"`
	Date       string    `json:"date"`
	TotalCases int       `json:"total_cases"`
	Rainfall   float64   `json:"rainfall"`
	Humidity   float64   `json:"humidity"`
	PH         float64   `json:"ph"`
	TDS        float64   `json:"tds"`
	RiskScore  int       `json:"risk_score"`
	RiskLevel  RiskLevel `json:"risk_level"`
	GrowthRate float64   `json:"growth_rate"`
	IsAnomaly  bool      `json:"is_anomaly"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s RegionalStat) Key() StatKey {
	return StatKey{Region: s.Region, Disease: s.Disease, Date: s.Date}
}

// SetFields lists the columns one upsert writes. Nil fields are left untouched
// on update, so the aggregator and the updater can write concurrently without
// losing each other's columns.
type SetFields struct {
	TotalCases *int
	Rainfall   *float64
	Humidity   *float64
	PH         *float64
	TDS        *float64
	RiskScore  *int
	RiskLevel  *RiskLevel
	GrowthRate *float64
	IsAnomaly  *bool
}

// InsertDefaults seeds a record on first insert only. Subsequent upserts must
// not reapply these values.
type InsertDefaults struct {
	TotalCases int
	Rainfall   float64
	Humidity   float64
	PH         float64
	TDS        float64
	RiskScore  int
	RiskLevel  RiskLevel
	GrowthRate float64
	IsAnomaly  bool
}

// StatUpdate is one atomic upsert payload: create with Defaults when the key
// is absent, otherwise apply only the non-nil Set fields.
type StatUpdate struct {
	Set      SetFields
	Defaults InsertDefaults
}

// BaselineDefaults returns the values a freshly created stat starts from
// before any scoring pass has run.
func BaselineDefaults() InsertDefaults {
	return InsertDefaults{
		Humidity:  50,
		PH:        7.0,
		TDS:       300,
		RiskScore: 50,
		RiskLevel: RiskMedium,
	}
}

// EnvReading is the latest known weather snapshot for a region.
type EnvReading struct {
	Region      string
	Date        string
	Rainfall    float64
	Humidity    float64
	Temperature float64
}

// WaterReading is the latest known water-quality snapshot for a region.
type WaterReading struct {
	Region string
	Date   string
	PH     float64
	TDS    float64
}

// CaseGroup is one grouped-count result from the case-record source.
type CaseGroup struct {
	Region  string
	Disease string
	Count   int
}

// AlertSignal is the ephemeral alert trigger handed to the alert sink. The
// engine emits it and moves on; delivery belongs to the notification service.
type AlertSignal struct {
	Region    string    `json:"region"`
	RiskScore int       `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level"`
	IsAnomaly bool      `json:"is_anomaly"`
}

// Notification is a stored alert row picked up by dashboards.
type Notification struct {
	ID        string    `json:"id"`
	Region    string    `json:"region"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Level     RiskLevel `json:"level"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// RegionSummary is the per-region result of one scoring pass.
type RegionSummary struct {
	Region     string    `json:"region"`
	RiskScore  int       `json:"risk_score"`
	RiskLevel  RiskLevel `json:"risk_level"`
	TotalCases int       `json:"total_cases"`
	GrowthRate float64   `json:"growth_rate"`
	IsAnomaly  bool      `json:"is_anomaly"`
}

// AggregateResult summarizes one aggregation pass.
type AggregateResult struct {
	Date           string `json:"date"`
	RegionsUpdated int    `json:"regions_updated"`
	GroupsMerged   int    `json:"groups_merged"`
}
