package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"regional-risk-engine/internal/model"
)

// PostgresStore persists regional statistics and reads the collaborator
// tables (case records, weather, water quality, notifications) from one
// Postgres database. The handle is constructed by the caller and injected;
// there is no process-wide connection state.
type PostgresStore struct {
	db *sql.DB
}

// Open connects and pings. The caller owns the lifecycle via Close.
func Open(ctx context.Context, url string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the engine tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS regional_stats (
			id uuid PRIMARY KEY,
			region text NOT NULL,
			disease text NOT NULL,
			stat_date date NOT NULL,
			total_cases integer NOT NULL DEFAULT 0,
			rainfall double precision NOT NULL DEFAULT 0,
			humidity double precision NOT NULL DEFAULT 50,
			ph double precision NOT NULL DEFAULT 7.0,
			tds double precision NOT NULL DEFAULT 300,
			risk_score integer NOT NULL DEFAULT 50,
			risk_level text NOT NULL DEFAULT 'medium',
			growth_rate double precision NOT NULL DEFAULT 0,
			is_anomaly boolean NOT NULL DEFAULT false,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			UNIQUE (region, disease, stat_date)
		)`,
		`CREATE TABLE IF NOT EXISTS case_records (
			id uuid PRIMARY KEY,
			region text NOT NULL,
			diagnosis text NOT NULL,
			record_date date NOT NULL,
			status text NOT NULL DEFAULT 'pending',
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS weather_readings (
			id uuid PRIMARY KEY,
			region text NOT NULL,
			reading_date date NOT NULL,
			rainfall double precision NOT NULL DEFAULT 0,
			humidity double precision NOT NULL DEFAULT 50,
			temperature double precision NOT NULL DEFAULT 0,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS water_readings (
			id uuid PRIMARY KEY,
			region text NOT NULL,
			reading_date date NOT NULL,
			ph double precision NOT NULL DEFAULT 7.0,
			tds double precision NOT NULL DEFAULT 300,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id uuid PRIMARY KEY,
			region text NOT NULL,
			type text NOT NULL,
			title text NOT NULL,
			message text NOT NULL,
			level text NOT NULL,
			is_read boolean NOT NULL DEFAULT false,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS regional_stats_region_idx ON regional_stats (region, disease, stat_date DESC)`,
		`CREATE INDEX IF NOT EXISTS case_records_status_date_idx ON case_records (status, record_date)`,
		`CREATE INDEX IF NOT EXISTS weather_readings_region_idx ON weather_readings (region, reading_date DESC)`,
		`CREATE INDEX IF NOT EXISTS water_readings_region_idx ON water_readings (region, reading_date DESC)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// setPairs flattens the non-nil set fields into column/value lists.
func setPairs(set model.SetFields) ([]string, []any) {
	var columns []string
	var values []any
	add := func(column string, value any) {
		columns = append(columns, column)
		values = append(values, value)
	}
	if set.TotalCases != nil {
		add("total_cases", *set.TotalCases)
	}
	if set.Rainfall != nil {
		add("rainfall", *set.Rainfall)
	}
	if set.Humidity != nil {
		add("humidity", *set.Humidity)
	}
	if set.PH != nil {
		add("ph", *set.PH)
	}
	if set.TDS != nil {
		add("tds", *set.TDS)
	}
	if set.RiskScore != nil {
		add("risk_score", *set.RiskScore)
	}
	if set.RiskLevel != nil {
		add("risk_level", string(*set.RiskLevel))
	}
	if set.GrowthRate != nil {
		add("growth_rate", *set.GrowthRate)
	}
	if set.IsAnomaly != nil {
		add("is_anomaly", *set.IsAnomaly)
	}
	return columns, values
}

// Upsert atomically merges one stat update: a single INSERT ... ON CONFLICT
// whose DO UPDATE clause touches only the listed set fields, so concurrent
// count and score writers cannot lose each other's columns.
func (s *PostgresStore) Upsert(ctx context.Context, key model.StatKey, update model.StatUpdate) error {
	columns, values := setPairs(update.Set)

	// Insert values start from the defaults, with the set fields layered on
	// top, so a freshly created record and an updated one agree on the listed
	// columns.
	insert := map[string]any{
		"total_cases": update.Defaults.TotalCases,
		"rainfall":    update.Defaults.Rainfall,
		"humidity":    update.Defaults.Humidity,
		"ph":          update.Defaults.PH,
		"tds":         update.Defaults.TDS,
		"risk_score":  update.Defaults.RiskScore,
		"risk_level":  string(update.Defaults.RiskLevel),
		"growth_rate": update.Defaults.GrowthRate,
		"is_anomaly":  update.Defaults.IsAnomaly,
	}
	for i, column := range columns {
		insert[column] = values[i]
	}

	assignments := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}
	assignments = append(assignments, "updated_at = now()")

	query := fmt.Sprintf(`
		INSERT INTO regional_stats (
			id, region, disease, stat_date, total_cases, rainfall, humidity,
			ph, tds, risk_score, risk_level, growth_rate, is_anomaly
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,
			$8,$9,$10,$11,$12,$13
		)
		ON CONFLICT (region, disease, stat_date) DO UPDATE SET %s`,
		strings.Join(assignments, ", "),
	)

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		key.Region,
		key.Disease,
		key.Date,
		insert["total_cases"],
		insert["rainfall"],
		insert["humidity"],
		insert["ph"],
		insert["tds"],
		insert["risk_score"],
		insert["risk_level"],
		insert["growth_rate"],
		insert["is_anomaly"],
	)
	return err
}

const statColumns = `region, disease, to_char(stat_date, 'YYYY-MM-DD'), total_cases,
	rainfall, humidity, ph, tds, risk_score, risk_level, growth_rate, is_anomaly,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStat(row rowScanner) (*model.RegionalStat, error) {
	var stat model.RegionalStat
	var level string
	err := row.Scan(
		&stat.Region, &stat.Disease, &stat.Date, &stat.TotalCases,
		&stat.Rainfall, &stat.Humidity, &stat.PH, &stat.TDS,
		&stat.RiskScore, &level, &stat.GrowthRate, &stat.IsAnomaly,
		&stat.CreatedAt, &stat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	stat.RiskLevel = model.RiskLevel(level)
	return &stat, nil
}

func (s *PostgresStore) Get(ctx context.Context, key model.StatKey) (*model.RegionalStat, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM regional_stats
		WHERE region = $1 AND disease = $2 AND stat_date = $3`, statColumns),
		key.Region, key.Disease, key.Date)

	stat, err := scanStat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stat, nil
}

func (s *PostgresStore) RecentByRegion(ctx context.Context, region, disease, before string, limit int) ([]model.RegionalStat, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM regional_stats
		WHERE region = $1 AND disease = $2 AND stat_date < $3
		ORDER BY stat_date DESC
		LIMIT $4`, statColumns),
		region, disease, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.RegionalStat
	for rows.Next() {
		stat, err := scanStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *stat)
	}
	return stats, rows.Err()
}

func (s *PostgresStore) CountByRegionDisease(ctx context.Context, date string) ([]model.CaseGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region, diagnosis, COUNT(*)
		FROM case_records
		WHERE status = 'approved' AND record_date = $1
		GROUP BY region, diagnosis
		ORDER BY region, diagnosis`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGroups(rows, true)
}

func (s *PostgresStore) CountByRegion(ctx context.Context, date string) ([]model.CaseGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region, COUNT(*)
		FROM case_records
		WHERE status = 'approved' AND record_date = $1
		GROUP BY region
		ORDER BY region`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGroups(rows, false)
}

func scanGroups(rows *sql.Rows, withDisease bool) ([]model.CaseGroup, error) {
	var groups []model.CaseGroup
	for rows.Next() {
		var group model.CaseGroup
		var err error
		if withDisease {
			err = rows.Scan(&group.Region, &group.Disease, &group.Count)
		} else {
			err = rows.Scan(&group.Region, &group.Count)
		}
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (s *PostgresStore) LatestEnvironment(ctx context.Context, region string) (*model.EnvReading, error) {
	var reading model.EnvReading
	err := s.db.QueryRowContext(ctx, `
		SELECT region, to_char(reading_date, 'YYYY-MM-DD'), rainfall, humidity, temperature
		FROM weather_readings
		WHERE region = $1
		ORDER BY reading_date DESC, created_at DESC
		LIMIT 1`, region).
		Scan(&reading.Region, &reading.Date, &reading.Rainfall, &reading.Humidity, &reading.Temperature)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

func (s *PostgresStore) LatestWater(ctx context.Context, region string) (*model.WaterReading, error) {
	var reading model.WaterReading
	err := s.db.QueryRowContext(ctx, `
		SELECT region, to_char(reading_date, 'YYYY-MM-DD'), ph, tds
		FROM water_readings
		WHERE region = $1
		ORDER BY reading_date DESC, created_at DESC
		LIMIT 1`, region).
		Scan(&reading.Region, &reading.Date, &reading.PH, &reading.TDS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// InsertNotification stores one alert row for dashboard pickup.
func (s *PostgresStore) InsertNotification(ctx context.Context, notification model.Notification) error {
	id := notification.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, region, type, title, message, level, is_read)
		VALUES ($1,$2,$3,$4,$5,$6,false)`,
		id,
		notification.Region,
		notification.Type,
		notification.Title,
		notification.Message,
		string(notification.Level),
	)
	return err
}

// Seed loads a small deterministic demo dataset when the case table is empty:
// eight days of approved case records across the given regions plus one
// weather and one water reading per region. Returns false when data was
// already present.
func (s *PostgresStore) Seed(ctx context.Context, date string, regions []string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM case_records`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	day, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return false, err
	}

	diseases := []string{"dengue", "cholera", "typhoid", "malaria"}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	for back := 0; back < 8; back++ {
		recordDate := day.AddDate(0, 0, -back).Format(model.DateLayout)
		for i, region := range regions {
			for j, disease := range diseases {
				cases := (i+2)*(j+1)%5 + 1
				if back == 0 {
					// The most recent day trends upward so fresh seeds show
					// non-zero growth.
					cases += i + 2
				}
				for n := 0; n < cases; n++ {
					if _, err := tx.ExecContext(ctx, `
						INSERT INTO case_records (id, region, diagnosis, record_date, status)
						VALUES ($1,$2,$3,$4,'approved')`,
						uuid.New(), region, disease, recordDate); err != nil {
						_ = tx.Rollback()
						return false, err
					}
				}
			}
		}
	}

	for i, region := range regions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO weather_readings (id, region, reading_date, rainfall, humidity, temperature)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid.New(), region, date, float64(40+i*30), float64(55+i*8), 28.0); err != nil {
			_ = tx.Rollback()
			return false, err
		}

		ph, tds := 7.2, 280.0
		if i%3 == 0 {
			ph, tds = 6.1, 540.0
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO water_readings (id, region, reading_date, ph, tds)
			VALUES ($1,$2,$3,$4,$5)`,
			uuid.New(), region, date, ph, tds); err != nil {
			_ = tx.Rollback()
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
