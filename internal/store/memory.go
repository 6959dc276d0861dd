// Package store provides the persistence adapters behind the engine ports: a
// Postgres implementation for production runs and a mutex-guarded in-memory
// implementation for tests and dry runs.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"regional-risk-engine/internal/model"
)

// CaseRecord is one raw case row. The raw record store is owned by an
// external collaborator; the memory store carries rows only so tests can
// exercise the grouped counting contract.
type CaseRecord struct {
	Region  string
	Disease string
	Date    string
	Status  string
}

// MemoryStore backs every engine port with in-process maps.
type MemoryStore struct {
	mu    sync.Mutex
	stats map[model.StatKey]*model.RegionalStat
	cases []CaseRecord
	env   map[string]model.EnvReading
	water map[string]model.WaterReading
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stats: map[model.StatKey]*model.RegionalStat{},
		env:   map[string]model.EnvReading{},
		water: map[string]model.WaterReading{},
	}
}

func (m *MemoryStore) AddCase(record CaseRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases = append(m.cases, record)
}

func (m *MemoryStore) SetEnvironment(reading model.EnvReading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.env[reading.Region] = reading
}

func (m *MemoryStore) SetWater(reading model.WaterReading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.water[reading.Region] = reading
}

func (m *MemoryStore) CountByRegionDisease(ctx context.Context, date string) ([]model.CaseGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type groupKey struct{ region, disease string }
	counts := map[groupKey]int{}
	var order []groupKey
	for _, record := range m.cases {
		if record.Status != "approved" || record.Date != date {
			continue
		}
		key := groupKey{record.Region, record.Disease}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	groups := make([]model.CaseGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, model.CaseGroup{Region: key.region, Disease: key.disease, Count: counts[key]})
	}
	return groups, nil
}

func (m *MemoryStore) CountByRegion(ctx context.Context, date string) ([]model.CaseGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := map[string]int{}
	var order []string
	for _, record := range m.cases {
		if record.Status != "approved" || record.Date != date {
			continue
		}
		if _, seen := counts[record.Region]; !seen {
			order = append(order, record.Region)
		}
		counts[record.Region]++
	}

	groups := make([]model.CaseGroup, 0, len(order))
	for _, region := range order {
		groups = append(groups, model.CaseGroup{Region: region, Count: counts[region]})
	}
	return groups, nil
}

func (m *MemoryStore) LatestEnvironment(ctx context.Context, region string) (*model.EnvReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reading, ok := m.env[region]; ok {
		return &reading, nil
	}
	return nil, nil
}

func (m *MemoryStore) LatestWater(ctx context.Context, region string) (*model.WaterReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reading, ok := m.water[region]; ok {
		return &reading, nil
	}
	return nil, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, key model.StatKey, update model.StatUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	stat, ok := m.stats[key]
	if !ok {
		d := update.Defaults
		stat = &model.RegionalStat{
			Region:     key.Region,
			Disease:    key.Disease,
			Date:       key.Date,
			TotalCases: d.TotalCases,
			Rainfall:   d.Rainfall,
			Humidity:   d.Humidity,
			PH:         d.PH,
			TDS:        d.TDS,
			RiskScore:  d.RiskScore,
			RiskLevel:  d.RiskLevel,
			GrowthRate: d.GrowthRate,
			IsAnomaly:  d.IsAnomaly,
			CreatedAt:  now,
		}
		m.stats[key] = stat
	}
	applySet(stat, update.Set)
	stat.UpdatedAt = now
	return nil
}

func applySet(stat *model.RegionalStat, set model.SetFields) {
	if set.TotalCases != nil {
		stat.TotalCases = *set.TotalCases
	}
	if set.Rainfall != nil {
		stat.Rainfall = *set.Rainfall
	}
	if set.Humidity != nil {
		stat.Humidity = *set.Humidity
	}
	if set.PH != nil {
		stat.PH = *set.PH
	}
	if set.TDS != nil {
		stat.TDS = *set.TDS
	}
	if set.RiskScore != nil {
		stat.RiskScore = *set.RiskScore
	}
	if set.RiskLevel != nil {
		stat.RiskLevel = *set.RiskLevel
	}
	if set.GrowthRate != nil {
		stat.GrowthRate = *set.GrowthRate
	}
	if set.IsAnomaly != nil {
		stat.IsAnomaly = *set.IsAnomaly
	}
}

func (m *MemoryStore) Get(ctx context.Context, key model.StatKey) (*model.RegionalStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stat, ok := m.stats[key]; ok {
		clone := *stat
		return &clone, nil
	}
	return nil, nil
}

func (m *MemoryStore) RecentByRegion(ctx context.Context, region, disease, before string, limit int) ([]model.RegionalStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []model.RegionalStat
	for _, stat := range m.stats {
		if stat.Region == region && stat.Disease == disease && stat.Date < before {
			matches = append(matches, *stat)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Date > matches[j].Date
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
