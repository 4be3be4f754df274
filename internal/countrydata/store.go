// internal/countrydata/store.go

// Package countrydata serves static per-country reference indicators
// (economics, risk index, displacement) from Postgres with a Redis
// read-through cache. Lookups are keyed by uppercase ISO 3166-1 alpha-3
// codes.
package countrydata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/models"
)

// ErrNotFound is returned for ISO3 codes with no reference record.
var ErrNotFound = errors.New("country not found")

const cacheKeyPrefix = "country:"

type Store struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// New creates a Store. The Redis client may be nil; lookups then go
// straight to Postgres.
func New(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "countrydata"}),
	}
}

// Get returns the reference record for one country. Codes are
// case-insensitive on input and normalized to uppercase. Cache failures
// degrade to a database read, never to an error.
func (s *Store) Get(ctx context.Context, iso3 string) (*models.CountryRecord, error) {
	iso3 = strings.ToUpper(strings.TrimSpace(iso3))
	if len(iso3) != 3 {
		// Wraps ErrNotFound so batch lookups skip malformed codes the
		// same way they skip unknown ones.
		return nil, fmt.Errorf("%w: invalid code %q", ErrNotFound, iso3)
	}

	if record := s.fromCache(ctx, iso3); record != nil {
		return record, nil
	}

	record, err := s.fromDatabase(ctx, iso3)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, iso3, record)
	return record, nil
}

// GetMany resolves several codes in one call, skipping malformed codes
// and codes with no record. Backs the multi-code form of the
// country-data endpoint, which clients use to resolve a routing
// decision's region lists at once.
func (s *Store) GetMany(ctx context.Context, codes []string) ([]models.CountryRecord, error) {
	records := make([]models.CountryRecord, 0, len(codes))
	for _, code := range codes {
		record, err := s.Get(ctx, code)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func (s *Store) fromCache(ctx context.Context, iso3 string) *models.CountryRecord {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, cacheKeyPrefix+iso3).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Warn("country cache read failed", map[string]interface{}{"iso3": iso3})
		}
		return nil
	}

	var record models.CountryRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		s.logger.WithError(err).Warn("dropping corrupt country cache entry", map[string]interface{}{"iso3": iso3})
		return nil
	}
	return &record
}

func (s *Store) toCache(ctx context.Context, iso3 string, record *models.CountryRecord) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKeyPrefix+iso3, data, s.cacheTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("country cache write failed", map[string]interface{}{"iso3": iso3})
	}
}

const countryQuery = `
	SELECT iso3, name,
	       gdp, population, poverty_rate, arable_land_pct, energy_use_per_capita, trade_pct_gdp,
	       risk_score, hazard_exposure, vulnerability, lack_of_coping_capacity,
	       refugees, asylum_seekers, idps, stateless
	FROM countries
	WHERE iso3 = $1`

func (s *Store) fromDatabase(ctx context.Context, iso3 string) (*models.CountryRecord, error) {
	var record models.CountryRecord
	err := s.db.QueryRowContext(ctx, countryQuery, iso3).Scan(
		&record.ISO3, &record.Name,
		&record.Economics.GDP, &record.Economics.Population, &record.Economics.PovertyRate,
		&record.Economics.ArableLandPct, &record.Economics.EnergyUsePerCapita, &record.Economics.TradePctGDP,
		&record.Risk.RiskScore, &record.Risk.HazardExposure,
		&record.Risk.Vulnerability, &record.Risk.LackOfCopingCapacity,
		&record.Displaced.Refugees, &record.Displaced.AsylumSeekers,
		&record.Displaced.IDPs, &record.Displaced.Stateless,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, iso3)
	}
	if err != nil {
		return nil, fmt.Errorf("query country %s: %w", iso3, err)
	}
	return &record, nil
}
