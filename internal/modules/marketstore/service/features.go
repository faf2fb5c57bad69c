package service

import (
	"context"

	"marketdesk/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// UpsertFeature writes derived indicator values for one candle bucket,
// keyed by (symbol, timeframe, ts).
func (s *Store) UpsertFeature(ctx context.Context, f models.Feature) error {
	payload, err := sonic.Marshal(f.Values)
	if err != nil {
		return errors.Wrap(err, "marketstore.UpsertFeature: marshal")
	}
	_, err = s.db.Conn().Exec(ctx,
		`INSERT INTO features (symbol, timeframe, feature_json, ts)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (symbol, timeframe, ts) DO UPDATE SET feature_json = EXCLUDED.feature_json`,
		f.Symbol, f.Timeframe, payload, utcNaive(f.TS))
	return errors.Wrap(err, "marketstore.UpsertFeature")
}

// LatestFeatures returns the most recent feature rows, newest first.
func (s *Store) LatestFeatures(ctx context.Context, symbol, timeframe string, limit int) ([]models.Feature, error) {
	rows, err := s.db.Conn().Query(ctx,
		`SELECT symbol, timeframe, feature_json, ts
		   FROM features
		  WHERE symbol = $1 AND timeframe = $2
		  ORDER BY ts DESC
		  LIMIT $3`,
		symbol, timeframe, limit)
	if err != nil {
		return nil, errors.Wrap(err, "marketstore.LatestFeatures")
	}
	defer rows.Close()

	var out []models.Feature
	for rows.Next() {
		var f models.Feature
		var payload []byte
		if err := rows.Scan(&f.Symbol, &f.Timeframe, &payload, &f.TS); err != nil {
			return nil, errors.Wrap(err, "marketstore.LatestFeatures: scan")
		}
		if err := sonic.Unmarshal(payload, &f.Values); err != nil {
			return nil, errors.Wrap(err, "marketstore.LatestFeatures: unmarshal")
		}
		out = append(out, f)
	}
	return out, errors.Wrap(rows.Err(), "marketstore.LatestFeatures")
}
