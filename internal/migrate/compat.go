package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/dshills/questlog/internal/storage"
)

const buildVersionKey = "build_version"

// checkBuild refuses a store last written by a newer major release.
func (m *Manager) checkBuild(ctx context.Context, q querier, path string) error {
	if m.build == nil {
		if m.buildRaw != "" {
			m.logger.Debug("build version is not semver, skipping compatibility check",
				zap.String("build", m.buildRaw))
		}
		return nil
	}

	recorded, err := recordedBuild(ctx, q)
	if err != nil || recorded == nil {
		return err
	}

	if recorded.Major() > m.build.Major() {
		return &storage.Error{
			Kind: storage.KindIncompatible,
			Path: path,
			Err:  fmt.Errorf("store was written by %s, running %s", recorded, m.build),
		}
	}
	return nil
}

// recordBuild stores the running build version, keeping the highest one
// that has ever written the store.
func (m *Manager) recordBuild(ctx context.Context, q querier) error {
	if m.build == nil {
		return nil
	}

	recorded, err := recordedBuild(ctx, q)
	if err != nil {
		return err
	}
	if recorded != nil && !m.build.GreaterThan(recorded) {
		return nil
	}

	ok, err := tableExists(ctx, q, "store_meta")
	if err != nil || !ok {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO store_meta (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, buildVersionKey, m.build.String())
	if err != nil {
		return fmt.Errorf("failed to record build version: %w", err)
	}
	return nil
}

// recordedBuild returns nil when the store has no usable build record.
func recordedBuild(ctx context.Context, q querier) (*semver.Version, error) {
	ok, err := tableExists(ctx, q, "store_meta")
	if err != nil || !ok {
		return nil, err
	}

	var raw string
	err = q.QueryRowContext(ctx, "SELECT value FROM store_meta WHERE key = ?", buildVersionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read build version: %w", err)
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, nil
	}
	return v, nil
}
