package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/sageanya/teleport/core"
)

// ProfileStore persists connection profiles with a single current marker.
type ProfileStore struct {
	db   *bun.DB
	repo repository.Repository[*profileRecord]
}

func (s *ProfileStore) Upsert(ctx context.Context, profile core.Profile) (core.Profile, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.Profile{}, fmt.Errorf("sqlstore: profile store is not configured")
	}
	if err := profile.Validate(); err != nil {
		return core.Profile{}, err
	}
	name := strings.TrimSpace(profile.Name)
	now := time.Now().UTC()

	existing, err := s.findByName(ctx, name)
	if err != nil {
		return core.Profile{}, err
	}
	if existing == nil {
		record := newProfileRecord(profile, now)
		created, createErr := s.repo.Create(ctx, record)
		if createErr != nil {
			return core.Profile{}, createErr
		}
		return created.toDomain(), nil
	}

	_, err = s.db.NewUpdate().
		Model((*profileRecord)(nil)).
		Set("proxy_addr = ?", profile.ProxyAddr).
		Set("user_name = ?", profile.User).
		Set("cluster = ?", profile.Cluster).
		Set("cert_path = ?", profile.CertPath).
		Set("key_path = ?", profile.KeyPath).
		Set("ca_path = ?", profile.CAPath).
		Set("valid_until = ?", nullableTime(profile.ValidUntil)).
		Set("updated_at = ?", now).
		Where("id = ?", existing.ID).
		Exec(ctx)
	if err != nil {
		return core.Profile{}, err
	}
	return s.Get(ctx, name)
}

func (s *ProfileStore) Get(ctx context.Context, name string) (core.Profile, error) {
	if s == nil || s.repo == nil {
		return core.Profile{}, fmt.Errorf("sqlstore: profile store is not configured")
	}
	record, err := s.findByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return core.Profile{}, err
	}
	if record == nil {
		return core.Profile{}, fmt.Errorf("sqlstore: profile %q not found", name)
	}
	return record.toDomain(), nil
}

func (s *ProfileStore) List(ctx context.Context) ([]core.Profile, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: profile store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("name ASC"))
	if err != nil {
		return nil, err
	}
	profiles := make([]core.Profile, 0, len(records))
	for _, record := range records {
		profiles = append(profiles, record.toDomain())
	}
	return profiles, nil
}

func (s *ProfileStore) Delete(ctx context.Context, name string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: profile store is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("sqlstore: profile name is required")
	}
	_, err := s.db.NewDelete().
		Model((*profileRecord)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	return err
}

// SetCurrent marks the named profile as active, clearing the marker from
// every other profile in the same transaction.
func (s *ProfileStore) SetCurrent(ctx context.Context, name string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: profile store is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("sqlstore: profile name is required")
	}
	now := time.Now().UTC()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*profileRecord)(nil)).
			Set("is_current = ?", true).
			Set("updated_at = ?", now).
			Where("name = ?", name).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("sqlstore: profile %q not found", name)
		}
		_, err = tx.NewUpdate().
			Model((*profileRecord)(nil)).
			Set("is_current = ?", false).
			Where("name != ?", name).
			Where("is_current = ?", true).
			Exec(ctx)
		return err
	})
}

// Current resolves the profile carrying the current marker.
func (s *ProfileStore) Current(ctx context.Context) (core.Profile, error) {
	if s == nil || s.db == nil {
		return core.Profile{}, fmt.Errorf("sqlstore: profile store is not configured")
	}
	var records []*profileRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("is_current = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return core.Profile{}, err
	}
	if len(records) == 0 {
		return core.Profile{}, fmt.Errorf("sqlstore: no current profile selected")
	}
	return records[0].toDomain(), nil
}

func (s *ProfileStore) findByName(ctx context.Context, name string) (*profileRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("sqlstore: profile name is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("name", "=", name),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func nullableTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	utc := value.UTC()
	return &utc
}
