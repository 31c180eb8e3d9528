package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/sageanya/teleport/core"
)

// AccessEventStore is the durable ledger of routed access-request
// decisions.
type AccessEventStore struct {
	db   *bun.DB
	repo repository.Repository[*accessEventRecord]
}

// Append inserts one decision record, assigning an identifier when the
// caller left it blank.
func (s *AccessEventStore) Append(ctx context.Context, record core.AccessDecisionRecord) (core.AccessDecisionRecord, error) {
	if s == nil || s.repo == nil {
		return core.AccessDecisionRecord{}, fmt.Errorf("sqlstore: access event store is not configured")
	}
	if strings.TrimSpace(record.RequestID) == "" {
		return core.AccessDecisionRecord{}, fmt.Errorf("sqlstore: access event request id is required")
	}
	if strings.TrimSpace(string(record.Outcome)) == "" {
		return core.AccessDecisionRecord{}, fmt.Errorf("sqlstore: access event outcome is required")
	}
	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}

	inserted, err := s.repo.Create(ctx, newAccessEventRecord(record, time.Now().UTC()))
	if err != nil {
		return core.AccessDecisionRecord{}, err
	}
	return inserted.toDomain(), nil
}

// ListByRequest returns every decision recorded for a request in the
// order it occurred.
func (s *AccessEventStore) ListByRequest(ctx context.Context, requestID string) ([]core.AccessDecisionRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: access event store is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, fmt.Errorf("sqlstore: access event request id is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("request_id", "=", requestID),
		repository.OrderBy("occurred_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.AccessDecisionRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

// PurgeBefore removes records older than the cutoff and reports how many
// were dropped.
func (s *AccessEventStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: access event store is not configured")
	}
	if cutoff.IsZero() {
		return 0, fmt.Errorf("sqlstore: purge cutoff is required")
	}
	result, err := s.db.NewDelete().
		Model((*accessEventRecord)(nil)).
		Where("occurred_at < ?", cutoff.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
