package sqlstore

import (
	"time"

	"github.com/sageanya/teleport/core"
)

func newProfileRecord(profile core.Profile, now time.Time) *profileRecord {
	record := &profileRecord{
		Name:      profile.Name,
		ProxyAddr: profile.ProxyAddr,
		UserName:  profile.User,
		Cluster:   profile.Cluster,
		CertPath:  profile.CertPath,
		KeyPath:   profile.KeyPath,
		CAPath:    profile.CAPath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !profile.ValidUntil.IsZero() {
		validUntil := profile.ValidUntil.UTC()
		record.ValidUntil = &validUntil
	}
	return record
}

func (r *profileRecord) toDomain() core.Profile {
	if r == nil {
		return core.Profile{}
	}
	profile := core.Profile{
		Name:      r.Name,
		ProxyAddr: r.ProxyAddr,
		User:      r.UserName,
		Cluster:   r.Cluster,
		CertPath:  r.CertPath,
		KeyPath:   r.KeyPath,
		CAPath:    r.CAPath,
		UpdatedAt: r.UpdatedAt,
	}
	if r.ValidUntil != nil {
		profile.ValidUntil = r.ValidUntil.UTC()
	}
	return profile
}

func newAccessEventRecord(record core.AccessDecisionRecord, now time.Time) *accessEventRecord {
	traits := record.Traits
	if traits == nil {
		traits = map[string]string{}
	}
	occurredAt := record.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	return &accessEventRecord{
		ID:         record.ID,
		RequestID:  record.RequestID,
		Requester:  record.Requester,
		RuleLabel:  record.RuleLabel,
		Outcome:    string(record.Outcome),
		Reason:     record.Reason,
		Traits:     traits,
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  now,
	}
}

func (r *accessEventRecord) toDomain() core.AccessDecisionRecord {
	if r == nil {
		return core.AccessDecisionRecord{}
	}
	return core.AccessDecisionRecord{
		ID:         r.ID,
		RequestID:  r.RequestID,
		Requester:  r.Requester,
		RuleLabel:  r.RuleLabel,
		Outcome:    core.DecisionOutcome(r.Outcome),
		Reason:     r.Reason,
		Traits:     r.Traits,
		OccurredAt: r.OccurredAt,
	}
}
