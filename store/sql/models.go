package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type profileRecord struct {
	bun.BaseModel `bun:"table:client_profiles,alias:cp"`

	ID         string     `bun:"id,pk"`
	Name       string     `bun:"name,notnull"`
	ProxyAddr  string     `bun:"proxy_addr,notnull"`
	UserName   string     `bun:"user_name"`
	Cluster    string     `bun:"cluster"`
	CertPath   string     `bun:"cert_path,notnull"`
	KeyPath    string     `bun:"key_path,notnull"`
	CAPath     string     `bun:"ca_path"`
	ValidUntil *time.Time `bun:"valid_until,nullzero"`
	IsCurrent  bool       `bun:"is_current,notnull"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type accessEventRecord struct {
	bun.BaseModel `bun:"table:client_access_events,alias:cae"`

	ID         string            `bun:"id,pk"`
	RequestID  string            `bun:"request_id,notnull"`
	Requester  string            `bun:"requester"`
	RuleLabel  string            `bun:"rule_label"`
	Outcome    string            `bun:"outcome,notnull"`
	Reason     string            `bun:"reason"`
	Traits     map[string]string `bun:"traits,type:jsonb,notnull"`
	OccurredAt time.Time         `bun:"occurred_at,nullzero,notnull"`
	CreatedAt  time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
