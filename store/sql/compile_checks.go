package sqlstore

import (
	"github.com/sageanya/teleport/core"
	"github.com/sageanya/teleport/credentials"
)

var (
	_ core.ProfileStore         = (*ProfileStore)(nil)
	_ core.AccessEventStore     = (*AccessEventStore)(nil)
	_ credentials.ProfileSource = (*ProfileStore)(nil)
	_ credentials.ProfileSource = (*CachedProfileStore)(nil)
	_ ProfileBackend            = (*ProfileStore)(nil)
)
