package models

// LoginAttempt represents a single observed login attempt. Rows are
// immutable once written; the only mutation path is an administrative
// purge for an address.
type LoginAttempt struct {
	ID          int64  `db:"id"`
	AttemptTime int64  `db:"attempt_time"` // epoch seconds
	Address     string `db:"address"`
	Username    string `db:"username"`
	Success     bool   `db:"success"`
	UserAgent   string `db:"user_agent"`
	Application string `db:"application"`
}

// AttemptSample is the projection of an attempt used for feature
// extraction: everything the window aggregation needs and nothing else.
type AttemptSample struct {
	Timestamp int64
	Username  string
	Success   bool
}

// AddressDecision is the cached verdict for an address. At most one row
// exists per address; writes are upserts.
type AddressDecision struct {
	Address    string   `db:"address"`
	Decision   Decision `db:"decision"`
	LastUpdate int64    `db:"last_update"` // epoch seconds
}

// BlockedAddress is an entry in the administrative blocked listing.
type BlockedAddress struct {
	Address     string `json:"address"`
	Application string `json:"application"`
	LastSeen    int64  `json:"last_seen"`
	LastUpdate  int64  `json:"last_update"`
}
