// Package snapshot holds the immutable report tables the engine computes from,
// the key they are cached under and the loader that fetches them.
package snapshot

import (
	"time"
)

// Snapshot is one fetched copy of the three report tables. It is shared
// between concurrent requests and must never be mutated after it is built.
type Snapshot struct {
	Key       Key           `json:"-"`
	Mapping   []IdentityRow `json:"mapping"`
	Business  []BusinessRow `json:"business"`
	Ads       []AdsRow      `json:"ads"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Empty reports whether the snapshot carries no fact rows.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Business) == 0 && len(s.Ads) == 0)
}
