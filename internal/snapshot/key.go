package snapshot

import (
	"strings"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// Key identifies a snapshot: the seller, the business report granularity and
// the date window the upstream tables were filtered to. An empty seller
// means every seller; an empty granularity means both; a zero date is open.
type Key struct {
	Seller      string            `json:"seller,omitempty"`
	Granularity enums.Granularity `json:"granularity,omitempty"`
	Start       civil.Date        `json:"start_date"`
	End         civil.Date        `json:"end_date"`
}

// Normalize trims the seller so equal requests share one cache entry. Seller
// names are case-sensitive and keep their case.
func (k Key) Normalize() Key {
	k.Seller = strings.TrimSpace(k.Seller)
	return k
}

// String renders the key as a stable cache token.
func (k Key) String() string {
	parts := []string{
		segment(k.Seller),
		segment(string(k.Granularity)),
		dateSegment(k.Start),
		dateSegment(k.End),
	}
	return strings.Join(parts, ":")
}

// SellerToken is the cache token prefix shared by every key of one seller.
func SellerToken(seller string) string {
	return segment(strings.TrimSpace(seller))
}

func segment(v string) string {
	if v == "" {
		return "*"
	}
	return strings.ReplaceAll(v, ":", "_")
}

func dateSegment(d civil.Date) string {
	if d.IsZero() {
		return "*"
	}
	return d.String()
}
