// Package fact defines the cached-fact snapshot model and the geofilter
// math used for radius queries over it.
package fact

// CachedFact is a denormalized, point-in-time copy of a remote entity.
// Writes are idempotent upserts keyed by ID; no referential integrity is
// enforced against the remote system.
type CachedFact struct {
	// ID matches the remote entity's identifier.
	ID string `json:"id"`

	// Latitude/Longitude are nil for entities without coordinates; those
	// are excluded from radius filtering but still text-searchable.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	CategoryID   string `json:"category_id,omitempty"`
	VoteCountUp  int    `json:"vote_count_up"`

	// CreatedAt is the remote creation time, milliseconds since epoch.
	CreatedAt int64 `json:"created_at"`

	// CachedAt is stamped at local write time, milliseconds since epoch.
	CachedAt int64 `json:"cached_at"`
}

// HasCoordinates reports whether the fact can participate in geofence queries.
func (f *CachedFact) HasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}
