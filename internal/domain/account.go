package domain

// Account represents a trader or coin creator.
// Corresponds to account table in PostgreSQL.
type Account struct {
	ID        string `json:"id"`        // wallet address, PRIMARY KEY
	Nickname  string `json:"nickname"`  // display name
	ImageURI  string `json:"image_uri"` // display image reference
	CreatedAt int64  `json:"created_at"`
}
