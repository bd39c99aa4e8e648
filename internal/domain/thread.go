package domain

// Thread is a discussion post attached to a coin.
type Thread struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"` // FK to account
	Content   string `json:"content"`
	ImageURI  string `json:"image_uri,omitempty"`
	ReplyTo   *int64 `json:"reply_to,omitempty"` // parent post (nullable)
	CreatedAt int64  `json:"created_at"`
}

// ThreadWrapper binds a post to its coin.
// Corresponds to thread table in PostgreSQL.
type ThreadWrapper struct {
	CoinID string `json:"coin_id"`
	Thread Thread `json:"thread"`
}
