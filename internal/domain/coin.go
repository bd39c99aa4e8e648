package domain

// Coin represents a token launched on the curve.
// Corresponds to coin table in PostgreSQL.
type Coin struct {
	ID          string `json:"id"`      // token contract address, PRIMARY KEY
	Creator     string `json:"creator"` // FK to account
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	ImageURI    string `json:"image_uri"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"` // Unix timestamp in milliseconds
}

// UserInfo is the display snapshot of an account at event time.
type UserInfo struct {
	Nickname string `json:"nickname"`
	ImageURI string `json:"image_uri"`
}

// CoinInfo is the display snapshot of a coin at event time.
type CoinInfo struct {
	Symbol   string `json:"symbol"`
	ImageURI string `json:"image_uri"`
}

// CoinAndUserInfo is the denormalized join of an actor and a coin.
// It decorates an event at construction time and is never persisted.
type CoinAndUserInfo struct {
	UserNickname string
	UserImageURI string
	CoinSymbol   string
	CoinImageURI string
}

// User returns the actor half of the join.
func (i CoinAndUserInfo) User() UserInfo {
	return UserInfo{Nickname: i.UserNickname, ImageURI: i.UserImageURI}
}

// Coin returns the coin half of the join.
func (i CoinAndUserInfo) Coin() CoinInfo {
	return CoinInfo{Symbol: i.CoinSymbol, ImageURI: i.CoinImageURI}
}
