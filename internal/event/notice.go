package event

import "coin-feed/internal/domain"

// Notice is a one-shot announcement carried by a full broadcast envelope.
// The set of implementations is closed: NewTokenNotice, NewBuyNotice and
// NewSellNotice. Pointers to them also satisfy the interface; the envelope
// codec reads them as their values and a nil pointer as no notice.
type Notice interface {
	// Key is the JSON field the notice is published under.
	Key() string
	isNotice()
}

// Notice keys on the wire.
const (
	KeyNewToken = "new_token"
	KeyNewBuy   = "new_buy"
	KeyNewSell  = "new_sell"
)

// TokenNotice announces a newly created coin.
type TokenNotice struct {
	UserInfo  domain.UserInfo `json:"user_info"`
	Symbol    string          `json:"symbol"`
	ImageURI  string          `json:"image_uri"`
	CreatedAt int64           `json:"created_at"`
}

// SwapNotice announces a buy or sell.
// NadAmount is the exact decimal rendering of the traded native amount.
type SwapNotice struct {
	UserInfo  domain.UserInfo `json:"user_info"`
	IsBuy     bool            `json:"is_buy"`
	CoinInfo  domain.CoinInfo `json:"coin_info"`
	NadAmount string          `json:"nad_amount"`
}

// NewTokenNotice is the notice variant for coin creation.
type NewTokenNotice struct {
	Token TokenNotice
}

// NewBuyNotice is the notice variant for a buy swap.
type NewBuyNotice struct {
	Swap SwapNotice
}

// NewSellNotice is the notice variant for a sell swap.
type NewSellNotice struct {
	Swap SwapNotice
}

func (NewTokenNotice) Key() string { return KeyNewToken }
func (NewBuyNotice) Key() string   { return KeyNewBuy }
func (NewSellNotice) Key() string  { return KeyNewSell }

func (NewTokenNotice) isNotice() {}
func (NewBuyNotice) isNotice()   {}
func (NewSellNotice) isNotice()  {}

// noticeValue dereferences pointer variants. A nil pointer yields nil.
func noticeValue(n Notice) Notice {
	switch p := n.(type) {
	case *NewTokenNotice:
		if p == nil {
			return nil
		}
		return *p
	case *NewBuyNotice:
		if p == nil {
			return nil
		}
		return *p
	case *NewSellNotice:
		if p == nil {
			return nil
		}
		return *p
	}
	return n
}

// NoticeFromSwap picks the buy or sell variant by the notice direction.
func NoticeFromSwap(n SwapNotice) Notice {
	if n.IsBuy {
		return NewBuyNotice{Swap: n}
	}
	return NewSellNotice{Swap: n}
}
