package main

import (
	"fmt"
	"time"

	"coin-feed/internal/event"
)

// describe renders an envelope as a single human-readable line.
func describe(env event.Envelope) string {
	switch n := env.Notice.(type) {
	case event.NewTokenNotice:
		return fmt.Sprintf("%-9s %s %s by %s at %s",
			n.Key(), n.Token.Symbol, env.Coin.ID, orAnon(n.Token.UserInfo.Nickname), formatMillis(n.Token.CreatedAt))
	case event.NewBuyNotice:
		return fmt.Sprintf("%-9s %s bought %s of %s", n.Key(), orAnon(n.Swap.UserInfo.Nickname), n.Swap.NadAmount, n.Swap.CoinInfo.Symbol)
	case event.NewSellNotice:
		return fmt.Sprintf("%-9s %s sold %s of %s", n.Key(), orAnon(n.Swap.UserInfo.Nickname), n.Swap.NadAmount, n.Swap.CoinInfo.Symbol)
	}

	switch u := env.Coin.Update.(type) {
	case event.SwapsUpdate:
		if len(u) > 0 {
			s := u[0]
			return fmt.Sprintf("%-9s %s %s %s by %s", u.Key(), env.Coin.ID, s.Side(), s.NadAmount, s.Sender)
		}
	case event.ChartsUpdate:
		if len(u) > 0 {
			c := u[0].Chart
			return fmt.Sprintf("%-9s %s %s close=%s", u.Key(), env.Coin.ID, c.Interval, c.Close)
		}
	case event.BalancesUpdate:
		if len(u) > 0 {
			b := u[0].Balance
			return fmt.Sprintf("%-9s %s %s=%s", u.Key(), env.Coin.ID, b.Account, b.Amount)
		}
	case event.CurveUpdate:
		return fmt.Sprintf("%-9s %s price=%s", u.Key(), env.Coin.ID, u.Curve.Price)
	case event.ThreadsUpdate:
		if len(u) > 0 {
			return fmt.Sprintf("%-9s %s post #%d by %s", u.Key(), env.Coin.ID, u[0].Thread.ID, u[0].Thread.Author)
		}
	}

	return fmt.Sprintf("%-9s %s", env.Kind(), env.Coin.ID)
}

func orAnon(nickname string) string {
	if nickname == "" {
		return "(anonymous)"
	}
	return nickname
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
