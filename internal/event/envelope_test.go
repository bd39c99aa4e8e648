package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coin-feed/internal/domain"
)

func decodeMap(t *testing.T, data []byte) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestMarshal_OmitsAbsentFields(t *testing.T) {
	env := FromSwap(testSwap(t, false, "0.000000000000000001"), testInfo())

	data, err := json.Marshal(env)
	require.NoError(t, err)

	top := decodeMap(t, data)
	assert.Contains(t, top, KeyNewSell)
	assert.NotContains(t, top, KeyNewBuy)
	assert.NotContains(t, top, KeyNewToken)
	assert.NotContains(t, top, "scope")

	coin := decodeMap(t, top["coin"])
	assert.JSONEq(t, `"`+testCoinID+`"`, string(coin["id"]))
	assert.Contains(t, coin, KeySwaps)
	for _, k := range []string{KeyCharts, KeyBalances, KeyCurve, KeyThreads} {
		assert.NotContains(t, coin, k)
	}

	sell := decodeMap(t, top[KeyNewSell])
	assert.JSONEq(t, `"0.000000000000000001"`, string(sell["nad_amount"]))
	assert.JSONEq(t, `false`, string(sell["is_buy"]))
}

func TestMarshal_CoinOnly(t *testing.T) {
	env := FromCoin(domain.Coin{ID: testCoinID, CreatedAt: 5}, testInfo())

	data, err := json.Marshal(env)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"new_token": {
			"user_info": {"nickname": "alice", "image_uri": "https://img.example/alice.png"},
			"symbol": "MOON",
			"image_uri": "https://img.example/moon.png",
			"created_at": 5
		},
		"coin": {"id": "`+testCoinID+`"}
	}`, string(data))
}

func TestMarshal_CurveIsObject(t *testing.T) {
	env := FromCurve(domain.Curve{CoinID: testCoinID})

	data, err := json.Marshal(env)
	require.NoError(t, err)

	coin := decodeMap(t, decodeMap(t, data)["coin"])
	require.Contains(t, coin, KeyCurve)
	assert.Equal(t, byte('{'), coin[KeyCurve][0])
}

func TestMarshal_EmptyListIsPresent(t *testing.T) {
	env := Envelope{Scope: ScopeRegular, Coin: CoinSection{ID: testCoinID, Update: ChartsUpdate{}}}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	coin := decodeMap(t, decodeMap(t, data)["coin"])
	assert.JSONEq(t, `[]`, string(coin[KeyCharts]))
}

func TestRoundTrip(t *testing.T) {
	envs := []Envelope{
		FromCoin(domain.Coin{ID: testCoinID, CreatedAt: 1}, testInfo()),
		FromSwap(testSwap(t, true, "99999999999.999999999999999999"), testInfo()),
		FromCurve(domain.Curve{CoinID: testCoinID, Listed: true}),
		FromThread(domain.ThreadWrapper{CoinID: testCoinID, Thread: domain.Thread{ID: 1, Content: "hi"}}),
	}

	for _, env := range envs {
		t.Run(env.Kind(), func(t *testing.T) {
			data, err := json.Marshal(env)
			require.NoError(t, err)

			var got Envelope
			require.NoError(t, json.Unmarshal(data, &got))

			assert.Equal(t, env.Scope, got.Scope)
			assert.Equal(t, env.Kind(), got.Kind())
			assert.Equal(t, env.Coin.ID, got.Coin.ID)
			assert.Equal(t, env.Notice, got.Notice)

			again, err := json.Marshal(got)
			require.NoError(t, err)
			assert.JSONEq(t, string(data), string(again))
		})
	}
}

func TestUnmarshal_RejectsMultipleNotices(t *testing.T) {
	payload := `{"new_buy":{"is_buy":true},"new_sell":{"is_buy":false},"coin":{"id":"x"}}`

	var env Envelope
	err := json.Unmarshal([]byte(payload), &env)
	assert.Error(t, err)
}

func TestUnmarshal_RejectsMultipleUpdates(t *testing.T) {
	payload := `{"coin":{"id":"x","charts":[],"threads":[]}}`

	var env Envelope
	err := json.Unmarshal([]byte(payload), &env)
	assert.Error(t, err)
}

func TestMarshal_PointerVariantsEncodeAsValues(t *testing.T) {
	env := FromSwap(testSwap(t, true, "2.5"), testInfo())
	want, err := json.Marshal(env)
	require.NoError(t, err)

	buy := env.Notice.(NewBuyNotice)
	swaps := env.Coin.Update.(SwapsUpdate)
	ptrEnv := Envelope{Scope: env.Scope, Notice: &buy, Coin: CoinSection{ID: env.Coin.ID, Update: &swaps}}

	got, err := json.Marshal(ptrEnv)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	assert.Equal(t, KindSwap, ptrEnv.Kind())

	token := NewTokenNotice{Token: TokenNotice{Symbol: "AAA"}}
	assert.Equal(t, KindCoin, Envelope{Notice: &token}.Kind())
}

func TestMarshal_NilPointerVariantsAreAbsent(t *testing.T) {
	env := Envelope{
		Notice: (*NewSellNotice)(nil),
		Coin:   CoinSection{ID: "0xC1", Update: (*CurveUpdate)(nil)},
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"coin":{"id":"0xC1"}}`, string(data))
	assert.Equal(t, KindUnknown, env.Kind())
}
