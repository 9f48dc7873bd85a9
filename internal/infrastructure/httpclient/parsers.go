package httpclient

import (
	"strings"

	"crypto_tracker/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const quoteCurrency = "usd"

// Parsers are total over arbitrary input: any body that is not a complete JSON
// document of the expected shape yields an empty or absent result, never a
// panic. The lazy Get API stops reading once it finds a path, so every parser
// checks the whole body with wellFormed first.

// ParseCoinPrice reads {"<coinID>": {"usd": <price>}}.
func ParseCoinPrice(body []byte, coinID string) (snapshot entity.CoinSnapshot, ok bool) {
	defer recoverParse(&ok)

	if !wellFormed(body) {
		return entity.CoinSnapshot{}, false
	}
	price := json.Get(body, coinID, quoteCurrency)
	if price.ValueType() != jsoniter.NumberValue {
		return entity.CoinSnapshot{}, false
	}
	return entity.CoinSnapshot{ID: coinID, CurrentPrice: price.ToFloat64()}, true
}

// ParseHistory reads the price column of {"prices": [[t, p], ...]}, keeping
// order and skipping malformed points.
func ParseHistory(body []byte) (prices []float64) {
	prices = []float64{}
	defer func() {
		if recover() != nil {
			prices = []float64{}
		}
	}()

	if !wellFormed(body) {
		return prices
	}
	points := json.Get(body, "prices")
	if points.ValueType() != jsoniter.ArrayValue {
		return prices
	}
	for i := 0; i < points.Size(); i++ {
		point := points.Get(i)
		if point.ValueType() != jsoniter.ArrayValue || point.Size() < 2 {
			continue
		}
		price := point.Get(1)
		if price.ValueType() != jsoniter.NumberValue {
			continue
		}
		prices = append(prices, price.ToFloat64())
	}
	return prices
}

// ParseMultiPrice reads {"<id>": {"usd": <price>}, ...}. Ids without a usd price are omitted.
func ParseMultiPrice(body []byte) (index entity.PriceIndex) {
	index = entity.PriceIndex{}
	defer func() {
		if recover() != nil {
			index = entity.PriceIndex{}
		}
	}()

	if !wellFormed(body) {
		return index
	}
	root := json.Get(body)
	if root.ValueType() != jsoniter.ObjectValue {
		return index
	}
	for _, id := range root.Keys() {
		price := root.Get(id, quoteCurrency)
		if price.ValueType() != jsoniter.NumberValue {
			continue
		}
		index[id] = price.ToFloat64()
	}
	return index
}

// ParseSearchResults reads {"coins": [{"id", "name", "symbol"}, ...]}. Symbols
// are upper-cased for display and entries without an id are dropped.
func ParseSearchResults(body []byte) (coins []entity.CoinDefinition) {
	coins = []entity.CoinDefinition{}
	defer func() {
		if recover() != nil {
			coins = []entity.CoinDefinition{}
		}
	}()

	if !wellFormed(body) {
		return coins
	}
	list := json.Get(body, "coins")
	if list.ValueType() != jsoniter.ArrayValue {
		return coins
	}
	for i := 0; i < list.Size(); i++ {
		item := list.Get(i)
		if item.ValueType() != jsoniter.ObjectValue {
			continue
		}
		id := stringField(item, "id")
		if id == "" {
			continue
		}
		coins = append(coins, entity.CoinDefinition{
			Name:   stringField(item, "name"),
			Ticker: strings.ToUpper(stringField(item, "symbol")),
			APIID:  id,
		})
	}
	return coins
}

// ParseOHLC reads [[t, o, h, l, c], ...]. A row is kept only if all five
// values are numbers, so the series stay index aligned.
func ParseOHLC(body []byte) (ohlc entity.OHLC, ok bool) {
	defer recoverParse(&ok)

	if !wellFormed(body) {
		return entity.OHLC{}, false
	}
	rows := json.Get(body)
	if rows.ValueType() != jsoniter.ArrayValue {
		return entity.OHLC{}, false
	}

	n := rows.Size()
	ohlc = entity.OHLC{
		Time:  make([]float64, 0, n),
		Open:  make([]float64, 0, n),
		High:  make([]float64, 0, n),
		Low:   make([]float64, 0, n),
		Close: make([]float64, 0, n),
	}

	var row [5]float64
	for i := 0; i < n; i++ {
		if !readCandle(rows.Get(i), &row) {
			continue
		}
		ohlc.Time = append(ohlc.Time, row[0])
		ohlc.Open = append(ohlc.Open, row[1])
		ohlc.High = append(ohlc.High, row[2])
		ohlc.Low = append(ohlc.Low, row[3])
		ohlc.Close = append(ohlc.Close, row[4])
	}
	return ohlc, true
}

func readCandle(item jsoniter.Any, row *[5]float64) bool {
	if item.ValueType() != jsoniter.ArrayValue || item.Size() < len(row) {
		return false
	}
	for j := range row {
		v := item.Get(j)
		if v.ValueType() != jsoniter.NumberValue {
			return false
		}
		row[j] = v.ToFloat64()
	}
	return true
}

func stringField(item jsoniter.Any, key string) string {
	v := item.Get(key)
	if v.ValueType() != jsoniter.StringValue {
		return ""
	}
	return strings.TrimSpace(v.ToString())
}

// wellFormed reports whether body is exactly one complete JSON value. Unlike
// json.Valid it also rejects bytes left after that value.
func wellFormed(body []byte) bool {
	var raw jsoniter.RawMessage
	return json.Unmarshal(body, &raw) == nil
}

func recoverParse(ok *bool) {
	if recover() != nil {
		*ok = false
	}
}
