package apitest

import "time"

// FixtureStocks is the listing served by a new Server.
var FixtureStocks = []Stock{
	{Name: "Alcoa Corp", Symbol: "AA", Industry: "Materials"},
	{Name: "American Airlines Group", Symbol: "AAL", Industry: "Industrials"},
	{Name: "Advance Auto Parts", Symbol: "AAP", Industry: "Consumer Discretionary"},
	{Name: "Apple Inc.", Symbol: "AAPL", Industry: "Information Technology"},
	{Name: "AbbVie Inc.", Symbol: "ABBV", Industry: "Health Care"},
	{Name: "Exxon Mobil Corp.", Symbol: "XOM", Industry: "Energy"},
}

// FixtureHistory returns daily quotes for AAL and AAPL spanning
// 2020-03-16..2020-03-20, oldest first. Other symbols have no history.
func FixtureHistory() map[string][]Quote {
	out := make(map[string][]Quote)
	start := time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC)
	for _, st := range FixtureStocks {
		if st.Symbol != "AAL" && st.Symbol != "AAPL" {
			continue
		}
		base := 14.0
		if st.Symbol == "AAPL" {
			base = 250.0
		}
		for i := 0; i < 5; i++ {
			day := start.AddDate(0, 0, i)
			px := base + float64(i)
			out[st.Symbol] = append(out[st.Symbol], Quote{
				Timestamp: day.Format("2006-01-02T15:04:05.000Z"),
				Symbol:    st.Symbol,
				Name:      st.Name,
				Industry:  st.Industry,
				Open:      px,
				High:      px + 0.5,
				Low:       px - 0.5,
				Close:     px + 0.25,
				Volumes:   int64(1_000_000 * (i + 1)),
			})
		}
	}
	return out
}
