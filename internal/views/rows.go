package views

import (
	"slices"
	"time"

	"cloudstocks/pkg/cloudstocks"
)

// StockRow is one line of the history table.
type StockRow struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// ChartPoint is one closing price on the history chart.
type ChartPoint struct {
	X time.Time
	Y float64
}

// MinChartPoints is the fewest points the chart is drawn with.
const MinChartPoints = 2

// BuildRows maps API records onto table rows and parallel chart points,
// preserving order.
func BuildRows(recs []cloudstocks.HistoryRecord) ([]StockRow, []ChartPoint) {
	rows := make([]StockRow, 0, len(recs))
	points := make([]ChartPoint, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, StockRow{
			Date:   FormatDate(r.Timestamp),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
		points = append(points, ChartPoint{X: r.Timestamp, Y: r.Close})
	}
	return rows, points
}

// ChartSeries orders points oldest first and returns their closing prices
// along with the first and last timestamps. points is not modified.
func ChartSeries(points []ChartPoint) (ys []float64, oldest, newest time.Time) {
	if len(points) == 0 {
		return nil, time.Time{}, time.Time{}
	}
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b ChartPoint) int { return a.X.Compare(b.X) })
	ys = make([]float64, len(sorted))
	for i, p := range sorted {
		ys[i] = p.Y
	}
	return ys, sorted[0].X, sorted[len(sorted)-1].X
}
