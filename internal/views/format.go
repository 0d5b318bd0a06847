package views

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// DateLayout renders history dates day-first, as the listing site does.
const DateLayout = "02/01/2006"

// FormatDate formats t as DD/MM/YYYY in UTC.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(DateLayout)
}

// FormatPrice formats a price value with two decimals, or "-" for NaN.
func FormatPrice(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}

// FormatVolume formats a share volume with comma separators.
func FormatVolume(v int64) string {
	return humanize.Comma(v)
}

// FormatVolumeShort formats a share volume with an SI suffix for narrow
// columns, e.g. "12 M".
func FormatVolumeShort(v int64) string {
	if v < 1000 {
		return fmt.Sprintf("%d", v)
	}
	return humanize.SIWithDigits(float64(v), 1, "")
}
