package sheet

import (
	"math"
	"time"
)

// MaxSerial is the serial of 9999-12-31, the last date a workbook can hold.
const MaxSerial = 2958465

var (
	epoch1900    = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
	epoch1900Mar = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	epoch1904    = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// SerialToDate decodes a spreadsheet serial date to YYYY-MM-DD. The time of
// day is discarded. Serials outside 0..MaxSerial yield "".
//
// The 1900 system counts 1900-02-29 as serial 60 even though that day does
// not exist; it is rendered literally so dates on either side keep their
// usual values.
func SerialToDate(serial float64, date1904 bool) string {
	if math.IsNaN(serial) || serial < 0 || serial > MaxSerial {
		return ""
	}
	days := int(math.Floor(serial))

	if date1904 {
		return epoch1904.AddDate(0, 0, days).Format("2006-01-02")
	}

	switch {
	case days == 60:
		return "1900-02-29"
	case days < 60:
		return epoch1900.AddDate(0, 0, days).Format("2006-01-02")
	default:
		return epoch1900Mar.AddDate(0, 0, days).Format("2006-01-02")
	}
}
