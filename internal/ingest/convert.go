package ingest

// convert.go turns raw cell values into typed values.
//
// Cells arrive as whatever the reader produced: strings from CSV and from
// raw xlsx values, float64/int from programmatic sources, time.Time from
// native date cells. The helpers here cope with the usual mess:
//   - Currency symbols, thousands separators and accounting parentheses
//   - Decimal commas ("12,5")
//   - Spreadsheet date serials, including the 1900 leap-year bug
//   - Day-first and month-first text dates, Spanish month names

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
	"github.com/shopspring/decimal"
)

// maxSerial is 9999-12-31 as a spreadsheet serial.
const maxSerial = 2958465

// TwoDigitYearPivot defines how 2-digit years are interpreted. Years that
// would land more than this many years in the future go to the previous
// century.
var TwoDigitYearPivot = 20

var (
	isoLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339,
		"20060102",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	}
	dayFirstShortLayouts   = []string{"2/1/06", "02/01/06", "2-1-06", "2.1.06"}
	monthFirstShortLayouts = []string{"1/2/06", "01/02/06", "1-2-06", "1.2.06"}
	textLayouts            = []string{
		"2 Jan 2006", "02 Jan 2006", "2-Jan-2006", "2-Jan-06", "Jan 2, 2006", "Jan 2 2006", "2 January 2006", "January 2, 2006",
	}
)

// spanishMonths maps folded Spanish month names to English abbreviations.
var spanishMonths = map[string]string{
	"ENERO": "Jan", "ENE": "Jan",
	"FEBRERO": "Feb", "FEB": "Feb",
	"MARZO": "Mar", "MAR": "Mar",
	"ABRIL": "Apr", "ABR": "Apr",
	"MAYO": "May", "MAY": "May",
	"JUNIO": "Jun", "JUN": "Jun",
	"JULIO": "Jul", "JUL": "Jul",
	"AGOSTO": "Aug", "AGO": "Aug",
	"SEPTIEMBRE": "Sep", "SETIEMBRE": "Sep", "SEP": "Sep", "SEPT": "Sep",
	"OCTUBRE": "Oct", "OCT": "Oct",
	"NOVIEMBRE": "Nov", "NOV": "Nov",
	"DICIEMBRE": "Dec", "DIC": "Dec",
}

// NumberResult is the outcome of numeric coercion.
type NumberResult struct {
	Value decimal.Decimal
	// Coerced is set when characters had to be stripped or separators rewritten.
	Coerced bool
	// Defaulted is set when nothing numeric remained and Value fell back to 0.
	Defaulted bool
}

// ParseNumber coerces a cell to a decimal. Blank cells are 0 without a
// transformation; anything else that needs rewriting sets Coerced or Defaulted.
func ParseNumber(cell any) NumberResult {
	switch v := cell.(type) {
	case nil:
		return NumberResult{}
	case decimal.Decimal:
		return NumberResult{Value: v}
	case float64:
		return NumberResult{Value: decimal.NewFromFloat(v)}
	case float32:
		return NumberResult{Value: decimal.NewFromFloat32(v)}
	case int:
		return NumberResult{Value: decimal.NewFromInt(int64(v))}
	case int64:
		return NumberResult{Value: decimal.NewFromInt(v)}
	case string:
		return parseNumberText(v)
	default:
		return NumberResult{Defaulted: true}
	}
}

func parseNumberText(raw string) NumberResult {
	s := CleanCell(raw)
	if s == "" {
		return NumberResult{}
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return NumberResult{Value: d}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = !negative
		}
	}

	cleaned := normalizeSeparators(b.String())
	if cleaned == "" {
		return NumberResult{Defaulted: true}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return NumberResult{Defaulted: true}
	}
	if negative {
		d = d.Neg()
	}
	return NumberResult{Value: d, Coerced: true}
}

// normalizeSeparators rewrites thousands and decimal separators so the
// result only uses '.' as the decimal point.
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		if len(s)-strings.Index(s, ",")-1 == 3 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// ParseDate converts a cell to a schema.Date. Blank cells yield the zero
// Date; anything that cannot be read as a date is returned Unparseable with
// its raw text kept.
func ParseDate(cell any, dayFirst bool) schema.Date {
	switch v := cell.(type) {
	case nil:
		return schema.Date{}
	case time.Time:
		if v.IsZero() {
			return schema.Date{}
		}
		return schema.ParsedDate(truncateDay(v))
	case float64:
		return dateFromSerial(v, strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		return dateFromSerial(float64(v), strconv.Itoa(v))
	case int64:
		return dateFromSerial(float64(v), strconv.FormatInt(v, 10))
	case string:
		return parseDateText(v, dayFirst)
	default:
		return schema.UnparseableDate(CellText(cell))
	}
}

func dateFromSerial(serial float64, raw string) schema.Date {
	t, ok := SerialToTime(serial)
	if !ok {
		return schema.UnparseableDate(raw)
	}
	return schema.ParsedDate(t)
}

// SerialToTime converts a spreadsheet date serial to a UTC date. Serials
// below 60 predate the fictitious 1900-02-29 and use a one-day-later epoch.
func SerialToTime(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < 1 || serial > maxSerial {
		return time.Time{}, false
	}
	days := int(math.Floor(serial))
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	if days < 60 {
		epoch = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return epoch.AddDate(0, 0, days), true
}

// TimeToSerial is the inverse of SerialToTime for dates after 1900-03-01.
func TimeToSerial(t time.Time) float64 {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	return math.Floor(truncateDay(t).Sub(epoch).Hours() / 24)
}

func parseDateText(raw string, dayFirst bool) schema.Date {
	s := CleanCell(raw)
	if s == "" {
		return schema.Date{}
	}

	if isSerialText(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return dateFromSerial(f, raw)
		}
	}

	if t, ok := parseLayouts(s, isoLayouts); ok {
		return schema.ParsedDate(t)
	}

	long, short := monthFirstLayouts, monthFirstShortLayouts
	if dayFirst {
		long, short = dayFirstLayouts, dayFirstShortLayouts
	}
	if t, ok := parseLayouts(s, long); ok {
		return schema.ParsedDate(t)
	}
	if t, ok := parseLayouts(s, short); ok {
		pivot := time.Now().Year() + TwoDigitYearPivot
		if t.Year() > pivot {
			t = t.AddDate(-100, 0, 0)
		}
		return schema.ParsedDate(t)
	}

	if t, ok := parseLayouts(englishMonths(s), textLayouts); ok {
		return schema.ParsedDate(t)
	}
	return schema.UnparseableDate(raw)
}

// isSerialText reports digit-only text short enough to be a serial rather
// than a compact yyyymmdd date.
func isSerialText(s string) bool {
	intPart, _, _ := strings.Cut(s, ".")
	if intPart == "" || len(intPart) > 7 {
		return false
	}
	for _, r := range strings.Replace(s, ".", "", 1) {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

// englishMonths rewrites "15 de marzo de 2024" as "15 Mar 2024".
func englishMonths(s string) string {
	words := strings.Fields(FoldKey(s))
	out := words[:0]
	for _, w := range words {
		if w == "DE" || w == "DEL" {
			continue
		}
		if en, ok := spanishMonths[w]; ok {
			w = en
		} else if len(w) >= 3 && isLetters(w) {
			w = w[:1] + strings.ToLower(w[1:])
		}
		out = append(out, w)
	}
	if len(out) == 3 && isLetters(out[0]) {
		// "Mar 15 2024"
		return out[0] + " " + out[1] + ", " + out[2]
	}
	return strings.Join(out, " ")
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || (r > 'Z' && r < 'a') || r > 'z' {
			return false
		}
	}
	return s != ""
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CellText renders any cell as trimmed text.
func CellText(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return CleanCell(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(schema.DateLayout)
	case decimal.Decimal:
		return v.String()
	default:
		return ""
	}
}
