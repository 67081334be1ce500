// Package numfmt renders a resolved CellValue to its Excel display string
// using a number-format code, the way the format bar and cell display would
// show it. This supplements the document engine's core read/write contract
// (spec.md's CellValue is a value, not a display string) with the rendering
// half a consumer of the engine typically also needs.
//
// Format-string tokenizing is delegated to github.com/xuri/nfp (pulled in
// by the excelize-derived manifests in the pack); this package implements
// only the rendering logic on top of its token stream, grounded on
// TsubasaBE's numfmt.FormatValue — generalized from TsubasaBE's
// {numFmtID int, fmtStr string, v any} inputs to this engine's
// cellvalue.Value and styles.Table types.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/nfp"

	"github.com/adnsv/xlcore/cellvalue"
	"github.com/adnsv/xlcore/styles"
)

// FormatValue renders v using the format code resolved from cellXfs index
// styleIndex (or numFmtID 0 / "General" when st is nil or has no such
// index). date1904 selects the 1904 date system, workbook.xml's
// <workbookPr date1904> attribute.
func FormatValue(v cellvalue.Value, st *styles.Table, styleIndex int, date1904 bool) string {
	numFmtID, code := 0, ""
	if st != nil {
		if cs, ok := st.CellStyle(styleIndex); ok {
			numFmtID, code = cs.NumFmtID, cs.FormatCode
		}
	}
	return formatValue(v, numFmtID, code, date1904)
}

func formatValue(v cellvalue.Value, numFmtID int, code string, date1904 bool) string {
	switch v.Kind {
	case cellvalue.Empty:
		return ""
	case cellvalue.Text, cellvalue.RichTextKind:
		return v.Text()
	case cellvalue.Boolean:
		if v.Bool() {
			return "TRUE"
		}
		return "FALSE"
	case cellvalue.ErrorKind:
		return v.ErrorToken()
	case cellvalue.Date:
		return formatFloat(v.Number(), numFmtID, resolveFormat(numFmtID, code), date1904, true)
	case cellvalue.Number:
		return formatFloat(v.Number(), numFmtID, resolveFormat(numFmtID, code), date1904, false)
	default:
		return ""
	}
}

func resolveFormat(numFmtID int, code string) string {
	if code != "" {
		return code
	}
	if s, ok := styles.BuiltInNumFmt[numFmtID]; ok {
		return s
	}
	return "General"
}

func formatFloat(val float64, numFmtID int, effective string, date1904, forceDate bool) string {
	if effective == "General" {
		return renderGeneral(val)
	}

	ps := nfp.NumberFormatParser()
	sections := ps.Parse(effective)
	if len(sections) == 0 {
		return renderGeneral(val)
	}
	sec := selectSection(sections, val)

	if forceDate || styles.IsDateFormatID(numFmtID, effective) {
		return renderDateTime(val, sec, date1904)
	}
	return renderNumber(val, sec, sections)
}

// selectSection picks a format section by the value's sign, per the
// Excel convention: 1 section applies to all values; 2 sections split
// positive+zero / negative; 3 or 4 split positive / negative / zero (/ text).
func selectSection(sections []nfp.Section, val float64) nfp.Section {
	switch {
	case len(sections) == 1:
		return sections[0]
	case len(sections) == 2:
		if val < 0 {
			return sections[1]
		}
		return sections[0]
	default:
		switch {
		case val > 0:
			return sections[0]
		case val < 0:
			return sections[1]
		default:
			return sections[2]
		}
	}
}

func renderGeneral(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'G', -1, 64)
	}
	if val == math.Trunc(val) && math.Abs(val) < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'G', -1, 64)
}

// renderDateTime renders an Excel serial date/time using the tokens in sec.
func renderDateTime(serial float64, sec nfp.Section, date1904 bool) string {
	t, err := serialToTime(serial, date1904)
	if err != nil {
		return renderGeneral(serial)
	}

	hasAmPm := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			upper := strings.ToUpper(tok.TValue)
			if upper == "AM/PM" || upper == "A/P" {
				hasAmPm = true
				break
			}
		}
	}

	var sb strings.Builder
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			sb.WriteString(renderDateToken(strings.ToUpper(tok.TValue), t, hasAmPm))
		case nfp.TokenTypeElapsedDateTimes:
			sb.WriteString(renderElapsed(strings.ToUpper(tok.TValue), serial))
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		}
	}
	if sb.Len() == 0 {
		return renderGeneral(serial)
	}
	return sb.String()
}

// renderDateToken renders one date/time token, already upper-cased. "M"/"MM"
// always render the month, even right after an hour token; neither this
// function nor renderDateTime tracks the preceding token. Minutes are
// rendered only through the elapsed-time tokens ([m]/[mm]) in renderElapsed.
func renderDateToken(upper string, t time.Time, hasAmPm bool) string {
	switch upper {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return t.Weekday().String()
	case "DDD":
		return t.Weekday().String()[:3]
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		h := t.Hour()
		if hasAmPm {
			h = hour12(h)
		}
		return fmt.Sprintf("%02d", h)
	case "H":
		h := t.Hour()
		if hasAmPm {
			h = hour12(h)
		}
		return strconv.Itoa(h)
	case "SS":
		return fmt.Sprintf("%02d", t.Second())
	case "S":
		return strconv.Itoa(t.Second())
	case "AM/PM":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "A/P":
		if t.Hour() < 12 {
			return "A"
		}
		return "P"
	}
	return ""
}

func hour12(h int) int {
	h = h % 12
	if h == 0 {
		h = 12
	}
	return h
}

// renderElapsed renders a bracketed elapsed-time token ("[h]", "[mm]",
// "[ss]" — brackets already stripped by the nfp tokenizer) against the raw
// fractional-day serial, e.g. "[h]:mm:ss" for a duration display.
func renderElapsed(upper string, serial float64) string {
	switch upper {
	case "H", "HH":
		return strconv.Itoa(int(serial * 24))
	case "MM":
		return fmt.Sprintf("%02d", int(serial*24*60)%60)
	case "M":
		return strconv.Itoa(int(serial*24*60) % 60)
	case "SS":
		return fmt.Sprintf("%02d", int(serial*24*3600)%60)
	case "S":
		return strconv.Itoa(int(serial*24*3600) % 60)
	}
	return ""
}

// serialToTime converts an Excel date serial to time.Time, handling the
// 1900 leap-year bug (serials >= 61 are shifted by one day) and the 1904
// date system, grounded on TsubasaBE's xlsb.ConvertDateEx.
func serialToTime(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return time.Time{}, fmt.Errorf("numfmt: invalid serial %v", serial)
	}
	fracSec := int64(math.Round((serial - math.Trunc(serial)) * 86400))
	if fracSec < 0 {
		fracSec = 0
	} else if fracSec > 86399 {
		fracSec = 86399
	}
	intPart := int(serial)
	if date1904 {
		base := time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
		return base.Add(time.Duration(intPart)*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	}
	base := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	switch {
	case intPart == 0:
		return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(fracSec) * time.Second), nil
	case intPart >= 61:
		return base.Add(time.Duration(intPart-1)*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	default:
		return base.Add(time.Duration(intPart)*24*time.Hour + time.Duration(fracSec)*time.Second), nil
	}
}

// renderNumber renders a non-date float64 using sec's placeholder tokens.
func renderNumber(val float64, sec nfp.Section, sections []nfp.Section) string {
	var hasPercent, hasThousands, hasDecimal, hasExplicitSign bool
	var decZeros, decHashes, intZeros int
	afterDecimal := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			hasPercent = true
		case nfp.TokenTypeThousandsSeparator:
			hasThousands = true
		case nfp.TokenTypeDecimalPoint:
			hasDecimal = true
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if afterDecimal {
				decZeros += len(tok.TValue)
			} else {
				intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				decHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				hasExplicitSign = true
			}
		}
	}
	totalDecPlaces := decZeros + decHashes

	absVal := math.Abs(val)
	if hasPercent {
		absVal *= 100
	}

	var intStr, fracStr string
	if hasDecimal {
		formatted := strconv.FormatFloat(absVal, 'f', totalDecPlaces, 64)
		if dot := strings.IndexByte(formatted, '.'); dot >= 0 {
			intStr, fracStr = formatted[:dot], formatted[dot+1:]
		} else {
			intStr, fracStr = formatted, strings.Repeat("0", totalDecPlaces)
		}
		if decHashes > 0 && len(fracStr) > decZeros {
			trimTo := len(fracStr)
			for trimTo > decZeros && trimTo > 0 && fracStr[trimTo-1] == '0' {
				trimTo--
			}
			fracStr = fracStr[:trimTo]
		}
	} else {
		intStr = strconv.FormatFloat(absVal, 'f', 0, 64)
	}

	for len(intStr) < intZeros {
		intStr = "0" + intStr
	}
	if hasThousands && len(intStr) > 3 {
		intStr = insertThousandsSep(intStr)
	}

	needsMinus := val < 0 && !hasExplicitSign && len(sections) < 2

	var sb strings.Builder
	if needsMinus {
		sb.WriteByte('-')
	}
	intConsumed, fracConsumed := false, false
	afterDecimal = false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			if len(fracStr) > 0 {
				sb.WriteByte('.')
			}
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				if !fracConsumed {
					sb.WriteString(fracStr)
					fracConsumed = true
				}
			} else if !intConsumed {
				sb.WriteString(intStr)
				intConsumed = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}
	if !intConsumed && !afterDecimal {
		sb.WriteString(intStr)
	}
	if sb.Len() == 0 {
		return renderGeneral(val)
	}
	return sb.String()
}

func insertThousandsSep(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(n + n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
