package gateway

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EngineDateLayout is the engine's native 8-digit numeric date form
const EngineDateLayout = "20060102"

// DisplayDateLayout is the human-readable form used in report messages
const DisplayDateLayout = "2-Jan-2006"

// escaper and unescaper cover the five XML special characters the engine
// understands. The ampersand must be escaped first and unescaped last so the
// pair round-trips exactly.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

var unescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// EscapeXML escapes text for embedding in a request body. Every value
// inserted into an envelope must pass through here.
func EscapeXML(s string) string {
	return escaper.Replace(s)
}

// UnescapeXML reverses EscapeXML for text extracted from a response. Every
// extracted value that may contain a party or item name must pass through
// here.
func UnescapeXML(s string) string {
	return unescaper.Replace(s)
}

// acceptedDateLayouts are the caller-supplied forms normalised by
// ToEngineDate, tried in order
var acceptedDateLayouts = []string{
	EngineDateLayout,
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"2-Jan-2006",
	"2 Jan 2006",
	"02.01.2006",
}

// ToEngineDate normalises an arbitrary caller-supplied date string into the
// engine's 8-digit form. An empty or unparseable input returns the empty
// string, which callers must treat as "no date constraint", not an error.
func ToEngineDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(EngineDateLayout)
		}
	}
	return ""
}

// ParseEngineDate parses the engine's 8-digit date form. The engine also
// emits dates as "1-Apr-2024" in some voucher exports, so that form is
// accepted too. Returns the zero time when the text is not a date.
func ParseEngineDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	if t, err := time.Parse(EngineDateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(DisplayDateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

// FromEngineDate renders an 8-digit engine date in human-readable form.
// Input that is not an engine date is returned unchanged.
func FromEngineDate(s string) string {
	t, err := time.Parse(EngineDateLayout, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format(DisplayDateLayout)
}

// ParseAmount converts an engine-reported numeric string into a decimal.
// The engine formats amounts with thousands separators and an occasional
// Dr/Cr suffix. Missing or unparsable text yields zero, never an error:
// a bad cell must not poison a report total.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(UnescapeXML(s))
	if s == "" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, ",", "")
	for _, suffix := range []string{" Dr", " Cr", "Dr", "Cr"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity extracts the leading numeric part of a quantity string such
// as "12 nos" or "3.500 kg". Unparsable text yields zero.
func ParseQuantity(s string) decimal.Decimal {
	s = strings.TrimSpace(UnescapeXML(s))
	if s == "" {
		return decimal.Zero
	}

	end := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			end = i
			break
		}
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s[:end]))
	if err != nil {
		return decimal.Zero
	}
	return d
}
