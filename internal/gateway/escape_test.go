package gateway

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEscapeXMLRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		escaped string
	}{
		{
			name:    "all five entities",
			input:   `A & B <Pvt> "Ltd" 'Co'`,
			escaped: "A &amp; B &lt;Pvt&gt; &quot;Ltd&quot; &apos;Co&apos;",
		},
		{
			name:    "plain text untouched",
			input:   "Rajesh Traders",
			escaped: "Rajesh Traders",
		},
		{
			name:    "ampersand inside entity-looking text",
			input:   "R&D &amp; Sons",
			escaped: "R&amp;D &amp;amp; Sons",
		},
		{
			name:    "empty",
			input:   "",
			escaped: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped := EscapeXML(tt.input)
			if escaped != tt.escaped {
				t.Errorf("EscapeXML(%q) = %q, want %q", tt.input, escaped, tt.escaped)
			}
			if back := UnescapeXML(escaped); back != tt.input {
				t.Errorf("UnescapeXML(EscapeXML(%q)) = %q, round trip broken", tt.input, back)
			}
		})
	}
}

func TestToEngineDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2026-04-01", "20260401"},
		{"01-04-2026", "20260401"},
		{"01/04/2026", "20260401"},
		{"2026/04/01", "20260401"},
		{"1-Apr-2026", "20260401"},
		{"1 Apr 2026", "20260401"},
		{"01.04.2026", "20260401"},
		{"20260401", "20260401"}, // already engine form passes through
		{"  2026-04-01  ", "20260401"},
		{"", ""},
		{"not a date", ""},
		{"32-13-2026", ""},
	}

	for _, tt := range tests {
		if got := ToEngineDate(tt.input); got != tt.want {
			t.Errorf("ToEngineDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFromEngineDate(t *testing.T) {
	if got := FromEngineDate("20260401"); got != "1-Apr-2026" {
		t.Errorf("FromEngineDate(20260401) = %q, want 1-Apr-2026", got)
	}
	// Non-engine input comes back unchanged
	if got := FromEngineDate("yesterday"); got != "yesterday" {
		t.Errorf("FromEngineDate(yesterday) = %q, want passthrough", got)
	}
}

func TestParseEngineDate(t *testing.T) {
	if got := ParseEngineDate("20260401"); got.Year() != 2026 || got.Month() != 4 || got.Day() != 1 {
		t.Errorf("ParseEngineDate(20260401) = %v", got)
	}
	if got := ParseEngineDate("1-Apr-2026"); got.Year() != 2026 {
		t.Errorf("ParseEngineDate(1-Apr-2026) = %v", got)
	}
	if got := ParseEngineDate("garbage"); !got.IsZero() {
		t.Errorf("ParseEngineDate(garbage) = %v, want zero time", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1234.56", "1234.56"},
		{"-250000.00", "-250000"},
		{"12,34,567.89", "1234567.89"}, // Indian grouping
		{"5000 Dr", "5000"},
		{"5000 Cr", "5000"},
		{"5000Cr", "5000"},
		{"", "0"},
		{"N/A", "0"},
		{"&#4; garbage", "0"},
	}

	for _, tt := range tests {
		want, _ := decimal.NewFromString(tt.want)
		if got := ParseAmount(tt.input); !got.Equal(want) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, want)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"12 nos", "12"},
		{"3.500 kg", "3.5"},
		{"-5 pcs", "-5"},
		{"100", "100"},
		{"", "0"},
		{"nos", "0"},
	}

	for _, tt := range tests {
		want, _ := decimal.NewFromString(tt.want)
		if got := ParseQuantity(tt.input); !got.Equal(want) {
			t.Errorf("ParseQuantity(%q) = %s, want %s", tt.input, got, want)
		}
	}
}
