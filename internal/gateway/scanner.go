package gateway

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one engine record located in a response body: an enclosing tag,
// its optional NAME attribute and its raw inner text. Child values are
// extracted lazily and tolerantly; a missing child is an empty string or
// zero, never an error.
type Record struct {
	Tag   string
	Name  string // NAME attribute, unescaped; empty when absent
	Inner string // raw inner text, still escaped
}

// Text extracts the first child tag's text content, unescaped. Returns the
// empty string when the child is absent or self-closing.
func (r *Record) Text(tag string) string {
	return UnescapeXML(childText(r.Inner, tag))
}

// RawText extracts the first child tag's text without unescaping, for
// values that feed numeric parsing
func (r *Record) RawText(tag string) string {
	return childText(r.Inner, tag)
}

// Amount extracts a child tag as a decimal amount, zero on absence
func (r *Record) Amount(tag string) decimal.Decimal {
	return ParseAmount(childText(r.Inner, tag))
}

// Quantity extracts a child tag as a decimal quantity, zero on absence
func (r *Record) Quantity(tag string) decimal.Decimal {
	return ParseQuantity(childText(r.Inner, tag))
}

// Date extracts a child tag as an engine date, zero time on absence
func (r *Record) Date(tag string) time.Time {
	return ParseEngineDate(childText(r.Inner, tag))
}

// Records extracts nested list records (e.g. ledger entry lists inside a
// voucher). The grammar nests at most one level, so this is not recursive
// beyond what callers ask for.
func (r *Record) Records(tag string) []*Record {
	return FindRecords(r.Inner, tag)
}

// FindRecords locates every record enclosed by the given tag in the body.
// The tag may open bare ("<LEDGER>") or with attributes
// ("<LEDGER NAME=\"...\">"); in the latter case the NAME attribute is
// captured. Records the scanner cannot terminate (no closing tag) are
// skipped rather than failing the whole response.
func FindRecords(body, tag string) []*Record {
	var records []*Record
	open := "<" + tag
	closeTag := "</" + tag + ">"

	pos := 0
	for {
		start := strings.Index(body[pos:], open)
		if start < 0 {
			break
		}
		start += pos

		// The match must be the whole tag name, not a prefix of a longer one
		after := start + len(open)
		if after >= len(body) || (body[after] != '>' && body[after] != ' ' && body[after] != '\t' && body[after] != '\n' && body[after] != '/') {
			pos = after
			continue
		}

		openEnd := strings.IndexByte(body[start:], '>')
		if openEnd < 0 {
			break
		}
		openEnd += start

		// Self-closing record: present but empty
		if body[openEnd-1] == '/' {
			records = append(records, &Record{
				Tag:  tag,
				Name: attrValue(body[start:openEnd], "NAME"),
			})
			pos = openEnd + 1
			continue
		}

		end := strings.Index(body[openEnd:], closeTag)
		if end < 0 {
			// Unterminated record; skip past the open tag and keep scanning
			pos = openEnd + 1
			continue
		}
		end += openEnd

		records = append(records, &Record{
			Tag:   tag,
			Name:  attrValue(body[start:openEnd], "NAME"),
			Inner: body[openEnd+1 : end],
		})
		pos = end + len(closeTag)
	}

	return records
}

// FirstRecord returns the first record for the tag, or nil when the body
// contains none. Callers use nil to surface an explicit "not found" result.
func FirstRecord(body, tag string) *Record {
	records := FindRecords(body, tag)
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

// attrValue extracts a quoted attribute value from an open tag, unescaped
func attrValue(openTag, attr string) string {
	marker := attr + `="`
	start := strings.Index(openTag, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)

	end := strings.IndexByte(openTag[start:], '"')
	if end < 0 {
		return ""
	}
	return UnescapeXML(openTag[start : start+end])
}

// childText extracts the text content of the first occurrence of a flat
// child tag. Absent and self-closing children yield the empty string.
func childText(inner, tag string) string {
	open := "<" + tag
	pos := 0
	for {
		start := strings.Index(inner[pos:], open)
		if start < 0 {
			return ""
		}
		start += pos

		after := start + len(open)
		if after >= len(inner) || (inner[after] != '>' && inner[after] != ' ' && inner[after] != '/') {
			pos = after
			continue
		}

		openEnd := strings.IndexByte(inner[start:], '>')
		if openEnd < 0 {
			return ""
		}
		openEnd += start

		if inner[openEnd-1] == '/' {
			return ""
		}

		end := strings.Index(inner[openEnd:], "</"+tag+">")
		if end < 0 {
			return ""
		}
		return strings.TrimSpace(inner[openEnd+1 : openEnd+end])
	}
}
