package reports

import (
	"strings"

	"tallybridge/internal/gateway"
	"tallybridge/internal/models"
)

// PrimaryGroupSentinel is the parent value the engine reports for top-level
// chart-of-accounts groups. The leading control character is observed
// behaviour of the engine's XML export, not a documented constant; verify
// it against the target engine version before trusting it elsewhere.
const PrimaryGroupSentinel = "\x04 Primary"

// Collection declares one named record set to export: the target record
// type, an optional ancestor-group scope, the fields to fetch and the named
// filters to apply. A Collection with Unions set merges other collections
// instead of declaring its own type; this reproduces the union-of-
// subcollections technique used when one declarative filter would need
// boolean combinators the engine cannot parse reliably.
type Collection struct {
	Name    string
	Type    string
	ChildOf string
	Fetch   []string
	Filters []string
	Unions  []string
}

// Formula is one named boolean filter expression referenced by a collection
type Formula struct {
	Name string
	Expr string
}

// Envelope composes one export request for the engine: company selection,
// an optional date window, collection declarations and filter formulas.
//
// A window attached via WithWindow is sent through the engine's static date
// variables. For Voucher collections that directive is unreliable, so
// voucher queries attach the window as filter formulas instead (see
// voucherDateFilters) and re-filter client-side after parsing.
type Envelope struct {
	ID          string
	Company     string
	Window      models.QueryWindow
	Collections []Collection
	Formulas    []Formula
}

// NewEnvelope creates an export envelope for the named result collection
func NewEnvelope(id string) *Envelope {
	return &Envelope{ID: id}
}

// WithCompany selects the company the engine should answer for; empty means
// whichever book is currently active
func (e *Envelope) WithCompany(company string) *Envelope {
	e.Company = company
	return e
}

// WithWindow attaches a date window via the engine's static date variables
func (e *Envelope) WithWindow(window models.QueryWindow) *Envelope {
	e.Window = window
	return e
}

// Add appends a collection declaration
func (e *Envelope) Add(c Collection) *Envelope {
	e.Collections = append(e.Collections, c)
	return e
}

// Filter appends a named filter formula
func (e *Envelope) Filter(name, expr string) *Envelope {
	e.Formulas = append(e.Formulas, Formula{Name: name, Expr: expr})
	return e
}

// Build renders the envelope as engine XML. All embedded caller text is
// escaped here; builders pass raw names.
func (e *Envelope) Build() string {
	var b strings.Builder

	b.WriteString("<ENVELOPE>")
	b.WriteString("<HEADER>")
	b.WriteString("<VERSION>1</VERSION>")
	b.WriteString("<TALLYREQUEST>Export</TALLYREQUEST>")
	b.WriteString("<TYPE>Collection</TYPE>")
	b.WriteString("<ID>" + gateway.EscapeXML(e.ID) + "</ID>")
	b.WriteString("</HEADER>")
	b.WriteString("<BODY><DESC>")

	b.WriteString("<STATICVARIABLES>")
	b.WriteString("<SVEXPORTFORMAT>$$SysName:XML</SVEXPORTFORMAT>")
	if e.Company != "" {
		b.WriteString("<SVCURRENTCOMPANY>" + gateway.EscapeXML(e.Company) + "</SVCURRENTCOMPANY>")
	}
	if e.Window.From != "" {
		b.WriteString("<SVFROMDATE TYPE=\"Date\">" + e.Window.From + "</SVFROMDATE>")
	}
	if e.Window.To != "" {
		b.WriteString("<SVTODATE TYPE=\"Date\">" + e.Window.To + "</SVTODATE>")
	}
	b.WriteString("</STATICVARIABLES>")

	b.WriteString("<TDL><TDLMESSAGE>")
	for _, c := range e.Collections {
		writeCollection(&b, c)
	}
	for _, f := range e.Formulas {
		b.WriteString("<SYSTEM TYPE=\"Formulae\" NAME=\"" + gateway.EscapeXML(f.Name) + "\">")
		b.WriteString(f.Expr)
		b.WriteString("</SYSTEM>")
	}
	b.WriteString("</TDLMESSAGE></TDL>")

	b.WriteString("</DESC></BODY>")
	b.WriteString("</ENVELOPE>")

	return b.String()
}

func writeCollection(b *strings.Builder, c Collection) {
	b.WriteString("<COLLECTION NAME=\"" + gateway.EscapeXML(c.Name) + "\" ISMODIFY=\"No\">")

	if len(c.Unions) > 0 {
		b.WriteString("<COLLECTIONS>" + gateway.EscapeXML(strings.Join(c.Unions, ", ")) + "</COLLECTIONS>")
	} else {
		b.WriteString("<TYPE>" + gateway.EscapeXML(c.Type) + "</TYPE>")
		if c.ChildOf != "" {
			b.WriteString("<CHILDOF>" + gateway.EscapeXML(c.ChildOf) + "</CHILDOF>")
			// Scope by ancestry, not direct parent only
			b.WriteString("<BELONGSTO>Yes</BELONGSTO>")
		}
	}

	if len(c.Fetch) > 0 {
		b.WriteString("<NATIVEMETHOD>" + strings.Join(c.Fetch, ", ") + "</NATIVEMETHOD>")
	}
	for _, f := range c.Filters {
		b.WriteString("<FILTER>" + gateway.EscapeXML(f) + "</FILTER>")
	}

	b.WriteString("</COLLECTION>")
}

// quoteFormula renders a caller-supplied string for embedding in a filter
// formula expression
func quoteFormula(s string) string {
	return `"` + gateway.EscapeXML(s) + `"`
}
