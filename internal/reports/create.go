package reports

import (
	"context"
	"strings"

	"tallybridge/internal/gateway"
	bridgeerrors "tallybridge/pkg/errors"
	"tallybridge/pkg/logger"

	"github.com/shopspring/decimal"
)

// allowedVoucherTypes are the voucher kinds the bridge will create
var allowedVoucherTypes = map[string]string{
	"receipt":  "Receipt",
	"payment":  "Payment",
	"sales":    "Sales",
	"purchase": "Purchase",
	"journal":  "Journal",
}

// CreateVoucherInput carries the caller-supplied fields for one new voucher
type CreateVoucherInput struct {
	VoucherType string `json:"voucher_type"`
	Date        string `json:"date"`
	PartyName   string `json:"party_name"`
	Amount      string `json:"amount"`
	// LedgerName is the counter ledger: the bank/cash account for receipts
	// and payments, the sales/purchase account for invoices
	LedgerName string `json:"ledger_name"`
	Narration  string `json:"narration,omitempty"`
}

// ValidateCreateVoucherInput checks every field and returns all problems
// together, never failing fast on the first, so the caller can show the
// complete list at once
func ValidateCreateVoucherInput(input CreateVoucherInput) (*validatedVoucher, *bridgeerrors.ValidationErrors) {
	problems := bridgeerrors.NewValidationErrors()
	out := &validatedVoucher{narration: strings.TrimSpace(input.Narration)}

	typeName, ok := allowedVoucherTypes[strings.ToLower(strings.TrimSpace(input.VoucherType))]
	if !ok {
		problems.Add(bridgeerrors.ValidationError(
			bridgeerrors.CodeInvalidValue, "voucher_type", input.VoucherType))
	}
	out.voucherType = typeName

	out.date = gateway.ToEngineDate(input.Date)
	if strings.TrimSpace(input.Date) == "" {
		problems.Add(bridgeerrors.ValidationError(
			bridgeerrors.CodeRequiredField, "date", input.Date))
	} else if out.date == "" {
		problems.Add(bridgeerrors.ValidationError(
			bridgeerrors.CodeInvalidDate, "date", input.Date))
	}

	out.partyName = strings.TrimSpace(input.PartyName)
	if out.partyName == "" {
		problems.Add(bridgeerrors.ValidationError(
			bridgeerrors.CodeRequiredField, "party_name", input.PartyName))
	}

	out.ledgerName = strings.TrimSpace(input.LedgerName)
	if out.ledgerName == "" {
		problems.Add(bridgeerrors.ValidationError(
			bridgeerrors.CodeRequiredField, "ledger_name", input.LedgerName))
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(input.Amount), ",", ""))
	if err != nil || !amount.IsPositive() {
		problems.Add(bridgeerrors.ValidationError(
			bridgeerrors.CodeInvalidAmount, "amount", input.Amount))
	}
	out.amount = amount

	if problems.HasErrors() {
		return nil, problems
	}
	return out, nil
}

// validatedVoucher is a CreateVoucherInput that passed validation, with
// normalised fields
type validatedVoucher struct {
	voucherType string
	date        string
	partyName   string
	ledgerName  string
	amount      decimal.Decimal
	narration   string
}

// debitsParty reports whether this voucher type debits the party ledger.
// Receipts credit the party (money came in); payments and purchases debit
// the counter side.
func (v *validatedVoucher) debitsParty() bool {
	switch v.voucherType {
	case "Payment", "Sales":
		return true
	default:
		return false
	}
}

// BuildCreateVoucherRequest composes the import envelope creating one
// voucher with its two-sided ledger entries
func BuildCreateVoucherRequest(company string, v *validatedVoucher) string {
	amount := v.amount.StringFixed(2)
	negAmount := v.amount.Neg().StringFixed(2)

	partyAmount, ledgerAmount := amount, negAmount
	partyDebit, ledgerDebit := "No", "Yes"
	if v.debitsParty() {
		partyAmount, ledgerAmount = negAmount, amount
		partyDebit, ledgerDebit = "Yes", "No"
	}

	var b strings.Builder
	b.WriteString("<ENVELOPE>")
	b.WriteString("<HEADER>")
	b.WriteString("<VERSION>1</VERSION>")
	b.WriteString("<TALLYREQUEST>Import</TALLYREQUEST>")
	b.WriteString("<TYPE>Data</TYPE>")
	b.WriteString("<ID>Vouchers</ID>")
	b.WriteString("</HEADER>")
	b.WriteString("<BODY><DESC><STATICVARIABLES>")
	if company != "" {
		b.WriteString("<SVCURRENTCOMPANY>" + gateway.EscapeXML(company) + "</SVCURRENTCOMPANY>")
	}
	b.WriteString("</STATICVARIABLES></DESC>")
	b.WriteString("<DATA><TALLYMESSAGE>")

	b.WriteString(`<VOUCHER VCHTYPE="` + gateway.EscapeXML(v.voucherType) + `" ACTION="Create">`)
	b.WriteString("<DATE>" + v.date + "</DATE>")
	b.WriteString("<VOUCHERTYPENAME>" + gateway.EscapeXML(v.voucherType) + "</VOUCHERTYPENAME>")
	b.WriteString("<PARTYLEDGERNAME>" + gateway.EscapeXML(v.partyName) + "</PARTYLEDGERNAME>")
	if v.narration != "" {
		b.WriteString("<NARRATION>" + gateway.EscapeXML(v.narration) + "</NARRATION>")
	}

	b.WriteString("<ALLLEDGERENTRIES.LIST>")
	b.WriteString("<LEDGERNAME>" + gateway.EscapeXML(v.partyName) + "</LEDGERNAME>")
	b.WriteString("<ISDEEMEDPOSITIVE>" + partyDebit + "</ISDEEMEDPOSITIVE>")
	b.WriteString("<AMOUNT>" + partyAmount + "</AMOUNT>")
	b.WriteString("</ALLLEDGERENTRIES.LIST>")

	b.WriteString("<ALLLEDGERENTRIES.LIST>")
	b.WriteString("<LEDGERNAME>" + gateway.EscapeXML(v.ledgerName) + "</LEDGERNAME>")
	b.WriteString("<ISDEEMEDPOSITIVE>" + ledgerDebit + "</ISDEEMEDPOSITIVE>")
	b.WriteString("<AMOUNT>" + ledgerAmount + "</AMOUNT>")
	b.WriteString("</ALLLEDGERENTRIES.LIST>")

	b.WriteString("</VOUCHER>")
	b.WriteString("</TALLYMESSAGE></DATA></BODY>")
	b.WriteString("</ENVELOPE>")
	return b.String()
}

// CreateVoucherData is the typed payload of a successful voucher creation
type CreateVoucherData struct {
	VoucherType string          `json:"voucherType"`
	Date        string          `json:"date"`
	PartyName   string          `json:"partyName"`
	Amount      decimal.Decimal `json:"amount"`
}

// ParseImportResponse checks an import acknowledgement. The engine reports
// counts of created and altered records, and a LINEERROR record when the
// import was rejected.
func ParseImportResponse(body string) error {
	if rec := gateway.FirstRecord(body, "LINEERROR"); rec != nil {
		return bridgeerrors.ParseError(bridgeerrors.CodeInvalidResponse,
			"voucher import", strings.TrimSpace(gateway.UnescapeXML(rec.Inner)), nil)
	}

	created := gateway.FirstRecord(body, "CREATED")
	if created == nil || strings.TrimSpace(created.Inner) == "0" {
		return bridgeerrors.ParseError(bridgeerrors.CodeInvalidResponse,
			"voucher import", "engine did not confirm creation", nil)
	}
	return nil
}

// CreateVoucher validates the input and makes at most one creation attempt.
// A transport failure after the request was issued is surfaced as a
// failure even though the engine may have recorded the voucher; the caller
// decides whether to check before retrying.
func (s *Service) CreateVoucher(ctx context.Context, company string, input CreateVoucherInput) (*CreateVoucherData, error) {
	validated, problems := ValidateCreateVoucherInput(input)
	if problems != nil {
		return nil, problems
	}

	body, err := s.fetch(ctx, BuildCreateVoucherRequest(company, validated))
	if err != nil {
		return nil, err
	}
	if err := ParseImportResponse(body); err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{
		"voucher_type": validated.voucherType,
		"party":        validated.partyName,
	}).Info("voucher created")

	return &CreateVoucherData{
		VoucherType: validated.voucherType,
		Date:        validated.date,
		PartyName:   validated.partyName,
		Amount:      validated.amount,
	}, nil
}
