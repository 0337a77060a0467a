package reports

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCreateVoucher(t *testing.T) {
	engine := &fakeEngine{body: "<ENVELOPE><CREATED>1</CREATED><ALTERED>0</ALTERED></ENVELOPE>"}

	data, err := NewService(engine).CreateVoucher(context.Background(), "Acme Traders", CreateVoucherInput{
		VoucherType: "sales",
		Date:        "2026-04-01",
		PartyName:   "Rajesh Traders",
		Amount:      "1180",
		LedgerName:  "Sales Account",
	})
	if err != nil {
		t.Fatalf("CreateVoucher failed: %v", err)
	}
	if data.VoucherType != "Sales" || data.Date != "20260401" {
		t.Errorf("data = %+v", data)
	}
	if len(engine.payloads) != 1 {
		t.Errorf("issued %d requests, want exactly one creation attempt", len(engine.payloads))
	}
}

func TestParseImportResponse(t *testing.T) {
	if err := ParseImportResponse("<ENVELOPE><CREATED>1</CREATED></ENVELOPE>"); err != nil {
		t.Errorf("confirmed creation rejected: %v", err)
	}
	if err := ParseImportResponse("<ENVELOPE><CREATED>0</CREATED></ENVELOPE>"); err == nil {
		t.Error("zero-created acknowledgement accepted")
	}
	if err := ParseImportResponse("<ENVELOPE></ENVELOPE>"); err == nil {
		t.Error("empty acknowledgement accepted")
	}
	if err := ParseImportResponse("<ENVELOPE><LINEERROR>Ledger does not exist</LINEERROR></ENVELOPE>"); err == nil {
		t.Error("LINEERROR acknowledgement accepted")
	}
}

func TestValidateCreateVoucherInputCollectsAllProblems(t *testing.T) {
	_, problems := ValidateCreateVoucherInput(CreateVoucherInput{
		VoucherType: "invoice", // not an allowed type
		Date:        "not a date",
		PartyName:   "",
		Amount:      "-5",
	})

	if problems == nil {
		t.Fatal("invalid input passed validation")
	}
	// Bad type, bad date, missing party, missing ledger, negative amount:
	// all five reported together, never just the first
	if got := len(problems.Errors); got != 5 {
		t.Fatalf("reported %d problems, want 5:\n%s", got, problems.Error())
	}
}

func TestValidateCreateVoucherInputAccepted(t *testing.T) {
	valid, problems := ValidateCreateVoucherInput(CreateVoucherInput{
		VoucherType: "RECEIPT", // type names are case-insensitive
		Date:        "2026-04-01",
		PartyName:   "  Rajesh Traders  ",
		Amount:      "1,50,000.00",
		LedgerName:  "HDFC Bank",
		Narration:   "against INV-042",
	})
	if problems != nil {
		t.Fatalf("valid input rejected: %s", problems.Error())
	}

	if valid.voucherType != "Receipt" {
		t.Errorf("voucherType = %q, want canonical Receipt", valid.voucherType)
	}
	if valid.date != "20260401" {
		t.Errorf("date = %q, want engine form", valid.date)
	}
	if valid.partyName != "Rajesh Traders" {
		t.Errorf("partyName = %q, want trimmed", valid.partyName)
	}
	if !valid.amount.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("amount = %s, want grouping separators stripped", valid.amount)
	}
}

func TestBuildCreateVoucherRequestDebitSides(t *testing.T) {
	receipt, problems := ValidateCreateVoucherInput(CreateVoucherInput{
		VoucherType: "receipt",
		Date:        "2026-04-01",
		PartyName:   "Rajesh Traders",
		Amount:      "5000",
		LedgerName:  "HDFC Bank",
	})
	if problems != nil {
		t.Fatalf("receipt input rejected: %s", problems.Error())
	}

	payload := BuildCreateVoucherRequest("Acme Traders", receipt)
	if !payloadContains(payload, "<TALLYREQUEST>Import</TALLYREQUEST>") {
		t.Error("creation must go through an import envelope")
	}
	if !payloadContains(payload, `<VOUCHER VCHTYPE="Receipt" ACTION="Create">`) {
		t.Errorf("voucher head wrong:\n%s", payload)
	}
	// A receipt credits the party and debits the bank
	if !payloadContains(payload, "<LEDGERNAME>Rajesh Traders</LEDGERNAME><ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE><AMOUNT>5000.00</AMOUNT>") {
		t.Errorf("party side wrong:\n%s", payload)
	}
	if !payloadContains(payload, "<LEDGERNAME>HDFC Bank</LEDGERNAME><ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE><AMOUNT>-5000.00</AMOUNT>") {
		t.Errorf("bank side wrong:\n%s", payload)
	}

	payment, problems := ValidateCreateVoucherInput(CreateVoucherInput{
		VoucherType: "payment",
		Date:        "2026-04-01",
		PartyName:   "Priya & Sons",
		Amount:      "5000",
		LedgerName:  "HDFC Bank",
	})
	if problems != nil {
		t.Fatalf("payment input rejected: %s", problems.Error())
	}

	payload = BuildCreateVoucherRequest("", payment)
	// A payment debits the party; the ampersand is escaped on the wire
	if !payloadContains(payload, "<LEDGERNAME>Priya &amp; Sons</LEDGERNAME><ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE><AMOUNT>-5000.00</AMOUNT>") {
		t.Errorf("payment party side wrong:\n%s", payload)
	}
	if payloadContains(payload, "SVCURRENTCOMPANY") {
		t.Error("empty company must not emit a company selection")
	}
}
