// Package ubltest renders small SUNAT UBL 2.1 invoices for tests.
package ubltest

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"
)

// Invoice holds the fields rendered into the fixture. Empty optional fields
// drop the corresponding element entirely.
type Invoice struct {
	ID           string
	IssueDate    string
	TypeCode     string // "" renders no InvoiceTypeCode element
	SupplierRUC  string
	SupplierName string
	CustomerDoc  string
	CustomerName string
	Payable      string // "" renders no LegalMonetaryTotal

	// Detraction block. NoTerm drops the PaymentTerms element.
	NoTerm           bool
	TermID           string // defaults to "Detraccion"
	DetractionCode   string
	DetractionAmount string
	Account          string // "" renders no PaymentMeans
}

// Valid returns a supplier-mode invoice that passes the generic rule set.
func Valid() Invoice {
	return Invoice{
		ID:               "F001-123",
		IssueDate:        "2025-03-14",
		TypeCode:         "01",
		SupplierRUC:      "20123456789",
		SupplierName:     "Proveedor Andino S.A.C.",
		CustomerDoc:      "20987654321",
		CustomerName:     "Compañía Cliente S.A.",
		Payable:          "1000.00",
		DetractionCode:   "037",
		DetractionAmount: "50.00",
		Account:          "00-123-456789-01",
	}
}

const invoiceTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
         xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
         xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:UBLVersionID>2.1</cbc:UBLVersionID>
  <cbc:ID>{{.ID}}</cbc:ID>
  <cbc:IssueDate>{{.IssueDate}}</cbc:IssueDate>
{{- if .TypeCode}}
  <cbc:InvoiceTypeCode listID="0101">{{.TypeCode}}</cbc:InvoiceTypeCode>
{{- end}}
  <cac:AccountingSupplierParty>
    <cac:Party>
      <cac:PartyIdentification><cbc:ID schemeID="6">{{.SupplierRUC}}</cbc:ID></cac:PartyIdentification>
      <cac:PartyLegalEntity><cbc:RegistrationName>{{.SupplierName}}</cbc:RegistrationName></cac:PartyLegalEntity>
    </cac:Party>
  </cac:AccountingSupplierParty>
  <cac:AccountingCustomerParty>
    <cac:Party>
      <cac:PartyIdentification><cbc:ID schemeID="6">{{.CustomerDoc}}</cbc:ID></cac:PartyIdentification>
      <cac:PartyLegalEntity><cbc:RegistrationName>{{.CustomerName}}</cbc:RegistrationName></cac:PartyLegalEntity>
    </cac:Party>
  </cac:AccountingCustomerParty>
{{- if .Account}}
  <cac:PaymentMeans>
    <cbc:ID>Detraccion</cbc:ID>
    <cbc:PaymentMeansCode>001</cbc:PaymentMeansCode>
    <cac:PayeeFinancialAccount><cbc:ID>{{.Account}}</cbc:ID></cac:PayeeFinancialAccount>
  </cac:PaymentMeans>
{{- end}}
  <cac:PaymentTerms>
    <cbc:ID>FormaPago</cbc:ID>
    <cbc:PaymentMeansID>Contado</cbc:PaymentMeansID>
  </cac:PaymentTerms>
{{- if not .NoTerm}}
  <cac:PaymentTerms>
    <cbc:ID>{{.TermID}}</cbc:ID>
    <cbc:PaymentMeansID>{{.DetractionCode}}</cbc:PaymentMeansID>
    <cbc:PaymentPercent>12</cbc:PaymentPercent>
    <cbc:Amount currencyID="PEN">{{.DetractionAmount}}</cbc:Amount>
  </cac:PaymentTerms>
{{- end}}
{{- if .Payable}}
  <cac:LegalMonetaryTotal>
    <cbc:PayableAmount currencyID="PEN">{{.Payable}}</cbc:PayableAmount>
  </cac:LegalMonetaryTotal>
{{- end}}
</Invoice>
`

var tmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// Render returns the XML document for inv.
func Render(inv Invoice) []byte {
	if inv.TermID == "" {
		inv.TermID = "Detraccion"
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, inv); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Write renders inv into dir/name and returns the full path.
func Write(dir, name string, inv Invoice) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, Render(inv), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
