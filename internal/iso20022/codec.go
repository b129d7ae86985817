package iso20022

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/iso20022-payment-hub/internal/domain/payment"
)

const (
	pain001Namespace = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"
	pacs008Namespace = "urn:iso:std:iso:20022:tech:xsd:pacs.008.001.02"
	pacs002Namespace = "urn:iso:std:iso:20022:tech:xsd:pacs.002.001.03"
	camt054Namespace = "urn:iso:std:iso:20022:tech:xsd:camt.054.001.02"

	// rejectionReasonCode is the fixed status reason emitted on rejected
	// status reports (AC01: incorrect account number)
	rejectionReasonCode = "AC01"
)

// Outcome is the reported result in a payment status report
type Outcome string

const (
	OutcomeAccepted Outcome = "ACCP"
	OutcomeRejected Outcome = "RJCT"
)

// EncodingError indicates malformed input reaching the codec. The rail rule
// engine runs before message generation, so this is a defensive boundary that
// should be unreachable in the normal creation flow.
type EncodingError struct {
	Field   string
	Message string
}

func (e EncodingError) Error() string {
	return fmt.Sprintf("encoding error on %s: %s", e.Field, e.Message)
}

// Documents bundles the four rendered messages for one payment. All four
// share the payment's identifier set.
type Documents struct {
	Pain001 string `json:"pain001"`
	Pacs008 string `json:"pacs008"`
	Pacs002 string `json:"pacs002"`
	Camt054 string `json:"camt054"`
}

// ByType returns the rendered document for the given message type
func (d Documents) ByType(t MessageType) (string, bool) {
	switch t {
	case MessageTypePain001:
		return d.Pain001, true
	case MessageTypePacs008:
		return d.Pacs008, true
	case MessageTypePacs002:
		return d.Pacs002, true
	case MessageTypeCamt054:
		return d.Camt054, true
	}
	return "", false
}

// checkInput enforces the codec contract: a supported rail, a 3-letter
// currency code and a non-negative amount.
func checkInput(p *payment.Payment) (RoutingProfile, error) {
	routing, ok := RoutingFor(p.Rail)
	if !ok {
		return RoutingProfile{}, EncodingError{Field: "rail", Message: fmt.Sprintf("unsupported payment rail %q", p.Rail)}
	}
	if len(p.Currency) != 3 {
		return RoutingProfile{}, EncodingError{Field: "currency", Message: fmt.Sprintf("currency must be a 3-letter code, got %q", p.Currency)}
	}
	if p.Amount.IsNegative() {
		return RoutingProfile{}, EncodingError{Field: "amount", Message: "amount must not be negative"}
	}
	return routing, nil
}

// formatTimestamp renders an ISO 8601 timestamp truncated to whole seconds
// with an explicit UTC marker
func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format("2006-01-02T15:04:05Z")
}

// formatDate renders the date portion of a timestamp
func formatDate(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

// formatAmount renders a monetary amount with exactly two fractional digits,
// a plain decimal point and no grouping separators
func formatAmount(p *payment.Payment) string {
	return p.Amount.StringFixed(2)
}

func optionalRemittance(p *payment.Payment) *remittanceInfo {
	if p.Remittance == "" {
		return nil
	}
	return &remittanceInfo{Ustrd: p.Remittance}
}

func marshal(doc interface{}) (string, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", EncodingError{Field: "document", Message: err.Error()}
	}
	return xml.Header + string(out), nil
}

// RenderCreditTransferInitiation renders the customer-originated pain.001
// instruction for the payment at the given timestamp.
func RenderCreditTransferInitiation(p *payment.Payment, ts time.Time) (string, error) {
	routing, err := checkInput(p)
	if err != nil {
		return "", err
	}

	ids := p.Identifiers
	amount := formatAmount(p)

	doc := pain001Document{
		Xmlns: pain001Namespace,
		Initn: pain001Initn{
			GrpHdr: pain001GroupHeader{
				MsgID:    ids.MessageID,
				CreDtTm:  formatTimestamp(ts),
				NbOfTxs:  "1",
				CtrlSum:  amount,
				InitgPty: partyName{Nm: p.DebtorName},
			},
			PmtInf: pain001PaymentInfo{
				PmtInfID:    ids.PaymentInfoID,
				PmtMtd:      "TRF",
				NbOfTxs:     "1",
				CtrlSum:     amount,
				PmtTpInf:    serviceLevel{Cd: routing.ServiceLevel},
				ReqdExctnDt: formatDate(ts),
				Dbtr:        partyName{Nm: p.DebtorName},
				DbtrAcct:    newAccountID(p.DebtorAccount),
				DbtrAgt:     agent{BIC: routing.BIC},
			},
		},
	}

	credit := &doc.Initn.PmtInf.CdtTrfTxInf
	credit.PmtID.InstrID = ids.InstructionID
	credit.PmtID.EndToEndID = ids.EndToEndID
	credit.Amt.InstdAmt = currencyAmount{Ccy: p.Currency, Value: amount}
	credit.CdtrAgt = agent{BIC: routing.BIC}
	credit.Cdtr = partyName{Nm: p.CreditorName}
	credit.CdtrAcct = newAccountID(p.CreditorAccount)
	credit.RmtInf = optionalRemittance(p)

	return marshal(doc)
}

// RenderInterbankCreditTransfer renders the bank-to-bank pacs.008 instruction
func RenderInterbankCreditTransfer(p *payment.Payment, ts time.Time) (string, error) {
	routing, err := checkInput(p)
	if err != nil {
		return "", err
	}

	ids := p.Identifiers
	amount := formatAmount(p)

	doc := pacs008Document{
		Xmlns: pacs008Namespace,
		CdtTrf: pacs008Body{
			GrpHdr: pacs008GroupHeader{
				MsgID:             ids.MessageID,
				CreDtTm:           formatTimestamp(ts),
				NbOfTxs:           "1",
				TtlIntrBkSttlmAmt: currencyAmount{Ccy: p.Currency, Value: amount},
				IntrBkSttlmDt:     formatDate(ts),
				SttlmMtd:          "CLRG",
			},
		},
	}

	credit := &doc.CdtTrf.CdtTrfTxInf
	credit.PmtID.TxID = ids.InstructionID
	credit.PmtID.EndToEndID = ids.EndToEndID
	credit.PmtID.ClrSysRef = routing.ClearingSystemRef
	credit.PmtTpInf = serviceLevel{Cd: routing.ServiceLevel}
	credit.IntrBkSttlmAmt = currencyAmount{Ccy: p.Currency, Value: amount}
	credit.ChrgBr = "SLEV"
	credit.DbtrAgt = agent{BIC: routing.BIC}
	credit.Dbtr = partyName{Nm: p.DebtorName}
	credit.DbtrAcct = newAccountID(p.DebtorAccount)
	credit.CdtrAgt = agent{BIC: routing.BIC}
	credit.Cdtr = partyName{Nm: p.CreditorName}
	credit.CdtrAcct = newAccountID(p.CreditorAccount)
	credit.RmtInf = optionalRemittance(p)

	return marshal(doc)
}

// RenderStatusReport renders the pacs.002 status report referencing the
// payment's original instruction. Rejected outcomes carry a fixed status
// reason code.
func RenderStatusReport(p *payment.Payment, outcome Outcome, ts time.Time) (string, error) {
	if _, err := checkInput(p); err != nil {
		return "", err
	}
	if outcome != OutcomeAccepted && outcome != OutcomeRejected {
		return "", EncodingError{Field: "outcome", Message: fmt.Sprintf("unknown status outcome %q", outcome)}
	}

	ids := p.Identifiers
	amount := formatAmount(p)

	var reason *statusReason
	if outcome == OutcomeRejected {
		reason = &statusReason{Cd: rejectionReasonCode}
	}

	doc := pacs002Document{Xmlns: pacs002Namespace}
	doc.StsRpt.GrpHdr.MsgID = ids.MessageID
	doc.StsRpt.GrpHdr.CreDtTm = formatTimestamp(ts)
	doc.StsRpt.OrgnlGrpInfAndSts = pacs002GroupInfo{
		OrgnlMsgID:   ids.MessageID,
		OrgnlMsgNmID: "pacs.008.001.02",
		OrgnlCreDtTm: formatTimestamp(ts),
		GrpSts:       string(outcome),
		StsRsnInf:    reason,
	}

	tx := &doc.StsRpt.TxInfAndSts
	tx.OrgnlInstrID = ids.InstructionID
	tx.OrgnlEndToEndID = ids.EndToEndID
	tx.TxSts = string(outcome)
	tx.StsRsnInf = reason
	tx.OrgnlTxRef.Amt.InstdAmt = currencyAmount{Ccy: p.Currency, Value: amount}
	tx.OrgnlTxRef.Dbtr = partyName{Nm: p.DebtorName}
	tx.OrgnlTxRef.DbtrAcct = newAccountID(p.DebtorAccount)
	tx.OrgnlTxRef.Cdtr = partyName{Nm: p.CreditorName}
	tx.OrgnlTxRef.CdtrAcct = newAccountID(p.CreditorAccount)

	return marshal(doc)
}

// RenderDebitCreditNotification renders the camt.054 booking confirmation
// for the debtor's account
func RenderDebitCreditNotification(p *payment.Payment, ts time.Time) (string, error) {
	if _, err := checkInput(p); err != nil {
		return "", err
	}

	ids := p.Identifiers
	amount := formatAmount(p)

	doc := camt054Document{Xmlns: camt054Namespace}
	doc.Ntfctn.GrpHdr.MsgID = ids.MessageID
	doc.Ntfctn.GrpHdr.CreDtTm = formatTimestamp(ts)

	ntfctn := &doc.Ntfctn.Ntfctn
	ntfctn.ID = "NTFCTN-" + ids.PaymentInfoID
	ntfctn.CreDtTm = formatTimestamp(ts)
	ntfctn.Acct.Othr.ID = p.DebtorAccount
	ntfctn.Acct.Ownr = partyName{Nm: p.DebtorName}

	entry := &ntfctn.Ntry
	entry.Amt = currencyAmount{Ccy: p.Currency, Value: amount}
	entry.CdtDbtInd = "DBIT"
	entry.Sts = "BOOK"
	entry.BookgDt = formatDate(ts)
	entry.ValDt = formatDate(ts)

	details := &entry.NtryDtls.TxDtls
	details.Refs.EndToEndID = ids.EndToEndID
	details.Amt = currencyAmount{Ccy: p.Currency, Value: amount}
	details.CdtDbtInd = "DBIT"
	details.RltdPties.Dbtr = partyName{Nm: p.DebtorName}
	details.RltdPties.DbtrAcct = newAccountID(p.DebtorAccount)
	details.RltdPties.Cdtr = partyName{Nm: p.CreditorName}
	details.RltdPties.CdtrAcct = newAccountID(p.CreditorAccount)
	details.RmtInf = optionalRemittance(p)

	return marshal(doc)
}

// RenderAll renders the four message types for one payment. The payment's
// stored identifier set is threaded through every document so the status
// report and notification always reference the original instruction.
func RenderAll(p *payment.Payment, ts time.Time) (Documents, error) {
	pain001, err := RenderCreditTransferInitiation(p, ts)
	if err != nil {
		return Documents{}, err
	}
	pacs008, err := RenderInterbankCreditTransfer(p, ts)
	if err != nil {
		return Documents{}, err
	}
	pacs002, err := RenderStatusReport(p, OutcomeAccepted, ts)
	if err != nil {
		return Documents{}, err
	}
	camt054, err := RenderDebitCreditNotification(p, ts)
	if err != nil {
		return Documents{}, err
	}

	return Documents{
		Pain001: pain001,
		Pacs008: pacs008,
		Pacs002: pacs002,
		Camt054: camt054,
	}, nil
}
