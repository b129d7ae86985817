package iso20022

import "encoding/xml"

// Shared building blocks. The XML shapes follow the ISO 20022 schemas only as
// far as the generated documents need; marshalling through encoding/xml keeps
// reserved characters escaped and the output well formed.

type partyName struct {
	Nm string `xml:"Nm"`
}

type accountID struct {
	Othr struct {
		ID string `xml:"Id"`
	} `xml:"Id>Othr"`
}

func newAccountID(id string) accountID {
	var a accountID
	a.Othr.ID = id
	return a
}

type agent struct {
	BIC string `xml:"FinInstnId>BIC"`
}

type currencyAmount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

type serviceLevel struct {
	Cd string `xml:"SvcLvl>Cd"`
}

type remittanceInfo struct {
	Ustrd string `xml:"Ustrd"`
}

type statusReason struct {
	Cd string `xml:"Rsn>Cd"`
}

// pain.001.001.03 — Customer Credit Transfer Initiation

type pain001Document struct {
	XMLName xml.Name     `xml:"Document"`
	Xmlns   string       `xml:"xmlns,attr"`
	Initn   pain001Initn `xml:"CstmrCdtTrfInitn"`
}

type pain001Initn struct {
	GrpHdr pain001GroupHeader `xml:"GrpHdr"`
	PmtInf pain001PaymentInfo `xml:"PmtInf"`
}

type pain001GroupHeader struct {
	MsgID    string    `xml:"MsgId"`
	CreDtTm  string    `xml:"CreDtTm"`
	NbOfTxs  string    `xml:"NbOfTxs"`
	CtrlSum  string    `xml:"CtrlSum"`
	InitgPty partyName `xml:"InitgPty"`
}

type pain001PaymentInfo struct {
	PmtInfID    string        `xml:"PmtInfId"`
	PmtMtd      string        `xml:"PmtMtd"`
	NbOfTxs     string        `xml:"NbOfTxs"`
	CtrlSum     string        `xml:"CtrlSum"`
	PmtTpInf    serviceLevel  `xml:"PmtTpInf"`
	ReqdExctnDt string        `xml:"ReqdExctnDt"`
	Dbtr        partyName     `xml:"Dbtr"`
	DbtrAcct    accountID     `xml:"DbtrAcct"`
	DbtrAgt     agent         `xml:"DbtrAgt"`
	CdtTrfTxInf pain001Credit `xml:"CdtTrfTxInf"`
}

type pain001Credit struct {
	PmtID struct {
		InstrID    string `xml:"InstrId"`
		EndToEndID string `xml:"EndToEndId"`
	} `xml:"PmtId"`
	Amt struct {
		InstdAmt currencyAmount `xml:"InstdAmt"`
	} `xml:"Amt"`
	CdtrAgt  agent           `xml:"CdtrAgt"`
	Cdtr     partyName       `xml:"Cdtr"`
	CdtrAcct accountID       `xml:"CdtrAcct"`
	RmtInf   *remittanceInfo `xml:"RmtInf,omitempty"`
}

// pacs.008.001.02 — FI to FI Customer Credit Transfer

type pacs008Document struct {
	XMLName xml.Name    `xml:"Document"`
	Xmlns   string      `xml:"xmlns,attr"`
	CdtTrf  pacs008Body `xml:"FIToFICstmrCdtTrf"`
}

type pacs008Body struct {
	GrpHdr      pacs008GroupHeader `xml:"GrpHdr"`
	CdtTrfTxInf pacs008Credit      `xml:"CdtTrfTxInf"`
}

type pacs008GroupHeader struct {
	MsgID             string         `xml:"MsgId"`
	CreDtTm           string         `xml:"CreDtTm"`
	NbOfTxs           string         `xml:"NbOfTxs"`
	TtlIntrBkSttlmAmt currencyAmount `xml:"TtlIntrBkSttlmAmt"`
	IntrBkSttlmDt     string         `xml:"IntrBkSttlmDt"`
	SttlmMtd          string         `xml:"SttlmInf>SttlmMtd"`
}

type pacs008Credit struct {
	PmtID struct {
		TxID       string `xml:"TxId"`
		EndToEndID string `xml:"EndToEndId"`
		ClrSysRef  string `xml:"ClrSysRef"`
	} `xml:"PmtId"`
	PmtTpInf       serviceLevel    `xml:"PmtTpInf"`
	IntrBkSttlmAmt currencyAmount  `xml:"IntrBkSttlmAmt"`
	ChrgBr         string          `xml:"ChrgBr"`
	DbtrAgt        agent           `xml:"DbtrAgt"`
	Dbtr           partyName       `xml:"Dbtr"`
	DbtrAcct       accountID       `xml:"DbtrAcct"`
	CdtrAgt        agent           `xml:"CdtrAgt"`
	Cdtr           partyName       `xml:"Cdtr"`
	CdtrAcct       accountID       `xml:"CdtrAcct"`
	RmtInf         *remittanceInfo `xml:"RmtInf,omitempty"`
}

// pacs.002.001.03 — FI to FI Payment Status Report

type pacs002Document struct {
	XMLName xml.Name    `xml:"Document"`
	Xmlns   string      `xml:"xmlns,attr"`
	StsRpt  pacs002Body `xml:"FIToFIPmtStsRpt"`
}

type pacs002Body struct {
	GrpHdr struct {
		MsgID   string `xml:"MsgId"`
		CreDtTm string `xml:"CreDtTm"`
	} `xml:"GrpHdr"`
	OrgnlGrpInfAndSts pacs002GroupInfo   `xml:"OrgnlGrpInfAndSts"`
	TxInfAndSts       pacs002Transaction `xml:"TxInfAndSts"`
}

type pacs002GroupInfo struct {
	OrgnlMsgID   string        `xml:"OrgnlMsgId"`
	OrgnlMsgNmID string        `xml:"OrgnlMsgNmId"`
	OrgnlCreDtTm string        `xml:"OrgnlCreDtTm"`
	GrpSts       string        `xml:"GrpSts"`
	StsRsnInf    *statusReason `xml:"StsRsnInf,omitempty"`
}

type pacs002Transaction struct {
	OrgnlInstrID    string        `xml:"OrgnlInstrId"`
	OrgnlEndToEndID string        `xml:"OrgnlEndToEndId"`
	TxSts           string        `xml:"TxSts"`
	StsRsnInf       *statusReason `xml:"StsRsnInf,omitempty"`
	OrgnlTxRef      struct {
		Amt struct {
			InstdAmt currencyAmount `xml:"InstdAmt"`
		} `xml:"Amt"`
		Dbtr     partyName `xml:"Dbtr"`
		DbtrAcct accountID `xml:"DbtrAcct"`
		Cdtr     partyName `xml:"Cdtr"`
		CdtrAcct accountID `xml:"CdtrAcct"`
	} `xml:"OrgnlTxRef"`
}

// camt.054.001.02 — Bank to Customer Debit/Credit Notification

type camt054Document struct {
	XMLName xml.Name    `xml:"Document"`
	Xmlns   string      `xml:"xmlns,attr"`
	Ntfctn  camt054Body `xml:"BkToCstmrDbtCdtNtfctn"`
}

type camt054Body struct {
	GrpHdr struct {
		MsgID   string `xml:"MsgId"`
		CreDtTm string `xml:"CreDtTm"`
	} `xml:"GrpHdr"`
	Ntfctn camt054Notification `xml:"Ntfctn"`
}

type camt054Notification struct {
	ID      string `xml:"Id"`
	CreDtTm string `xml:"CreDtTm"`
	Acct    struct {
		Othr struct {
			ID string `xml:"Id"`
		} `xml:"Id>Othr"`
		Ownr partyName `xml:"Ownr"`
	} `xml:"Acct"`
	Ntry camt054Entry `xml:"Ntry"`
}

type camt054Entry struct {
	Amt       currencyAmount `xml:"Amt"`
	CdtDbtInd string         `xml:"CdtDbtInd"`
	Sts       string         `xml:"Sts"`
	BookgDt   string         `xml:"BookgDt>Dt"`
	ValDt     string         `xml:"ValDt>Dt"`
	NtryDtls  struct {
		TxDtls camt054TxDetails `xml:"TxDtls"`
	} `xml:"NtryDtls"`
}

type camt054TxDetails struct {
	Refs struct {
		EndToEndID string `xml:"EndToEndId"`
	} `xml:"Refs"`
	Amt       currencyAmount `xml:"Amt"`
	CdtDbtInd string         `xml:"CdtDbtInd"`
	RltdPties struct {
		Dbtr     partyName `xml:"Dbtr"`
		DbtrAcct accountID `xml:"DbtrAcct"`
		Cdtr     partyName `xml:"Cdtr"`
		CdtrAcct accountID `xml:"CdtrAcct"`
	} `xml:"RltdPties"`
	RmtInf *remittanceInfo `xml:"RmtInf,omitempty"`
}
