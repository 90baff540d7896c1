package oai

import "encoding/xml"

// Response is the OAI-PMH 2.0 envelope. Exactly one of the verb payloads
// or Error is set.
type Response struct {
	XMLName        xml.Name    `xml:"OAI-PMH"`
	Xmlns          string      `xml:"xmlns,attr"`
	XmlnsXSI       string      `xml:"xmlns:xsi,attr"`
	SchemaLocation string      `xml:"xsi:schemaLocation,attr"`
	ResponseDate   string      `xml:"responseDate"`
	Request        RequestNode `xml:"request"`

	Error               *ErrorNode               `xml:"error,omitempty"`
	Identify            *IdentifyNode            `xml:"Identify,omitempty"`
	ListSets            *ListSetsNode            `xml:"ListSets,omitempty"`
	ListIdentifiers     *ListIdentifiersNode     `xml:"ListIdentifiers,omitempty"`
	ListRecords         *ListRecordsNode         `xml:"ListRecords,omitempty"`
	ListMetadataFormats *ListMetadataFormatsNode `xml:"ListMetadataFormats,omitempty"`
	GetRecord           *GetRecordNode           `xml:"GetRecord,omitempty"`
}

// NewResponse returns an envelope with the protocol namespaces filled in.
func NewResponse(responseDate string, request RequestNode) *Response {
	return &Response{
		Xmlns:          "http://www.openarchives.org/OAI/2.0/",
		XmlnsXSI:       "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://www.openarchives.org/OAI/2.0/ http://www.openarchives.org/OAI/2.0/OAI-PMH.xsd",
		ResponseDate:   responseDate,
		Request:        request,
	}
}

// RequestNode echoes the request back; the element content is the base URL.
type RequestNode struct {
	Value           string `xml:",chardata"`
	Verb            string `xml:"verb,attr,omitempty"`
	Identifier      string `xml:"identifier,attr,omitempty"`
	MetadataPrefix  string `xml:"metadataPrefix,attr,omitempty"`
	Set             string `xml:"set,attr,omitempty"`
	From            string `xml:"from,attr,omitempty"`
	Until           string `xml:"until,attr,omitempty"`
	ResumptionToken string `xml:"resumptionToken,attr,omitempty"`
}

type ErrorNode struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type IdentifyNode struct {
	RepositoryName    string   `xml:"repositoryName"`
	BaseURL           string   `xml:"baseURL"`
	ProtocolVersion   string   `xml:"protocolVersion"`
	AdminEmails       []string `xml:"adminEmail"`
	EarliestDatestamp string   `xml:"earliestDatestamp"`
	DeletedRecord     string   `xml:"deletedRecord"`
	Granularity       string   `xml:"granularity"`
	Compression       []string `xml:"compression"`
}

type ListSetsNode struct {
	Sets            []SetNode  `xml:"set"`
	ResumptionToken *TokenNode `xml:"resumptionToken,omitempty"`
}

type SetNode struct {
	SetSpec string `xml:"setSpec"`
	SetName string `xml:"setName"`
}

type TokenNode struct {
	Value string `xml:",chardata"`
}

type HeaderNode struct {
	Identifier string   `xml:"identifier"`
	Datestamp  string   `xml:"datestamp"`
	SetSpecs   []string `xml:"setSpec"`
}

type MetadataNode struct {
	DC DublinCore `xml:"oai_dc:dc"`
}

type RecordNode struct {
	Header   HeaderNode    `xml:"header"`
	Metadata *MetadataNode `xml:"metadata,omitempty"`
}

type ListIdentifiersNode struct {
	Headers         []HeaderNode `xml:"header"`
	ResumptionToken *TokenNode   `xml:"resumptionToken,omitempty"`
}

type ListRecordsNode struct {
	Records         []RecordNode `xml:"record"`
	ResumptionToken *TokenNode   `xml:"resumptionToken,omitempty"`
}

type MetadataFormatNode struct {
	MetadataPrefix    string `xml:"metadataPrefix"`
	Schema            string `xml:"schema"`
	MetadataNamespace string `xml:"metadataNamespace"`
}

type ListMetadataFormatsNode struct {
	Formats []MetadataFormatNode `xml:"metadataFormat"`
}

type GetRecordNode struct {
	Record RecordNode `xml:"record"`
}
