package oai

import (
	"fmt"
	"strings"

	"github.com/scieloorg/oaipmh/internal/domain"
)

const euRepoSemantics = "info:eu-repo/semantics/"

// publicationTypes maps upstream article types onto the eu-repo semantics
// vocabulary. Anything unknown becomes "other".
var publicationTypes = map[string]string{
	"research-article":    "article",
	"review-article":      "article",
	"rapid-communication": "article",
	"article-commentary":  "annotation",
	"book-review":         "review",
	"brief-report":        "report",
	"case-report":         "report",
}

// DublinCore is the oai_dc:dc payload. Struct field order is emission
// order, fixed by the oai_dc schema convention.
type DublinCore struct {
	XmlnsOAIDC     string `xml:"xmlns:oai_dc,attr"`
	XmlnsDC        string `xml:"xmlns:dc,attr"`
	XmlnsXSI       string `xml:"xmlns:xsi,attr"`
	SchemaLocation string `xml:"xsi:schemaLocation,attr"`

	Titles       []DCElement `xml:"dc:title"`
	Creators     []DCElement `xml:"dc:creator"`
	Subjects     []DCElement `xml:"dc:subject"`
	Descriptions []DCElement `xml:"dc:description"`
	Publishers   []DCElement `xml:"dc:publisher"`
	Contributors []DCElement `xml:"dc:contributor"`
	Dates        []DCElement `xml:"dc:date"`
	Types        []DCElement `xml:"dc:type"`
	Formats      []DCElement `xml:"dc:format"`
	Identifiers  []DCElement `xml:"dc:identifier"`
	Sources      []DCElement `xml:"dc:source"`
	Languages    []DCElement `xml:"dc:language"`
	Relations    []DCElement `xml:"dc:relation"`
	Coverages    []DCElement `xml:"dc:coverage"`
	Rights       []DCElement `xml:"dc:rights"`
}

// DCElement is one Dublin Core field value; Lang, when set, becomes an
// xml:lang attribute.
type DCElement struct {
	Lang  string `xml:"xml:lang,attr,omitempty"`
	Value string `xml:",chardata"`
}

// NewDublinCore maps a stored record onto oai_dc. siteBaseURL roots the
// canonical HTML identifier built from the journal acronym and doc id.
func NewDublinCore(rec *domain.Record, siteBaseURL string) DublinCore {
	dc := DublinCore{
		XmlnsOAIDC: "http://www.openarchives.org/OAI/2.0/oai_dc/",
		XmlnsDC:    "http://purl.org/dc/elements/1.1/",
		XmlnsXSI:   "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://www.openarchives.org/OAI/2.0/oai_dc/ " +
			"http://www.openarchives.org/OAI/2.0/oai_dc.xsd",
	}

	for _, t := range rec.Titles {
		dc.Titles = append(dc.Titles, DCElement{Lang: t.Lang, Value: t.Title})
	}
	for _, c := range rec.Creators {
		dc.Creators = append(dc.Creators, DCElement{Value: creatorName(c)})
	}
	for _, k := range rec.Keywords {
		dc.Subjects = append(dc.Subjects, DCElement{Lang: k.Lang, Value: k.Kwd})
	}
	for _, d := range rec.Descriptions {
		dc.Descriptions = append(dc.Descriptions, DCElement{Lang: d.Lang, Value: d.Description})
	}
	if rec.Publisher != "" {
		dc.Publishers = append(dc.Publishers, DCElement{Value: rec.Publisher})
	}
	if !rec.PubDate.IsZero() {
		dc.Dates = append(dc.Dates, DCElement{Value: rec.PubDate.Format("2006-01-02")})
	}
	dc.Types = append(dc.Types, DCElement{Value: publicationType(rec.Type)})
	dc.Formats = append(dc.Formats, DCElement{Value: "text/html"})
	dc.Identifiers = append(dc.Identifiers, DCElement{Value: htmlURL(siteBaseURL, rec)})
	if rec.Language != "" {
		dc.Languages = append(dc.Languages, DCElement{Value: rec.Language})
	}
	dc.Rights = append(dc.Rights, DCElement{Value: euRepoSemantics + "openAccess"})

	return dc
}

func creatorName(c domain.Creator) string {
	if c.GivenName == "" {
		return c.Surname
	}
	return c.Surname + ", " + c.GivenName
}

func publicationType(upstream string) string {
	if mapped, ok := publicationTypes[upstream]; ok {
		return euRepoSemantics + mapped
	}
	return euRepoSemantics + "other"
}

func htmlURL(siteBaseURL string, rec *domain.Record) string {
	return fmt.Sprintf("%s/j/%s/a/%s",
		strings.TrimRight(siteBaseURL, "/"), rec.JournalAcron, rec.DocID)
}
