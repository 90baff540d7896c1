package oai

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/oaipmh/internal/domain"
)

func TestNewDublinCore(t *testing.T) {
	rec := &domain.Record{
		DocID:        "0034-8910-rsp-48-2-0347",
		PubDate:      time.Date(2014, 4, 1, 0, 0, 0, 0, time.UTC),
		Language:     "pt",
		Publisher:    "Faculdade de Saúde Pública",
		Type:         "research-article",
		JournalAcron: "rsp",
		Creators: []domain.Creator{
			{Surname: "Silva", GivenName: "João"},
			{Surname: "Instituto Butantan"},
		},
		Titles:       []domain.Title{{Lang: "pt", Title: "Um título"}},
		Descriptions: []domain.Description{{Lang: "en", Description: "An abstract"}},
		Keywords:     []domain.Keyword{{Lang: "pt", Kwd: "Saúde"}},
	}

	dc := NewDublinCore(rec, "https://www.scielo.br")

	assert.Equal(t, []DCElement{{Lang: "pt", Value: "Um título"}}, dc.Titles)
	assert.Equal(t, []DCElement{
		{Value: "Silva, João"},
		{Value: "Instituto Butantan"},
	}, dc.Creators)
	assert.Equal(t, []DCElement{{Lang: "pt", Value: "Saúde"}}, dc.Subjects)
	assert.Equal(t, []DCElement{{Lang: "en", Value: "An abstract"}}, dc.Descriptions)
	assert.Equal(t, []DCElement{{Value: "Faculdade de Saúde Pública"}}, dc.Publishers)
	assert.Equal(t, []DCElement{{Value: "2014-04-01"}}, dc.Dates)
	assert.Equal(t, []DCElement{{Value: "info:eu-repo/semantics/article"}}, dc.Types)
	assert.Equal(t, []DCElement{{Value: "text/html"}}, dc.Formats)
	assert.Equal(t, []DCElement{
		{Value: "https://www.scielo.br/j/rsp/a/0034-8910-rsp-48-2-0347"},
	}, dc.Identifiers)
	assert.Equal(t, []DCElement{{Value: "pt"}}, dc.Languages)
	assert.Equal(t, []DCElement{{Value: "info:eu-repo/semantics/openAccess"}}, dc.Rights)
}

func TestNewDublinCoreOmitsEmptyFields(t *testing.T) {
	dc := NewDublinCore(&domain.Record{DocID: "doc-1"}, "https://www.scielo.br")

	assert.Empty(t, dc.Titles)
	assert.Empty(t, dc.Publishers)
	assert.Empty(t, dc.Dates)
	assert.Empty(t, dc.Languages)
	// Type, format, identifier and rights are always present.
	assert.Equal(t, []DCElement{{Value: "info:eu-repo/semantics/other"}}, dc.Types)
	assert.Len(t, dc.Identifiers, 1)
	assert.Len(t, dc.Rights, 1)
}

func TestPublicationTypeMapping(t *testing.T) {
	cases := map[string]string{
		"research-article":    "info:eu-repo/semantics/article",
		"review-article":      "info:eu-repo/semantics/article",
		"rapid-communication": "info:eu-repo/semantics/article",
		"article-commentary":  "info:eu-repo/semantics/annotation",
		"book-review":         "info:eu-repo/semantics/review",
		"brief-report":        "info:eu-repo/semantics/report",
		"case-report":         "info:eu-repo/semantics/report",
		"editorial":           "info:eu-repo/semantics/other",
		"":                    "info:eu-repo/semantics/other",
	}
	for upstream, want := range cases {
		assert.Equal(t, want, publicationType(upstream), upstream)
	}
}

func TestHTMLURLTrimsTrailingSlash(t *testing.T) {
	rec := &domain.Record{DocID: "doc-1", JournalAcron: "rsp"}

	assert.Equal(t, "https://www.scielo.br/j/rsp/a/doc-1", htmlURL("https://www.scielo.br/", rec))
}

func TestDublinCoreMarshalsLangAttribute(t *testing.T) {
	dc := NewDublinCore(&domain.Record{
		DocID:        "doc-1",
		JournalAcron: "rsp",
		Titles:       []domain.Title{{Lang: "pt", Title: "Um título"}},
	}, "https://www.scielo.br")

	out, err := xml.Marshal(MetadataNode{DC: dc})
	require.NoError(t, err)

	assert.Contains(t, string(out), `<dc:title xml:lang="pt">Um título</dc:title>`)
	assert.Contains(t, string(out), `xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/"`)
}
