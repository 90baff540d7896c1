package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/oaipmh/internal/domain"
	"github.com/scieloorg/oaipmh/internal/oai"
)

type stubStore struct {
	records []*domain.Record
}

func (s *stubStore) Add(ctx context.Context, rec *domain.Record) error    { return nil }
func (s *stubStore) Upsert(ctx context.Context, rec *domain.Record) error { return nil }
func (s *stubStore) Delete(ctx context.Context, docID string) error       { return nil }

func (s *stubStore) Filter(ctx context.Context, q domain.Query) ([]*domain.Record, error) {
	return s.records, nil
}

func (s *stubStore) Fetch(ctx context.Context, docID string) (*domain.Record, error) {
	for _, rec := range s.records {
		if rec.DocID == docID {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubStore) Sets(ctx context.Context) ([]domain.Set, error) { return nil, nil }

func (s *stubStore) EarliestDatestamp(ctx context.Context) (*time.Time, error) { return nil, nil }

func newTestRouter(records ...*domain.Record) http.Handler {
	server := oai.NewServer(&stubStore{records: records}, oai.RepositoryInfo{
		Name:        "SciELO",
		BaseURL:     "https://oai.scielo.org/",
		AdminEmails: []string{"scielo-dev@googlegroups.com"},
		SiteBaseURL: "https://www.scielo.br",
	})
	return NewRouter(NewHandler(server, "https://oai.scielo.org/"))
}

func get(t *testing.T, router http.Handler, query string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+query, nil))
	return rec
}

func TestServeOAIIdentify(t *testing.T) {
	resp := get(t, newTestRouter(), "?verb=Identify")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/xml; charset=utf-8", resp.Header().Get("Content-Type"))

	body := resp.Body.String()
	assert.Contains(t, body, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, body, `<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/"`)
	assert.Contains(t, body, `<request verb="Identify">https://oai.scielo.org/</request>`)
	assert.Contains(t, body, "<repositoryName>SciELO</repositoryName>")
	assert.Contains(t, body, "<protocolVersion>2.0</protocolVersion>")
}

func TestServeOAIBadVerb(t *testing.T) {
	resp := get(t, newTestRouter(), "?verb=Destroy")

	// Protocol faults ride inside a 200 response.
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `<error code="badVerb">`)
}

func TestServeOAIMissingVerb(t *testing.T) {
	resp := get(t, newTestRouter(), "")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `<error code="badVerb">`)
}

func TestServeOAIGetRecord(t *testing.T) {
	router := newTestRouter(&domain.Record{
		DocID:        "doc-1",
		Timestamp:    time.Date(2018, 8, 5, 23, 3, 44, 0, time.UTC),
		JournalAcron: "rsp",
		Titles:       []domain.Title{{Lang: "pt", Title: "Um título"}},
	})

	resp := get(t, router, "?verb=GetRecord&identifier=oai:scielo.org:doc-1&metadataPrefix=oai_dc")

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "<identifier>oai:scielo.org:doc-1</identifier>")
	assert.Contains(t, body, "<datestamp>2018-08-05T23:03:44Z</datestamp>")
	assert.Contains(t, body, `<dc:title xml:lang="pt">Um título</dc:title>`)
}

func TestServeOAIGetRecordUnknownIdentifier(t *testing.T) {
	resp := get(t, newTestRouter(), "?verb=GetRecord&identifier=oai:scielo.org:missing&metadataPrefix=oai_dc")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `<error code="idDoesNotExist">`)
}

func TestServeOAIAcceptsPostForms(t *testing.T) {
	form := url.Values{"verb": {"Identify"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp := httptest.NewRecorder()
	newTestRouter().ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "<repositoryName>SciELO</repositoryName>")
}

func TestRouterRejectsOtherMethods(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/?verb=Identify", nil)
	resp := httptest.NewRecorder()
	newTestRouter().ServeHTTP(resp, req)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestHealthEndpoint(t *testing.T) {
	resp := get(t, newTestRouter(), "health")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "OK", resp.Body.String())
}
