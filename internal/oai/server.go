// Package oai implements the six OAI-PMH 2.0 verbs against the local
// mirror, plus the Dublin Core mapping and the response envelope types.
package oai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scieloorg/oaipmh/internal/domain"
)

const (
	// MetadataPrefixDC is the only format this repository disseminates.
	MetadataPrefixDC = "oai_dc"

	dcSchema    = "http://www.openarchives.org/OAI/2.0/oai_dc.xsd"
	dcNamespace = "http://www.openarchives.org/OAI/2.0/oai_dc/"

	identifierPrefix = "oai:scielo.org:"

	// DatestampLayout matches the granularity Identify advertises.
	DatestampLayout = "2006-01-02T15:04:05Z"
	dateOnlyLayout  = "2006-01-02"

	granularity      = "YYYY-MM-DDThh:mm:ssZ"
	defaultBatchSize = 100
)

// defaultEarliestDatestamp is answered while the mirror is still empty.
var defaultEarliestDatestamp = time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)

// RepositoryInfo is the static identity Identify reports, plus the paging
// and linking knobs of the list verbs.
type RepositoryInfo struct {
	Name        string
	BaseURL     string
	AdminEmails []string
	SiteBaseURL string
	BatchSize   int
}

// Server answers OAI-PMH verbs from the document store.
type Server struct {
	docs domain.DocumentStore
	info RepositoryInfo
}

func NewServer(docs domain.DocumentStore, info RepositoryInfo) *Server {
	if info.BatchSize <= 0 {
		info.BatchSize = defaultBatchSize
	}
	return &Server{docs: docs, info: info}
}

// Identify reports the repository metadata. The earliest datestamp comes
// from the mirror, with a fixed fallback while it is empty.
func (s *Server) Identify(ctx context.Context) (*IdentifyNode, error) {
	earliest := defaultEarliestDatestamp
	if ts, err := s.docs.EarliestDatestamp(ctx); err != nil {
		return nil, err
	} else if ts != nil {
		earliest = *ts
	}

	return &IdentifyNode{
		RepositoryName:    s.info.Name,
		BaseURL:           s.info.BaseURL,
		ProtocolVersion:   "2.0",
		AdminEmails:       s.info.AdminEmails,
		EarliestDatestamp: earliest.UTC().Format(DatestampLayout),
		DeletedRecord:     "no",
		Granularity:       granularity,
		Compression:       []string{"identity"},
	}, nil
}

// ListSets pages the in-memory set list with an integer cursor carried in
// the token offset.
func (s *Server) ListSets(ctx context.Context, resumptionToken string) (*ListSetsNode, error) {
	sets, err := s.docs.Sets(ctx)
	if err != nil {
		return nil, err
	}

	cursor := 0
	if resumptionToken != "" {
		token := domain.DecodeToken(resumptionToken)
		cursor, err = strconv.Atoi(token.Offset)
		if err != nil || cursor < 0 || cursor > len(sets) {
			return nil, errBadResumptionToken(resumptionToken)
		}
	}

	end := cursor + s.info.BatchSize
	if end > len(sets) {
		end = len(sets)
	}

	node := &ListSetsNode{}
	for _, set := range sets[cursor:end] {
		node.Sets = append(node.Sets, SetNode{SetSpec: set.SetSpec, SetName: set.SetName})
	}
	if end < len(sets) {
		next := domain.ResumptionToken{
			Offset: strconv.Itoa(end),
			Count:  strconv.Itoa(s.info.BatchSize),
		}
		node.ResumptionToken = &TokenNode{Value: next.Encode()}
	}
	return node, nil
}

// ListArgs are the selective-harvesting arguments of the list verbs. A
// non-empty ResumptionToken supersedes all the others.
type ListArgs struct {
	MetadataPrefix  string
	Set             string
	From            string
	Until           string
	ResumptionToken string
}

// ListIdentifiers emits headers only.
func (s *Server) ListIdentifiers(ctx context.Context, args ListArgs) (*ListIdentifiersNode, error) {
	page, next, err := s.listPage(ctx, args)
	if err != nil {
		return nil, err
	}

	node := &ListIdentifiersNode{ResumptionToken: next}
	for _, rec := range page {
		node.Headers = append(node.Headers, s.header(rec))
	}
	return node, nil
}

// ListRecords emits header plus metadata for each record.
func (s *Server) ListRecords(ctx context.Context, args ListArgs) (*ListRecordsNode, error) {
	page, next, err := s.listPage(ctx, args)
	if err != nil {
		return nil, err
	}

	node := &ListRecordsNode{ResumptionToken: next}
	for _, rec := range page {
		node.Records = append(node.Records, s.record(rec))
	}
	return node, nil
}

// ListMetadataFormats reports the supported formats; with an identifier it
// first checks the record exists.
func (s *Server) ListMetadataFormats(ctx context.Context, identifier string) (*ListMetadataFormatsNode, error) {
	if identifier != "" {
		if _, err := s.docs.Fetch(ctx, docIDFromIdentifier(identifier)); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, errIDDoesNotExist(identifier)
			}
			return nil, err
		}
	}
	return &ListMetadataFormatsNode{
		Formats: []MetadataFormatNode{{
			MetadataPrefix:    MetadataPrefixDC,
			Schema:            dcSchema,
			MetadataNamespace: dcNamespace,
		}},
	}, nil
}

// GetRecord disseminates a single record; the doc id is the portion of
// the identifier after the last colon.
func (s *Server) GetRecord(ctx context.Context, identifier, metadataPrefix string) (*GetRecordNode, error) {
	if metadataPrefix != MetadataPrefixDC {
		return nil, errCannotDisseminateFormat(metadataPrefix)
	}

	rec, err := s.docs.Fetch(ctx, docIDFromIdentifier(identifier))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errIDDoesNotExist(identifier)
		}
		return nil, err
	}
	return &GetRecordNode{Record: s.record(rec)}, nil
}

// listPage resolves the query of a list verb (fresh arguments or a
// continuation token), runs it and computes the follow-up token.
func (s *Server) listPage(ctx context.Context, args ListArgs) ([]*domain.Record, *TokenNode, error) {
	var token domain.ResumptionToken
	if args.ResumptionToken != "" {
		token = domain.DecodeToken(args.ResumptionToken)
		if _, err := strconv.Atoi(token.Count); err != nil {
			return nil, nil, errBadResumptionToken(args.ResumptionToken)
		}
	} else {
		token = domain.ResumptionToken{
			Set:            args.Set,
			From:           args.From,
			Until:          args.Until,
			Count:          strconv.Itoa(s.info.BatchSize),
			MetadataPrefix: args.MetadataPrefix,
		}
	}

	if token.MetadataPrefix != MetadataPrefixDC {
		return nil, nil, errCannotDisseminateFormat(token.MetadataPrefix)
	}

	from, err := parseDatestamp(token.From)
	if err != nil {
		return nil, nil, errBadArgument(fmt.Sprintf("malformed from argument: %q", token.From))
	}
	until, err := parseDatestamp(token.Until)
	if err != nil {
		return nil, nil, errBadArgument(fmt.Sprintf("malformed until argument: %q", token.Until))
	}

	count, _ := strconv.Atoi(token.Count)
	page, err := s.docs.Filter(ctx, domain.Query{
		Set:    token.Set,
		From:   from,
		Until:  until,
		Offset: token.Offset,
		Limit:  count,
	})
	if err != nil {
		if token.Offset != "" {
			return nil, nil, errBadResumptionToken(args.ResumptionToken)
		}
		return nil, nil, err
	}
	if len(page) == 0 && args.ResumptionToken == "" {
		return nil, nil, errNoRecordsMatch()
	}

	var node *TokenNode
	if next := token.Next(page); next != nil {
		node = &TokenNode{Value: next.Encode()}
	}
	return page, node, nil
}

func (s *Server) header(rec *domain.Record) HeaderNode {
	h := HeaderNode{
		Identifier: identifierPrefix + rec.DocID,
		Datestamp:  rec.Timestamp.UTC().Format(DatestampLayout),
	}
	for _, set := range rec.Sets {
		if set.SetSpec != "" {
			h.SetSpecs = append(h.SetSpecs, set.SetSpec)
		}
	}
	return h
}

func (s *Server) record(rec *domain.Record) RecordNode {
	return RecordNode{
		Header:   s.header(rec),
		Metadata: &MetadataNode{DC: NewDublinCore(rec, s.info.SiteBaseURL)},
	}
}

func docIDFromIdentifier(identifier string) string {
	if i := strings.LastIndex(identifier, ":"); i >= 0 {
		return identifier[i+1:]
	}
	return identifier
}

// parseDatestamp accepts both granularities the protocol allows.
func parseDatestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{DatestampLayout, dateOnlyLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("malformed datestamp %q", value)
}
