package kernel

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/scieloorg/oaipmh/internal/domain"
)

// front mirrors the upstream front-matter JSON: deeply nested arrays of
// objects whose scalar values arrive as single-element arrays. Missing
// keys and empty arrays decode to zero values, keeping the extractor
// tolerant of schema drift.
type front struct {
	JournalMeta []struct {
		PublisherID   []string `json:"journal_publisher_id"`
		Title         []string `json:"journal_title"`
		Acronym       []string `json:"journal_acron"`
		PublisherName []string `json:"publisher_name"`
	} `json:"journal_meta"`
	PubDate []struct {
		Text []string `json:"text"`
	} `json:"pub_date"`
	Article []struct {
		Lang []string `json:"lang"`
		Type []string `json:"type"`
	} `json:"article"`
	ArticleMeta []struct {
		Title    []string `json:"article_title"`
		DOI      []string `json:"article_doi"`
		Abstract []string `json:"abstract"`
	} `json:"article_meta"`
	Contrib []struct {
		Surname    []string `json:"contrib_surname"`
		GivenNames []string `json:"contrib_given_names"`
	} `json:"contrib"`
	TransAbstract []struct {
		Lang []string `json:"lang"`
		Text []string `json:"text"`
	} `json:"trans_abstract"`
	KwdGroup []struct {
		Lang []string `json:"lang"`
		Kwd  []string `json:"kwd"`
	} `json:"kwd_group"`
}

// pubDateLayouts are tried in order; the first match wins. They cover the
// "%d %m %Y", "%d%m%Y", "%m %Y" and "%Y" shapes the upstream emits.
var pubDateLayouts = []string{"02 01 2006", "02012006", "01 2006", "2006"}

// extractRecord is the pure transform from front-matter JSON to the
// stored record shape. docURL is the absolute document URL; its last
// segment is the doc id. now becomes the record's ingest timestamp.
func extractRecord(docURL string, raw []byte, now time.Time) (*domain.Record, error) {
	var f front
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode front: %w", err)
	}

	rec := &domain.Record{
		DocID:     lastSegment(docURL),
		XMLURL:    docURL,
		Timestamp: now,
	}

	if len(f.JournalMeta) > 0 {
		jm := f.JournalMeta[0]
		rec.Publisher = first(jm.PublisherName)
		rec.JournalAcron = first(jm.Acronym)
		rec.Sets = []domain.Set{{
			SetSpec: first(jm.PublisherID),
			SetName: first(jm.Title),
		}}
	}

	if len(f.Article) > 0 {
		rec.Language = first(f.Article[0].Lang)
		rec.Type = first(f.Article[0].Type)
	}

	var rawDate string
	if len(f.PubDate) > 0 {
		rawDate = first(f.PubDate[0].Text)
	}
	pubDate, err := parsePubDate(rawDate)
	if err != nil {
		return nil, err
	}
	rec.PubDate = pubDate

	for _, c := range f.Contrib {
		surname, given := first(c.Surname), first(c.GivenNames)
		if surname == "" && given == "" {
			continue
		}
		rec.Creators = append(rec.Creators, domain.Creator{
			Surname:   surname,
			GivenName: given,
		})
	}

	if len(f.ArticleMeta) > 0 {
		am := f.ArticleMeta[0]
		rec.DOI = first(am.DOI)
		if title := first(am.Title); title != "" {
			rec.Titles = append(rec.Titles, domain.Title{Lang: rec.Language, Title: title})
		}
		if abstract := first(am.Abstract); abstract != "" {
			rec.Descriptions = append(rec.Descriptions, domain.Description{
				Lang:        rec.Language,
				Description: abstract,
			})
		}
	}
	for _, ta := range f.TransAbstract {
		if text := first(ta.Text); text != "" {
			rec.Descriptions = append(rec.Descriptions, domain.Description{
				Lang:        first(ta.Lang),
				Description: text,
			})
		}
	}

	for _, group := range f.KwdGroup {
		lang := first(group.Lang)
		for _, kwd := range group.Kwd {
			rec.Keywords = append(rec.Keywords, domain.Keyword{Lang: lang, Kwd: kwd})
		}
	}

	return rec, nil
}

func parsePubDate(text string) (time.Time, error) {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse pub_date %q: no known layout matches", text)
}

func first(xs []string) string {
	if len(xs) == 0 {
		return ""
	}
	return xs[0]
}

func lastSegment(u string) string {
	trimmed := strings.TrimRight(u, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
