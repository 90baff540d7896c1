package domain

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrAlreadyExists is returned by Add when the doc_id is taken.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNotFound is returned when a record or variable is missing.
	ErrNotFound = errors.New("record not found")
)

// Record is the local-mirror representation of one upstream document.
type Record struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	DocID        string             `bson:"doc_id" json:"doc_id"`
	XMLURL       string             `bson:"xml_url" json:"xml_url"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	PubDate      time.Time          `bson:"pub_date" json:"pub_date"`
	Language     string             `bson:"language" json:"language"`
	Publisher    string             `bson:"publisher" json:"publisher"`
	DOI          string             `bson:"doi" json:"doi"`
	Type         string             `bson:"type" json:"type"`
	JournalAcron string             `bson:"journal_acron" json:"journal_acron"`
	Sets         []Set              `bson:"sets" json:"sets"`
	Creators     []Creator          `bson:"creators" json:"creators"`
	Titles       []Title            `bson:"titles" json:"titles"`
	Descriptions []Description      `bson:"descriptions" json:"descriptions"`
	Keywords     []Keyword          `bson:"keywords" json:"keywords"`
}

// Set is an OAI-PMH set; here a journal identified by publisher id and title.
type Set struct {
	SetSpec string `bson:"set_spec" json:"set_spec"`
	SetName string `bson:"set_name" json:"set_name"`
}

type Creator struct {
	Surname   string `bson:"surname" json:"surname"`
	GivenName string `bson:"given_name" json:"given_name"`
}

type Title struct {
	Lang  string `bson:"lang" json:"lang"`
	Title string `bson:"title" json:"title"`
}

type Description struct {
	Lang        string `bson:"lang" json:"lang"`
	Description string `bson:"description" json:"description"`
}

type Keyword struct {
	Lang string `bson:"lang" json:"lang"`
	Kwd  string `bson:"kwd" json:"kwd"`
}

// Query selects records for the paged list verbs. From and Until are
// inclusive bounds on the ingest timestamp; both must hold when both are
// given. Offset, when non-empty, is the hex id of the last record of the
// previous page and acts as an exclusive lower bound.
type Query struct {
	Set    string
	From   *time.Time
	Until  *time.Time
	Offset string
	Limit  int
}

// DocumentStore is the mirror the harvester writes and the OAI verbs read.
type DocumentStore interface {
	// Add inserts a record, failing with ErrAlreadyExists on a doc_id
	// collision. The harvest path uses Upsert instead.
	Add(ctx context.Context, rec *Record) error
	// Upsert inserts or replaces the record keyed by doc_id.
	Upsert(ctx context.Context, rec *Record) error
	// Delete removes the record keyed by doc_id, if present.
	Delete(ctx context.Context, docID string) error
	// Filter returns records matching q in ascending ingest order.
	Filter(ctx context.Context, q Query) ([]*Record, error)
	// Fetch returns the record for docID or ErrNotFound.
	Fetch(ctx context.Context, docID string) (*Record, error)
	// Sets returns the distinct journal sets sorted by set spec.
	Sets(ctx context.Context) ([]Set, error)
	// EarliestDatestamp returns the smallest ingest timestamp in the
	// mirror, or nil when the mirror is empty.
	EarliestDatestamp(ctx context.Context) (*time.Time, error)
}

// VariableStore holds harvest checkpoints, e.g. last_synced_timestamp.
type VariableStore interface {
	Fetch(ctx context.Context, name, defaultValue string) (string, error)
	Upsert(ctx context.Context, name, value string) error
}

// LastSyncedTimestamp is the variable naming the harvest watermark.
const LastSyncedTimestamp = "last_synced_timestamp"
