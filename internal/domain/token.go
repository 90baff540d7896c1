package domain

import (
	"strconv"
	"strings"
)

const tokenFieldsSeparator = ","

// ResumptionToken is the pagination cursor exchanged with OAI-PMH clients.
// Its encoded form is the six fields joined by a comma, in this order.
// Encoding stringifies every value, so types are lost on the round trip;
// absent values encode as the empty string.
type ResumptionToken struct {
	Set            string
	From           string
	Until          string
	Offset         string
	Count          string
	MetadataPrefix string
}

// DecodeToken rebuilds a token from its encoded form. Missing trailing
// fields stay empty; extra fields are discarded.
func DecodeToken(encoded string) ResumptionToken {
	parts := strings.Split(encoded, tokenFieldsSeparator)
	fields := make([]string, 6)
	copy(fields, parts)
	return ResumptionToken{
		Set:            fields[0],
		From:           fields[1],
		Until:          fields[2],
		Offset:         fields[3],
		Count:          fields[4],
		MetadataPrefix: fields[5],
	}
}

// Encode serializes the token. Not URL-encoded; transport encoding is the
// HTTP layer's concern.
func (t ResumptionToken) Encode() string {
	return strings.Join([]string{
		t.Set, t.From, t.Until, t.Offset, t.Count, t.MetadataPrefix,
	}, tokenFieldsSeparator)
}

// Next derives the token for the page after the given one. A page shorter
// than Count is the last page and yields nil. A full page yields a copy of
// the token whose offset is the id of the page's last record, used by the
// store as an exclusive lower bound on the next query.
func (t ResumptionToken) Next(page []*Record) *ResumptionToken {
	count, err := strconv.Atoi(t.Count)
	if err != nil || count == 0 || len(page) != count {
		return nil
	}
	next := t
	next.Offset = page[len(page)-1].ID.Hex()
	return &next
}
