package oai

import "fmt"

// Error is an OAI-PMH protocol fault. The HTTP layer renders it into the
// error element of the response envelope; it never becomes a transport
// error.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrBadVerb is raised by the dispatcher for unknown verbs.
func ErrBadVerb(verb string) *Error {
	return &Error{Code: "badVerb", Message: fmt.Sprintf("illegal OAI verb: %q", verb)}
}

func errBadArgument(msg string) *Error {
	return &Error{Code: "badArgument", Message: msg}
}

func errBadResumptionToken(token string) *Error {
	return &Error{Code: "badResumptionToken", Message: fmt.Sprintf("invalid resumption token: %q", token)}
}

func errCannotDisseminateFormat(prefix string) *Error {
	return &Error{Code: "cannotDisseminateFormat", Message: fmt.Sprintf("unsupported metadata format: %q", prefix)}
}

func errIDDoesNotExist(identifier string) *Error {
	return &Error{Code: "idDoesNotExist", Message: fmt.Sprintf("no record with identifier %q", identifier)}
}

func errNoRecordsMatch() *Error {
	return &Error{Code: "noRecordsMatch", Message: "no records match the given criteria"}
}
