package http

import (
	"encoding/xml"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/scieloorg/oaipmh/internal/oai"
)

// Handler dispatches the verb parameter onto the OAI server and renders
// the response envelope. Protocol faults become an error element inside a
// 200 response; only transport-level problems surface as HTTP errors.
type Handler struct {
	server  *oai.Server
	baseURL string
}

func NewHandler(server *oai.Server, baseURL string) *Handler {
	return &Handler{server: server, baseURL: baseURL}
}

// ServeOAI answers GET and POST (form-encoded) requests on the single
// protocol endpoint.
func (h *Handler) ServeOAI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	request := oai.RequestNode{
		Value:           h.baseURL,
		Verb:            r.FormValue("verb"),
		Identifier:      r.FormValue("identifier"),
		MetadataPrefix:  r.FormValue("metadataPrefix"),
		Set:             r.FormValue("set"),
		From:            r.FormValue("from"),
		Until:           r.FormValue("until"),
		ResumptionToken: r.FormValue("resumptionToken"),
	}
	resp := oai.NewResponse(time.Now().UTC().Format(oai.DatestampLayout), request)

	if err := h.dispatch(r, request, resp); err != nil {
		var fault *oai.Error
		if !errors.As(err, &fault) {
			log.WithField("verb", request.Verb).WithError(err).Error("verb handler failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		resp.Error = &oai.ErrorNode{Code: fault.Code, Message: fault.Message}
	}

	writeXML(w, resp)
}

func (h *Handler) dispatch(r *http.Request, req oai.RequestNode, resp *oai.Response) error {
	ctx := r.Context()
	args := oai.ListArgs{
		MetadataPrefix:  req.MetadataPrefix,
		Set:             req.Set,
		From:            req.From,
		Until:           req.Until,
		ResumptionToken: req.ResumptionToken,
	}

	var err error
	switch req.Verb {
	case "Identify":
		resp.Identify, err = h.server.Identify(ctx)
	case "ListSets":
		resp.ListSets, err = h.server.ListSets(ctx, req.ResumptionToken)
	case "ListIdentifiers":
		resp.ListIdentifiers, err = h.server.ListIdentifiers(ctx, args)
	case "ListRecords":
		resp.ListRecords, err = h.server.ListRecords(ctx, args)
	case "ListMetadataFormats":
		resp.ListMetadataFormats, err = h.server.ListMetadataFormats(ctx, req.Identifier)
	case "GetRecord":
		resp.GetRecord, err = h.server.GetRecord(ctx, req.Identifier, req.MetadataPrefix)
	default:
		err = oai.ErrBadVerb(req.Verb)
	}
	return err
}

func writeXML(w http.ResponseWriter, resp *oai.Response) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.WithError(err).Error("encode response envelope")
	}
}
