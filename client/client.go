// Package client submits WFS request documents to the server under test
// over the protocol bindings WFS 2.0 defines, and parses the response
// entities. Request construction and serialization live in the wfs package;
// this package only does the HTTP exchange.
package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/ogccite/wfs-contract-tests/wfs"
)

// ProtocolBinding is the wire-encoding/transport combination used to submit
// a request.
type ProtocolBinding string

const (
	// GetKVP submits the KVP encoding of the request as the query component
	// of an HTTP GET.
	GetKVP ProtocolBinding = "GET/KVP"
	// PostXML submits the XML request entity as an HTTP POST body.
	PostXML ProtocolBinding = "POST/XML"
	// PostSOAP submits the request entity wrapped in a SOAP 1.2 envelope.
	PostSOAP ProtocolBinding = "POST/SOAP"
)

// AllBindings lists every binding the harness can exercise.
var AllBindings = []ProtocolBinding{GetKVP, PostXML, PostSOAP}

// Logger matches the framework logging interface without importing it.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

// Client submits request documents to a WFS endpoint.
type Client struct {
	httpClient *http.Client
	logger     Logger
}

// New creates a Client with a per-request timeout. A nil logger disables
// debug output.
func New(timeout time.Duration, logger Logger) *Client {
	if logger == nil {
		logger = nullLogger{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Response is the outcome of one submitted request. Entity is the response
// body parsed as XML, with the SOAP body already unwrapped for the
// POST/SOAP binding; it is nil when the body is not well-formed XML.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Entity *etree.Document
}

// RootName returns the qualified name of the response document element, or
// an empty QName if there is no parsed entity.
func (r *Response) RootName() wfs.QName {
	if r.Entity == nil || r.Entity.Root() == nil {
		return wfs.QName{}
	}
	root := r.Entity.Root()
	return wfs.QName{Namespace: root.NamespaceURI(), LocalPart: root.Tag}
}

// SubmitRequest serializes the request document according to the protocol
// binding and submits it to the endpoint URL.
func (c *Client) SubmitRequest(doc *etree.Document, endpoint string, binding ProtocolBinding) (*Response, error) {
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing request entity: %w", err)
	}
	var req *http.Request
	switch binding {
	case GetKVP:
		kvp, err := wfs.TransformEntityToKVP(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		url := endpoint
		if strings.Contains(url, "?") {
			url += "&" + kvp
		} else {
			url += "?" + kvp
		}
		c.logger.Printf("GET %s", url)
		if req, err = http.NewRequest(http.MethodGet, url, nil); err != nil {
			return nil, err
		}
	case PostXML:
		c.logger.Printf("POST %s\n%s", endpoint, string(raw))
		if req, err = http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(raw)); err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/xml")
	case PostSOAP:
		envelope, err := wfs.WrapEntityInSOAPEnvelope(bytes.NewReader(raw), wfs.SOAP12)
		if err != nil {
			return nil, err
		}
		envRaw, err := envelope.WriteToBytes()
		if err != nil {
			return nil, fmt.Errorf("serializing SOAP envelope: %w", err)
		}
		c.logger.Printf("POST (SOAP) %s\n%s", endpoint, string(envRaw))
		if req, err = http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(envRaw)); err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", wfs.SOAP12.ContentType())
	default:
		return nil, fmt.Errorf("unsupported protocol binding: %s", binding)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting %s request: %w", binding, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	c.logger.Printf("Response status %d, %d bytes", resp.StatusCode, len(body))

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}
	out.Entity = parseEntity(body, binding)
	return out, nil
}

// parseEntity parses a response body, unwrapping the SOAP envelope when the
// request went over the SOAP binding. A body that is not well-formed XML
// yields a nil entity; callers decide whether that fails their test.
func parseEntity(body []byte, binding ProtocolBinding) *etree.Document {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil {
		return nil
	}
	if binding == PostSOAP && doc.Root() != nil && doc.Root().Tag == "Envelope" {
		payload, err := wfs.UnwrapSOAPBody(doc)
		if err != nil {
			return nil
		}
		unwrapped := etree.NewDocument()
		unwrapped.SetRoot(payload.Copy())
		return unwrapped
	}
	return doc
}
