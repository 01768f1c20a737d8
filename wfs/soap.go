package wfs

import (
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// SOAPVersion identifies a SOAP protocol version.
type SOAPVersion string

const (
	// SOAP11 is SOAP 1.1, the version the WFS 2.0 specification names for
	// backward compatibility.
	SOAP11 SOAPVersion = "1.1"
	// SOAP12 is SOAP 1.2, the default for the POST/SOAP binding.
	SOAP12 SOAPVersion = "1.2"
)

// Namespace returns the envelope namespace URI of the version. Any value
// other than SOAP11 selects the SOAP 1.2 namespace.
func (v SOAPVersion) Namespace() string {
	if v == SOAP11 {
		return SOAP11Namespace
	}
	return SOAP12Namespace
}

// ContentType returns the media type requests carrying an envelope of this
// version must be submitted with.
func (v SOAPVersion) ContentType() string {
	if v == SOAP11 {
		return "text/xml; charset=utf-8"
	}
	return "application/soap+xml; charset=utf-8"
}

// WrapEntityInSOAPEnvelope wraps an XML request entity in a SOAP envelope
// of the given version. The parsed document element is copied, with all of
// its attributes and descendants, as the single child of the soap:Body
// element. An empty version selects SOAP 1.2.
func WrapEntityInSOAPEnvelope(src io.Reader, version SOAPVersion) (*etree.Document, error) {
	reqDoc := etree.NewDocument()
	if _, err := reqDoc.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("wrapping entity in SOAP envelope: %w", err)
	}
	reqRoot := reqDoc.Root()
	if reqRoot == nil {
		return nil, fmt.Errorf("wrapping entity in SOAP envelope: source has no document element")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	envelope := doc.CreateElement("soap:Envelope")
	envelope.CreateAttr("xmlns:soap", version.Namespace())
	body := envelope.CreateElement("soap:Body")
	body.AddChild(reqRoot.Copy())
	return doc, nil
}

// UnwrapSOAPBody returns the first child element of the soap:Body of an
// envelope document, or an error if the document is not a SOAP envelope.
// The returned element remains part of the envelope document.
func UnwrapSOAPBody(doc *etree.Document) (*etree.Element, error) {
	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, fmt.Errorf("unwrapping SOAP body: document element is not a SOAP envelope")
	}
	body := selectChild(root, "Body")
	if body == nil {
		return nil, fmt.Errorf("unwrapping SOAP body: envelope has no Body element")
	}
	children := body.ChildElements()
	if len(children) == 0 {
		return nil, fmt.Errorf("unwrapping SOAP body: Body element is empty")
	}
	return children[0], nil
}
