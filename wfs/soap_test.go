package wfs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRequestInSOAP11Envelope(t *testing.T) {
	doc, err := WrapEntityInSOAPEnvelope(strings.NewReader(getFeatureQuery2TypesXML), SOAP11)
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Envelope", root.Tag)
	assert.Equal(t, SOAP11Namespace, namespaceOf(root))

	requests := findElementsByName(root, WFSNamespace, "GetFeature")
	require.Len(t, requests, 1)
	queries := findElementsByName(requests[0], WFSNamespace, "Query")
	assert.Len(t, queries, 2)
}

func TestWrapRequestInSOAP12Envelope(t *testing.T) {
	doc, err := WrapEntityInSOAPEnvelope(strings.NewReader(getFeatureQuery2TypesXML), "")
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, SOAP12Namespace, namespaceOf(root))
}

func TestWrapRequestPreservesAttributes(t *testing.T) {
	doc, err := WrapEntityInSOAPEnvelope(strings.NewReader(getFeatureByIDXML), SOAP12)
	require.NoError(t, err)

	requests := findElementsByName(doc.Root(), WFSNamespace, "GetFeature")
	require.Len(t, requests, 1)
	assert.Equal(t, "10", requests[0].SelectAttrValue("count", ""))
	assert.Equal(t, "2.0.0", requests[0].SelectAttrValue("version", ""))
}

func TestWrapMalformedSource(t *testing.T) {
	_, err := WrapEntityInSOAPEnvelope(strings.NewReader("not xml <"), SOAP12)
	require.Error(t, err)
}

func TestUnwrapSOAPBody(t *testing.T) {
	doc, err := WrapEntityInSOAPEnvelope(strings.NewReader(getFeatureByIDXML), SOAP12)
	require.NoError(t, err)

	payload, err := UnwrapSOAPBody(doc)
	require.NoError(t, err)
	assert.Equal(t, "GetFeature", payload.Tag)
	assert.Equal(t, WFSNamespace, namespaceOf(payload))
}

func TestUnwrapSOAPBody_notAnEnvelope(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	_, err := UnwrapSOAPBody(doc)
	require.Error(t, err)
}
