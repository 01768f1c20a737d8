package framework

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogccite/wfs-contract-tests/wfs"
)

const capabilitiesXML = `<?xml version="1.0" encoding="UTF-8"?>
<wfs:WFS_Capabilities version="2.0.0"
  xmlns:wfs="http://www.opengis.net/wfs/2.0"
  xmlns:ows="http://www.opengis.net/ows/1.1"
  xmlns:tns="http://cite.opengeospatial.org/gmlsf">
  <ows:ServiceIdentification>
    <ows:Title>Test WFS</ows:Title>
  </ows:ServiceIdentification>
  <ows:OperationsMetadata>
    <ows:Constraint name="ImplementsBasicWFS">
      <ows:NoValues/>
      <ows:DefaultValue>TRUE</ows:DefaultValue>
    </ows:Constraint>
    <ows:Constraint name="KVPEncoding">
      <ows:NoValues/>
      <ows:DefaultValue>TRUE</ows:DefaultValue>
    </ows:Constraint>
    <ows:Constraint name="SOAPEncoding">
      <ows:NoValues/>
      <ows:DefaultValue>FALSE</ows:DefaultValue>
    </ows:Constraint>
  </ows:OperationsMetadata>
  <wfs:FeatureTypeList>
    <wfs:FeatureType>
      <wfs:Name>tns:PrimitiveGeoFeature</wfs:Name>
    </wfs:FeatureType>
    <wfs:FeatureType>
      <wfs:Name>tns:AggregateGeoFeature</wfs:Name>
    </wfs:FeatureType>
  </wfs:FeatureTypeList>
</wfs:WFS_Capabilities>`

func TestParseCapabilities(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(capabilitiesXML))

	info, err := parseCapabilities(doc)
	require.NoError(t, err)

	assert.Equal(t, "Test WFS", info.Title)
	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, []string{"ImplementsBasicWFS", "KVPEncoding"}, info.Capabilities,
		"only constraints with DefaultValue TRUE count as capabilities")
	assert.Equal(t, []wfs.QName{
		{Namespace: "http://cite.opengeospatial.org/gmlsf", LocalPart: "PrimitiveGeoFeature"},
		{Namespace: "http://cite.opengeospatial.org/gmlsf", LocalPart: "AggregateGeoFeature"},
	}, info.FeatureTypes)
}

func TestParseCapabilities_wrongDocumentElement(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(
		`<ows:ExceptionReport xmlns:ows="http://www.opengis.net/ows/1.1"/>`))

	_, err := parseCapabilities(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ows:ExceptionReport")
}

func TestTestServiceHasCapability(t *testing.T) {
	h := &TestHarness{serviceInfo: ServiceInfo{Capabilities: []string{"ImplementsBasicWFS"}}}
	assert.True(t, h.TestServiceHasCapability("ImplementsBasicWFS"))
	assert.False(t, h.TestServiceHasCapability("SOAPEncoding"))
}
