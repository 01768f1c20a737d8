package wfstests

import (
	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/ogccite/wfs-contract-tests/client"
	"github.com/ogccite/wfs-contract-tests/wfs"
)

// sampleFeatureIdentifiers fetches up to max features of the given type and
// returns their gml:id values, so that later tests can query for resources
// that are known to exist. The test is skipped when the server holds no
// identifiable features of that type.
func sampleFeatureIdentifiers(t *T, binding client.ProtocolBinding, typeName wfs.QName, max int) []string {
	doc, err := NewGetFeatureRequest(GetFeatureOpts{Count: ldvalue.NewOptionalInt(max)}, typeName)
	require.NoError(t, err)

	resp := t.SubmitRequest(doc, binding)
	require.Equal(t, 200, resp.Status, "could not sample features of type %s", typeName)
	root := t.RequireEntity(resp)

	ids := memberIdentifiers(root)
	if len(ids) == 0 {
		t.SkipWithReason("no identifiable features of type " + typeName.String())
	}
	if len(ids) > max {
		ids = ids[:max]
	}
	return ids
}

// featureMembers returns the feature elements inside the wfs:member
// properties of a feature collection.
func featureMembers(root *etree.Element) []*etree.Element {
	var features []*etree.Element
	for _, member := range wfs.FindElements(root, wfs.QName{Namespace: wfs.WFSNamespace, LocalPart: "member"}) {
		features = append(features, member.ChildElements()...)
	}
	return features
}

func memberIdentifiers(root *etree.Element) []string {
	var ids []string
	for _, feature := range featureMembers(root) {
		if id := wfs.AttrValue(feature, wfs.QName{Namespace: wfs.GMLNamespace, LocalPart: "id"}); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
