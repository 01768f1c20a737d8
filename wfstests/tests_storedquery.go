package wfstests

import (
	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogccite/wfs-contract-tests/client"
	"github.com/ogccite/wfs-contract-tests/wfs"
)

func DoStoredQueryTests(t *T) {
	t.RequireCapability(wfs.ConstraintBasicWFS)

	for _, binding := range client.AllBindings {
		binding := binding
		t.Run(string(binding), func(t *T) {
			t.RequireBinding(binding)

			t.Run("ListStoredQueries offers GetFeatureById", func(t *T) {
				doc := wfs.CreateRequestEntity(wfs.ListStoredQueries)
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				root := t.RequireEntity(resp)
				assert.Contains(t, storedQueryIDs(root, "StoredQuery"), wfs.QueryGetFeatureByID)
			})

			t.Run("DescribeStoredQueries describes GetFeatureById", func(t *T) {
				doc := wfs.CreateRequestEntity(wfs.DescribeStoredQueries)
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				root := t.RequireEntity(resp)
				assert.Contains(t, storedQueryIDs(root, "StoredQueryDescription"), wfs.QueryGetFeatureByID)
			})

			t.Run("GetFeatureById returns the requested feature", func(t *T) {
				typeName := t.FeatureTypes()[0]
				id := sampleFeatureIdentifiers(t, binding, typeName, 1)[0]

				doc := wfs.CreateRequestEntity(wfs.GetFeature)
				require.NoError(t, wfs.AppendStoredQuery(doc, wfs.QueryGetFeatureByID,
					[]wfs.Parameter{{Name: "id", Value: id}}))
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				root := t.RequireEntity(resp)
				assert.Contains(t, entityIdentifiers(root), id,
					"response contains no feature with gml:id %q", id)
			})

			t.Run("GetFeatureById rejects an unknown identifier", func(t *T) {
				doc := wfs.CreateRequestEntity(wfs.GetFeature)
				require.NoError(t, wfs.AppendStoredQuery(doc, wfs.QueryGetFeatureByID,
					[]wfs.Parameter{{Name: "id", Value: "test-" + uuid.NewString()}}))
				resp := t.SubmitRequest(doc, binding)

				assert.Equal(t, 404, resp.Status)
				code := requireExceptionReport(t, resp)
				assert.Equal(t, "NotFound", code)
			})
		})
	}
}

// storedQueryIDs collects the id attributes of the wfs:StoredQuery or
// wfs:StoredQueryDescription elements in a response entity.
func storedQueryIDs(root *etree.Element, local string) []string {
	var ids []string
	for _, sq := range wfs.FindElements(root, wfs.QName{Namespace: wfs.WFSNamespace, LocalPart: local}) {
		if id := sq.SelectAttrValue("id", ""); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// entityIdentifiers collects every gml:id in the entity, including the
// document element's own. GetFeatureById responses are not wrapped in a
// collection, so the requested feature may be the document element itself.
func entityIdentifiers(root *etree.Element) []string {
	var ids []string
	collectIdentifiers(root, &ids)
	return ids
}

func collectIdentifiers(el *etree.Element, ids *[]string) {
	if id := wfs.AttrValue(el, wfs.QName{Namespace: wfs.GMLNamespace, LocalPart: "id"}); id != "" {
		*ids = append(*ids, id)
	}
	for _, child := range el.ChildElements() {
		collectIdentifiers(child, ids)
	}
}
