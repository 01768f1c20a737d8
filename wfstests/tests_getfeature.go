package wfstests

import (
	"strconv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/ogccite/wfs-contract-tests/client"
	"github.com/ogccite/wfs-contract-tests/wfs"
)

var featureCollectionName = wfs.QName{Namespace: wfs.WFSNamespace, LocalPart: "FeatureCollection"}

func DoGetFeatureTests(t *T) {
	t.RequireCapability(wfs.ConstraintBasicWFS)

	for _, binding := range client.AllBindings {
		binding := binding
		t.Run(string(binding), func(t *T) {
			t.RequireBinding(binding)

			t.Run("returns a feature collection", func(t *T) {
				doc, err := NewGetFeatureRequest(GetFeatureOpts{}, t.FeatureTypes()[0])
				require.NoError(t, err)
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				root := t.RequireEntity(resp)
				assert.Equal(t, featureCollectionName, resp.RootName())
				assert.NotEmpty(t, root.SelectAttrValue("timeStamp", ""),
					"feature collection carries no timeStamp attribute")
				assert.NotEmpty(t, root.SelectAttrValue("numberMatched", ""),
					"feature collection carries no numberMatched attribute")
			})

			t.Run("count limits the number of members", func(t *T) {
				doc, err := NewGetFeatureRequest(
					GetFeatureOpts{Count: ldvalue.NewOptionalInt(1)}, t.FeatureTypes()[0])
				require.NoError(t, err)
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				root := t.RequireEntity(resp)
				members := featureMembers(root)
				assert.LessOrEqual(t, len(members), 1,
					"server returned %d members for count=1", len(members))
				returned := root.SelectAttrValue("numberReturned", "")
				require.NotEmpty(t, returned, "feature collection carries no numberReturned attribute")
				n, err := strconv.Atoi(returned)
				require.NoError(t, err, "numberReturned is not an integer: %q", returned)
				assert.Equal(t, len(members), n)
			})

			t.Run("startIndex skips leading members", func(t *T) {
				t.RequireCapability(wfs.ConstraintResultPaging)

				typeName := t.FeatureTypes()[0]
				all := sampleFeatureIdentifiers(t, binding, typeName, 3)
				if len(all) < 2 {
					t.SkipWithReason("not enough features of type " + typeName.String() + " to page over")
				}

				doc, err := NewGetFeatureRequest(GetFeatureOpts{
					Count:      ldvalue.NewOptionalInt(1),
					StartIndex: ldvalue.NewOptionalInt(1),
				}, typeName)
				require.NoError(t, err)
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				root := t.RequireEntity(resp)
				ids := memberIdentifiers(root)
				require.Len(t, ids, 1)
				assert.NotEqual(t, all[0], ids[0], "startIndex=1 returned the first feature again")
			})

			t.Run("queries two feature types at once", func(t *T) {
				types := t.FeatureTypes()
				if len(types) < 2 {
					t.SkipWithReason("server advertises fewer than two feature types")
				}
				doc, err := NewGetFeatureRequest(GetFeatureOpts{}, types[0], types[1])
				require.NoError(t, err)
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				assert.Equal(t, featureCollectionName, resp.RootName())
			})
		})
	}
}
