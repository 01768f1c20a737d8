package wfstests

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogccite/wfs-contract-tests/client"
	"github.com/ogccite/wfs-contract-tests/wfs"
)

func DoResourceIDTests(t *T) {
	t.RequireCapability(wfs.ConstraintBasicWFS)

	for _, binding := range client.AllBindings {
		binding := binding
		t.Run(string(binding), func(t *T) {
			t.RequireBinding(binding)

			t.Run("returns only the requested features", func(t *T) {
				typeName := t.FeatureTypes()[0]
				ids := sampleFeatureIdentifiers(t, binding, typeName, 2)

				doc, err := NewGetFeatureRequest(GetFeatureOpts{}, typeName)
				require.NoError(t, err)
				require.NoError(t, wfs.AddResourceIDPredicate(doc, ids))
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				root := t.RequireEntity(resp)
				assert.ElementsMatch(t, ids, memberIdentifiers(root))
			})

			t.Run("unknown identifier yields an empty collection", func(t *T) {
				typeName := t.FeatureTypes()[0]
				doc, err := NewGetFeatureRequest(GetFeatureOpts{}, typeName)
				require.NoError(t, err)
				require.NoError(t, wfs.AddResourceIDPredicate(doc, []string{"test-" + uuid.NewString()}))
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				root := t.RequireEntity(resp)
				assert.Equal(t, featureCollectionName, resp.RootName())
				assert.Empty(t, featureMembers(root))
			})
		})
	}
}
