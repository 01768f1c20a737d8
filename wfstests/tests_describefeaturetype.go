package wfstests

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogccite/wfs-contract-tests/client"
	"github.com/ogccite/wfs-contract-tests/wfs"
)

func DoDescribeFeatureTypeTests(t *T) {
	t.RequireCapability(wfs.ConstraintBasicWFS)

	xsdSchema := wfs.QName{Namespace: wfs.XSDNamespace, LocalPart: "schema"}

	for _, binding := range client.AllBindings {
		binding := binding
		t.Run(string(binding), func(t *T) {
			t.RequireBinding(binding)

			t.Run("describes all advertised feature types by default", func(t *T) {
				doc := wfs.CreateRequestEntity(wfs.DescribeFeatureType)
				resp := t.SubmitRequest(doc, binding)

				require.Equal(t, 200, resp.Status)
				assert.Equal(t, xsdSchema, resp.RootName())
			})

			t.Run("describes each advertised feature type", func(t *T) {
				for _, typeName := range t.FeatureTypes() {
					doc := wfs.CreateRequestEntity(wfs.DescribeFeatureType)
					require.NoError(t, wfs.AppendTypeNames(doc, typeName))
					resp := t.SubmitRequest(doc, binding)

					require.Equal(t, 200, resp.Status, "DescribeFeatureType failed for %s", typeName)
					root := t.RequireEntity(resp)
					assert.Equal(t, xsdSchema, resp.RootName())
					elements := wfs.FindElements(root, wfs.QName{Namespace: wfs.XSDNamespace, LocalPart: "element"})
					assert.NotEmpty(t, elements, "schema for %s declares no elements", typeName)
				}
			})

			t.Run("rejects an unknown type name", func(t *T) {
				unknown := wfs.QName{
					Namespace: "http://example.com/unknown",
					LocalPart: "Unknown-" + uuid.NewString(),
				}
				doc := wfs.CreateRequestEntity(wfs.DescribeFeatureType)
				require.NoError(t, wfs.AppendTypeNames(doc, unknown))
				resp := t.SubmitRequest(doc, binding)

				assert.Equal(t, 400, resp.Status)
				code := requireExceptionReport(t, resp)
				assert.Contains(t, []string{"InvalidParameterValue", "InvalidValue"}, code)
			})
		})
	}
}
