package wfstests

import (
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogccite/wfs-contract-tests/client"
	"github.com/ogccite/wfs-contract-tests/wfs"
)

func DoServiceMetadataTests(t *T) {
	t.Run("declares WFS 2.0.0", func(t *T) {
		assert.Equal(t, wfs.Version, t.harness.ServiceInfo().Version,
			"capabilities document declares an unexpected version")
	})

	t.Run("declares at least one encoding binding", func(t *T) {
		declared := t.harness.ServiceInfo().Capabilities
		found := false
		for _, binding := range client.AllBindings {
			for _, capability := range declared {
				if capability == bindingCapabilities[binding] {
					found = true
				}
			}
		}
		assert.True(t, found, "no encoding constraint among: %s", strings.Join(declared, ", "))
	})

	t.Run("advertises at least one feature type", func(t *T) {
		t.RequireCapability(wfs.ConstraintBasicWFS)
		assert.NotEmpty(t, t.harness.ServiceInfo().FeatureTypes)
	})

	t.Run("negotiates version 2.0.0 via AcceptVersions", func(t *T) {
		t.RequireBinding(client.GetKVP)

		doc := wfs.CreateRequestEntity(wfs.GetCapabilities)
		acceptVersions := wfs.NewElement(wfs.QName{Namespace: wfs.OWSNamespace, LocalPart: "AcceptVersions"})
		version := wfs.NewElement(wfs.QName{Namespace: wfs.OWSNamespace, LocalPart: "Version"})
		version.SetText(wfs.Version)
		acceptVersions.AddChild(version)
		doc.Root().AddChild(acceptVersions)

		resp := t.SubmitRequest(doc, client.GetKVP)
		require.Equal(t, 200, resp.Status)
		root := t.RequireEntity(resp)
		assert.Equal(t, wfs.Version, root.SelectAttrValue("version", ""))
	})

	for _, binding := range client.AllBindings {
		binding := binding
		t.Run("GetCapabilities over "+string(binding), func(t *T) {
			t.RequireBinding(binding)

			doc := wfs.CreateRequestEntity(wfs.GetCapabilities)
			resp := t.SubmitRequest(doc, binding)

			require.Equal(t, 200, resp.Status)
			assert.Equal(t,
				wfs.QName{Namespace: wfs.WFSNamespace, LocalPart: "WFS_Capabilities"},
				resp.RootName())
			root := t.RequireEntity(resp)
			assert.Equal(t, wfs.Version, root.SelectAttrValue("version", ""))
		})
	}
}
