package wfstests

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/ogccite/wfs-contract-tests/client"
	"github.com/ogccite/wfs-contract-tests/framework"
	"github.com/ogccite/wfs-contract-tests/wfs"
)

// AllCapabilities lists the conformance constraints the suite can gate
// tests on.
var AllCapabilities = []string{
	wfs.ConstraintBasicWFS,
	wfs.ConstraintKVPEncoding,
	wfs.ConstraintXMLEncoding,
	wfs.ConstraintSOAPEncoding,
}

// bindingCapabilities maps each protocol binding to the conformance
// constraint that advertises support for it.
var bindingCapabilities = map[client.ProtocolBinding]string{
	client.GetKVP:   wfs.ConstraintKVPEncoding,
	client.PostXML:  wfs.ConstraintXMLEncoding,
	client.PostSOAP: wfs.ConstraintSOAPEncoding,
}

// T represents a test or subtest in the WFS test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an
// environment that is outside of the Go test runner, with extra features
// such as per-test debug logging provided by the lower-level framework
// package. To make test assertions, use the assert and require packages,
// passing the *T as if it were a *testing.T.
type T struct {
	context *framework.Context
	harness *framework.TestHarness
}

func newTestScope(context *framework.Context, harness *framework.TestHarness) *T {
	return &T{context: context, harness: harness}
}

// Errorf is called by assertions to log a test failure. It does not cause
// an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately
// exit. The methods in the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest, equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.harness))
	})
}

// Debug logs some debug output for the test. The output is passed to the
// test logger at the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// SkipWithReason skips this test and records the reason.
func (t *T) SkipWithReason(reason string) {
	t.context.SkipWithReason(reason)
}

// RequireCapability skips this test if the server under test did not
// declare the named conformance constraint as TRUE.
func (t *T) RequireCapability(capability string) {
	if !t.harness.TestServiceHasCapability(capability) {
		t.context.SkipWithReason("server does not claim " + capability)
	}
}

// RequireBinding skips this test if the server under test does not support
// the protocol binding.
func (t *T) RequireBinding(binding client.ProtocolBinding) {
	t.RequireCapability(bindingCapabilities[binding])
}

// FeatureTypes returns the feature types the server advertises, skipping
// the test when there are none.
func (t *T) FeatureTypes() []wfs.QName {
	types := t.harness.ServiceInfo().FeatureTypes
	if len(types) == 0 {
		t.SkipWithReason("server advertises no feature types")
	}
	return types
}

// SubmitRequest submits a request document to the server under test over
// the given binding. A transport-level failure fails the test immediately;
// protocol-level outcomes (status, entity) are the caller's to assert.
func (t *T) SubmitRequest(doc *etree.Document, binding client.ProtocolBinding) *client.Response {
	resp, err := t.harness.Client().SubmitRequest(doc, t.harness.ServiceURL(), binding)
	require.NoError(t, err)
	if resp.Entity == nil {
		t.Debug("response body was not XML: %q", truncate(string(resp.Body), 500))
	}
	return resp
}

// RequireEntity fails the test unless the response carried a well-formed
// XML entity, and returns its document element.
func (t *T) RequireEntity(resp *client.Response) *etree.Element {
	require.NotNil(t, resp.Entity, "response body was not well-formed XML")
	root := resp.Entity.Root()
	require.NotNil(t, root, "response entity has no document element")
	return root
}

// requireExceptionReport asserts that the response entity is an OWS
// exception report and returns the exceptionCode of its first exception.
func requireExceptionReport(t *T, resp *client.Response) string {
	root := t.RequireEntity(resp)
	require.Equal(t, wfs.QName{Namespace: wfs.OWSNamespace, LocalPart: "ExceptionReport"},
		resp.RootName(), "expected an ows:ExceptionReport entity")
	exceptions := wfs.FindElements(root, wfs.QName{Namespace: wfs.OWSNamespace, LocalPart: "Exception"})
	require.NotEmpty(t, exceptions, "exception report contains no ows:Exception")
	return exceptions[0].SelectAttrValue("exceptionCode", "")
}

// GetFeatureOpts are the optional parameters of a GetFeature request
// entity.
type GetFeatureOpts struct {
	Count      ldvalue.OptionalInt
	StartIndex ldvalue.OptionalInt
}

// NewGetFeatureRequest builds a GetFeature request entity with one simple
// query per feature type.
func NewGetFeatureRequest(opts GetFeatureOpts, typeNames ...wfs.QName) (*etree.Document, error) {
	doc := wfs.CreateRequestEntity(wfs.GetFeature)
	if opts.Count.IsDefined() {
		doc.Root().CreateAttr("count", strconv.Itoa(opts.Count.IntValue()))
	}
	if opts.StartIndex.IsDefined() {
		doc.Root().CreateAttr("startIndex", strconv.Itoa(opts.StartIndex.IntValue()))
	}
	for _, tn := range typeNames {
		if err := wfs.AppendSimpleQuery(doc, tn); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
