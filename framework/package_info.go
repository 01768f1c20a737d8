// Package framework contains the low-level implementation of test harness
// infrastructure that is not specific to the WFS protocol.
//
// The general model is:
//
// 1. The test harness connects to the server under test at startup and
// fetches its capabilities document, which declares the conformance classes
// the server implements. Tests for conformance classes the server does not
// claim are skipped.
//
// 2. There is a general notion of a test context which is similar to Go's
// *testing.T, allowing pieces of test logic to be associated with a test
// identifier and to accumulate success/failure results.
//
// The domain-specific code that knows what is being tested is responsible
// for building the request documents to submit, choosing the protocol
// bindings to exercise, and providing a domain-specific test API on top of
// the test context.
package framework
