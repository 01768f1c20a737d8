// Package wfstests contains the WFS contract tests themselves and their
// supporting API.
//
// Test harness infrastructure that is not specific to the WFS domain, such
// as test contexts, filtering and result reporting, is in the lower-level
// framework package; request construction and serialization is in the wfs
// package; the HTTP exchange is in the client package.
package wfstests
