// Package wfs builds WFS 2.0 request documents and serializes them into the
// wire encodings the protocol defines.
//
// The package has three layers:
//
// 1. A document builder that assembles namespace-aware request trees
// (GetFeature queries, stored-query invocations, filter predicates, GML
// feature properties) on top of etree documents.
//
// 2. A KVP transformer that flattens a finished request document into the
// equivalent key=value query string used by the GET binding, including the
// xmlns(prefix,uri) namespace declarations and the percent-encoded XML
// fallback for filter expressions.
//
// 3. A SOAP wrapper that embeds a request document in a SOAP 1.1 or 1.2
// envelope for the POST/SOAP binding.
//
// Nothing in this package performs network I/O or interprets server
// responses; submitting the documents it produces is the client package's
// job. Request documents are plain mutable trees and must not be shared
// across concurrent builder calls.
package wfs
