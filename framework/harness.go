package framework

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/ogccite/wfs-contract-tests/client"
	"github.com/ogccite/wfs-contract-tests/wfs"
)

const requestTimeout = time.Second * 30

// ServiceInfo is what the harness learns about the server under test from
// its capabilities document.
type ServiceInfo struct {
	// Title is the human-readable service title from ows:ServiceIdentification.
	Title string
	// Version is the negotiated service version.
	Version string
	// Capabilities holds the names of the WFS conformance constraints the
	// service declares as TRUE (ImplementsBasicWFS, KVPEncoding, ...).
	Capabilities []string
	// FeatureTypes lists the qualified names of the advertised feature types.
	FeatureTypes []wfs.QName
}

// TestHarness manages the connection to the WFS server under test. It is
// created once per run; the capabilities document fetched at startup drives
// capability-based test skipping.
type TestHarness struct {
	serviceURL  string
	serviceInfo ServiceInfo
	wfsClient   *client.Client
	logger      Logger
}

// NewTestHarness verifies that the WFS server under test is responding by
// fetching its capabilities document, retrying until the timeout elapses.
func NewTestHarness(
	serviceURL string,
	statusQueryTimeout time.Duration,
	debugLogger Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = NullLogger()
	}
	h := &TestHarness{
		serviceURL: serviceURL,
		wfsClient:  client.New(requestTimeout, debugLogger),
		logger:     debugLogger,
	}
	info, err := queryCapabilities(h.wfsClient, serviceURL, statusQueryTimeout, startupOutput)
	if err != nil {
		return nil, err
	}
	h.serviceInfo = info
	return h, nil
}

// ServiceURL returns the endpoint the server under test is addressed at.
func (h *TestHarness) ServiceURL() string {
	return h.serviceURL
}

// ServiceInfo returns what the capabilities document said about the server.
func (h *TestHarness) ServiceInfo() ServiceInfo {
	return h.serviceInfo
}

// Client returns the WFS client the harness uses for all requests.
func (h *TestHarness) Client() *client.Client {
	return h.wfsClient
}

// TestServiceHasCapability reports whether the server declared the named
// conformance constraint as TRUE in its capabilities document.
func (h *TestHarness) TestServiceHasCapability(desired string) bool {
	for _, capability := range h.serviceInfo.Capabilities {
		if capability == desired {
			return true
		}
	}
	return false
}

// queryCapabilities polls the service with a GetCapabilities request until
// it responds, then parses the service metadata out of the response.
func queryCapabilities(
	c *client.Client,
	serviceURL string,
	timeout time.Duration,
	output io.Writer,
) (ServiceInfo, error) {
	fmt.Fprintf(output, "Connecting to WFS server at %s", serviceURL)

	entity := wfs.CreateRequestEntity(wfs.GetCapabilities)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := c.SubmitRequest(entity, serviceURL, client.GetKVP)
		if err == nil {
			fmt.Fprintln(output)
			if resp.Status != 200 {
				return ServiceInfo{}, fmt.Errorf("server returned status code %d for GetCapabilities", resp.Status)
			}
			if resp.Entity == nil {
				return ServiceInfo{}, fmt.Errorf("GetCapabilities response was not well-formed XML")
			}
			info, err := parseCapabilities(resp.Entity)
			if err != nil {
				return ServiceInfo{}, err
			}
			fmt.Fprintf(output, "Server under test: %q, version %s\n", info.Title, info.Version)
			fmt.Fprintf(output, "Declared conformance: %s\n", strings.Join(info.Capabilities, ", "))
			return info, nil
		}
		if !time.Now().Before(deadline) {
			return ServiceInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}

// parseCapabilities extracts the service info from a wfs:WFS_Capabilities
// document.
func parseCapabilities(doc *etree.Document) (ServiceInfo, error) {
	root := doc.Root()
	if root == nil || root.Tag != "WFS_Capabilities" {
		name := "(none)"
		if root != nil {
			name = root.FullTag()
		}
		return ServiceInfo{}, fmt.Errorf("expected wfs:WFS_Capabilities document element, got %s", name)
	}
	info := ServiceInfo{
		Version: root.SelectAttrValue("version", ""),
	}
	collectCapabilities(root, &info)
	return info, nil
}

func collectCapabilities(el *etree.Element, info *ServiceInfo) {
	switch el.Tag {
	case "ServiceIdentification":
		for _, child := range el.ChildElements() {
			if child.Tag == "Title" {
				info.Title = strings.TrimSpace(child.Text())
			}
		}
	case "Constraint":
		name := el.SelectAttrValue("name", "")
		for _, child := range el.ChildElements() {
			if child.Tag == "DefaultValue" && strings.EqualFold(strings.TrimSpace(child.Text()), "TRUE") {
				info.Capabilities = append(info.Capabilities, name)
			}
		}
	case "FeatureType":
		for _, child := range el.ChildElements() {
			if child.Tag != "Name" {
				continue
			}
			name := strings.TrimSpace(child.Text())
			if qn, ok := wfs.ResolveQName(child, name); ok {
				info.FeatureTypes = append(info.FeatureTypes, qn)
			}
		}
	}
	for _, child := range el.ChildElements() {
		collectCapabilities(child, info)
	}
}
