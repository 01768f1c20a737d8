package wfs

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// XML namespace URIs used by WFS 2.0 request documents.
const (
	WFSNamespace    = "http://www.opengis.net/wfs/2.0"
	FESNamespace    = "http://www.opengis.net/fes/2.0"
	GMLNamespace    = "http://www.opengis.net/gml/3.2"
	OWSNamespace    = "http://www.opengis.net/ows/1.1"
	XSDNamespace    = "http://www.w3.org/2001/XMLSchema"
	XSINamespace    = "http://www.w3.org/2001/XMLSchema-instance"
	SOAP11Namespace = "http://schemas.xmlsoap.org/soap/envelope/"
	SOAP12Namespace = "http://www.w3.org/2003/05/soap-envelope"
)

// Protocol constants from the WFS 2.0 specification (OGC 09-025r1).
const (
	ServiceType = "WFS"
	Version     = "2.0.0"

	// Request element names.
	GetCapabilities       = "GetCapabilities"
	DescribeFeatureType   = "DescribeFeatureType"
	GetFeature            = "GetFeature"
	GetFeatureWithLock    = "GetFeatureWithLock"
	GetPropertyValue      = "GetPropertyValue"
	LockFeature           = "LockFeature"
	ListStoredQueries     = "ListStoredQueries"
	DescribeStoredQueries = "DescribeStoredQueries"
	Transaction           = "Transaction"

	// Identifiers of the stored queries every WFS 2.0 server provides.
	QueryGetFeatureByID   = "urn:ogc:def:query:OGC-WFS::GetFeatureById"
	QueryGetFeatureByType = "urn:ogc:def:query:OGC-WFS::GetFeatureByType"
)

// Names of the service constraints that advertise WFS conformance classes
// in a capabilities document (OGC 09-025r1, Table 13).
const (
	ConstraintBasicWFS         = "ImplementsBasicWFS"
	ConstraintTransactionalWFS = "ImplementsTransactionalWFS"
	ConstraintLockingWFS       = "ImplementsLockingWFS"
	ConstraintKVPEncoding      = "KVPEncoding"
	ConstraintXMLEncoding      = "XMLEncoding"
	ConstraintSOAPEncoding     = "SOAPEncoding"
	ConstraintResultPaging     = "ImplementsResultPaging"
	ConstraintManageStoredQry  = "ManageStoredQueries"
)

// QName is a qualified XML name: a namespace URI plus a local part. The
// prefix used to serialize it is chosen per document by the builder.
type QName struct {
	Namespace string
	LocalPart string
}

func (q QName) String() string {
	if q.Namespace == "" {
		return q.LocalPart
	}
	return "{" + q.Namespace + "}" + q.LocalPart
}

// NewElement creates a standalone element with the given qualified name,
// declaring the namespace binding on the element itself so that the element
// remains resolvable before it is attached to a document.
func NewElement(name QName) *etree.Element {
	prefix := preferredPrefix(name.Namespace)
	el := etree.NewElement(qualify(prefix, name.LocalPart))
	if name.Namespace != "" {
		el.CreateAttr("xmlns:"+prefix, name.Namespace)
	}
	return el
}

// preferredPrefix returns the conventional prefix for well-known OGC
// namespaces, or "tns" for anything else.
func preferredPrefix(uri string) string {
	switch uri {
	case WFSNamespace:
		return "wfs"
	case FESNamespace:
		return "fes"
	case GMLNamespace:
		return "gml"
	case OWSNamespace:
		return "ows"
	case XSDNamespace:
		return "xsd"
	default:
		return "tns"
	}
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// ensurePrefix returns the prefix bound to the namespace URI on the
// document's root element, declaring a new binding there when none exists.
// Every builder call resolves prefixes through this table so that each
// namespace referenced anywhere in a document has exactly one binding.
func ensurePrefix(doc *etree.Document, uri string) string {
	root := doc.Root()
	for _, attr := range root.Attr {
		if attr.Space == "xmlns" && attr.Value == uri {
			return attr.Key
		}
		if attr.Space == "" && attr.Key == "xmlns" && attr.Value == uri {
			return ""
		}
	}
	prefix := preferredPrefix(uri)
	for i := 1; prefixInUse(root, prefix); i++ {
		prefix = fmt.Sprintf("ns%d", i)
	}
	root.CreateAttr("xmlns:"+prefix, uri)
	return prefix
}

func prefixInUse(root *etree.Element, prefix string) bool {
	for _, attr := range root.Attr {
		if attr.Space == "xmlns" && attr.Key == prefix {
			return true
		}
	}
	return false
}

// lookupPrefixURI resolves a namespace prefix in the scope of the given
// element, walking up through its ancestors. An empty result means the
// prefix is unbound.
func lookupPrefixURI(el *etree.Element, prefix string) string {
	for e := el; e != nil; e = e.Parent() {
		for _, attr := range e.Attr {
			if prefix == "" {
				if attr.Space == "" && attr.Key == "xmlns" {
					return attr.Value
				}
			} else if attr.Space == "xmlns" && attr.Key == prefix {
				return attr.Value
			}
		}
	}
	return ""
}

// namespaceOf returns the namespace URI of an element, resolving its prefix
// against the element's own scope.
func namespaceOf(el *etree.Element) string {
	return lookupPrefixURI(el, el.Space)
}

// FindElements collects, in document order, all descendant elements of el
// (including el itself) whose qualified name matches name.
func FindElements(el *etree.Element, name QName) []*etree.Element {
	return findElementsByName(el, name.Namespace, name.LocalPart)
}

// findElementsByName collects, in document order, all descendant elements
// (including el itself) with the given namespace URI and local name.
func findElementsByName(el *etree.Element, ns, local string) []*etree.Element {
	var found []*etree.Element
	if el.Tag == local && namespaceOf(el) == ns {
		found = append(found, el)
	}
	for _, child := range el.ChildElements() {
		found = append(found, findElementsByName(child, ns, local)...)
	}
	return found
}

// AttrValue returns the value of the attribute with the given qualified name
// on el, resolving attribute prefixes against the element's scope. An
// unprefixed attribute is in no namespace.
func AttrValue(el *etree.Element, name QName) string {
	for _, attr := range el.Attr {
		if attr.Key != name.LocalPart {
			continue
		}
		if attr.Space == "" {
			if name.Namespace == "" {
				return attr.Value
			}
			continue
		}
		if lookupPrefixURI(el, attr.Space) == name.Namespace {
			return attr.Value
		}
	}
	return ""
}

// ResolveQName resolves the lexical prefix:local form of a qualified name
// against the namespace bindings in scope at the given element. It reports
// false when the local part is empty or a non-empty prefix is unbound.
func ResolveQName(scope *etree.Element, lexical string) (QName, bool) {
	prefix, local := splitQName(lexical)
	if local == "" {
		return QName{}, false
	}
	uri := lookupPrefixURI(scope, prefix)
	if prefix != "" && uri == "" {
		return QName{}, false
	}
	return QName{Namespace: uri, LocalPart: local}, true
}

// splitQName splits a prefix:local lexical form. The prefix is empty when
// the form carries none.
func splitQName(s string) (prefix, local string) {
	if i := strings.Index(s, ":"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}
