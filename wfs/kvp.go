package wfs

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// TransformEntityToKVP flattens an XML request entity into the equivalent
// KVP (key-value pair) query string defined by the WFS 2.0 GET binding.
// Keys are emitted in lower case; list-valued parameters are comma-joined
// in document order; filter expressions, which have no scalar KVP form,
// are carried as percent-encoded literal XML; and one xmlns(prefix,uri)
// declaration is emitted for every namespace prefix referenced by a
// qualified-name-valued parameter.
//
// An error is returned if the source is not well-formed XML or names an
// operation that has no KVP encoding; no partial output is produced.
func TransformEntityToKVP(src io.Reader) (string, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(src); err != nil {
		return "", fmt.Errorf("transforming entity to KVP: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("transforming entity to KVP: source has no document element")
	}
	t := &kvpTransformer{}
	if err := t.transform(root); err != nil {
		return "", err
	}
	return t.encode(), nil
}

type kvPair struct {
	key   string
	value string
}

type kvpTransformer struct {
	pairs      []kvPair
	nsPrefixes []string
	nsByPrefix map[string]string
}

func (t *kvpTransformer) transform(root *etree.Element) error {
	t.add("request", root.Tag)
	t.addRootAttributes(root)

	switch root.Tag {
	case GetCapabilities:
		t.addJoinedChildText(root, "AcceptVersions", "Version", "acceptversions")
		t.addJoinedChildText(root, "Sections", "Section", "sections")
		t.addJoinedChildText(root, "AcceptFormats", "OutputFormat", "acceptformats")
	case DescribeFeatureType:
		t.addTypeNameElements(root)
	case GetFeature, GetFeatureWithLock, GetPropertyValue, LockFeature:
		if err := t.addQueryExpressions(root); err != nil {
			return err
		}
	case DescribeStoredQueries:
		t.addJoinedChildText(root, "", "StoredQueryId", "storedquery_id")
	case ListStoredQueries:
		// No parameters beyond the common ones.
	default:
		return fmt.Errorf("transforming entity to KVP: %s has no KVP encoding", root.FullTag())
	}

	if len(t.nsPrefixes) > 0 {
		decls := make([]string, 0, len(t.nsPrefixes))
		for _, prefix := range t.nsPrefixes {
			decls = append(decls, fmt.Sprintf("xmlns(%s,%s)", prefix, t.nsByPrefix[prefix]))
		}
		t.add("namespaces", strings.Join(decls, ","))
	}
	return nil
}

// addRootAttributes maps the scalar attributes of the root element
// (service, version, count, startIndex, outputFormat, resultType and so on)
// to parameters of the same name in lower case. Namespace declarations and
// prefixed attributes such as xsi:schemaLocation have no KVP form.
func (t *kvpTransformer) addRootAttributes(root *etree.Element) {
	for _, attr := range root.Attr {
		if attr.Space != "" || attr.Key == "xmlns" {
			continue
		}
		t.add(strings.ToLower(attr.Key), attr.Value)
	}
}

// addJoinedChildText emits one comma-joined parameter from the text of all
// item elements found under the named wrapper child of root. An empty
// wrapper name looks for the items directly under root.
func (t *kvpTransformer) addJoinedChildText(root *etree.Element, wrapper, item, key string) {
	parent := root
	if wrapper != "" {
		parent = selectChild(root, wrapper)
		if parent == nil {
			return
		}
	}
	var values []string
	for _, child := range parent.ChildElements() {
		if child.Tag == item {
			values = append(values, strings.TrimSpace(child.Text()))
		}
	}
	if len(values) > 0 {
		t.add(key, strings.Join(values, ","))
	}
}

// addTypeNameElements flattens wfs:TypeName child elements, whose text
// content is a qualified name, into a single typenames parameter.
func (t *kvpTransformer) addTypeNameElements(root *etree.Element) {
	var names []string
	for _, child := range root.ChildElements() {
		if child.Tag != "TypeName" {
			continue
		}
		name := strings.TrimSpace(child.Text())
		names = append(names, name)
		t.declareQNamePrefix(child, name)
	}
	if len(names) > 0 {
		t.add("typenames", strings.Join(names, ","))
	}
}

// addQueryExpressions handles the query expressions of a GetFeature-class
// request: ad hoc wfs:Query elements, whose typeNames attributes flatten
// into one comma-joined parameter across all sibling queries and whose
// filters fall back to literal XML, and wfs:StoredQuery invocations.
func (t *kvpTransformer) addQueryExpressions(root *etree.Element) error {
	var typeNames []string
	var filters []*etree.Element
	var propertyNames []string
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "Query":
			for _, name := range strings.Fields(child.SelectAttrValue("typeNames", "")) {
				typeNames = append(typeNames, name)
				t.declareQNamePrefix(child, name)
			}
			for _, sub := range child.ChildElements() {
				switch sub.Tag {
				case "Filter":
					filters = append(filters, sub)
				case "PropertyName":
					propertyNames = append(propertyNames, strings.TrimSpace(sub.Text()))
				}
			}
		case "StoredQuery":
			t.add("storedquery_id", child.SelectAttrValue("id", ""))
			for _, param := range child.ChildElements() {
				if param.Tag != "Parameter" {
					continue
				}
				name := strings.ToLower(param.SelectAttrValue("name", ""))
				value := strings.TrimSpace(param.Text())
				t.add(name, value)
				t.declareQNamePrefix(param, value)
			}
		}
	}
	if len(typeNames) > 0 {
		t.add("typenames", strings.Join(typeNames, ","))
	}
	if len(propertyNames) > 0 {
		t.add("propertyname", strings.Join(propertyNames, ","))
	}
	for _, filter := range filters {
		literal, err := t.literalXML(filter)
		if err != nil {
			return err
		}
		t.add("filter", literal)
	}
	return nil
}

// literalXML serializes a subtree that has no scalar KVP equivalent as
// percent-encoded XML text, registering namespace declarations for every
// prefix the subtree references.
func (t *kvpTransformer) literalXML(el *etree.Element) (string, error) {
	t.declareSubtreePrefixes(el)
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	text, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("transforming entity to KVP: serializing %s: %w", el.FullTag(), err)
	}
	return percentEncode(strings.TrimSpace(text)), nil
}

func (t *kvpTransformer) declareSubtreePrefixes(el *etree.Element) {
	if el.Space != "" {
		t.declareNamespace(el.Space, lookupPrefixURI(el, el.Space))
	}
	for _, child := range el.ChildElements() {
		t.declareSubtreePrefixes(child)
	}
}

var qNamePattern = regexp.MustCompile(`^[A-Za-z_][\w.-]*:[A-Za-z_][\w.-]*$`)

// declareQNamePrefix registers a namespace declaration when the value is a
// qualified name whose prefix resolves in the scope of the given element.
func (t *kvpTransformer) declareQNamePrefix(scope *etree.Element, value string) {
	if !qNamePattern.MatchString(value) {
		return
	}
	prefix, _ := splitQName(value)
	t.declareNamespace(prefix, lookupPrefixURI(scope, prefix))
}

func (t *kvpTransformer) declareNamespace(prefix, uri string) {
	if prefix == "" || uri == "" {
		return
	}
	if t.nsByPrefix == nil {
		t.nsByPrefix = make(map[string]string)
	}
	if _, seen := t.nsByPrefix[prefix]; seen {
		return
	}
	t.nsByPrefix[prefix] = uri
	t.nsPrefixes = append(t.nsPrefixes, prefix)
}

func (t *kvpTransformer) add(key, value string) {
	t.pairs = append(t.pairs, kvPair{key: key, value: value})
}

func (t *kvpTransformer) encode() string {
	parts := make([]string, 0, len(t.pairs))
	for _, pair := range t.pairs {
		parts = append(parts, pair.key+"="+pair.value)
	}
	return strings.Join(parts, "&")
}

func selectChild(el *etree.Element, local string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			return child
		}
	}
	return nil
}

// percentEncode applies RFC 3986 percent-encoding to every octet outside
// the unreserved set. The OGC KVP grammar requires it for values carrying
// literal XML, where '<', '>', ':' and ',' would otherwise collide with
// the KVP delimiters.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}
