package wfs

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// queryContainers are the request elements that may hold wfs:Query or
// wfs:StoredQuery expressions.
var queryContainers = map[string]bool{
	GetFeature:         true,
	GetFeatureWithLock: true,
	GetPropertyValue:   true,
	LockFeature:        true,
}

// Parameter is one named argument of a stored-query invocation. Value is
// either a QName, serialized as prefix:local with the binding registered on
// the document, or any other value serialized as its string form.
type Parameter struct {
	Name  string
	Value interface{}
}

// CreateRequestEntity creates a new request document whose root element has
// the given operation name, in the WFS 2.0 namespace, with the mandatory
// service and version attributes.
func CreateRequestEntity(opName string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("wfs:" + opName)
	root.CreateAttr("xmlns:wfs", WFSNamespace)
	root.CreateAttr("service", ServiceType)
	root.CreateAttr("version", Version)
	return doc
}

// AppendSimpleQuery appends a wfs:Query element to the query container in
// the request document and sets its typeNames attribute from the given
// qualified names. It returns an error if the document has no element that
// can contain queries.
func AppendSimpleQuery(doc *etree.Document, typeNames ...QName) error {
	container := findQueryContainer(doc)
	if container == nil {
		return structuralError(doc, "wfs:Query")
	}
	wfsPrefix := ensurePrefix(doc, WFSNamespace)
	query := container.CreateElement(qualify(wfsPrefix, "Query"))
	names := make([]string, 0, len(typeNames))
	for _, tn := range typeNames {
		prefix := ensurePrefix(doc, tn.Namespace)
		names = append(names, qualify(prefix, tn.LocalPart))
	}
	if len(names) > 0 {
		query.CreateAttr("typeNames", strings.Join(names, " "))
	}
	return nil
}

// AppendStoredQuery appends a wfs:StoredQuery element invoking the stored
// query with the given identifier. One wfs:Parameter element is appended
// per entry of params, preserving their order.
func AppendStoredQuery(doc *etree.Document, queryID string, params []Parameter) error {
	container := findQueryContainer(doc)
	if container == nil {
		return structuralError(doc, "wfs:StoredQuery")
	}
	wfsPrefix := ensurePrefix(doc, WFSNamespace)
	storedQuery := container.CreateElement(qualify(wfsPrefix, "StoredQuery"))
	storedQuery.CreateAttr("id", queryID)
	for _, param := range params {
		paramElem := storedQuery.CreateElement(qualify(wfsPrefix, "Parameter"))
		paramElem.CreateAttr("name", param.Name)
		switch value := param.Value.(type) {
		case QName:
			prefix := ensurePrefix(doc, value.Namespace)
			paramElem.SetText(qualify(prefix, value.LocalPart))
		case string:
			paramElem.SetText(value)
		default:
			paramElem.SetText(fmt.Sprint(value))
		}
	}
	return nil
}

// AppendTypeNames adds one wfs:TypeName element per given feature type to a
// DescribeFeatureType request entity, registering a prefix binding for each
// distinct namespace.
func AppendTypeNames(doc *etree.Document, typeNames ...QName) error {
	root := doc.Root()
	if root == nil || root.Tag != DescribeFeatureType {
		return structuralError(doc, "wfs:TypeName")
	}
	wfsPrefix := ensurePrefix(doc, WFSNamespace)
	for _, tn := range typeNames {
		prefix := ensurePrefix(doc, tn.Namespace)
		elem := root.CreateElement(qualify(wfsPrefix, "TypeName"))
		elem.SetText(qualify(prefix, tn.LocalPart))
	}
	return nil
}

// NewResourceIDFilter creates a standalone fes:Filter fragment containing a
// single resource-identifier predicate for the given feature identifier.
func NewResourceIDFilter(id string) *etree.Element {
	filter := etree.NewElement("fes:Filter")
	filter.CreateAttr("xmlns:fes", FESNamespace)
	resourceID := filter.CreateElement("fes:ResourceId")
	resourceID.CreateAttr("rid", id)
	return filter
}

// AddResourceIDPredicate adds a fes:Filter with one fes:ResourceId element
// per distinct identifier to the first wfs:Query in the request document.
// Multiple predicates under one filter match any of the identifiers. An
// empty identifier list leaves the document unchanged.
func AddResourceIDPredicate(doc *etree.Document, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("no document element in request")
	}
	queries := findElementsByName(root, WFSNamespace, "Query")
	if len(queries) == 0 {
		return fmt.Errorf("no wfs:Query element found in request: %s", root.FullTag())
	}
	fesPrefix := ensurePrefix(doc, FESNamespace)
	filter := queries[0].CreateElement(qualify(fesPrefix, "Filter"))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		resourceID := filter.CreateElement(qualify(fesPrefix, "ResourceId"))
		resourceID.CreateAttr("rid", id)
	}
	return nil
}

// gmlProperties lists the standard GML feature properties in the order the
// gml:AbstractFeatureType schema mandates. Feature-specific properties
// always follow these.
var gmlProperties = []string{
	"metaDataProperty",
	"description",
	"descriptionReference",
	"identifier",
	"name",
	"boundedBy",
	"location",
}

// InsertGMLProperty inserts a standard GML property element into a feature
// element. If the feature already has a direct child with the same
// qualified name, that child is replaced in place; otherwise the property
// is inserted at the position the GML schema requires, before any
// feature-specific properties.
func InsertGMLProperty(feature, property *etree.Element) {
	propNS := namespaceOf(property)
	for _, child := range feature.ChildElements() {
		if child.Tag == property.Tag && namespaceOf(child) == propNS {
			idx := child.Index()
			feature.RemoveChildAt(idx)
			feature.InsertChildAt(idx, property)
			return
		}
	}
	rank := gmlPropertyRank(property.Tag)
	for _, child := range feature.ChildElements() {
		if namespaceOf(child) == GMLNamespace && gmlPropertyRank(child.Tag) <= rank {
			continue
		}
		feature.InsertChildAt(child.Index(), property)
		return
	}
	feature.AddChild(property)
}

func gmlPropertyRank(local string) int {
	for i, name := range gmlProperties {
		if name == local {
			return i
		}
	}
	return len(gmlProperties)
}

func findQueryContainer(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	return findContainerIn(root)
}

func findContainerIn(el *etree.Element) *etree.Element {
	if queryContainers[el.Tag] && namespaceOf(el) == WFSNamespace {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findContainerIn(child); found != nil {
			return found
		}
	}
	return nil
}

func structuralError(doc *etree.Document, wanted string) error {
	rootName := "(empty document)"
	if root := doc.Root(); root != nil {
		rootName = root.FullTag()
	}
	return fmt.Errorf("no element that can contain %s found in request: %s", wanted, rootName)
}
