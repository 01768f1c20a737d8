package wfs

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testNS1 = "http://example.org/ns1"
	testNS2 = "http://example.org/ns2"
)

const lockFeatureEmptyXML = `<?xml version="1.0" encoding="UTF-8"?>
<wfs:LockFeature service="WFS" version="2.0.0"
  xmlns:wfs="http://www.opengis.net/wfs/2.0"/>`

const alphaFeatureXML = `<?xml version="1.0" encoding="UTF-8"?>
<tns:Alpha gml:id="a1"
  xmlns:tns="http://example.org/ns1"
  xmlns:gml="http://www.opengis.net/gml/3.2">
  <gml:description>Alpha feature</gml:description>
  <gml:name codeSpace="http://example.org/">Old name</gml:name>
  <tns:quantity>42</tns:quantity>
</tns:Alpha>`

const gammaFeatureXML = `<?xml version="1.0" encoding="UTF-8"?>
<tns:Gamma gml:id="g1"
  xmlns:tns="http://example.org/ns1"
  xmlns:gml="http://www.opengis.net/gml/3.2">
  <tns:weight>3.14</tns:weight>
</tns:Gamma>`

func parseDocument(t *testing.T, source string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(source))
	return doc
}

func TestCreateRequestEntity(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "GetFeature", root.Tag)
	assert.Equal(t, WFSNamespace, namespaceOf(root))
	assert.Equal(t, "WFS", root.SelectAttrValue("service", ""))
	assert.Equal(t, "2.0.0", root.SelectAttrValue("version", ""))
}

func TestAppendSimpleQuery_twoQueryElements(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS1, "Type1"}))
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS2, "Type2"}))

	queries := findElementsByName(doc.Root(), WFSNamespace, "Query")
	require.Len(t, queries, 2)
	assert.Regexp(t, "Type1$", queries[0].SelectAttrValue("typeNames", ""))
	assert.Regexp(t, "Type2$", queries[1].SelectAttrValue("typeNames", ""))
}

func TestAppendSimpleQuery_distinctPrefixPerNamespace(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS1, "Type1"}))
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS2, "Type2"}))
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS1, "Type3"}))

	queries := findElementsByName(doc.Root(), WFSNamespace, "Query")
	require.Len(t, queries, 3)
	first, _ := splitQName(queries[0].SelectAttrValue("typeNames", ""))
	second, _ := splitQName(queries[1].SelectAttrValue("typeNames", ""))
	third, _ := splitQName(queries[2].SelectAttrValue("typeNames", ""))
	assert.NotEqual(t, first, second, "namespaces must get distinct prefixes")
	assert.Equal(t, first, third, "a bound namespace must reuse its prefix")
	assert.Equal(t, testNS1, lookupPrefixURI(doc.Root(), first))
	assert.Equal(t, testNS2, lookupPrefixURI(doc.Root(), second))
}

func TestAppendSimpleQuery_lockFeatureRequest(t *testing.T) {
	doc := parseDocument(t, lockFeatureEmptyXML)
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS1, "River"}))

	queries := findElementsByName(doc.Root(), WFSNamespace, "Query")
	require.Len(t, queries, 1)
	assert.Regexp(t, "River$", queries[0].SelectAttrValue("typeNames", ""))
}

func TestAppendSimpleQuery_noQueryContainer(t *testing.T) {
	doc := CreateRequestEntity(DescribeStoredQueries)
	err := AppendSimpleQuery(doc, QName{testNS1, "Type1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wfs:DescribeStoredQueries")
}

func TestAppendStoredQuery_qNameParameter(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	err := AppendStoredQuery(doc, QueryGetFeatureByType,
		[]Parameter{{Name: "typeName", Value: QName{testNS1, "Alpha"}}})
	require.NoError(t, err)

	params := findElementsByName(doc.Root(), WFSNamespace, "Parameter")
	require.Len(t, params, 1)
	assert.Equal(t, "typeName", params[0].SelectAttrValue("name", ""))
	prefix, local := splitQName(params[0].Text())
	assert.Equal(t, "Alpha", local)
	assert.Equal(t, testNS1, lookupPrefixURI(params[0], prefix))
}

func TestAppendStoredQuery_stringParameter(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	err := AppendStoredQuery(doc, "q1", []Parameter{{Name: "p1", Value: "v1"}})
	require.NoError(t, err)

	storedQueries := findElementsByName(doc.Root(), WFSNamespace, "StoredQuery")
	require.Len(t, storedQueries, 1)
	assert.Equal(t, "q1", storedQueries[0].SelectAttrValue("id", ""))
	params := findElementsByName(doc.Root(), WFSNamespace, "Parameter")
	require.Len(t, params, 1)
	assert.Equal(t, "p1", params[0].SelectAttrValue("name", ""))
	assert.Equal(t, "v1", params[0].Text())
}

func TestAppendStoredQuery_parameterOrder(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	err := AppendStoredQuery(doc, "q1", []Parameter{
		{Name: "first", Value: "1"},
		{Name: "second", Value: "2"},
		{Name: "third", Value: "3"},
	})
	require.NoError(t, err)

	params := findElementsByName(doc.Root(), WFSNamespace, "Parameter")
	require.Len(t, params, 3)
	assert.Equal(t, "first", params[0].SelectAttrValue("name", ""))
	assert.Equal(t, "second", params[1].SelectAttrValue("name", ""))
	assert.Equal(t, "third", params[2].SelectAttrValue("name", ""))
}

func TestAppendTypeNames(t *testing.T) {
	doc := CreateRequestEntity(DescribeFeatureType)
	err := AppendTypeNames(doc, QName{testNS1, "Alpha"}, QName{testNS2, "Beta"})
	require.NoError(t, err)

	typeNames := findElementsByName(doc.Root(), WFSNamespace, "TypeName")
	require.Len(t, typeNames, 2)
	p1, l1 := splitQName(typeNames[0].Text())
	p2, l2 := splitQName(typeNames[1].Text())
	assert.Equal(t, "Alpha", l1)
	assert.Equal(t, "Beta", l2)
	assert.Equal(t, testNS1, lookupPrefixURI(typeNames[0], p1))
	assert.Equal(t, testNS2, lookupPrefixURI(typeNames[1], p2))
}

func TestAppendTypeNames_wrongRequestType(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	require.Error(t, AppendTypeNames(doc, QName{testNS1, "Alpha"}))
}

func TestAttrValue(t *testing.T) {
	doc := parseDocument(t, alphaFeatureXML)
	assert.Equal(t, "a1", AttrValue(doc.Root(), QName{GMLNamespace, "id"}))
	assert.Equal(t, "", AttrValue(doc.Root(), QName{testNS2, "id"}))

	names := findElementsByName(doc.Root(), GMLNamespace, "name")
	require.Len(t, names, 1)
	assert.Equal(t, "http://example.org/", AttrValue(names[0], QName{"", "codeSpace"}))
	assert.Equal(t, "", AttrValue(names[0], QName{GMLNamespace, "codeSpace"}))
}

func TestNewResourceIDFilter(t *testing.T) {
	filter := NewResourceIDFilter("alpha")
	assert.Equal(t, "Filter", filter.Tag)
	assert.Equal(t, FESNamespace, namespaceOf(filter))
	resourceIDs := findElementsByName(filter, FESNamespace, "ResourceId")
	require.Len(t, resourceIDs, 1)
	assert.Equal(t, "alpha", resourceIDs[0].SelectAttrValue("rid", ""))
}

func TestAddResourceIDPredicate(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS1, "Alpha"}))
	require.NoError(t, AddResourceIDPredicate(doc, []string{"a1", "a2"}))

	filters := findElementsByName(doc.Root(), FESNamespace, "Filter")
	require.Len(t, filters, 1)
	resourceIDs := findElementsByName(filters[0], FESNamespace, "ResourceId")
	require.Len(t, resourceIDs, 2)
	rids := []string{
		resourceIDs[0].SelectAttrValue("rid", ""),
		resourceIDs[1].SelectAttrValue("rid", ""),
	}
	assert.ElementsMatch(t, []string{"a1", "a2"}, rids)
}

func TestAddResourceIDPredicate_emptySetIsNoOp(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS1, "Alpha"}))
	before, err := doc.WriteToString()
	require.NoError(t, err)

	require.NoError(t, AddResourceIDPredicate(doc, nil))

	after, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAddResourceIDPredicate_duplicateIdentifiers(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	require.NoError(t, AppendSimpleQuery(doc, QName{testNS1, "Alpha"}))
	require.NoError(t, AddResourceIDPredicate(doc, []string{"a1", "a1", "a1"}))

	resourceIDs := findElementsByName(doc.Root(), FESNamespace, "ResourceId")
	require.Len(t, resourceIDs, 1)
}

func TestAddResourceIDPredicate_noQueryElement(t *testing.T) {
	doc := CreateRequestEntity(GetFeature)
	err := AddResourceIDPredicate(doc, []string{"a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no wfs:Query element")
}

func TestInsertGMLProperty_featureWithoutGMLProps(t *testing.T) {
	doc := parseDocument(t, gammaFeatureXML)
	identifier := NewElement(QName{GMLNamespace, "identifier"})
	identifier.CreateAttr("codeSpace", "http://example.org/")
	identifier.SetText("g1-identifier")

	InsertGMLProperty(doc.Root(), identifier)

	children := doc.Root().ChildElements()
	require.Len(t, children, 2)
	assert.Equal(t, "identifier", children[0].Tag)
	assert.Equal(t, "g1-identifier", children[0].Text())
	assert.Equal(t, "weight", children[1].Tag)
}

func TestInsertGMLProperty_featureWithGMLProps(t *testing.T) {
	doc := parseDocument(t, alphaFeatureXML)
	identifier := NewElement(QName{GMLNamespace, "identifier"})
	identifier.SetText("a1-identifier")

	InsertGMLProperty(doc.Root(), identifier)

	children := doc.Root().ChildElements()
	require.Len(t, children, 4)
	assert.Equal(t, "description", children[0].Tag)
	assert.Equal(t, "identifier", children[1].Tag)
	assert.Equal(t, "name", children[2].Tag)
	assert.Equal(t, "quantity", children[3].Tag)
}

func TestInsertGMLProperty_replacesExistingProperty(t *testing.T) {
	doc := parseDocument(t, alphaFeatureXML)
	name := NewElement(QName{GMLNamespace, "name"})
	name.CreateAttr("codeSpace", "http://example.org/")
	name.SetText("New name")

	InsertGMLProperty(doc.Root(), name)

	children := doc.Root().ChildElements()
	require.Len(t, children, 3)
	assert.Equal(t, "description", children[0].Tag)
	assert.Equal(t, "name", children[1].Tag)
	assert.Equal(t, "New name", children[1].Text())
	assert.Equal(t, "quantity", children[2].Tag)
}
