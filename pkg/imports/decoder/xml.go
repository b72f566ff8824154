package decoder

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"mercator-hq/importcheck/pkg/imports/document"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
)

var rootExpr = xpath.MustCompile("/" + RootElement)

// decodeXML parses data and returns a mapping holding the zabbix_export
// element, or an empty mapping when the document root has another name.
func decodeXML(data []byte, source string, maxDepth int) (*document.Value, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		e := importErrors.NewDecodeError(importErrors.DecodeErrorSyntax, source, "XML parsing failed", err)
		e.Suggestion = "Check that every tag is closed and attributes are quoted"
		return nil, e
	}

	root := document.NewNode()
	root.Location = document.Location{File: source}

	export := xmlquery.QuerySelector(doc, rootExpr)
	if export == nil {
		return document.NewMapping(root), nil
	}

	value, err := xmlElement(export, source, 1, maxDepth)
	if err != nil {
		return nil, err
	}
	root.Set(RootElement, value)

	return document.NewMapping(root), nil
}

// xmlElement converts one element. Repeated child names are renamed to the
// name followed by the number of keys already stored.
func xmlElement(n *xmlquery.Node, source string, depth, maxDepth int) (*document.Value, error) {
	if depth > maxDepth {
		return nil, depthError(source, maxDepth)
	}

	loc := document.Location{File: source}

	var children []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			children = append(children, c)
		}
	}

	if len(children) == 0 {
		v := document.NewScalar(strings.TrimSpace(n.InnerText()))
		v.Location = loc
		return v, nil
	}

	node := document.NewNode()
	node.Location = loc
	for _, c := range children {
		key := c.Data
		if node.Has(key) {
			key += strconv.Itoa(node.Len())
		}

		value, err := xmlElement(c, source, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		node.Set(key, value)
	}

	v := document.NewMapping(node)
	v.Location = loc
	return v, nil
}
