package decoder

import (
	"gopkg.in/yaml.v3"

	"mercator-hq/importcheck/pkg/imports/document"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
)

func decodeYAML(data []byte, source string, maxDepth int) (*document.Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		e := importErrors.NewDecodeError(importErrors.DecodeErrorSyntax, source, "YAML parsing failed", err)
		e.Suggestion = "Check YAML syntax (indentation, colons, quotes)"
		return nil, e
	}

	return yamlValue(&node, source, 0, maxDepth)
}

func yamlValue(n *yaml.Node, source string, depth, maxDepth int) (*document.Value, error) {
	if depth > maxDepth {
		return nil, depthError(source, maxDepth)
	}

	loc := getLocation(n, source)

	var v *document.Value
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return document.NewScalar(""), nil
		}
		return yamlValue(n.Content[0], source, depth, maxDepth)
	case yaml.AliasNode:
		return yamlValue(n.Alias, source, depth+1, maxDepth)
	case yaml.MappingNode:
		node := document.NewNode()
		node.Location = loc
		for i := 0; i+1 < len(n.Content); i += 2 {
			child, err := yamlValue(n.Content[i+1], source, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			node.Set(n.Content[i].Value, child)
		}
		v = document.NewMapping(node)
	case yaml.SequenceNode:
		items := make([]document.Item, 0, len(n.Content))
		for _, c := range n.Content {
			child, err := yamlValue(c, source, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			items = append(items, document.Item{Value: child})
		}
		v = document.NewSequence(items...)
	default:
		if n.ShortTag() == "!!null" {
			v = document.NewScalar("")
		} else {
			v = document.NewScalar(n.Value)
		}
	}

	v.Location = loc
	return v, nil
}

// getLocation extracts the source location from a YAML node.
func getLocation(n *yaml.Node, source string) document.Location {
	if n == nil {
		return document.Location{File: source}
	}
	return document.Location{File: source, Line: n.Line, Column: n.Column}
}
