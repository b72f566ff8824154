package decoder

import (
	"github.com/tidwall/gjson"

	"mercator-hq/importcheck/pkg/imports/document"
	importErrors "mercator-hq/importcheck/pkg/imports/errors"
)

func decodeJSON(data []byte, source string, maxDepth int) (*document.Value, error) {
	if !gjson.ValidBytes(data) {
		e := importErrors.NewDecodeError(importErrors.DecodeErrorSyntax, source, "JSON parsing failed: invalid document", nil)
		e.Suggestion = "Check for trailing commas and unquoted keys"
		return nil, e
	}

	return jsonValue(gjson.ParseBytes(data), source, 1, maxDepth)
}

func jsonValue(r gjson.Result, source string, depth, maxDepth int) (*document.Value, error) {
	if depth > maxDepth {
		return nil, depthError(source, maxDepth)
	}

	loc := document.Location{File: source}

	var (
		v   *document.Value
		err error
	)
	switch {
	case r.IsObject():
		node := document.NewNode()
		node.Location = loc
		r.ForEach(func(key, value gjson.Result) bool {
			var child *document.Value
			child, err = jsonValue(value, source, depth+1, maxDepth)
			if err != nil {
				return false
			}
			node.Set(key.String(), child)
			return true
		})
		v = document.NewMapping(node)
	case r.IsArray():
		var items []document.Item
		r.ForEach(func(_, value gjson.Result) bool {
			var child *document.Value
			child, err = jsonValue(value, source, depth+1, maxDepth)
			if err != nil {
				return false
			}
			items = append(items, document.Item{Value: child})
			return true
		})
		v = document.NewSequence(items...)
	case r.Type == gjson.Null:
		v = document.NewScalar("")
	case r.Type == gjson.String:
		v = document.NewScalar(r.String())
	default:
		// Numbers and booleans keep their literal text.
		v = document.NewScalar(r.Raw)
	}
	if err != nil {
		return nil, err
	}

	v.Location = loc
	return v, nil
}
