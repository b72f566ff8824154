// Package decoder turns XML, JSON and YAML export files into the generic
// tree consumed by the validator.
//
// # Formats
//
// XML is read with antchfx/xmlquery. Elements become mappings keyed by
// element name. A name repeated inside one parent is stored as the name
// followed by the number of keys already present, so three <host> elements
// become host, host1 and host2. Elements without child elements become
// scalars holding their trimmed text. Attributes are ignored.
//
// JSON is read with tidwall/gjson. Objects keep their key order and arrays
// become untagged sequences. Numbers and booleans keep their literal text,
// null becomes the empty string.
//
// YAML is read through the gopkg.in/yaml.v3 node API, which keeps key order
// and line numbers. Aliases are resolved.
//
// # Root element
//
// Every format must carry a top-level zabbix_export mapping. Decode returns
// the unwrapped mapping:
//
//	doc, err := decoder.NewDecoder().Decode("export.xml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(doc.Version, doc.Root.Keys())
//
// All failures are returned as *errors.DecodeError.
package decoder
