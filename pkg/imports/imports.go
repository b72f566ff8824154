package imports

import (
	"mercator-hq/importcheck/pkg/imports/decoder"
	"mercator-hq/importcheck/pkg/imports/validator"
)

// ValidateFile decodes and validates the export file at path. It returns a
// *errors.DecodeError when the file cannot be decoded, a *errors.Violation
// when the export is invalid, and nil otherwise.
func ValidateFile(path string) error {
	doc, err := decoder.NewDecoder().Decode(path)
	if err != nil {
		return err
	}
	return validator.NewValidator().Validate(doc.Root)
}

// ValidateBytes is ValidateFile for an export held in memory. Source labels
// the document and drives format detection.
func ValidateBytes(data []byte, source string) error {
	doc, err := decoder.NewDecoder().DecodeBytes(data, source)
	if err != nil {
		return err
	}
	return validator.NewValidator().Validate(doc.Root)
}
