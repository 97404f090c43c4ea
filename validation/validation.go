// Package validation checks request payloads against the embedded JSON
// schemas before they reach the repositories.
package validation

import (
	"embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Skryldev/jobboard/apperr"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names one embedded schema file.
type Schema string

const (
	JobNew        Schema = "jobNew"
	JobUpdate     Schema = "jobUpdate"
	JobSearch     Schema = "jobSearch"
	CompanyNew    Schema = "companyNew"
	CompanyUpdate Schema = "companyUpdate"
	CompanySearch Schema = "companySearch"
)

var all = []Schema{JobNew, JobUpdate, JobSearch, CompanyNew, CompanyUpdate, CompanySearch}

var (
	loadOnce sync.Once
	compiled map[Schema]*gojsonschema.Schema
	loadErr  error
)

func load() {
	compiled = make(map[Schema]*gojsonschema.Schema, len(all))
	for _, name := range all {
		data, err := schemaFS.ReadFile("schemas/" + string(name) + ".json")
		if err != nil {
			loadErr = fmt.Errorf("validation: read %s: %w", name, err)
			return
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			loadErr = fmt.Errorf("validation: compile %s: %w", name, err)
			return
		}
		compiled[name] = s
	}
}

func lookup(name Schema) (*gojsonschema.Schema, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	s, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("validation: unknown schema %q", name)
	}
	return s, nil
}

// Validate checks a raw JSON document. Malformed JSON and schema violations
// are BadRequest errors; each violation is listed in Details.
func Validate(name Schema, doc []byte) error {
	return validate(name, gojsonschema.NewBytesLoader(doc))
}

// ValidateValue checks the JSON encoding of v, for inputs that were not JSON
// to begin with such as decoded query strings.
func ValidateValue(name Schema, v any) error {
	return validate(name, gojsonschema.NewGoLoader(v))
}

func validate(name Schema, doc gojsonschema.JSONLoader) error {
	s, err := lookup(name)
	if err != nil {
		return err
	}
	res, err := s.Validate(doc)
	if err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "Malformed JSON", err)
	}
	if res.Valid() {
		return nil
	}
	details := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		details = append(details, e.String())
	}
	return apperr.BadRequest("Invalid "+string(name), details...)
}
