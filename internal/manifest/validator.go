package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaName = "family.schema.json"

//go:embed schema/family.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ValidationResult is the outcome of checking one manifest.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one rule the manifest breaks.
type ValidationIssue struct {
	Path    string // JSON pointer into the manifest, "" for the document itself
	Message string
	Keyword string // failed schema keyword, e.g. "pattern" or "not"
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("decoding family schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaName, doc); err != nil {
			compileErr = fmt.Errorf("registering family schema: %w", err)
			return
		}
		if compiledSchema, err = c.Compile(schemaName); err != nil {
			compileErr = fmt.Errorf("compiling family schema: %w", err)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks a family.yaml document against the embedded schema. A
// broken manifest is reported through the result; the error is reserved for
// input that is not YAML at all or a schema that does not compile.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	// The validator wants JSON values (json.Number for numbers), so the
	// document goes through encoding/json once.
	encoded, err := json.Marshal(normalizeYAML(doc))
	if err != nil {
		return nil, fmt.Errorf("converting manifest to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("converting manifest to JSON: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	return &ValidationResult{Issues: extractIssues(ve)}, nil
}

// notMessages replaces the bare "'not' failed" for the negated rules in the
// schema, keyed by instance path.
var notMessages = map[string]string{
	"/destination": "destination must stay inside the project",
}

// extractIssues flattens the ValidationError tree into one issue per
// failed keyword.
func extractIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	collectValidationIssues(ve, &issues)

	if len(issues) == 0 {
		return []ValidationIssue{{
			Message: ve.Error(),
		}}
	}
	return deduplicateIssues(issues)
}

// collectValidationIssues records every leaf of the error tree. Inner nodes
// only group their causes.
func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectValidationIssues(cause, issues)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	issue := ValidationIssue{
		Path:    path,
		Message: ve.ErrorKind.LocalizedString(printer),
	}
	switch ve.ErrorKind.(type) {
	case *kind.Not:
		issue.Keyword = "not"
		if msg, ok := notMessages[path]; ok {
			issue.Message = msg
		}
	default:
		if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
			issue.Keyword = kw[len(kw)-1]
		}
	}
	*issues = append(*issues, issue)
}

// deduplicateIssues removes duplicate issues (same path + keyword + message).
// deduplicateIssues drops repeats of the same path, keyword and message.
func deduplicateIssues(issues []ValidationIssue) []ValidationIssue {
	seen := make(map[string]bool)
	var result []ValidationIssue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}

// normalizeYAML turns the maps yaml produces for non-string keys into
// string-keyed maps, which encoding/json can encode.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalizeYAML(item)
		}
		return val
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return m
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeYAML(item)
		}
		return val
	default:
		return val
	}
}
