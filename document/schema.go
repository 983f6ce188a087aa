package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrDocumentInvalid reports that a course-content payload failed schema validation.
	ErrDocumentInvalid = errors.New("document: course content invalid")
	// ErrDocumentMalformed reports that the payload is not valid JSON at all.
	ErrDocumentMalformed = errors.New("document: course content malformed")
)

// courseContentSchema accepts the shapes the wizard has produced over time:
// every field is optional so partial documents still parse, but present
// fields must carry the expected types.
const courseContentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"welcomePage": {"$ref": "#/$defs/page"},
		"learningObjectivesPage": {"$ref": "#/$defs/page"},
		"topics": {
			"type": "array",
			"items": {"$ref": "#/$defs/page"}
		}
	},
	"$defs": {
		"page": {
			"type": ["object", "null"],
			"properties": {
				"id": {"type": "string"},
				"title": {"type": "string"},
				"narration": {"type": "string"},
				"media": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["id", "type"],
						"properties": {
							"id": {"type": "string"},
							"type": {"type": "string"},
							"storageId": {"type": "string"},
							"title": {"type": "string"},
							"content": {"type": "string"}
						}
					}
				}
			}
		}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("course-content.json", bytes.NewReader([]byte(courseContentSchema))); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("course-content.json")
	})
	return compiledSchema, schemaErr
}

// ValidationIssue captures one schema violation in a course-content payload.
type ValidationIssue struct {
	Location string
	Message  string
}

// ValidationError aggregates the schema violations found in a payload.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return ErrDocumentInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return fmt.Sprintf("%s: %s", ErrDocumentInvalid.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrDocumentInvalid
}

// Validate checks a raw course-content payload against the document schema.
func Validate(raw []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentMalformed, err)
	}
	if err := schema.Validate(payload); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &ValidationError{Issues: collectIssues(validationErr)}
		}
		return fmt.Errorf("%w: %v", ErrDocumentInvalid, err)
	}
	return nil
}

// Parse validates and decodes a raw course-content payload, assigning topic
// identifiers where the document omits them.
func Parse(raw []byte) (*CourseContent, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var doc CourseContent
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentMalformed, err)
	}
	EnsureTopicIDs(&doc)
	return &doc, nil
}

func collectIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
