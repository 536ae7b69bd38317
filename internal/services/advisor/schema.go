package advisor

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"google.golang.org/genai"
)

const schemaResourceName = "recommendation.schema.json"

//go:embed recommendation.schema.json
var recommendationSchemaJSON string

var (
	schemaPrinter  = message.NewPrinter(language.English)
	compiledSchema *jsonschema.Schema
	schemaDocument map[string]any
	schemaOnce     sync.Once
	schemaErr      error
)

// ResponseSchema is the schema declared to the Gemini API. Only is_off_topic
// is required because the off-topic and ranked branches fill disjoint fields.
func ResponseSchema() *genai.Schema {
	keySpecs := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"Max_Tokens": {Type: genai.TypeString},
			"Parameters": {Type: genai.TypeString},
			"Dimensions": {Type: genai.TypeString},
		},
		PropertyOrdering: []string{"Max_Tokens", "Parameters", "Dimensions"},
	}

	item := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"rank":           {Type: genai.TypeNumber},
			"model_name":     {Type: genai.TypeString},
			"score_for_task": {Type: genai.TypeNumber},
			"justification":  {Type: genai.TypeString},
			"key_specs":      keySpecs,
		},
		PropertyOrdering: []string{"rank", "model_name", "score_for_task", "justification", "key_specs"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"is_off_topic": {
				Type:        genai.TypeBoolean,
				Description: "True when the project description is not a request for an embedding model.",
			},
			"off_topic_message": {
				Type:        genai.TypeString,
				Description: "Polite refusal explaining the tool only recommends embedding models. Set only when is_off_topic is true.",
			},
			"recommendations": {
				Type:        genai.TypeArray,
				Description: "An array of the top 3 recommended embedding models.",
				Items:       item,
			},
		},
		Required:         []string{"is_off_topic"},
		PropertyOrdering: []string{"is_off_topic", "off_topic_message", "recommendations"},
	}
}

func loadSchema() error {
	schemaOnce.Do(func() {
		var doc map[string]any
		if err := json.Unmarshal([]byte(recommendationSchemaJSON), &doc); err != nil {
			schemaErr = fmt.Errorf("failed to parse %s: %w", schemaResourceName, err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaResourceName, doc); err != nil {
			schemaErr = fmt.Errorf("failed to add %s resource: %w", schemaResourceName, err)
			return
		}

		sch, err := compiler.Compile(schemaResourceName)
		if err != nil {
			schemaErr = fmt.Errorf("failed to compile %s: %w", schemaResourceName, err)
			return
		}

		schemaDocument = doc
		compiledSchema = sch
	})
	return schemaErr
}

// JSONSchema returns the response schema as a JSON Schema document, used for
// OpenAI structured outputs
func JSONSchema() (map[string]any, error) {
	if err := loadSchema(); err != nil {
		return nil, err
	}
	return schemaDocument, nil
}

// SchemaViolations validates a decoded model reply against the response schema.
// The result is advisory and never changes how the reply is normalized.
func SchemaViolations(instance any) []string {
	if err := loadSchema(); err != nil {
		return []string{err.Error()}
	}

	err := compiledSchema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var violations []string
	collectViolations(ve, &violations)
	return violations
}

func collectViolations(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, cause := range ve.Causes {
		collectViolations(cause, out)
	}
}
