// Package chart turns a declarative chart spec and a result table into a
// Plotly figure. Nothing the model emits is executed.
package chart

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
)

// Type is a supported chart kind.
type Type string

const (
	Bar     Type = "bar"
	Line    Type = "line"
	Pie     Type = "pie"
	Scatter Type = "scatter"
)

// Spec is what the model is asked to produce.
type Spec struct {
	Type     Type     `json:"type" jsonschema:"enum=bar,enum=line,enum=pie,enum=scatter,description=Chart kind"`
	X        string   `json:"x" jsonschema:"minLength=1,description=Column used for the x axis or pie labels"`
	Y        []string `json:"y" jsonschema:"minItems=1,description=Numeric columns to plot"`
	Title    string   `json:"title,omitempty" jsonschema:"description=Chart title"`
	Currency bool     `json:"currency,omitempty" jsonschema:"description=Prefix numeric axis values with the rupee sign"`
}

var schemaJSON = sync.OnceValue(func() string {
	r := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	s := r.Reflect(&Spec{})
	s.Version = ""
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("chart: marshal schema: %v", err))
	}
	return string(b)
})

// Schema returns the JSON schema of Spec.
func Schema() string {
	return schemaJSON()
}

// Validate checks model output against the schema and decodes it.
func Validate(raw string) (*Spec, error) {
	doc := llm.StripCodeFences(raw)
	if i := strings.Index(doc, "{"); i > 0 {
		doc = doc[i:]
	}
	if j := strings.LastIndex(doc, "}"); j >= 0 && j < len(doc)-1 {
		doc = doc[:j+1]
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(Schema()), gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("chart spec is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("chart spec failed validation: %s", strings.Join(msgs, "; "))
	}

	var spec Spec
	if err := json.Unmarshal([]byte(doc), &spec); err != nil {
		return nil, fmt.Errorf("decode chart spec: %w", err)
	}
	return &spec, nil
}

var monetaryHints = []string{"sales", "profit", "revenue", "amount", "price", "value", "cost"}

// LooksMonetary reports whether a column name suggests rupee values.
func LooksMonetary(column string) bool {
	c := strings.ToLower(column)
	for _, h := range monetaryHints {
		if strings.Contains(c, h) {
			return true
		}
	}
	return false
}
