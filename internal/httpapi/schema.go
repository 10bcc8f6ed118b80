// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Request payloads. JSON Schemas are reflected from these structs at startup
// and every request body is validated before it reaches a handler, so the
// handlers only ever see well-shaped input.

type registerRequest struct {
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=6"`
	Name     string `json:"name" jsonschema:"minLength=2"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type workflowStepPayload struct {
	Title       string `json:"title" jsonschema:"minLength=1"`
	Description string `json:"description,omitempty"`
}

type workflowCreateRequest struct {
	Name        string                `json:"name" jsonschema:"minLength=1"`
	Description string                `json:"description,omitempty"`
	Steps       []workflowStepPayload `json:"steps,omitempty"`
}

type workflowUpdateRequest struct {
	Name        string                `json:"name" jsonschema:"minLength=1"`
	Description string                `json:"description,omitempty"`
	Status      string                `json:"status,omitempty" jsonschema:"enum=draft,enum=active,enum=archived"`
	Steps       []workflowStepPayload `json:"steps,omitempty"`
}

type reportCreateRequest struct {
	Title      string `json:"title" jsonschema:"minLength=1"`
	ReportType string `json:"report_type" jsonschema:"enum=performance,enum=efficiency,enum=custom"`
	Data       any    `json:"data,omitempty"`
}

type chatSendRequest struct {
	Message string `json:"message" jsonschema:"minLength=1"`
}

type aiChatRequest struct {
	Prompt string `json:"prompt" jsonschema:"minLength=1"`
}

type aiReportRequest struct {
	Data any `json:"data"`
}

type aiOptimizeRequest struct {
	Workflow any `json:"workflow"`
}

// requestSchemas holds the compiled validators, one per request type.
type requestSchemas struct {
	register       *jschema.Schema
	login          *jschema.Schema
	workflowCreate *jschema.Schema
	workflowUpdate *jschema.Schema
	reportCreate   *jschema.Schema
	chatSend       *jschema.Schema
	aiChat         *jschema.Schema
	aiReport       *jschema.Schema
	aiOptimize     *jschema.Schema
}

func compileRequestSchemas() (*requestSchemas, error) {
	s := &requestSchemas{}
	for _, entry := range []struct {
		dst  **jschema.Schema
		name string
		v    any
	}{
		{&s.register, "register", &registerRequest{}},
		{&s.login, "login", &loginRequest{}},
		{&s.workflowCreate, "workflow_create", &workflowCreateRequest{}},
		{&s.workflowUpdate, "workflow_update", &workflowUpdateRequest{}},
		{&s.reportCreate, "report_create", &reportCreateRequest{}},
		{&s.chatSend, "chat_send", &chatSendRequest{}},
		{&s.aiChat, "ai_chat", &aiChatRequest{}},
		{&s.aiReport, "ai_report", &aiReportRequest{}},
		{&s.aiOptimize, "ai_optimize", &aiOptimizeRequest{}},
	} {
		compiled, err := CompileSchemaFor(entry.v, entry.name)
		if err != nil {
			return nil, err
		}
		*entry.dst = compiled
	}
	return s, nil
}

// GenerateSchemaFor reflects a JSON Schema document for the given request
// struct. Exported for the schema dump tool.
func GenerateSchemaFor(v any, name string) ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(v)
	schema.Title = name

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").
			With("schema", name).
			Wrap(err)
	}
	return data, nil
}

// CompileSchemaFor reflects and compiles the validator for a request struct.
func CompileSchemaFor(v any, name string) (*jschema.Schema, error) {
	data, err := GenerateSchemaFor(v, name)
	if err != nil {
		return nil, err
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").
			With("schema", name).
			Wrap(err)
	}

	c := jschema.NewCompiler()
	url := name + ".schema.json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").
			With("schema", name).
			Wrap(err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").
			With("schema", name).
			Wrap(err)
	}
	return compiled, nil
}

// RequestSchemaTypes lists the request payload types by schema name, for the
// schema dump tool.
func RequestSchemaTypes() map[string]any {
	return map[string]any{
		"register":        &registerRequest{},
		"login":           &loginRequest{},
		"workflow_create": &workflowCreateRequest{},
		"workflow_update": &workflowUpdateRequest{},
		"report_create":   &reportCreateRequest{},
		"chat_send":       &chatSendRequest{},
		"ai_chat":         &aiChatRequest{},
		"ai_report":       &aiReportRequest{},
		"ai_optimize":     &aiOptimizeRequest{},
	}
}

// decodeValid reads the request body, validates it against the schema, and
// unmarshals it into dst. All failures come back as client errors.
func decodeValid(r *http.Request, sch *jschema.Schema, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errRequest("failed to read request body")
	}
	if len(body) == 0 {
		return errRequest("request body is required")
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return errRequest("invalid JSON")
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code("REQUEST_INVALID").
			With("validation", err.Error()).
			Errorf("request body failed validation")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errRequest("invalid JSON")
	}
	return nil
}
