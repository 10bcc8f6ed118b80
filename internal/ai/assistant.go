// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/oops"
)

// chatSystemPrompt frames the assistant for conversational analysis turns.
const chatSystemPrompt = `You are Accelerate's intelligent assistant. You have access to the user's business data and can provide detailed analysis and recommendations.
Always provide responses in a clear, conversational format.
Focus on providing actionable insights and specific recommendations based on the user's business context.
When analyzing data, highlight key trends, patterns, and areas for improvement.`

const reportPromptFormat = `As Accelerate's business analyst, analyze this data and provide:
1. A comprehensive summary of the current business state
2. Key insights discovered from the data
3. Actionable recommendations for improvement

Respond with three sections separated by blank lines, labeled "Summary:", "Insights:", and "Recommendations:". Use "-" bullets for insights and recommendations.

Here's the data to analyze: %s`

const optimizePromptFormat = `As Accelerate's workflow optimization expert, analyze this workflow and provide:
1. Optimized workflow steps with clear improvements
2. Specific recommendations for enhancing efficiency

Respond with two sections separated by a blank line: numbered "title: description" steps, then "-" bulleted improvements.

Here's the workflow to optimize: %s`

// Assistant implements the three AI operations on top of a Completer.
type Assistant struct {
	completer Completer
}

// NewAssistant creates an Assistant.
func NewAssistant(completer Completer) (*Assistant, error) {
	if completer == nil {
		return nil, oops.Code("AI_NIL_DEPENDENCY").Errorf("completer is required")
	}
	return &Assistant{completer: completer}, nil
}

// ChatReply answers a conversational prompt. If userData is non-nil it is
// serialized and handed to the model as context.
func (a *Assistant) ChatReply(ctx context.Context, prompt string, userData any) (string, error) {
	userContent := prompt
	if userData != nil {
		data, err := json.Marshal(userData)
		if err != nil {
			return "", oops.Code("AI_REQUEST_INVALID").
				With("operation", "marshal user data").
				Wrap(err)
		}
		userContent = fmt.Sprintf("Context: %s\n\nUser Query: %s", data, prompt)
	}

	return a.completer.Complete(ctx, []Message{
		{Role: "system", Content: chatSystemPrompt},
		{Role: "user", Content: userContent},
	})
}

// GenerateReport asks the model to analyze the given data and parses the
// response into report sections.
func (a *Assistant) GenerateReport(ctx context.Context, data any) (ReportContent, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return ReportContent{}, oops.Code("AI_REQUEST_INVALID").
			With("operation", "marshal report data").
			Wrap(err)
	}

	content, err := a.completer.Complete(ctx, []Message{
		{Role: "user", Content: fmt.Sprintf(reportPromptFormat, encoded)},
	})
	if err != nil {
		return ReportContent{}, err
	}
	return ParseReportContent(content), nil
}

// OptimizeWorkflow asks the model for an improved version of the workflow and
// parses the response into a plan.
func (a *Assistant) OptimizeWorkflow(ctx context.Context, workflow any) (WorkflowPlan, error) {
	encoded, err := json.Marshal(workflow)
	if err != nil {
		return WorkflowPlan{}, oops.Code("AI_REQUEST_INVALID").
			With("operation", "marshal workflow").
			Wrap(err)
	}

	content, err := a.completer.Complete(ctx, []Message{
		{Role: "user", Content: fmt.Sprintf(optimizePromptFormat, encoded)},
	})
	if err != nil {
		return WorkflowPlan{}, err
	}
	return ParseWorkflowPlan(content), nil
}
