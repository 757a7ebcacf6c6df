// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package regulations

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"

	"github.com/AleutianAI/pitwall/services/orchestrator/datatypes"
)

// fakeBedrockAPI scripts RetrieveAndGenerate responses: errs[i] is the
// error for attempt i, exhausting errs yields the canned output.
type fakeBedrockAPI struct {
	errs     []error
	output   *bedrockagentruntime.RetrieveAndGenerateOutput
	attempts int
	lastIn   *bedrockagentruntime.RetrieveAndGenerateInput
}

func (f *fakeBedrockAPI) RetrieveAndGenerate(_ context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput,
	_ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error) {
	f.lastIn = params
	f.attempts++
	if f.attempts <= len(f.errs) {
		return nil, f.errs[f.attempts-1]
	}
	return f.output, nil
}

func successOutput(answer string) *bedrockagentruntime.RetrieveAndGenerateOutput {
	return &bedrockagentruntime.RetrieveAndGenerateOutput{
		Output: &brtypes.RetrieveAndGenerateOutput{Text: aws.String(answer)},
		Citations: []brtypes.Citation{
			{
				RetrievedReferences: []brtypes.RetrievedReference{
					{
						Content: &brtypes.RetrievalResultContent{Text: aws.String("Article 6.4: 25 points are awarded")},
						Location: &brtypes.RetrievalResultLocation{
							Type: brtypes.RetrievalResultLocationTypeS3,
							S3Location: &brtypes.RetrievalResultS3Location{
								Uri: aws.String("s3://fia-regs/sporting_regulations.pdf"),
							},
						},
					},
				},
			},
		},
	}
}

func newFakeClient(api retrieveAndGenerateAPI) *Client {
	c := newClient(api, Options{
		Region:          "us-east-1",
		KnowledgeBaseID: "KB123",
		GenerationModel: "anthropic.claude-3-5-sonnet-20240620-v1:0",
	})
	c.retryInitialInterval = time.Millisecond
	return c
}

func transientErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "backend busy"}
}

func TestQueryRegulationsSuccess(t *testing.T) {
	api := &fakeBedrockAPI{output: successOutput("25 points are awarded for a win.")}
	c := newFakeClient(api)

	result := c.QueryRegulations(context.Background(), "how many points for a win?")

	if result.Kind != datatypes.ResultText {
		t.Fatalf("Kind = %q, want text (content: %s)", result.Kind, result.Content)
	}
	if result.Content != "25 points are awarded for a win." {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Metadata.Status != datatypes.StatusSuccess {
		t.Errorf("Status = %q", result.Metadata.Status)
	}
	if result.Metadata.Model != "anthropic.claude-3-5-sonnet-20240620-v1:0" {
		t.Errorf("Model = %q", result.Metadata.Model)
	}
	if result.Metadata.NumResults != DefaultNumResults {
		t.Errorf("NumResults = %d, want %d", result.Metadata.NumResults, DefaultNumResults)
	}
	if result.Metadata.LatencySeconds < 0 {
		t.Errorf("LatencySeconds = %f", result.Metadata.LatencySeconds)
	}
	if len(result.Metadata.Citations) != 1 {
		t.Fatalf("Citations = %d, want 1", len(result.Metadata.Citations))
	}
	citation := result.Metadata.Citations[0]
	if !strings.Contains(citation.Content, "Article 6.4") {
		t.Errorf("citation content = %q", citation.Content)
	}
	if citation.Location.URI != "s3://fia-regs/sporting_regulations.pdf" {
		t.Errorf("citation URI = %q", citation.Location.URI)
	}
	if api.attempts != 1 {
		t.Errorf("attempts = %d, want 1", api.attempts)
	}
}

func TestQueryRegulationsRequestShape(t *testing.T) {
	api := &fakeBedrockAPI{output: successOutput("answer")}
	c := newFakeClient(api)

	c.QueryRegulations(context.Background(), "what is DRS?")

	in := api.lastIn
	if in == nil {
		t.Fatal("no request captured")
	}
	if got := aws.ToString(in.Input.Text); got != "what is DRS?" {
		t.Errorf("Input.Text = %q", got)
	}
	kb := in.RetrieveAndGenerateConfiguration.KnowledgeBaseConfiguration
	if aws.ToString(kb.KnowledgeBaseId) != "KB123" {
		t.Errorf("KnowledgeBaseId = %q", aws.ToString(kb.KnowledgeBaseId))
	}
	if !strings.Contains(aws.ToString(kb.ModelArn), "arn:aws:bedrock:us-east-1::foundation-model/") {
		t.Errorf("ModelArn = %q", aws.ToString(kb.ModelArn))
	}
	vs := kb.RetrievalConfiguration.VectorSearchConfiguration
	if aws.ToInt32(vs.NumberOfResults) != DefaultNumResults {
		t.Errorf("NumberOfResults = %d", aws.ToInt32(vs.NumberOfResults))
	}
	infCfg := kb.GenerationConfiguration.InferenceConfig.TextInferenceConfig
	if aws.ToInt32(infCfg.MaxTokens) != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d", aws.ToInt32(infCfg.MaxTokens))
	}
}

func TestQueryRegulationsRetriesTransientThenSucceeds(t *testing.T) {
	api := &fakeBedrockAPI{
		errs:   []error{transientErr("ThrottlingException"), transientErr("ServiceUnavailableException")},
		output: successOutput("answer after retries"),
	}
	c := newFakeClient(api)

	result := c.QueryRegulations(context.Background(), "question")

	if result.Kind != datatypes.ResultText {
		t.Fatalf("Kind = %q, want text", result.Kind)
	}
	if api.attempts != 3 {
		t.Errorf("attempts = %d, want 3", api.attempts)
	}
}

func TestQueryRegulationsTransientExhaustion(t *testing.T) {
	api := &fakeBedrockAPI{
		errs: []error{
			transientErr("ThrottlingException"),
			transientErr("ThrottlingException"),
			transientErr("ThrottlingException"),
			transientErr("ThrottlingException"),
		},
	}
	c := newFakeClient(api)

	result := c.QueryRegulations(context.Background(), "question")

	if !result.IsError() {
		t.Fatalf("Kind = %q, want error", result.Kind)
	}
	if api.attempts != 3 {
		t.Errorf("attempts = %d, want exactly 3", api.attempts)
	}
	if result.Metadata.ErrorCode != "ThrottlingException" {
		t.Errorf("ErrorCode = %q", result.Metadata.ErrorCode)
	}
}

func TestQueryRegulationsNonTransientFailsImmediately(t *testing.T) {
	api := &fakeBedrockAPI{
		errs: []error{&smithy.GenericAPIError{Code: "ValidationException", Message: "bad knowledge base id"}},
	}
	c := newFakeClient(api)

	result := c.QueryRegulations(context.Background(), "question")

	if !result.IsError() {
		t.Fatalf("Kind = %q, want error", result.Kind)
	}
	if api.attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on non-transient)", api.attempts)
	}
	if result.Metadata.ErrorCode != "ValidationException" {
		t.Errorf("ErrorCode = %q", result.Metadata.ErrorCode)
	}
	if !strings.Contains(result.Content, "bad knowledge base id") {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestQueryRegulationsNonAPIError(t *testing.T) {
	api := &fakeBedrockAPI{errs: []error{errors.New("dial tcp: connection refused")}}
	c := newFakeClient(api)

	result := c.QueryRegulations(context.Background(), "question")

	if !result.IsError() {
		t.Fatalf("Kind = %q, want error", result.Kind)
	}
	if result.Metadata.ErrorCode != "Unknown" {
		t.Errorf("ErrorCode = %q, want Unknown", result.Metadata.ErrorCode)
	}
	if api.attempts != 1 {
		t.Errorf("attempts = %d, want 1", api.attempts)
	}
}

func TestQueryRegulationsEmptyOutput(t *testing.T) {
	api := &fakeBedrockAPI{output: &bedrockagentruntime.RetrieveAndGenerateOutput{}}
	c := newFakeClient(api)

	result := c.QueryRegulations(context.Background(), "question")

	if result.Kind != datatypes.ResultText {
		t.Fatalf("Kind = %q, want text", result.Kind)
	}
	if result.Content != "No answer generated" {
		t.Errorf("Content = %q", result.Content)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"throttling", transientErr("ThrottlingException"), true},
		{"service unavailable", transientErr("ServiceUnavailableException"), true},
		{"internal server", transientErr("InternalServerException"), true},
		{"model not ready", transientErr("ModelNotReadyException"), true},
		{"validation", transientErr("ValidationException"), false},
		{"access denied", transientErr("AccessDeniedException"), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewClientRequiresOptions(t *testing.T) {
	if _, err := NewClient(context.Background(), Options{GenerationModel: "m"}); err == nil {
		t.Error("want error for missing knowledge base ID")
	}
	if _, err := NewClient(context.Background(), Options{KnowledgeBaseID: "kb"}); err == nil {
		t.Error("want error for missing generation model")
	}
}
