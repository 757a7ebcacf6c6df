// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package regulations answers F1 regulation questions through the AWS
// Bedrock Knowledge Base RetrieveAndGenerate API: a single call that
// performs both retrieval and grounded generation.
package regulations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"

	"github.com/AleutianAI/pitwall/services/orchestrator/datatypes"
)

// Defaults for retrieval and generation, chosen for factual answers over
// creative ones.
const (
	DefaultNumResults  = 5
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.3

	// defaultTimeout bounds a single backend call.
	defaultTimeout = 10 * time.Second

	// maxAttempts is the total number of tries for transient failures.
	maxAttempts = 3
)

// retrieveAndGenerateAPI is the slice of the Bedrock Agent Runtime client
// this package uses. Narrowing to one method keeps the client testable
// with an in-memory fake.
type retrieveAndGenerateAPI interface {
	RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput,
		optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

// Options configures a regulations Client.
type Options struct {
	// Region is the AWS region hosting the knowledge base.
	Region string

	// KnowledgeBaseID identifies the Bedrock knowledge base.
	KnowledgeBaseID string

	// GenerationModel is the foundation model identifier used for the
	// generation half of RetrieveAndGenerate.
	GenerationModel string

	// NumResults bounds retrieved passages per query. Zero uses the default.
	NumResults int

	// MaxTokens bounds the generated answer length. Zero uses the default.
	MaxTokens int

	// Temperature is the generation temperature. Zero uses the default.
	Temperature float32

	// Timeout bounds a single backend call. Zero uses the default (10s).
	Timeout time.Duration
}

// Client queries the F1 regulations knowledge base.
//
// Description:
//
//	Wraps Bedrock RetrieveAndGenerate with bounded exponential-backoff
//	retry on transient failures (throttling, 5xx-equivalents). All
//	failures — transient exhaustion included — surface as error-kind
//	ToolResults; the client never returns a raw error across the tool
//	boundary.
//
// Thread Safety: Client is safe for concurrent use.
type Client struct {
	api         retrieveAndGenerateAPI
	kbID        string
	model       string
	modelArn    string
	numResults  int32
	maxTokens   int32
	temperature float32
	timeout     time.Duration

	// retryInitialInterval seeds the backoff schedule. Tests shrink it.
	retryInitialInterval time.Duration
}

// NewClient creates a Client backed by the real Bedrock Agent Runtime.
//
// Description:
//
//	Loads AWS credentials and region through the SDK's default chain
//	(environment, shared config, instance role), with opts.Region taking
//	precedence when set.
//
// Inputs:
//   - ctx: Context for AWS config loading.
//   - opts: Client options. KnowledgeBaseID and GenerationModel are required.
//
// Outputs:
//   - *Client: The configured client.
//   - error: Non-nil if required options are missing or config loading fails.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.KnowledgeBaseID == "" {
		return nil, fmt.Errorf("regulations: knowledge base ID is missing (BEDROCK_KNOWLEDGE_BASE_ID)")
	}
	if opts.GenerationModel == "" {
		return nil, fmt.Errorf("regulations: generation model is missing (BEDROCK_GENERATION_MODEL)")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("regulations: loading AWS config: %w", err)
	}

	c := newClient(bedrockagentruntime.NewFromConfig(awsCfg), opts)
	slog.Info("Initialized regulations RAG client",
		slog.String("knowledge_base", c.kbID),
		slog.String("model", c.model),
	)
	return c, nil
}

// newClient wires a Client over any retrieveAndGenerateAPI. Tests use it
// with fakes.
func newClient(api retrieveAndGenerateAPI, opts Options) *Client {
	numResults := opts.NumResults
	if numResults <= 0 {
		numResults = DefaultNumResults
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		api:                  api,
		kbID:                 opts.KnowledgeBaseID,
		model:                opts.GenerationModel,
		modelArn:             fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", opts.Region, opts.GenerationModel),
		numResults:           int32(numResults),
		maxTokens:            int32(maxTokens),
		temperature:          temperature,
		timeout:              timeout,
		retryInitialInterval: 500 * time.Millisecond,
	}
}

// transientErrorCodes are backend failures worth retrying.
var transientErrorCodes = map[string]bool{
	"ThrottlingException":         true,
	"ServiceUnavailableException": true,
	"InternalServerException":     true,
	"ModelNotReadyException":      true,
}

// isTransient reports whether err is a retryable backend failure.
func isTransient(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return transientErrorCodes[apiErr.ErrorCode()]
	}
	return false
}

// QueryRegulations answers a regulations question via RetrieveAndGenerate.
//
// Description:
//
//	Transient backend failures are retried with exponential backoff,
//	three attempts total, before surfacing. Non-transient failures
//	surface immediately with the backend's error code and message in
//	metadata. Success yields a text result whose metadata carries
//	latency, citations, passage count, and the generation model id.
//
// Inputs:
//   - ctx: Context for cancellation. Each attempt additionally gets the
//     client's per-call timeout.
//   - question: The natural-language regulations question.
//
// Outputs:
//   - datatypes.ToolResult: Text result or error result; never panics.
//
// Thread Safety: This method is safe for concurrent use.
func (c *Client) QueryRegulations(ctx context.Context, question string) datatypes.ToolResult {
	slog.Info("Querying regulations", slog.String("question", question))
	start := time.Now()

	input := &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &brtypes.RetrieveAndGenerateInput{
			Text: aws.String(question),
		},
		RetrieveAndGenerateConfiguration: &brtypes.RetrieveAndGenerateConfiguration{
			Type: brtypes.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &brtypes.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(c.kbID),
				ModelArn:        aws.String(c.modelArn),
				RetrievalConfiguration: &brtypes.KnowledgeBaseRetrievalConfiguration{
					VectorSearchConfiguration: &brtypes.KnowledgeBaseVectorSearchConfiguration{
						NumberOfResults: aws.Int32(c.numResults),
					},
				},
				GenerationConfiguration: &brtypes.GenerationConfiguration{
					InferenceConfig: &brtypes.InferenceConfig{
						TextInferenceConfig: &brtypes.TextInferenceConfig{
							MaxTokens:   aws.Int32(c.maxTokens),
							Temperature: aws.Float32(c.temperature),
						},
					},
				},
			},
		},
	}

	var output *bedrockagentruntime.RetrieveAndGenerateOutput
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.RetrieveAndGenerate(attemptCtx, input)
		if err != nil {
			if isTransient(err) {
				slog.Warn("Transient regulations backend failure, will retry",
					slog.String("error", err.Error()),
				)
				return err
			}
			return backoff.Permanent(err)
		}
		output = resp
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitialInterval
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))
	if err != nil {
		return c.errorResult(question, err)
	}

	elapsed := time.Since(start)

	answer := "No answer generated"
	if output.Output != nil && output.Output.Text != nil {
		answer = *output.Output.Text
	}

	citations := extractCitations(output.Citations)

	slog.Info("Regulations query completed",
		slog.Duration("elapsed", elapsed),
		slog.Int("answer_len", len(answer)),
		slog.Int("citations", len(citations)),
	)

	return datatypes.ToolResult{
		Kind:    datatypes.ResultText,
		Content: answer,
		Metadata: datatypes.ResultMetadata{
			Status:         datatypes.StatusSuccess,
			Question:       question,
			LatencySeconds: elapsed.Seconds(),
			Citations:      citations,
			NumResults:     int(c.numResults),
			Model:          c.model,
		},
	}
}

// Model returns the generation model identifier.
func (c *Client) Model() string {
	return c.model
}

// errorResult converts a backend error into an error-kind ToolResult.
func (c *Client) errorResult(question string, err error) datatypes.ToolResult {
	code := "Unknown"
	message := err.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
		message = apiErr.ErrorMessage()
	}

	slog.Error("Regulations backend error",
		slog.String("code", code),
		slog.String("message", message),
	)

	return datatypes.ToolResult{
		Kind:    datatypes.ResultError,
		Content: fmt.Sprintf("Regulations backend error: %s", message),
		Metadata: datatypes.ResultMetadata{
			Status:       datatypes.StatusError,
			Question:     question,
			ErrorCode:    code,
			ErrorMessage: message,
		},
	}
}

// extractCitations flattens Bedrock citation groups into Citation records.
func extractCitations(groups []brtypes.Citation) []datatypes.Citation {
	var citations []datatypes.Citation
	for _, group := range groups {
		for _, ref := range group.RetrievedReferences {
			citation := datatypes.Citation{}
			if ref.Content != nil && ref.Content.Text != nil {
				citation.Content = *ref.Content.Text
			}
			if ref.Location != nil {
				citation.Location.Type = string(ref.Location.Type)
				if ref.Location.S3Location != nil && ref.Location.S3Location.Uri != nil {
					citation.Location.URI = *ref.Location.S3Location.Uri
				} else if ref.Location.WebLocation != nil && ref.Location.WebLocation.Url != nil {
					citation.Location.URI = *ref.Location.WebLocation.Url
				}
			}
			if len(ref.Metadata) > 0 {
				citation.Metadata = make(map[string]any, len(ref.Metadata))
				for k, v := range ref.Metadata {
					citation.Metadata[k] = documentToAny(v)
				}
			}
			citations = append(citations, citation)
		}
	}
	return citations
}

// documentToAny unwraps a smithy document value into a plain Go value.
func documentToAny(doc document.Interface) any {
	if doc == nil {
		return nil
	}
	var v any
	if err := doc.UnmarshalSmithyDocument(&v); err != nil {
		return nil
	}
	return v
}
