package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// anthropicVersion is the wire version Bedrock requires for Anthropic
// model invocations.
const anthropicVersion = "bedrock-2023-05-31"

// BedrockConfig configures the Bedrock-backed Generator.
type BedrockConfig struct {
	Region    string
	ModelID   string
	MaxTokens int
	Timeout   time.Duration
}

// Bedrock generates feedback through an Anthropic model hosted on AWS
// Bedrock. Credentials come from the default AWS chain (environment,
// shared config, instance role).
type Bedrock struct {
	client *bedrockruntime.Client
	cfg    BedrockConfig
	log    zerolog.Logger
}

func NewBedrock(ctx context.Context, cfg BedrockConfig, log zerolog.Logger) (*Bedrock, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Bedrock{
		client: bedrockruntime.NewFromConfig(awsCfg),
		cfg:    cfg,
		log:    log.With().Str("component", "bedrock").Logger(),
	}, nil
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func buildRequestBody(prompt string, maxTokens int) ([]byte, error) {
	return json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Messages:         []anthropicMessage{{Role: "user", Content: prompt}},
	})
}

func parseResponseBody(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Content[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Generate invokes the configured model once and returns its trimmed text
// reply. The configured timeout bounds the whole invocation.
func (b *Bedrock) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	body, err := buildRequestBody(prompt, b.cfg.MaxTokens)
	if err != nil {
		return "", fmt.Errorf("marshal model request: %w", err)
	}

	start := time.Now()
	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.cfg.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", &Error{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), Err: err}
		}
		return "", &Error{Message: err.Error(), Err: err}
	}

	text, err := parseResponseBody(out.Body)
	if err != nil {
		return "", err
	}
	b.log.Debug().
		Str("model", b.cfg.ModelID).
		Dur("latency", time.Since(start)).
		Int("chars", len(text)).
		Msg("model invocation complete")
	return text, nil
}
