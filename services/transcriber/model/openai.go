package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/xilidan/lingua/services/transcriber/consts"
	"github.com/xilidan/lingua/services/transcriber/entity"
	"github.com/xilidan/lingua/services/transcriber/prompt"
)

const (
	DefaultOpenAIModel      = openai.GPT4oMini
	DefaultOpenAIAudioModel = openai.Whisper1

	// Strict json_schema mode needs an object root, so the transcript
	// array travels under this key.
	wrapperKey = "items"
)

type openaiClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAI talks to any OpenAI-compatible endpoint, LocalAI included.
type OpenAI struct {
	client     openaiClient
	model      string
	audioModel string
	log        *slog.Logger
}

func NewOpenAI(apiKey, baseURL, model, audioModel string, log *slog.Logger) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return newOpenAI(openai.NewClientWithConfig(cfg), model, audioModel, log)
}

func newOpenAI(client openaiClient, model, audioModel string, log *slog.Logger) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if audioModel == "" {
		audioModel = DefaultOpenAIAudioModel
	}

	return &OpenAI{
		client:     client,
		model:      model,
		audioModel: audioModel,
		log:        log,
	}
}

func (o *OpenAI) Name() string {
	return ProviderOpenAI + "/" + o.model
}

func (o *OpenAI) Generate(ctx context.Context, spec prompt.Spec) (string, error) {
	if spec.Audio != nil {
		return o.transcribeAudio(ctx, spec.Audio)
	}

	o.log.Debug("sending chat completion request",
		slog.String("model", o.model),
		slog.Int("prompt_length", len(spec.Instruction)))

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: spec.Instruction},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "transcript",
				Schema: wrapSchema(spec.Schema),
				Strict: true,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	return unwrapItems(resp.Choices[0].Message.Content)
}

// transcribeAudio uses the dedicated transcription endpoint and renders its
// segments into the same JSON shape a chat model would return.
func (o *OpenAI) transcribeAudio(ctx context.Context, audio *entity.Audio) (string, error) {
	name := audio.Name
	if name == "" {
		name = "audio." + consts.AudioMediaTypes[audio.MediaType]
	}

	o.log.Debug("sending transcription request",
		slog.String("model", o.audioModel),
		slog.String("file", name),
		slog.Int("size", len(audio.Data)))

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.audioModel,
		FilePath: name,
		Reader:   bytes.NewReader(audio.Data),
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create transcription: %w", err)
	}

	items := make(entity.Transcript, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		items = append(items, entity.TranscriptItem{
			Timestamp: entity.FormatRange(seconds(seg.Start), seconds(seg.End)),
			Text:      text,
		})
	}
	if len(items) == 0 && strings.TrimSpace(resp.Text) != "" {
		items = append(items, entity.TranscriptItem{
			Timestamp: entity.FormatRange(0, seconds(resp.Duration)),
			Text:      strings.TrimSpace(resp.Text),
		})
	}

	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal segments: %w", err)
	}
	return string(data), nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func wrapSchema(s prompt.Schema) *jsonschema.Definition {
	inner := openaiSchema(s)
	return &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           map[string]jsonschema.Definition{wrapperKey: inner},
		Required:             []string{wrapperKey},
		AdditionalProperties: false,
	}
}

func openaiSchema(s prompt.Schema) jsonschema.Definition {
	out := jsonschema.Definition{
		Description: s.Description,
		Required:    s.Required,
	}

	switch s.Type {
	case prompt.TypeArray:
		out.Type = jsonschema.Array
	case prompt.TypeObject:
		out.Type = jsonschema.Object
		out.AdditionalProperties = false
	default:
		out.Type = jsonschema.String
	}

	if s.Items != nil {
		items := openaiSchema(*s.Items)
		out.Items = &items
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = openaiSchema(prop)
		}
	}
	return out
}

// unwrapItems returns the array under the wrapper key. A bare array is passed
// through so lenient servers that ignore the wrapper still work.
func unwrapItems(content string) (string, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "[") {
		return content, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
		return "", entity.FormatError("response is not a JSON object: %v", err)
	}

	raw, ok := wrapped[wrapperKey]
	if !ok {
		return "", entity.FormatError("response has no %q field", wrapperKey)
	}
	return string(raw), nil
}
