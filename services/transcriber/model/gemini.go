package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xilidan/lingua/services/transcriber/prompt"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type Gemini struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewGemini(ctx context.Context, apiKey, model, baseURL string, log *slog.Logger) (*Gemini, error) {
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	log.Debug("gemini provider created", slog.String("model", model))
	return &Gemini{
		client: client,
		model:  model,
		log:    log,
	}, nil
}

func (g *Gemini) Name() string {
	return ProviderGemini + "/" + g.model
}

func (g *Gemini) Generate(ctx context.Context, spec prompt.Spec) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(spec.Instruction)}
	if spec.Audio != nil {
		parts = append(parts, genai.NewPartFromBytes(spec.Audio.Data, spec.Audio.MediaType))
	}

	g.log.Debug("sending generate content request",
		slog.String("model", g.model),
		slog.Int("prompt_length", len(spec.Instruction)),
		slog.Bool("audio_attached", spec.Audio != nil))

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   geminiSchema(spec.Schema),
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("model returned an empty response")
	}
	return text, nil
}

func geminiSchema(s prompt.Schema) *genai.Schema {
	out := &genai.Schema{
		Description:      s.Description,
		Required:         s.Required,
		PropertyOrdering: s.Order,
	}

	switch s.Type {
	case prompt.TypeArray:
		out.Type = genai.TypeArray
	case prompt.TypeObject:
		out.Type = genai.TypeObject
	default:
		out.Type = genai.TypeString
	}

	if s.Items != nil {
		out.Items = geminiSchema(*s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = geminiSchema(prop)
		}
	}
	return out
}
