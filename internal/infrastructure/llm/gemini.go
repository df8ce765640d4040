package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"smartfeeds/internal/config"
	"smartfeeds/internal/domain"
	"smartfeeds/internal/ports"
)

// GeminiJudge implements the curation, summarization, and deep-dive
// judgments on top of the Gemini API. It holds the interests document and
// per-source notes so every call carries the same grounding.
type GeminiJudge struct {
	client      *genai.Client
	model       string
	language    string
	interests   string
	sourceNotes string
}

var _ ports.Curator = (*GeminiJudge)(nil)
var _ ports.Summarizer = (*GeminiJudge)(nil)
var _ ports.DeepDiver = (*GeminiJudge)(nil)

// NewGeminiJudge builds a judge from configuration. sourceNotes carries the
// per-source instructions threaded into the curator prompt.
func NewGeminiJudge(ctx context.Context, cfg config.GeminiConfig, interests, sourceNotes string) (*GeminiJudge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	if interests == "" {
		interests = "No specific interests provided."
	}

	return &GeminiJudge{
		client:      client,
		model:       cfg.Model,
		language:    cfg.OutputLanguage,
		interests:   interests,
		sourceNotes: sourceNotes,
	}, nil
}

// Curate splits one rendered raw batch into selected and filtered items.
func (g *GeminiJudge) Curate(ctx context.Context, batch string) (domain.Curation, error) {
	raw, err := g.generateJSON(ctx, curatorSystemPrompt(g.interests, g.sourceNotes, g.language), curatorUserPrompt(batch))
	if err != nil {
		return domain.Curation{}, fmt.Errorf("curate batch: %w", err)
	}

	var wire struct {
		Selected []map[string]any `json:"selected"`
		Filtered []map[string]any `json:"filtered"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return domain.Curation{}, fmt.Errorf("decode curation: %w", err)
	}

	return domain.Curation{
		Selected: toItems(wire.Selected),
		Filtered: toItems(wire.Filtered),
	}, nil
}

// Summarize compiles the curated log into the daily digest.
func (g *GeminiJudge) Summarize(ctx context.Context, curated string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(summarizerUserPrompt(curated)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(summarizerSystemPrompt(g.language), genai.RoleUser),
		})
	if err != nil {
		return "", fmt.Errorf("generate digest: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// DeepDive compiles an analysis report from the digest and fetched pages.
func (g *GeminiJudge) DeepDive(ctx context.Context, digest string, pages []domain.Page) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(deepDiveUserPrompt(digest, pages)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(deepDiveSystemPrompt(g.language), genai.RoleUser),
		})
	if err != nil {
		return "", fmt.Errorf("generate deep dive: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (g *GeminiJudge) generateJSON(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		})
	if err != nil {
		return "", err
	}
	return stripFences(resp.Text()), nil
}

// stripFences removes a markdown code fence the model sometimes wraps JSON
// in despite the response MIME type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func toItems(wire []map[string]any) []domain.Item {
	items := make([]domain.Item, 0, len(wire))
	for _, w := range wire {
		item := domain.Item{Fields: map[string]string{}}
		for k, v := range w {
			s, ok := v.(string)
			if !ok {
				s = fmt.Sprint(v)
			}
			if k == "url" {
				item.URL = s
				continue
			}
			item.Set(k, s)
		}
		if item.URL == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}
