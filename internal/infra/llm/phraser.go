// Package llm provides the optional natural-language reply phraser, backed
// by an Ollama server. The funnel works fully without it: phrasing failures
// fall back to the orchestrator's canonical replies.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/llm")

const systemPrompt = `You are a friendly, professional retail sales associate.
Rephrase the draft reply naturally in 1-2 sentences.
Only use the facts provided. Never invent prices, stock numbers or order ids.`

// Phraser calls an Ollama-compatible /api/generate endpoint to rephrase the
// orchestrator's canonical reply.
type Phraser struct {
	httpClient *http.Client
	baseURL    string
	model      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewPhraser creates the phraser client.
func NewPhraser(httpClient *http.Client, baseURL, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Phraser {
	return &Phraser{
		httpClient: httpClient,
		baseURL:    baseURL,
		model:      model,
		cb:         cb,
		cfg:        cfg,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Phrase rewrites the canonical reply using only the supplied facts.
func (p *Phraser) Phrase(ctx context.Context, facts *domain.ReplyFacts) (string, error) {
	ctx, span := tracer.Start(ctx, "Phraser.Phrase")
	defer span.End()
	span.SetAttributes(attribute.String("funnel.rule", facts.Rule))

	var genResp generateResponse

	_, err := p.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, p.cfg, func() error {
			body, err := json.Marshal(generateRequest{
				Model:  p.model,
				Prompt: buildPrompt(facts),
				Stream: false,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/api/generate", p.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := p.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("llm returned status %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&genResp)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return genResp.Response, nil
	})
	if err != nil {
		return "", &domain.ErrExternalService{Service: "phraser", Err: err}
	}

	return strings.TrimSpace(genResp.Response), nil
}

func buildPrompt(facts *domain.ReplyFacts) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nCustomer said: ")
	b.WriteString(facts.Message)
	b.WriteString("\nConversation step: ")
	b.WriteString(facts.Rule)
	b.WriteString("\nKnown facts:\n")
	for _, f := range facts.Facts {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("Draft reply:\n")
	b.WriteString(facts.CanonicalReply)
	return b.String()
}
