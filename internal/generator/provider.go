// Package generator talks to external text-generation services. Providers
// are unreliable and rate-limited; callers must treat every candidate as
// hostile until it clears the supply pipeline.
package generator

import (
	"context"
	"errors"
	"fmt"
)

// Request describes one generation attempt. Seed varies per attempt so
// retries do not replay the provider's cached completion.
type Request struct {
	Language   string
	Difficulty int
	Seed       int64
}

// Provider is one text-generation backend. Generate returns the raw
// candidate text; it makes no promises about the content being well-formed.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrAllProvidersFailed indicates every configured provider errored out.
var ErrAllProvidersFailed = errors.New("all content providers failed")

// ErrNoProviders indicates the chain was built with nothing configured.
var ErrNoProviders = errors.New("no content providers configured")

// Chain tries providers in configured order and returns the first success.
type Chain struct {
	providers []Provider
}

// NewChain builds a fallback chain. Nil providers are skipped so callers can
// pass conditionally-constructed clients directly.
func NewChain(providers ...Provider) *Chain {
	c := &Chain{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Len returns the number of usable providers.
func (c *Chain) Len() int {
	return len(c.providers)
}

// Name identifies the chain in logs.
func (c *Chain) Name() string {
	return "chain"
}

// Generate walks the fallback order. Individual provider failures are
// collected, not surfaced, unless every provider fails.
func (c *Chain) Generate(ctx context.Context, req Request) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProviders
	}

	var errs []error
	for _, p := range c.providers {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		content, err := p.Generate(ctx, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		return content, nil
	}

	return "", fmt.Errorf("%w: %v", ErrAllProvidersFailed, errors.Join(errs...))
}

// buildSystemPrompt and buildUserPrompt produce the minimal instruction pair
// for a multiple-choice puzzle. The engine treats wording as an external
// concern; only the output contract matters here.
func buildSystemPrompt(req Request) string {
	lang := "English"
	if req.Language == "ar" {
		lang = "Arabic"
	}
	return fmt.Sprintf(
		"You write trivia questions in %s only, difficulty %d of 5. "+
			"Return ONLY a JSON object: {\"question\": string, \"options\": [4 strings], "+
			"\"correctIndex\": int, \"hint\": string, \"category\": string}. "+
			"No markdown, no commentary, no other language.",
		lang, req.Difficulty)
}

func buildUserPrompt(req Request) string {
	return fmt.Sprintf("Generate one fresh question. Variation seed: %d.", req.Seed)
}
