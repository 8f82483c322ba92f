// Package discovery schedules place-search queries that surface new building
// candidates, tracking (term, city) history so fresh combinations run first.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/cost"
	"github.com/sells-group/solar-leads/internal/icp"
	"github.com/sells-group/solar-leads/pkg/anthropic"
)

// staticTermSeeds are fallback search-term stems combined with bucket
// keywords when AI generation is unavailable.
var staticTermSeeds = []string{
	"%s companies",
	"%s facilities",
	"large %s buildings",
}

const termPrompt = `List search terms for finding commercial and industrial buildings that are strong rooftop solar candidates in %s. One term per line, no numbering, no commentary. Focus on these segments: %s.`

// TermGenerator produces place-search terms for a city.
type TermGenerator struct {
	ai       anthropic.Client
	model    string
	buckets  *icp.Table
	costCalc *cost.Calculator
}

// NewTermGenerator creates a TermGenerator. The AI client may be nil, in
// which case only static permutations are produced.
func NewTermGenerator(ai anthropic.Client, model string, buckets *icp.Table) *TermGenerator {
	return &TermGenerator{
		ai:       ai,
		model:    model,
		buckets:  buckets,
		costCalc: cost.NewCalculator(cost.DefaultRates()),
	}
}

// Terms returns search terms for a city, preferring AI generation and
// falling back to static keyword permutations on any failure.
func (g *TermGenerator) Terms(ctx context.Context, city string) []string {
	if g.ai != nil {
		terms, err := g.generate(ctx, city)
		if err != nil {
			zap.L().Warn("discovery: term generation failed, using static terms",
				zap.String("city", city),
				zap.Error(err),
			)
		} else if len(terms) > 0 {
			return terms
		}
	}
	return g.StaticTerms()
}

func (g *TermGenerator) generate(ctx context.Context, city string) ([]string, error) {
	segments := strings.Join(g.priorityKeywords(), ", ")
	resp, err := g.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: 1024,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(termPrompt, city, segments)},
		},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogUsage(g.model, "discovery_terms")
	zap.L().Debug("discovery: term generation cost",
		zap.String("city", city),
		zap.Float64("usd", g.costCalc.Claude(g.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)),
	)

	var terms []string
	for _, line := range strings.Split(resp.Text(), "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*• "))
		if line == "" {
			continue
		}
		terms = append(terms, line)
	}
	return terms, nil
}

// StaticTerms permutes seed patterns over the priority bucket keywords.
func (g *TermGenerator) StaticTerms() []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, kw := range g.priorityKeywords() {
		for _, seed := range staticTermSeeds {
			term := fmt.Sprintf(seed, kw)
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}

// priorityKeywords collects the keywords of every non-exclusion bucket.
func (g *TermGenerator) priorityKeywords() []string {
	var out []string
	for _, b := range g.buckets.Buckets() {
		if b.Adjustment <= 0 {
			continue
		}
		out = append(out, b.Keywords...)
	}
	return out
}
