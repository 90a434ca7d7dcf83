// Package agent wraps the Gemini client into a study analyst.
package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

const analystPrompt = `
You are a quantitative analyst reviewing a portfolio study report.

The report contains annualized statistics, optimized allocations, an
efficient frontier summary, Monte Carlo results, risk metrics and a
benchmark comparison, all computed from historical prices.

Write a short, neutral commentary:
  - point out concentration or diversification in the optimized weights,
  - relate the Sharpe ratios, drawdown and tail risk figures to each other,
  - mention how the portfolio compares to the benchmark,
  - flag anything unusual (tiny sample, extreme weights, skipped assets).

Stay descriptive. Past statistics do not predict future returns, and you
must never give investment advice or recommend buying or selling anything.
Answer in markdown.
`

// Analyst comments on finished study reports. It keeps the chat so a caller
// can ask follow-up questions about the same study.
type Analyst struct {
	chat *genai.Chat
}

// NewAnalyst opens a chat session primed with the analyst instructions.
func NewAnalyst(ctx context.Context, client *genai.Client) (*Analyst, error) {
	chat, err := client.Chats.Create(ctx, model, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: analystPrompt}}},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &Analyst{chat: chat}, nil
}

// Comment sends a markdown study report and returns the analyst's commentary.
func (a *Analyst) Comment(ctx context.Context, report string) (string, error) {
	resp, err := a.chat.Send(ctx, &genai.Part{Text: report})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from the analyst")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// Ask sends a follow-up question in the same session.
func (a *Analyst) Ask(ctx context.Context, question string) (string, error) {
	return a.Comment(ctx, question)
}
