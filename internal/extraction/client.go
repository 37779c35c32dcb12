package extraction

import (
	"context"
	"log/slog"
	"strings"
)

// Client turns a payload into an AnalysisResult with a single oracle call
type Client struct {
	oracle Oracle
}

// NewClient creates a Client backed by oracle
func NewClient(oracle Oracle) *Client {
	return &Client{oracle: oracle}
}

// Analyze calls the oracle exactly once and parses its answer. It never
// retries. On failure the returned result is EmptyResult() and the error is
// an *Error whose Kind tells malformed, empty and failed calls apart.
func (c *Client) Analyze(ctx context.Context, payload Payload) (AnalysisResult, error) {
	answer, err := c.oracle.Generate(ctx, payload.Request())
	if err != nil {
		slog.Error("Oracle call failed", "content_kind", payload.Kind, "error", err)
		return EmptyResult(), &Error{Kind: ErrOracleFailure, Err: err}
	}

	text := StripFence(answer)
	if text == "" {
		slog.Warn("Oracle returned an empty answer", "content_kind", payload.Kind)
		return EmptyResult(), &Error{Kind: ErrEmptyResponse, Raw: answer}
	}

	result, err := ParseAnalysis(text)
	if err != nil {
		slog.Warn("Failed to decode oracle answer",
			"content_kind", payload.Kind,
			"answer_size", len(answer),
			"error", err,
		)
		return EmptyResult(), &Error{Kind: ErrMalformedResponse, Raw: strings.TrimSpace(answer), Err: err}
	}

	return result, nil
}
