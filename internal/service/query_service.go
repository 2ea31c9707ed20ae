package service

import (
	"context"
	"strings"

	"github.com/askmydocs/askmydocs/internal/ai"
	appErr "github.com/askmydocs/askmydocs/internal/pkg/errors"
)

// QueryService embeds the question to validate the embedding path end to end.
// Answer generation over retrieved chunks is not built yet; the response says
// so explicitly instead of pretending.
type QueryService struct {
	embedder ai.IEmbedder
}

func NewQueryService(embedder ai.IEmbedder) *QueryService {
	return &QueryService{embedder: embedder}
}

type QueryResult struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Model    string `json:"model"`
}

func (s *QueryService) Query(ctx context.Context, question string) (*QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.embedder.Embed(ctx, question, embedTaskQuery); err != nil {
		return nil, err
	}
	return &QueryResult{
		Question: question,
		Answer:   "Answer generation is not available yet; your documents are indexed and ready.",
		Model:    s.embedder.ModelName(),
	}, nil
}
