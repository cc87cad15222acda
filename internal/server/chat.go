package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/disputekit/disputekit/internal/llm"
	"github.com/disputekit/disputekit/internal/model"
)

type chatRequest struct {
	Query string `json:"query"`
}

// handleChat answers natural-language questions about the dispute data. The
// answer itself is delegated to the language service; this handler only
// assembles a factual summary of the stored disputes for grounding.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("chat is not configured"))
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("query is empty"))
		return
	}

	summary, err := s.dataSummary(r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	answer, err := s.chat.Generate(r.Context(), llm.Request{
		System:      chatSystemPrompt,
		Prompt:      fmt.Sprintf("Data summary:\n%s\nQuestion: %s", summary, req.Query),
		Temperature: 0.0,
		MaxTokens:   200,
	})
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("chat query failed: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

const chatSystemPrompt = `You are a direct and factual assistant for analyzing financial dispute data.
Answer ONLY from the data summary provided. Do not greet the user or engage in chit-chat.
"Unresolved" means the status is not RESOLVED or CLOSED. "Duplicates" means the
DUPLICATE_CHARGE category; "fraud" means the FRAUD category.
If the question is not about the dispute data, reply exactly:
"I can only answer questions about the dispute data. Please ask a question like 'How many fraud cases are there?'"
Answer with a clear, human-readable sentence, never raw data structures.`

// dataSummary renders the per-category and per-status counts as prompt text.
func (s *Server) dataSummary(r *http.Request) (string, error) {
	byCategory, err := s.storage.CountsByCategory(r.Context())
	if err != nil {
		return "", fmt.Errorf("failed to summarize categories: %w", err)
	}
	byStatus, err := s.storage.CountsByStatus(r.Context())
	if err != nil {
		return "", fmt.Errorf("failed to summarize statuses: %w", err)
	}

	var b strings.Builder
	total := 0
	b.WriteString("Disputes by category:\n")
	for _, category := range model.Categories() {
		count := byCategory[category]
		total += count
		fmt.Fprintf(&b, "- %s: %d\n", category, count)
	}
	fmt.Fprintf(&b, "Total disputes: %d\n", total)

	b.WriteString("Disputes by status:\n")
	for _, status := range []model.DisputeStatus{model.StatusOpen, model.StatusInReview, model.StatusResolved, model.StatusClosed} {
		fmt.Fprintf(&b, "- %s: %d\n", status, byStatus[status])
	}

	return b.String(), nil
}
