package pipeline

import (
	"fmt"
	"strings"

	"github.com/ultrai/orchestrator/pkg/gateway"
	"github.com/ultrai/orchestrator/pkg/models"
)

// initialMessages builds the R1 prompt: the raw query, no system framing.
func initialMessages(query string) []gateway.Message {
	return []gateway.Message{
		{Role: "user", Content: query},
	}
}

// metaPeerContext concatenates all R1 drafts labeled by model id, double
// newline separated. Drafts are passed in full; only R3 truncates.
func metaPeerContext(drafts []models.Response) string {
	summaries := make([]string, 0, len(drafts))
	for _, d := range drafts {
		if d.Error {
			summaries = append(summaries, fmt.Sprintf("- %s: ERROR", d.Model))
			continue
		}
		summaries = append(summaries, fmt.Sprintf("- %s: %s", d.Model, d.Text))
	}
	return strings.Join(summaries, "\n\n")
}

// metaMessages builds the R2 revision prompt for one model.
func metaMessages(query, peerContext string) []gateway.Message {
	user := fmt.Sprintf(
		"Do not assume any response is true. Review your peers' INITIAL drafts below. Revise your answer accordingly.\n\n"+
			"ORIGINAL QUERY:\n%s\n\n"+
			"PEER DRAFTS (INITIAL ROUND):\n%s",
		query, peerContext)
	return []gateway.Message{
		{Role: "system", Content: "You are in the META revision round (R2)."},
		{Role: "user", Content: user},
	}
}

// synthesisPeerContext renders the META drafts truncated to maxChars each
// (prefix only), labeled by model id.
func synthesisPeerContext(drafts []models.Response, maxChars int) string {
	summaries := make([]string, 0, len(drafts))
	for _, d := range drafts {
		if d.Error {
			summaries = append(summaries, fmt.Sprintf("- %s: ERROR", d.Model))
			continue
		}
		text := d.Text
		if len(text) > maxChars {
			text = text[:maxChars]
		}
		summaries = append(summaries, fmt.Sprintf("- %s: %s", d.Model, text))
	}
	return strings.Join(summaries, "\n")
}

// synthesisMessages builds the R3 merge-only prompt. The constraints block is
// the contract: restate the query, merge only, omit low-confidence claims.
func synthesisMessages(query, peerContext string) []gateway.Message {
	user := fmt.Sprintf(
		"The user asked: %q\n\n"+
			"Multiple LLM models provided META responses to this query. "+
			"Your job is to synthesize these META drafts into one coherent answer "+
			"that best addresses the user's original query.\n\n"+
			"CRITICAL CONSTRAINTS:\n"+
			"- DO NOT introduce new information beyond what the META models provided\n"+
			"- DO NOT use your own knowledge - rely ONLY on the META drafts and the query\n"+
			"- DO NOT include data that evokes low confidence (omit claims where models "+
			"strongly disagree or express uncertainty)\n"+
			"- Your role is to MERGE and SYNTHESIZE, not to contribute new content\n\n"+
			"Review all META drafts below. Merge convergent points and resolve "+
			"contradictions. Cite which META claims were retained or omitted. "+
			"Generate one coherent synthesis with confidence notes and basic stats."+
			"\n\nMETA DRAFTS:\n%s",
		query, peerContext)
	return []gateway.Message{
		{Role: "system", Content: "You are the ULTRAI neutral synthesis model (R3)."},
		{Role: "user", Content: user},
	}
}
