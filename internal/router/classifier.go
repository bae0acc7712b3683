package router

import (
	"context"
	"strings"

	"github.com/roelfdiedericks/switchboard/internal/llm"
	. "github.com/roelfdiedericks/switchboard/internal/logging"
)

// Keyword sets for the heuristic strategy, checked in priority order.
// First category with a hit wins; nothing matching falls through to
// IMPLEMENTATION.
var heuristicOrder = []struct {
	task     TaskType
	keywords []string
}{
	{TaskExploration, []string{
		"explore", "investigate", "understand how", "how does", "what does",
		"where is", "look into", "walk me through", "explain the",
	}},
	{TaskPlanning, []string{
		"plan", "design", "architect", "roadmap", "break down", "strategy",
		"approach for", "outline",
	}},
	{TaskTroubleshooting, []string{
		"debug", "fix", "error", "bug", "failing", "fails", "broken",
		"crash", "not working", "doesn't work", "why is", "why does",
	}},
	{TaskReview, []string{
		"review", "critique", "audit", "check my", "feedback on", "look over",
	}},
	{TaskDocumentation, []string{
		"document", "docs", "readme", "docstring", "changelog", "write comments",
	}},
}

// ClassifyHeuristic scans the lowercased prompt against each
// category's keyword set in fixed priority order.
func ClassifyHeuristic(prompt string) TaskType {
	lower := strings.ToLower(prompt)
	for _, entry := range heuristicOrder {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.task
			}
		}
	}
	return TaskImplementation
}

const classifyPrompt = `Classify the user's request into exactly one of these categories:
EXPLORATION - understanding or navigating existing code
PLANNING - designing an approach before building
TROUBLESHOOTING - diagnosing or fixing a failure
REVIEW - evaluating existing code or changes
DOCUMENTATION - writing or updating documentation
IMPLEMENTATION - writing or modifying code

Reply with the category name only, nothing else.`

// ClassifyWithGenerator asks gen to categorize the prompt in one
// low-temperature call. Every failure mode (network error, empty or
// malformed reply) is absorbed into IMPLEMENTATION; this never
// returns an error to the caller.
func ClassifyWithGenerator(ctx context.Context, gen llm.Generator, prompt string, history []llm.Message) TaskType {
	if gen == nil {
		return TaskImplementation
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: classifyPrompt},
	}
	// Recent history gives the classifier conversational context
	// without paying for the whole transcript.
	const tailTurns = 4
	start := len(history) - tailTurns
	if start < 0 {
		start = 0
	}
	messages = append(messages, history[start:]...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	resp, err := gen.Generate(ctx, messages, &llm.GenerateOptions{
		Temperature: 0.1,
		MaxTokens:   16,
	})
	if err != nil {
		L_warn("classifier: call failed, defaulting to implementation", "model", gen.Model(), "error", err)
		return TaskImplementation
	}
	if resp.Text == "" {
		L_warn("classifier: empty reply, defaulting to implementation", "model", gen.Model())
		return TaskImplementation
	}

	task := ParseTaskType(resp.Text)
	L_debug("classifier: task classified", "task", task, "reply", strings.TrimSpace(resp.Text))
	return task
}
