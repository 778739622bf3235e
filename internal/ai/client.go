// Package ai asks a chat model whether a candidate is worth greeting.
package ai

import (
	"context"
	"strings"
)

// Screener decides on one candidate given the position's job description.
type Screener interface {
	Screen(ctx context.Context, candidateText, jobDescription string) (Verdict, error)
}

// Verdict is the model's answer plus what the request cost.
type Verdict struct {
	Greet  bool
	Answer string

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

const systemPrompt = "你是一个专业的HR，擅长分析候选人是否符合岗位要求。你只能回答是或者否，不要输出其他内容"

// DefaultPromptTemplate is filled with {job_description} and {candidate_text}.
const DefaultPromptTemplate = `请分析以下候选人简历是否符合岗位要求。

岗位要求：
{job_description}

候选人简历：
{candidate_text}

请仅回复"是"或"否"，表示是否建议与该候选人打招呼。`

func buildUserPrompt(template, jobDescription, candidateText string) string {
	if template == "" {
		template = DefaultPromptTemplate
	}
	return strings.NewReplacer(
		"{job_description}", jobDescription,
		"{candidate_text}", candidateText,
	).Replace(template)
}

// isYes accepts "是" with stray quotes or punctuation around it. Anything
// else, including a hedged "是的，但…", counts as no.
func isYes(answer string) bool {
	return strings.Trim(answer, " \t\r\n\"'“”‘’。.!！") == "是"
}
