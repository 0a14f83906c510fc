// Package classify implements the combined classifier/rewriter stage: one
// LLM call that detects the query's language, classifies its topicality,
// checks it against the declared language, and optionally rewrites it for
// better retrieval.
package classify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/chatmsg"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/langroute"
)

// Classification is the topical verdict on a query.
type Classification string

const (
	OnTopic  Classification = "on-topic"
	OffTopic Classification = "off-topic"
	Harmful  Classification = "harmful"
)

// LanguageMatch records whether the classifier itself thinks the declared
// language matches the text.
type LanguageMatch string

const (
	MatchYes     LanguageMatch = "yes"
	MatchNo      LanguageMatch = "no"
	MatchUnknown LanguageMatch = "unknown"
)

// Verdict is the parsed result of one classification call.
type Verdict struct {
	DetectedLanguage langroute.Code
	Classification   Classification
	LanguageMatch    LanguageMatch
	Rewritten        string // empty means "leave the query unchanged"
}

// IsTerminalRefusal reports whether this verdict should stop the pipeline
// with a refusal response rather than proceed to retrieval.
func (v Verdict) IsTerminalRefusal() bool {
	return v.Classification != OnTopic
}

var (
	languageLine       = regexp.MustCompile(`(?i)Language:\s*(unknown|[a-z]{2})`)
	classificationLine = regexp.MustCompile(`(?i)Classification:\s*(on-topic|off-topic|harmful)`)
	matchLine          = regexp.MustCompile(`(?i)LanguageMatch:\s*(yes|no)`)
	rewrittenLine      = regexp.MustCompile(`(?i)Rewritten:\s*(.+)`)
)

const promptTemplate = `You are the classifier and rewriter stage of a climate-change question answering assistant.

Given the user's query and recent conversation history, respond with exactly four lines:
Language: <two-letter code of the language the query is written in, or "unknown">
Classification: <one of "on-topic", "off-topic", "harmful">
LanguageMatch: <"yes" if the query is written in %s, otherwise "no">
Rewritten: <the query rewritten as a clear, standalone, English question for retrieval, or "N/A" if no rewrite is needed>

Conversation history:
%s

User query: %s`

// Adapter calls a capability.StructuredLLM and parses its strict four-line
// response into a Verdict.
type Adapter struct {
	llm capability.StructuredLLM
}

func New(llm capability.StructuredLLM) (*Adapter, error) {
	if llm == nil {
		return nil, errors.New("classify: structured LLM is required")
	}
	return &Adapter{llm: llm}, nil
}

func (a *Adapter) Classify(ctx context.Context, query string, history []chatmsg.Message, declared langroute.Code) (*Verdict, error) {
	prompt := fmt.Sprintf(promptTemplate, declared, formatHistory(history), query)

	text, err := a.llm.GenerateStructured(ctx, prompt, "")
	if err != nil {
		return nil, fmt.Errorf("classify: generation failed: %w", err)
	}

	return parseVerdict(text), nil
}

func formatHistory(history []chatmsg.Message) string {
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

func parseVerdict(text string) *Verdict {
	v := &Verdict{
		DetectedLanguage: langroute.Unknown,
		Classification:   OffTopic,
		LanguageMatch:    MatchUnknown,
	}

	if m := languageLine.FindStringSubmatch(text); m != nil {
		v.DetectedLanguage = langroute.Code(strings.ToLower(m[1]))
	}
	if m := classificationLine.FindStringSubmatch(text); m != nil {
		v.Classification = Classification(strings.ToLower(m[1]))
	}
	if m := matchLine.FindStringSubmatch(text); m != nil {
		v.LanguageMatch = LanguageMatch(strings.ToLower(m[1]))
	}
	if m := rewrittenLine.FindStringSubmatch(text); m != nil {
		rewritten := strings.TrimSpace(m[1])
		if !strings.EqualFold(rewritten, "n/a") {
			v.Rewritten = rewritten
		}
	}

	return v
}
