// Package generate produces the final answer text from a query, its
// grounding documents, and prior conversation history, dispatching to one
// of two backend model families without duplicating the surrounding
// preprocessing and post-processing logic for either.
package generate

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/chatmsg"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/langroute"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/retrieve"
)

// DefaultSystemPrompt is the assistant's persona and style instruction.
const DefaultSystemPrompt = `You are a helpful climate change assistant. Answer questions about climate change, ` +
	`the environment, and sustainability clearly and accurately, citing the supplied documents where relevant. ` +
	`If the documents don't contain the answer, say so rather than guessing.`

// ErrNoDocuments is returned when there are no documents and no history to
// ground an answer in.
var ErrNoDocuments = errors.New("generate: no documents or conversation context available")

// Config holds the collaborators a Generator needs.
type Config struct {
	// Primary answers queries routed to langroute.FamilyPrimary.
	Primary capability.ChatModel
	// Secondary answers queries routed to langroute.FamilySecondary.
	Secondary capability.ChatModel
	// SystemPrompt overrides DefaultSystemPrompt when non-empty.
	SystemPrompt string
	Logger       *zap.Logger

	// EnableLocalCache turns on the generator-local memo keyed by
	// (family, query, document set). Off by default: it is an
	// optimization layered underneath the pipeline-level cache in
	// querycache, not a replacement for it.
	EnableLocalCache bool
	LocalCache       capability.Cache
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("generate: config cannot be nil")
	}
	if c.Primary == nil {
		return errors.New("generate: primary chat model is required")
	}
	if c.Secondary == nil {
		return errors.New("generate: secondary chat model is required")
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.EnableLocalCache && c.LocalCache == nil {
		return errors.New("generate: local cache enabled but no backend provided")
	}
	return nil
}

// Generator answers a query against a document set and conversation
// history, dispatching to the chat model for the requested family.
type Generator struct {
	primary   capability.ChatModel
	secondary capability.ChatModel
	system    string
	logger    *zap.Logger

	localCacheEnabled bool
	localCache        capability.Cache
}

func New(cfg *Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Generator{
		primary:           cfg.Primary,
		secondary:         cfg.Secondary,
		system:            cfg.SystemPrompt,
		logger:            cfg.Logger,
		localCacheEnabled: cfg.EnableLocalCache,
		localCache:        cfg.LocalCache,
	}, nil
}

func (g *Generator) modelFor(family langroute.Family) capability.ChatModel {
	if family == langroute.FamilySecondary {
		return g.secondary
	}
	return g.primary
}

// Generate answers query using docs and history, returning the final answer
// text and the citations it's grounded in.
func (g *Generator) Generate(ctx context.Context, query string, docs []retrieve.Document, family langroute.Family, history []chatmsg.Message) (string, []retrieve.Citation, error) {
	model := g.modelFor(family)

	docs = retrieve.Preprocess(docs)
	usingSyntheticDoc := false
	if len(docs) == 0 {
		if len(history) == 0 {
			return "", nil, ErrNoDocuments
		}
		docs = []retrieve.Document{syntheticContextDocument(history)}
		usingSyntheticDoc = true
	}

	shapedHistory := g.shapeHistory(ctx, model, family, history)

	if g.localCacheEnabled {
		if answer, citations, ok := g.localCacheLookup(ctx, family, query, docs, usingSyntheticDoc); ok {
			return answer, citations, nil
		}
	}

	capDocs := make([]capability.Doc, 0, len(docs))
	for _, d := range docs {
		capDocs = append(capDocs, capability.Doc{Title: d.Title, URL: d.URL, Content: d.Content})
	}
	capHistory := make([]capability.Turn, 0, len(shapedHistory))
	for _, m := range shapedHistory {
		capHistory = append(capHistory, capability.Turn{Role: string(m.Role), Content: m.Content})
	}

	answer, err := model.GenerateAnswer(ctx, query, capDocs, g.system, capHistory)
	if err != nil {
		return "", nil, fmt.Errorf("generate: answer generation failed: %w", err)
	}

	answer = repairMarkdownHeadings(answer)
	answer = stripTrailingHTMLFragment(answer)

	citations := citationsFor(docs, usingSyntheticDoc)

	if g.localCacheEnabled {
		g.localCacheStore(ctx, family, query, docs, answer, citations)
	}

	return answer, citations, nil
}

// syntheticContextDocument lets the generator still be called when there
// are no retrieved documents but there is conversation history to answer
// from.
func syntheticContextDocument(history []chatmsg.Message) retrieve.Document {
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return retrieve.Document{
		Title:   "Conversation Context",
		Content: b.String(),
	}
}

// citationsFor projects docs to citations, excluding the synthetic context
// document unless it happens to carry a URL.
func citationsFor(docs []retrieve.Document, usingSyntheticDoc bool) []retrieve.Citation {
	citations := make([]retrieve.Citation, 0, len(docs))
	for _, d := range docs {
		if usingSyntheticDoc && d.Title == "Conversation Context" && d.URL == "" {
			continue
		}
		citations = append(citations, d.Citation())
	}
	return retrieve.DedupeCitations(citations)
}

var headingRepair = regexp.MustCompile(`(?m)^(#{1,6})([^#\s])`)

// repairMarkdownHeadings inserts the space Markdown requires between a
// heading's hashes and its text, e.g. "#Title" -> "# Title".
func repairMarkdownHeadings(text string) string {
	return headingRepair.ReplaceAllString(text, "$1 $2")
}

// stripTrailingHTMLFragment trims a truncated, unclosed HTML-looking
// fragment from the end of text. A regex can't reliably bound a fragment
// that is by definition not well-formed, so this walks back from the end
// looking for an unterminated "<...".
func stripTrailingHTMLFragment(text string) string {
	lastOpen := strings.LastIndexByte(text, '<')
	if lastOpen == -1 {
		return text
	}
	tail := text[lastOpen:]
	if strings.ContainsRune(tail, '>') {
		return text
	}
	return strings.TrimRight(text[:lastOpen], " \t\n")
}

// shapeHistory applies the family-specific history policy through a single
// call site, so neither family reimplements the shared rescoring logic.
func (g *Generator) shapeHistory(ctx context.Context, model capability.ChatModel, family langroute.Family, history []chatmsg.Message) []chatmsg.Message {
	if family != langroute.FamilyPrimary || len(history) < 4 {
		return history
	}
	return g.rescoreHistory(ctx, model, history)
}

// rescoreHistory asks the model to rate each turn's relevance 1-5 and keeps
// turns scoring >= 3, falling back to the last two turns when parsing fails
// or too few turns survive.
func (g *Generator) rescoreHistory(ctx context.Context, model capability.ChatModel, history []chatmsg.Message) []chatmsg.Message {
	lastTwo := func() []chatmsg.Message {
		if len(history) <= 2 {
			return history
		}
		return history[len(history)-2:]
	}

	var b strings.Builder
	b.WriteString("Rate the relevance of each numbered conversation turn below to continuing this conversation, on a scale of 1 (irrelevant) to 5 (essential). Respond with only a comma-separated list of integers, one per turn, in order.\n\n")
	for i, m := range history {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, m.Role, m.Content)
	}

	raw, err := model.GenerateAnswer(ctx, b.String(), nil, "Respond with only the comma-separated ratings.", nil)
	if err != nil {
		g.logger.Warn("history relevance scoring failed, falling back to the last two turns", zap.Error(err))
		return lastTwo()
	}

	scores := parseScores(raw)
	if len(scores) != len(history) {
		return lastTwo()
	}

	kept := make([]chatmsg.Message, 0, len(history))
	for i, m := range history {
		if scores[i] >= 3 {
			kept = append(kept, m)
		}
	}
	if len(kept) < 2 {
		return lastTwo()
	}
	return kept
}

func parseScores(raw string) []int {
	fields := strings.Split(strings.TrimSpace(raw), ",")
	scores := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil
		}
		scores = append(scores, v)
	}
	return scores
}

// localCacheLookup and localCacheStore implement the optional
// generator-local memo, keyed by an FNV-1a hash of the document set so the
// key is stable across process runs (unlike a language hash seed).
func (g *Generator) localCacheLookup(ctx context.Context, family langroute.Family, query string, docs []retrieve.Document, usingSyntheticDoc bool) (string, []retrieve.Citation, bool) {
	key := localCacheKey(family, query, docs)
	raw, ok, err := g.localCache.Get(ctx, key)
	if err != nil || !ok {
		return "", nil, false
	}
	parts := strings.SplitN(string(raw), "\x00", 2)
	if len(parts) != 2 {
		return "", nil, false
	}
	return parts[1], citationsFor(docs, usingSyntheticDoc), true
}

func (g *Generator) localCacheStore(ctx context.Context, family langroute.Family, query string, docs []retrieve.Document, answer string, _ []retrieve.Citation) {
	key := localCacheKey(family, query, docs)
	value := []byte("1\x00" + answer)
	if err := g.localCache.Set(ctx, key, value, 0); err != nil {
		g.logger.Debug("generator-local cache write skipped", zap.Error(err))
	}
}

func localCacheKey(family langroute.Family, query string, docs []retrieve.Document) string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Title+":"+d.URL)
	}
	sort.Strings(ids)

	h := fnv.New64a()
	h.Write([]byte(string(family) + "|" + query + "|" + strings.Join(ids, "|")))
	return fmt.Sprintf("genlocal:%x", h.Sum64())
}
