// Package pipeline sequences the nine stages of a single query end to end:
// routing, classification, cache lookup, retrieval, generation,
// faithfulness scoring, translation, and cache write, under a request-level
// deadline and cooperative cancellation.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/apperr"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/chatmsg"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/classify"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/config"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/faithfulness"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/generate"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/langroute"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/progress"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/querycache"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/retrieve"
)

// state names the orchestrator's position in the nine-stage state machine.
type state string

const (
	stateRouting     state = "Routing"
	stateClassifying state = "Classifying"
	stateRefused     state = "Refused"
	stateCacheLookup state = "CacheLookup"
	stateCacheHit    state = "CacheHit"
	stateRetrieving  state = "Retrieving"
	stateGenerating  state = "Generating"
	stateVerifying   state = "Verifying"
	stateTranslating state = "Translating"
	stateCaching     state = "Caching"
	stateDone        state = "Done"
)

const genericDegradedMessage = "I found some information but couldn't fully verify it against the source documents, so please treat this answer with caution."

// Request is one logical query into the pipeline. RequestID is optional:
// when blank, Run assigns a fresh one so every result and progress/streaming
// event can be correlated back to its request.
type Request struct {
	RequestID           string
	Query               string
	Language            langroute.Code
	ConversationHistory []any
	Stream              bool
	SkipCache           bool
}

// Result is the outcome of one pipeline run. Error outcomes carry the same
// shape with Success=false and a sanitized, human-readable Response.
type Result struct {
	RequestID         string
	Success           bool
	Response          string
	Citations         []retrieve.Citation
	FaithfulnessScore float64
	ProcessingTime    time.Duration
	LanguageCode      langroute.Code
	ModelUsed         string
	ModelFamily       langroute.Family
}

// Config wires every collaborator the pipeline needs.
type Config struct {
	Registry    *langroute.Registry
	Router      *langroute.Router
	Classifier  *classify.Adapter
	Cache       *querycache.Cache
	Retriever   *retrieve.Retriever
	Generator   *generate.Generator
	Guard       *faithfulness.Guard
	Translator  capability.Translator
	Settings    *config.Config
	Logger      *zap.Logger
	Progress    progress.Sink
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("pipeline: config cannot be nil")
	}
	if c.Registry == nil || c.Router == nil || c.Classifier == nil || c.Cache == nil || c.Retriever == nil || c.Generator == nil || c.Guard == nil {
		return errors.New("pipeline: registry, router, classifier, cache, retriever, generator, and guard are all required")
	}
	if c.Settings == nil {
		c.Settings = config.Default()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Progress == nil {
		c.Progress = progress.NopSink{}
	}
	return nil
}

// Pipeline runs the nine-stage query flow.
type Pipeline struct {
	registry   *langroute.Registry
	router     *langroute.Router
	classifier *classify.Adapter
	cache      *querycache.Cache
	retriever  *retrieve.Retriever
	generator  *generate.Generator
	guard      *faithfulness.Guard
	translator capability.Translator
	settings   *config.Config
	logger     *zap.Logger
	progress   progress.Sink
}

func New(cfg *Config) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		registry:   cfg.Registry,
		router:     cfg.Router,
		classifier: cfg.Classifier,
		cache:      cfg.Cache,
		retriever:  cfg.Retriever,
		generator:  cfg.Generator,
		guard:      cfg.Guard,
		translator: cfg.Translator,
		settings:   cfg.Settings,
		logger:     cfg.Logger,
		progress:   cfg.Progress,
	}, nil
}

// run carries the per-request state threaded through every stage.
type run struct {
	p        *Pipeline
	started  time.Time
	deadline time.Time
	state    state
}

func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	start := time.Now()
	deadline := start.Add(p.settings.RequestDeadline)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	r := &run{p: p, started: start, deadline: deadline, state: stateRouting}

	result, err := r.execute(ctx, req)
	result.RequestID = req.RequestID
	result.ProcessingTime = time.Since(start)
	p.emit("Complete", 1.0)
	return result, err
}

func (r *run) execute(ctx context.Context, req Request) (*Result, error) {
	p := r.p
	p.emit("Thinking…", 0.02)

	declared := p.registry.Normalize(string(req.Language))
	query := strings.TrimSpace(req.Query)
	if query == "" || len([]rune(query)) > 2000 {
		return r.fail(declared, apperr.New(apperr.KindInputInvalid, "validate", errors.New("query must be 1..2000 non-blank characters")))
	}

	history := chatmsg.ParseHistory(req.ConversationHistory)

	if err := ctx.Err(); err != nil {
		return r.cancelled(declared, err)
	}

	r.state = stateRouting
	p.emit("Routing…", 0.08)
	routeCtx, cancel := r.stageContext(ctx, 100*time.Millisecond)
	verdict := p.router.Route(routeCtx, query, declared, p.translator)
	cancel()
	if !verdict.ShouldProceed {
		r.state = stateRefused
		return r.fail(declared, verdict.RefusalError("route"))
	}

	if err := ctx.Err(); err != nil {
		return r.cancelled(declared, err)
	}

	r.state = stateClassifying
	p.emit("Rewriting query…", 0.14)
	classifyCtx, cancel := r.stageContext(ctx, 10*time.Second)
	cverdict, err := p.classifier.Classify(classifyCtx, verdict.EnglishQuery, history, declared)
	cancel()
	if err != nil {
		return r.fail(declared, apperr.New(apperr.KindUpstreamFailure, "classify", err))
	}

	p.emit("Validating input…", 0.20)

	if cverdict.LanguageMatch == classify.MatchNo && cverdict.DetectedLanguage != langroute.Unknown && cverdict.DetectedLanguage != declared {
		r.state = stateRefused
		return r.fail(declared, apperr.New(apperr.KindLanguageMismatch, "classify", errors.New(langroute.MismatchMessage())))
	}
	if cverdict.IsTerminalRefusal() {
		r.state = stateRefused
		return r.fail(declared, apperr.New(apperr.KindRefusal, "classify", errors.New("classifier marked the query "+string(cverdict.Classification))))
	}

	finalQuery := verdict.EnglishQuery
	if cverdict.Rewritten != "" {
		finalQuery = cverdict.Rewritten
	}
	normalized := querycache.Normalize(finalQuery)

	if err := ctx.Err(); err != nil {
		return r.cancelled(declared, err)
	}

	r.state = stateCacheLookup
	if !req.SkipCache {
		if entry, ok := p.cache.Lookup(ctx, declared, verdict.Family, normalized); ok {
			r.state = stateCacheHit
			return &Result{
				Success:           true,
				Response:          entry.Response,
				Citations:         entry.Citations,
				FaithfulnessScore: entry.FaithfulnessScore,
				LanguageCode:      declared,
				ModelUsed:         string(verdict.Family),
				ModelFamily:       verdict.Family,
			}, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return r.cancelled(declared, err)
	}

	r.state = stateRetrieving
	p.emit("Retrieving…", 0.35)
	retrieveCtx, cancel := r.stageContext(ctx, 15*time.Second)
	docs, err := p.retriever.Retrieve(retrieveCtx, finalQuery)
	cancel()
	if err != nil {
		return r.cancelled(declared, err)
	}
	p.emit("Documents retrieved", 0.60)

	if err := ctx.Err(); err != nil {
		return r.cancelled(declared, err)
	}

	r.state = stateGenerating
	p.emit("Formulating…", 0.70)
	generateCtx, cancel := r.stageContext(ctx, 20*time.Second)
	answer, citations, err := p.generator.Generate(generateCtx, finalQuery, docs, verdict.Family, history)
	cancel()
	if err != nil {
		return r.fail(declared, apperr.New(apperr.KindUpstreamFailure, "generate", err))
	}
	p.emit("Draft ready", 0.85)

	if err := ctx.Err(); err != nil {
		return r.cancelled(declared, err)
	}

	r.state = stateVerifying
	p.emit("Verifying…", 0.90)
	verifyCtx, cancel := r.stageContext(ctx, 5*time.Second)
	contexts := make([]string, 0, len(docs))
	for _, d := range docs {
		contexts = append(contexts, d.Content)
	}
	score, fverdict, err := p.guard.Score(verifyCtx, finalQuery, answer, contexts)
	cancel()
	if err != nil {
		return r.cancelled(declared, err)
	}
	if fverdict == faithfulness.Rejected {
		answer = genericDegradedMessage
	}
	if fverdict == faithfulness.Degraded {
		p.logger.Warn("faithfulness score in the degraded band", zap.Float64("score", score))
	}

	r.state = stateTranslating
	p.emit("Finalizing…", 0.96)
	finalAnswer := answer
	if declared != langroute.English && p.translator != nil {
		translateCtx, cancel := r.stageContext(ctx, 10*time.Second)
		translated, terr := p.translator.Translate(translateCtx, answer, "english", p.registry.DisplayName(declared))
		cancel()
		if terr != nil {
			p.logger.Warn("translate-out failed, returning the English answer", zap.Error(terr))
		} else {
			finalAnswer = translated
		}
	}

	r.state = stateCaching
	p.writeCache(ctx, declared, verdict.Family, normalized, finalAnswer, answer, citations, score)

	r.state = stateDone
	return &Result{
		Success:           true,
		Response:          finalAnswer,
		Citations:         citations,
		FaithfulnessScore: score,
		LanguageCode:      declared,
		ModelUsed:         string(verdict.Family),
		ModelFamily:       verdict.Family,
	}, nil
}

// writeCache writes the declared-language entry and, when declared isn't
// English, the English-canonical entry concurrently — the one place in this
// pipeline with genuine sibling work, per the concurrency model.
func (p *Pipeline) writeCache(ctx context.Context, declared langroute.Code, family langroute.Family, normalized, declaredAnswer, englishAnswer string, citations []retrieve.Citation, score float64) {
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.Go(func() error {
		p.cache.Write(gctx, declared, family, normalized, &querycache.Entry{
			Response:          declaredAnswer,
			Citations:         citations,
			FaithfulnessScore: score,
			LanguageCode:      declared,
			Family:            family,
		})
		return nil
	})
	if declared != langroute.English {
		g.Go(func() error {
			p.cache.Write(gctx, langroute.English, family, normalized, &querycache.Entry{
				Response:          englishAnswer,
				Citations:         citations,
				FaithfulnessScore: score,
				LanguageCode:      langroute.English,
				Family:            family,
			})
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) fail(lang langroute.Code, err error) (*Result, error) {
	return &Result{
		Success:      false,
		Response:     apperr.Sanitize(err),
		LanguageCode: lang,
	}, err
}

func (r *run) cancelled(lang langroute.Code, err error) (*Result, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		wrapped := apperr.New(apperr.KindCancelled, string(r.state), err)
		return &Result{
			Success:      false,
			Response:     "cancelled",
			LanguageCode: lang,
		}, wrapped
	}
	wrapped := apperr.New(apperr.KindUpstreamFailure, string(r.state), err)
	return r.fail(lang, wrapped)
}

// stageContext bounds ctx by the smaller of budget and the remaining
// request-level deadline.
func (r *run) stageContext(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	remaining := time.Until(r.deadline)
	if remaining < budget {
		budget = remaining
	}
	if budget < 0 {
		budget = 0
	}
	return context.WithTimeout(ctx, budget)
}

func (p *Pipeline) emit(stage string, pct float64) {
	p.progress.Emit(progress.Event{Stage: stage, Pct: pct})
}
