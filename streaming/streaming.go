// Package streaming defines the typed event envelopes a transport layer
// projects a pipeline run into, and a Bridge that produces them from a
// progress.Sink and a pipeline result. The wire framing (SSE bytes) is out
// of scope here; this package is the boundary a transport adapts.
package streaming

import (
	"context"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/progress"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/retrieve"
)

// Event is the closed sum type of every envelope this package emits. The
// unexported marker method keeps the set closed to this package.
type Event interface {
	isStreamingEvent()
}

type ProgressEvent struct {
	Stage     string
	Pct       float64
	RequestID string
}

type LanguageDetectedEvent struct {
	Language  string
	Family    string
	RequestID string
}

type TokenEvent struct {
	Content         string
	PartialResponse string
	RequestID       string
}

type CitationEvent struct {
	Citation  retrieve.Citation
	RequestID string
}

type CompleteEvent struct {
	FinalResponse     string
	Citations         []retrieve.Citation
	FaithfulnessScore float64
	ModelUsed         string
	LanguageUsed      string
	RequestID         string
}

type ErrorEvent struct {
	Error     string
	RequestID string
}

type EndEvent struct {
	RequestID string
}

func (ProgressEvent) isStreamingEvent()         {}
func (LanguageDetectedEvent) isStreamingEvent() {}
func (TokenEvent) isStreamingEvent()            {}
func (CitationEvent) isStreamingEvent()         {}
func (CompleteEvent) isStreamingEvent()         {}
func (ErrorEvent) isStreamingEvent()            {}
func (EndEvent) isStreamingEvent()              {}

// Bridge subscribes to a progress.Sink fed by a running pipeline and turns
// its events, plus a final outcome, into the Event envelope sequence a
// transport can forward. It never does wire framing itself.
type Bridge struct {
	requestID string
}

func NewBridge(requestID string) *Bridge {
	return &Bridge{requestID: requestID}
}

// RunProgress drains src until ctx is done or src is closed, forwarding
// each progress.Event as a ProgressEvent onto out. It returns when draining
// stops, so callers typically run it in its own goroutine.
func (b *Bridge) RunProgress(ctx context.Context, src *progress.ChannelSink, out chan<- Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-src.Events():
			if !ok {
				return
			}
			out <- ProgressEvent{Stage: e.Stage, Pct: e.Pct, RequestID: b.requestID}
		}
	}
}

// LanguageDetected emits the single language_detected envelope.
func (b *Bridge) LanguageDetected(language, family string) Event {
	return LanguageDetectedEvent{Language: language, Family: family, RequestID: b.requestID}
}

// Token emits a token envelope carrying both the incremental content and
// the accumulated partial response.
func (b *Bridge) Token(content, partialResponse string) Event {
	return TokenEvent{Content: content, PartialResponse: partialResponse, RequestID: b.requestID}
}

// Citation emits a single citation envelope.
func (b *Bridge) Citation(c retrieve.Citation) Event {
	return CitationEvent{Citation: c, RequestID: b.requestID}
}

// Complete emits the terminal success envelope.
func (b *Bridge) Complete(finalResponse string, citations []retrieve.Citation, faithfulnessScore float64, modelUsed, languageUsed string) Event {
	return CompleteEvent{
		FinalResponse:     finalResponse,
		Citations:         citations,
		FaithfulnessScore: faithfulnessScore,
		ModelUsed:         modelUsed,
		LanguageUsed:      languageUsed,
		RequestID:         b.requestID,
	}
}

// Err emits the terminal failure envelope, mutually exclusive with Complete.
func (b *Bridge) Err(message string) Event {
	return ErrorEvent{Error: message, RequestID: b.requestID}
}

// End emits the envelope that always terminates the sequence, on every
// success or failure path.
func (b *Bridge) End() Event {
	return EndEvent{RequestID: b.requestID}
}
