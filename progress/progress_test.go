package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/progress"
)

func TestChannelSinkDeliversEmittedEvents(t *testing.T) {
	sink := progress.NewChannelSink(4)
	sink.Emit(progress.Event{Stage: "routing", Pct: 0.08})
	sink.Emit(progress.Event{Stage: "retrieving", Pct: 0.35})
	sink.Close()

	var got []progress.Event
	for e := range sink.Events() {
		got = append(got, e)
	}
	assert.Equal(t, []progress.Event{{Stage: "routing", Pct: 0.08}, {Stage: "retrieving", Pct: 0.35}}, got)
}

func TestChannelSinkDropsRatherThanBlocksWhenFull(t *testing.T) {
	sink := progress.NewChannelSink(1)
	sink.Emit(progress.Event{Stage: "one", Pct: 0.1})
	sink.Emit(progress.Event{Stage: "two", Pct: 0.2})
	sink.Close()

	var got []progress.Event
	for e := range sink.Events() {
		got = append(got, e)
	}
	assert.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Stage)
}

func TestNopSinkDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		progress.NopSink{}.Emit(progress.Event{Stage: "x", Pct: 1})
	})
}
