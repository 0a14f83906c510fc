package langroute_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/langroute"
)

type stubTranslator struct {
	out string
	err error
}

func (s stubTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.out != "" {
		return s.out, nil
	}
	return text, nil
}

func newRouter() *langroute.Router {
	return langroute.NewRouter(langroute.NewRegistry(), nil)
}

// These cases come directly from the product's own routing smoke test: one
// query in each of ten supported languages, asserting the family each one
// dispatches to and that clean single-language text is allowed to proceed.
func TestRouteSupportedLanguages(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		code    langroute.Code
		family  langroute.Family
	}{
		{"arabic", "ما هو تغير المناخ؟", "ar", langroute.FamilySecondary},
		{"chinese", "什么是气候变化？", "zh", langroute.FamilySecondary},
		{"french", "Qu'est-ce que le changement climatique?", "fr", langroute.FamilySecondary},
		{"korean", "기후 변화는 무엇입니까?", "ko", langroute.FamilySecondary},
		{"russian", "Что такое изменение климата?", "ru", langroute.FamilySecondary},
		{"hindi", "जलवायु परिवर्तन क्या है?", "hi", langroute.FamilySecondary},
		{"hebrew", "מה זה שינוי אקלים?", "he", langroute.FamilySecondary},
		{"greek", "Τι είναι η κλιματική αλλαγή;", "el", langroute.FamilySecondary},
		{"english", "What is climate change?", "en", langroute.FamilyPrimary},
		{"japanese", "気候変動とは何ですか？", "ja", langroute.FamilyPrimary},
	}

	r := newRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := r.Route(context.Background(), tc.query, tc.code, nil)
			assert.Equal(t, tc.family, v.Family)
			assert.True(t, v.ShouldProceed, "should proceed for a clean same-language query")
		})
	}
}

func TestRouteEmptyQueryProceeds(t *testing.T) {
	r := newRouter()
	v := r.Route(context.Background(), "", "en", nil)
	assert.True(t, v.ShouldProceed)
	assert.Equal(t, langroute.Unknown, v.DetectedLanguage)
}

func TestRouteStrictMismatchWhenDeclaredEnglishButWrittenOther(t *testing.T) {
	r := newRouter()
	v := r.Route(context.Background(), "¿Qué es el cambio climático y qué es el calentamiento?", "en", nil)
	assert.False(t, v.ShouldProceed)
	assert.True(t, v.LanguageMismatch)
	assert.NotEmpty(t, v.Message)
}

func TestRouteLenientMismatchWhenDeclaredNonEnglishButWrittenEnglish(t *testing.T) {
	r := newRouter()
	v := r.Route(context.Background(), "What is the impact of the greenhouse effect on the climate?", "fr", nil)
	assert.True(t, v.ShouldProceed)
	assert.True(t, v.LanguageMismatch)
	assert.NotEmpty(t, v.Message)
}

func TestRouteTranslatesNonEnglishWhenNoMismatch(t *testing.T) {
	r := newRouter()
	translator := stubTranslator{out: "what is climate change"}
	v := r.Route(context.Background(), "Qu'est-ce que le changement climatique?", "fr", translator)
	require.True(t, v.ShouldProceed)
	assert.Equal(t, "what is climate change", v.ProcessedQuery)
	assert.Equal(t, "what is climate change", v.EnglishQuery)
}

func TestRouteTranslationFailureFallsBackToOriginalText(t *testing.T) {
	r := newRouter()
	translator := stubTranslator{err: errors.New("upstream down")}
	v := r.Route(context.Background(), "Qu'est-ce que le changement climatique?", "fr", translator)
	assert.True(t, v.ShouldProceed, "a translation outage must not hard-fail the request")
	assert.Equal(t, "Qu'est-ce que le changement climatique?", v.ProcessedQuery)
}

func TestRegistryNormalizeRegionVariants(t *testing.T) {
	reg := langroute.NewRegistry()
	assert.Equal(t, langroute.Code("zh"), reg.Normalize("zh-CN"))
	assert.Equal(t, langroute.Code("pt"), reg.Normalize("PT-br"))
	assert.Equal(t, langroute.Code("en"), reg.Normalize("en-US"))
}

func TestRegistryFamilyForUnknownCodeDefaultsPrimary(t *testing.T) {
	reg := langroute.NewRegistry()
	assert.Equal(t, langroute.FamilyPrimary, reg.FamilyFor("xx"))
}
