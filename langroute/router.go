package langroute

import (
	"context"

	"go.uber.org/zap"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/apperr"
)

// Translator translates text between two named languages. Implementations
// must recover backend failures into "return input unchanged" — the router
// never wants a translation outage to hard-fail a request it could otherwise
// serve in the original language.
type Translator interface {
	Translate(ctx context.Context, text, sourceLangName, targetLangName string) (string, error)
}

// Verdict is the outcome of routing one query.
type Verdict struct {
	ShouldProceed    bool
	Family           Family
	NeedsTranslation bool
	LanguageMismatch bool
	DetectedLanguage Code
	Message          string
	ProcessedQuery   string
	EnglishQuery     string
}

// Router is the central routing decision maker: which family answers the
// query, whether it needs translating to English first, and whether the
// declared language plausibly matches what the text is written in.
type Router struct {
	registry *Registry
	logger   *zap.Logger
}

func NewRouter(registry *Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{registry: registry, logger: logger}
}

// Route implements the mismatch and translation policy of the
// specification. translator may be nil, in which case a query that needs
// translation is returned unprocessed (ProcessedQuery == the original text)
// with NeedsTranslation still set, leaving translation to a later stage.
func (r *Router) Route(ctx context.Context, query string, declared Code, translator Translator) *Verdict {
	declared = r.registry.Normalize(string(declared))
	family := r.registry.FamilyFor(declared)

	verdict := &Verdict{
		Family:           family,
		NeedsTranslation: declared != English,
		ProcessedQuery:   query,
		EnglishQuery:     query,
	}

	detected := DetectSimple(query)
	verdict.DetectedLanguage = detected

	if detected != Unknown && detected != declared {
		mismatch := r.classifyMismatch(declared, detected)
		if mismatch == mismatchStrict {
			verdict.ShouldProceed = false
			verdict.LanguageMismatch = true
			verdict.Message = MismatchMessage()
			return verdict
		}
		if mismatch == mismatchLenient {
			verdict.ShouldProceed = true
			verdict.LanguageMismatch = true
			verdict.Message = "Detected " + r.registry.DisplayName(detected) + " text while language selected is " + r.registry.DisplayName(declared) + ". You can switch the language in the sidebar."
			return verdict
		}
	}

	if verdict.NeedsTranslation && translator != nil {
		translated, err := translator.Translate(ctx, query, r.registry.DisplayName(declared), "english")
		if err != nil {
			r.logger.Warn("translation failed, proceeding with original text",
				zap.String("declared", string(declared)), zap.Error(err))
			verdict.ShouldProceed = true
			return verdict
		}
		verdict.ProcessedQuery = translated
		verdict.EnglishQuery = translated
	}

	verdict.ShouldProceed = true
	return verdict
}

type mismatchLevel int

const (
	mismatchNone mismatchLevel = iota
	mismatchLenient
	mismatchStrict
)

// classifyMismatch implements the asymmetric policy spec.md §4.2 describes:
// declaring English but writing in another (definite) Latin-or-script
// language is a hard stop, since an English-speaking reader would not be
// able to read the non-English answer such a report indicates. Declaring
// any other language while writing in English, or any other cross-language
// pairing, is surfaced but non-blocking — the system still has a translation
// path available.
func (r *Router) classifyMismatch(declared, detected Code) mismatchLevel {
	if declared == English && detected != English {
		return mismatchStrict
	}
	if declared != English && detected != declared {
		return mismatchLenient
	}
	return mismatchNone
}

// RefusalError wraps a routing refusal as an apperr.Error for callers that
// want to propagate the verdict's message through the standard taxonomy.
func (v *Verdict) RefusalError(stage string) error {
	if v.ShouldProceed {
		return nil
	}
	kind := apperr.KindInputInvalid
	if v.LanguageMismatch {
		kind = apperr.KindLanguageMismatch
	}
	return apperr.New(kind, stage, errMessage(v.Message))
}

type errMessage string

func (e errMessage) Error() string { return string(e) }
