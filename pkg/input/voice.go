package input

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/aretw0/vaudio/pkg/domain"
)

// VoiceEvent is a recognized utterance. Confidence is in [0, 1]; zero means unknown.
type VoiceEvent struct {
	Transcript   string   `json:"transcript"`
	Confidence   float64  `json:"confidence,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// DefaultConfidenceThreshold rejects utterances the recognizer is unsure about.
const DefaultConfidenceThreshold = 0.7

// DefaultVoiceTable binds spoken words. Portuguese is the primary vocabulary.
func DefaultVoiceTable() Table {
	return Table{
		"cima": domain.Signal1, "um": domain.Signal1, "confirmar": domain.Signal1, "selecionar": domain.Signal1,
		"up": domain.Signal1, "yes": domain.Signal1,

		"direita": domain.Signal2, "dois": domain.Signal2, "cancelar": domain.Signal2, "proximo": domain.Signal2,
		"right": domain.Signal2, "no": domain.Signal2,

		"baixo": domain.Signal3, "tres": domain.Signal3, "voltar": domain.Signal3, "sair": domain.Signal3,
		"down": domain.Signal3,

		"esquerda": domain.Signal4, "quatro": domain.Signal4, "avancar": domain.Signal4, "anterior": domain.Signal4,
		"left": domain.Signal4,
	}
}

// DefaultSynonyms maps a canonical word to spoken variants.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		"cima":       {"acima", "norte", "para cima", "subir"},
		"baixo":      {"abaixo", "sul", "para baixo", "descer"},
		"esquerda":   {"oeste", "para esquerda"},
		"direita":    {"leste", "para direita"},
		"um":         {"1", "primeiro", "uma"},
		"dois":       {"2", "segundo", "duas"},
		"tres":       {"3", "terceiro"},
		"quatro":     {"4", "quarto"},
		"confirmar":  {"ok", "sim", "aceitar", "concordar"},
		"cancelar":   {"nao", "recusar", "negar"},
		"voltar":     {"retornar", "anterior", "volta"},
		"avancar":    {"proximo", "continuar", "seguir"},
		"selecionar": {"escolher", "pegar", "usar"},
		"sair":       {"fechar", "terminar", "finalizar"},
	}
}

// Voice normalizes utterances. Direct table entries win over synonym resolution.
type Voice struct {
	table      Table
	synonyms   map[string]string
	confidence float64
}

// VoiceOption configures a Voice adapter.
type VoiceOption func(*Voice)

// WithConfidenceThreshold overrides the minimum accepted confidence.
func WithConfidenceThreshold(v float64) VoiceOption {
	return func(a *Voice) {
		a.confidence = v
	}
}

// WithSynonyms adds synonym sets on top of the defaults.
func WithSynonyms(sets map[string][]string) VoiceOption {
	return func(a *Voice) {
		a.addSynonyms(sets)
	}
}

// NewVoice builds a voice adapter. Override triggers are folded like utterances.
func NewVoice(overrides map[string]domain.Signal, opts ...VoiceOption) *Voice {
	normalized := make(map[string]domain.Signal, len(overrides))
	for k, v := range overrides {
		normalized[FoldUtterance(k)] = v
	}
	a := &Voice{
		table:      DefaultVoiceTable().Merge(normalized),
		synonyms:   make(map[string]string),
		confidence: DefaultConfidenceThreshold,
	}
	a.addSynonyms(DefaultSynonyms())
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Voice) addSynonyms(sets map[string][]string) {
	for canonical, variants := range sets {
		c := FoldUtterance(canonical)
		for _, v := range variants {
			a.synonyms[FoldUtterance(v)] = c
		}
	}
}

func (a *Voice) Source() string { return domain.SourceVoice }

func (a *Voice) Table() Table { return a.table }

// Normalize maps an utterance to a signal. Low-confidence utterances are dropped.
// When the transcript is unmapped the alternatives are tried in order.
func (a *Voice) Normalize(ev VoiceEvent) (domain.Signal, bool) {
	if ev.Confidence > 0 && ev.Confidence < a.confidence {
		return domain.SignalNone, false
	}
	if s, ok := a.Resolve(ev.Transcript); ok {
		return s, true
	}
	for _, alt := range ev.Alternatives {
		if s, ok := a.Resolve(alt); ok {
			return s, true
		}
	}
	return domain.SignalNone, false
}

// Resolve maps a single phrase.
func (a *Voice) Resolve(phrase string) (domain.Signal, bool) {
	folded := FoldUtterance(phrase)
	if folded == "" {
		return domain.SignalNone, false
	}
	if s, ok := a.table.Lookup(folded); ok {
		return s, true
	}
	if canonical, ok := a.synonyms[folded]; ok {
		return a.table.Lookup(canonical)
	}
	return domain.SignalNone, false
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// FoldUtterance lowercases, strips diacritics and punctuation and collapses whitespace.
func FoldUtterance(s string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}
