package input_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/input"
)

func TestFoldUtterance(t *testing.T) {
	tests := map[string]string{
		"Avançar!":        "avancar",
		"  Três  ":        "tres",
		"Para   Cima.":    "para cima",
		"NÃO":             "nao",
		"¿próximo?":       "proximo",
		"":                "",
		"...":             "",
		"Vá para o Norte": "va para o norte",
	}
	for in, want := range tests {
		assert.Equal(t, want, input.FoldUtterance(in), in)
	}
}

func TestVoice_Normalize(t *testing.T) {
	v := input.NewVoice(map[string]domain.Signal{"Olá": domain.Signal3})

	tests := []struct {
		name string
		ev   input.VoiceEvent
		want domain.Signal
		ok   bool
	}{
		{"direct", input.VoiceEvent{Transcript: "cima"}, domain.Signal1, true},
		{"accents and case", input.VoiceEvent{Transcript: "Três"}, domain.Signal3, true},
		{"synonym", input.VoiceEvent{Transcript: "Norte"}, domain.Signal1, true},
		{"multi word synonym", input.VoiceEvent{Transcript: "para baixo"}, domain.Signal3, true},
		{"synonym of action word", input.VoiceEvent{Transcript: "ok"}, domain.Signal1, true},
		{"direct wins over synonym", input.VoiceEvent{Transcript: "anterior"}, domain.Signal4, true},
		{"direct proximo", input.VoiceEvent{Transcript: "Próximo"}, domain.Signal2, true},
		{"english", input.VoiceEvent{Transcript: "Left"}, domain.Signal4, true},
		{"override folded", input.VoiceEvent{Transcript: "ola"}, domain.Signal3, true},
		{"low confidence", input.VoiceEvent{Transcript: "cima", Confidence: 0.5}, domain.SignalNone, false},
		{"high confidence", input.VoiceEvent{Transcript: "cima", Confidence: 0.9}, domain.Signal1, true},
		{"alternative", input.VoiceEvent{Transcript: "sima", Alternatives: []string{"xyz", "quatro"}}, domain.Signal4, true},
		{"unmapped", input.VoiceEvent{Transcript: "banana"}, domain.SignalNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.Normalize(tt.ev)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoice_CustomSynonyms(t *testing.T) {
	v := input.NewVoice(nil, input.WithSynonyms(map[string][]string{"cima": {"arriba"}}), input.WithConfidenceThreshold(0.2))

	got, ok := v.Normalize(input.VoiceEvent{Transcript: "Arriba", Confidence: 0.3})
	assert.True(t, ok)
	assert.Equal(t, domain.Signal1, got)
}
