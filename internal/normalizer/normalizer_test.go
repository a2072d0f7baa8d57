package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"accents stripped", "Cuscatlán", "cuscatlan"},
		{"lowercase and collapse", "  Santa   TECLA ", "santa tecla"},
		{"enye", "Cañas", "canas"},
		{"punctuation merged", "Casa en venta, Antiguo Cuscatlán.", "casa en venta antiguo cuscatlan"},
		{"abbreviation loses dot", "Col. Escalón", "col escalon"},
		{"already clean", "san salvador", "san salvador"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStripPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"colonia", "colonia escalon", "escalon"},
		{"prefix plus article", "residencial la esperanza", "esperanza"},
		{"abbreviation", "col miramonte", "miramonte"},
		{"stacked articles", "colonia las delicias", "delicias"},
		{"no prefix", "escalon", "escalon"},
		{"prefix only keeps input", "colonia", "colonia"},
		{"article only keeps input", "la colonia", "la colonia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripPrefixes(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"function words lowercase", "residencial las magnolias", "Residencial las Magnolias"},
		{"function word first stays capitalized", "la esperanza", "La Esperanza"},
		{"de del", "jardines de la hacienda", "Jardines de la Hacienda"},
		{"single word", "miramonte", "Miramonte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayName(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}
