package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     int
	}{
		{name: "empty", password: "", want: 0},
		{name: "short lowercase", password: "abc", want: 10},
		{name: "8 lowercase", password: "abcdefgh", want: 20},
		{name: "12 lower+digits", password: "abcdef123456", want: 40},
		{name: "symbols weigh more", password: "!!!!", want: 20},
		{name: "16 all classes gets bonus", password: "Abcdefgh1234!@#$", want: 30 + 50 + 10},
		{name: "15 all classes no bonus", password: "Abcdefgh1234!@#", want: 20 + 50},
		{name: "20 all classes is max", password: "VeryStrongPass123!!x", want: 100},
		{name: "very long stays capped", password: strings.Repeat("Aa1!", 20), want: 100},
		{name: "spaces are not symbols", password: "a a", want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateStrength(tt.password)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestEstimateStrength_GeneratedPasswordsAreStrong(t *testing.T) {
	for i := 0; i < 20; i++ {
		pw, err := Generate(DefaultLength, AllClasses())
		if err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, 100, EstimateStrength(pw))
	}
}

func TestStrengthLabel(t *testing.T) {
	assert.Equal(t, "weak", StrengthLabel(0))
	assert.Equal(t, "weak", StrengthLabel(39))
	assert.Equal(t, "fair", StrengthLabel(40))
	assert.Equal(t, "good", StrengthLabel(60))
	assert.Equal(t, "strong", StrengthLabel(80))
	assert.Equal(t, "strong", StrengthLabel(100))
}
