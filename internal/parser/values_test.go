package parser

import (
	"net/url"
	"testing"
)

// TestDefaultValueProvider tests deterministic form value generation.
func TestDefaultValueProvider(t *testing.T) {
	t.Parallel()

	target, err := url.Parse("http://t/form")
	if err != nil {
		t.Fatalf("failed to parse target: %v", err)
	}

	provider := DefaultValueProvider{}

	tests := []struct {
		name           string
		defaultValue   string
		declaredValues []string
		attributes     map[string]string
		want           string
	}{
		{
			name:         "declared default wins",
			defaultValue: "declared",
			attributes:   map[string]string{"type": "text"},
			want:         "declared",
		},
		{
			name:           "first declared option wins",
			declaredValues: []string{"one", "two"},
			attributes:     map[string]string{"type": "select"},
			want:           "one",
		},
		{
			name:       "text",
			attributes: map[string]string{"type": "text"},
			want:       defaultTextValue,
		},
		{
			name:       "password",
			attributes: map[string]string{"type": "password"},
			want:       defaultPasswordValue,
		},
		{
			name:       "number without min",
			attributes: map[string]string{"type": "number"},
			want:       defaultNumberValue,
		},
		{
			name:       "number with min",
			attributes: map[string]string{"type": "number", "min": "5"},
			want:       "5",
		},
		{
			name:       "email",
			attributes: map[string]string{"type": "email"},
			want:       defaultEmailValue,
		},
		{
			name:       "url",
			attributes: map[string]string{"type": "url"},
			want:       defaultURLValue,
		},
		{
			name:       "checkbox",
			attributes: map[string]string{"type": "checkbox"},
			want:       "on",
		},
		{
			name:       "unknown type falls back to text",
			attributes: map[string]string{"type": "custom-widget"},
			want:       defaultTextValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := provider.Value(target, "field", tt.defaultValue, tt.declaredValues, tt.attributes)
			if got != tt.want {
				t.Errorf("Value() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestDefaultValueProviderDeterminism tests repeatability: the same
// field must always resolve to the same value or dedup breaks.
func TestDefaultValueProviderDeterminism(t *testing.T) {
	t.Parallel()

	target, err := url.Parse("http://t/form")
	if err != nil {
		t.Fatalf("failed to parse target: %v", err)
	}

	provider := DefaultValueProvider{}
	attrs := map[string]string{"type": "text"}

	first := provider.Value(target, "q", "", nil, attrs)
	for range 5 {
		if got := provider.Value(target, "q", "", nil, attrs); got != first {
			t.Fatalf("Value() not deterministic: %q then %q", first, got)
		}
	}
}
