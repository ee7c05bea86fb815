package normalization

import (
	"strings"
	"testing"
)

type colorMode string

const (
	colorAuto   colorMode = "auto"
	colorAlways colorMode = "always"
	colorNever  colorMode = "never"
)

func testNormalizer() *Normalizer[colorMode] {
	return New(map[string]colorMode{
		"auto":   colorAuto,
		"always": colorAlways,
		"never":  colorNever,
	}, colorAuto)
}

func TestNormalize(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name  string
		input string
		want  colorMode
	}{
		{"exact match", "always", colorAlways},
		{"case insensitive", "ALWAYS", colorAlways},
		{"surrounding whitespace", "  never  ", colorNever},
		{"mixed case and whitespace", "  AuTo  ", colorAuto},
		{"unknown input falls back", "rainbow", colorAuto},
		{"empty input falls back", "", colorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	n := testNormalizer()

	got, err := n.Parse(" Never ")
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", " Never ", err)
	}
	if got != colorNever {
		t.Errorf("Parse(%q) = %v, want %v", " Never ", got, colorNever)
	}
}

func TestParseUnknown(t *testing.T) {
	n := testNormalizer()

	_, err := n.Parse("rainbow")
	if err == nil {
		t.Fatal("expected error for unknown input")
	}
	if !strings.Contains(err.Error(), `"rainbow"`) {
		t.Errorf("error should name the rejected input, got: %v", err)
	}
	for _, key := range []string{"always", "auto", "never"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error should list valid option %q, got: %v", key, err)
		}
	}
}

func TestKeysSortedAndCopied(t *testing.T) {
	n := testNormalizer()

	keys := n.Keys()
	want := []string{"always", "auto", "never"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(want))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], k)
		}
	}

	keys[0] = "mutated"
	if n.Keys()[0] != "always" {
		t.Error("mutating the returned slice should not affect the normalizer")
	}
}

func TestNewCanonicalizesKeys(t *testing.T) {
	n := New(map[string]colorMode{
		"  ALWAYS  ": colorAlways,
	}, colorNever)

	if got := n.Normalize("always"); got != colorAlways {
		t.Errorf("Normalize(%q) = %v, want %v", "always", got, colorAlways)
	}
	if got := n.Keys(); len(got) != 1 || got[0] != "always" {
		t.Errorf("Keys() = %v, want [always]", got)
	}
}
