package romanize

import (
	"context"
	"testing"

	"github.com/gurbani-transcribe/core/pkg/types"
)

func TestPracticalSimpleConsonantWithVowelSign(t *testing.T) {
	p := NewPractical(false)
	// ਕੀ = ka + ii matra -> "kii"
	got, err := p.Romanize(context.Background(), "ਕੀ", types.SchemePractical)
	if err != nil {
		t.Fatal(err)
	}
	if got != "kii" {
		t.Errorf("got %q", got)
	}
}

func TestPracticalInherentVowelWithNoMatra(t *testing.T) {
	p := NewPractical(false)
	// ਕ alone carries its inherent "a"
	got, err := p.Romanize(context.Background(), "ਕ", types.SchemePractical)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ka" {
		t.Errorf("got %q", got)
	}
}

func TestPracticalHalantSuppressesInherentVowel(t *testing.T) {
	p := NewPractical(false)
	// ਕ੍ = ka + halant -> "k", no vowel
	got, err := p.Romanize(context.Background(), "ਕ੍", types.SchemePractical)
	if err != nil {
		t.Fatal(err)
	}
	if got != "k" {
		t.Errorf("got %q", got)
	}
}

func TestPracticalAdhakGeminatesFollowingConsonant(t *testing.T) {
	p := NewPractical(false)
	// ੱਕ = adhak + ka -> "kka"
	got, err := p.Romanize(context.Background(), "ੱਕ", types.SchemePractical)
	if err != nil {
		t.Fatal(err)
	}
	if got != "kka" {
		t.Errorf("got %q", got)
	}
}

func TestPracticalWordInitialCapitalization(t *testing.T) {
	p := NewPractical(true)
	got, err := p.Romanize(context.Background(), "ਕ ਕ", types.SchemePractical)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Ka Ka" {
		t.Errorf("got %q", got)
	}
}

func TestPracticalUnknownCodepointPassesThrough(t *testing.T) {
	p := NewPractical(false)
	got, err := p.Romanize(context.Background(), "abc123", types.SchemePractical)
	if err != nil {
		t.Fatal(err)
	}
	if got != "abc123" {
		t.Errorf("got %q", got)
	}
}

func TestPracticalRejectsNonPracticalScheme(t *testing.T) {
	p := NewPractical(false)
	_, err := p.Romanize(context.Background(), "ਕ", types.SchemeIAST)
	if err == nil {
		t.Error("expected error for mismatched scheme")
	}
}

func TestMultiDispatchesByScheme(t *testing.T) {
	m := NewMulti(NewAksharamukha(), NewPractical(false))
	got, err := m.Romanize(context.Background(), "ਕ", types.SchemePractical)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ka" {
		t.Errorf("got %q", got)
	}
}
