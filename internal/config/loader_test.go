package config

import (
	"strings"
	"testing"
)

func TestLoadFromReaderDefaults(t *testing.T) {
	yamlSrc := `
scripture:
  primary_path: testdata/sggs.ndjson
`
	cfg, err := LoadFromReader(strings.NewReader(yamlSrc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Quote.AutoReplaceFloor != 0.90 {
		t.Fatalf("expected default auto_replace_floor 0.90, got %v", cfg.Quote.AutoReplaceFloor)
	}
	if cfg.Chunker.VADAggressiveness != 2 {
		t.Fatalf("expected default vad_aggressiveness 2, got %v", cfg.Chunker.VADAggressiveness)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	yamlSrc := `
scripture:
  primary_path: testdata/sggs.ndjson
not_a_real_field: true
`
	if _, err := LoadFromReader(strings.NewReader(yamlSrc)); err == nil {
		t.Fatal("expected decode error for unknown field, got nil")
	}
}

func TestValidateMissingPrimaryPath(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for missing scripture.primary_path")
	}
}

func TestValidateWeightsMustSumToOne(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Scripture.PrimaryPath = "x.ndjson"
	cfg.Quote.FuzzyWeight = 0.9
	cfg.Quote.SemanticWeight = 0.9
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for weights not summing to 1")
	}
}

func TestValidateBadDomainMode(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Scripture.PrimaryPath = "x.ndjson"
	cfg.Quote.DomainMode = "bogus"
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "domain_mode") {
		t.Fatalf("expected domain_mode validation error, got %v", err)
	}
}
