package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// validDomainModes lists the accepted quote.domain_mode values.
var validDomainModes = []string{"sggs", "dasam", "generic"}

// validRomanizationSchemes lists the accepted script.romanization_scheme values.
var validRomanizationSchemes = []string{"iso15919", "iast", "practical"}

// validDenoiseBackends lists the accepted denoise.backend values.
var validDenoiseBackends = []string{"spectral", "learned1", "learned2"}

// validDenoiseStrengths lists the accepted denoise.strength values.
var validDenoiseStrengths = []string{"light", "medium", "aggressive"}

// Load reads the YAML configuration file at path, applies environment
// variable overrides, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: file %q does not exist — create it from the sample config, or point --config at an existing file: %w", path, err)
		}
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// environment overrides, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in the threshold and tunable defaults spec.md leaves
// to the implementer, before YAML decoding overrides them.
func applyDefaults(cfg *Config) {
	cfg.Server.LogLevel = LogInfo

	cfg.Chunker = ChunkerConfig{
		SampleRate:        16000,
		MinChunkSec:       3,
		MaxChunkSec:       20,
		TargetChunkSec:    8,
		OverlapSec:        0.5,
		VADAggressiveness: 2,
		GapCloseMs:        400,
		LiveFlushMs:       800,
		LiveQueueDepth:    16,
	}

	cfg.Router = RouterConfig{
		ScriptureShortSec: 6,
		LangIDFloor:       0.6,
		LangIDTieDelta:    0.1,
		CuePhrases: []string{
			"as is said", "in the bani", "gurbani fermaya hai", "vakh vich aya hai",
		},
		ArchaicMarkers: []string{
			"ਹੇ", "ਤਿਹਿ", "ਕਹੁ", "ਹੋਇ", "ਜਿਹ", "ਤਾਹਿ", "ਕਰਿ", "ਮਨ ਰੇ",
		},
	}

	cfg.Fusion = FusionConfig{
		RedecodeFloor:  0.6,
		ReviewFloor:    0.5,
		AgreementFloor: 0.6,
		EnginePriority: []string{"general", "indic", "english"},
	}

	cfg.Script = ScriptConfig{
		RomanizationScheme: "practical",
		ScriptMixDelta:     0.15,
		ScriptReviewFloor:  0.6,
		ScriptPurityFloor:  0.8,
	}

	cfg.Quote = QuoteConfig{
		DomainMode:       "generic",
		VocabRatioFloor:  0.4,
		QuoteLenWindowLo: 3,
		QuoteLenWindowHi: 30,
		FuzzyWeight:      0.6,
		SemanticWeight:   0.4,
		VerifierFloor:    0.55,
		LenRatioLo:       0.6,
		LenRatioHi:       1.6,
		AutoReplaceFloor: 0.90,
		ReviewFloor:      0.55,
		CuePhrases: []string{
			"gurbani fermaya hai", "vakh vich aya hai", "as it is written", "the shabad says",
		},
		Stoplist: []string{
			"hai", "de", "da", "di", "te", "nu", "ne", "ਹੈ", "ਦੇ", "ਦਾ", "ਦੀ", "ਤੇ", "ਨੂੰ", "ਨੇ",
		},
	}

	cfg.Pipeline = PipelineConfig{
		ASRParallelWorkers:   2,
		ChunkParallelWorkers: 4,
	}

	cfg.Denoise = DenoiseConfig{
		Enabled:  false,
		Backend:  "spectral",
		Strength: "medium",
	}
}

// applyEnvOverrides applies the non-exhaustive environment variables named
// in spec.md §6 as a post-load override pass.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = LogLevel(v)
	}
	if v := os.Getenv("WHISPER_MODEL_SIZE"); v != "" {
		cfg.Providers.ASRGeneral.Model = v
	}
	if v := os.Getenv("DOMAIN_MODE"); v != "" {
		cfg.Quote.DomainMode = v
	}
	if v := os.Getenv("STRICT_GURMUKHI"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Script.StrictGurmukhi = b
		}
	}
	if v := os.Getenv("QUOTE_MATCH_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Quote.AutoReplaceFloor = f
		}
	}
	if v := os.Getenv("ENABLE_DENOISING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Denoise.Enabled = b
		}
	}
	if v := os.Getenv("DENOISE_STRENGTH"); v != "" {
		cfg.Denoise.Strength = v
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every validation failure found, per the
// ConfigError error kind ("Contradictory or missing config" — fatal at
// startup).
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Scripture.PrimaryPath == "" {
		errs = append(errs, errors.New("scripture.primary_path is required"))
	}

	if !slices.Contains(validDomainModes, cfg.Quote.DomainMode) {
		errs = append(errs, fmt.Errorf("quote.domain_mode %q is invalid; valid values: %v", cfg.Quote.DomainMode, validDomainModes))
	}
	if !slices.Contains(validRomanizationSchemes, cfg.Script.RomanizationScheme) {
		errs = append(errs, fmt.Errorf("script.romanization_scheme %q is invalid; valid values: %v", cfg.Script.RomanizationScheme, validRomanizationSchemes))
	}
	if cfg.Quote.DomainMode == "dasam" && cfg.Scripture.SecondaryPath == "" {
		// Not an error — DESIGN.md Open Question decision: falls back to
		// scripture_quote_likely against SGGS only.
		_ = struct{}{}
	}

	if cfg.Chunker.VADAggressiveness < 0 || cfg.Chunker.VADAggressiveness > 3 {
		errs = append(errs, fmt.Errorf("chunker.vad_aggressiveness %d out of range [0,3]", cfg.Chunker.VADAggressiveness))
	}
	if cfg.Chunker.MinChunkSec <= 0 || cfg.Chunker.MaxChunkSec <= cfg.Chunker.MinChunkSec {
		errs = append(errs, fmt.Errorf("chunker: min_chunk_sec (%.2f) must be > 0 and < max_chunk_sec (%.2f)", cfg.Chunker.MinChunkSec, cfg.Chunker.MaxChunkSec))
	}
	if cfg.Chunker.TargetChunkSec < cfg.Chunker.MinChunkSec || cfg.Chunker.TargetChunkSec > cfg.Chunker.MaxChunkSec {
		errs = append(errs, fmt.Errorf("chunker.target_chunk_sec (%.2f) must be within [min_chunk_sec, max_chunk_sec]", cfg.Chunker.TargetChunkSec))
	}

	if w := cfg.Quote.FuzzyWeight + cfg.Quote.SemanticWeight; w != 0 && (w < 0.999 || w > 1.001) {
		errs = append(errs, fmt.Errorf("quote.fuzzy_weight + quote.semantic_weight must equal 1, got %.3f", w))
	}
	if cfg.Quote.ReviewFloor > cfg.Quote.AutoReplaceFloor {
		errs = append(errs, fmt.Errorf("quote.review_floor (%.2f) must be <= quote.auto_replace_floor (%.2f)", cfg.Quote.ReviewFloor, cfg.Quote.AutoReplaceFloor))
	}
	if cfg.Quote.LenRatioLo <= 0 || cfg.Quote.LenRatioHi < cfg.Quote.LenRatioLo {
		errs = append(errs, fmt.Errorf("quote: len_ratio_lo (%.2f) must be > 0 and <= len_ratio_hi (%.2f)", cfg.Quote.LenRatioLo, cfg.Quote.LenRatioHi))
	}

	if cfg.Fusion.ReviewFloor > cfg.Fusion.RedecodeFloor {
		errs = append(errs, fmt.Errorf("fusion.review_floor (%.2f) should not exceed fusion.redecode_floor (%.2f)", cfg.Fusion.ReviewFloor, cfg.Fusion.RedecodeFloor))
	}

	if cfg.Denoise.Enabled {
		if !slices.Contains(validDenoiseBackends, cfg.Denoise.Backend) {
			errs = append(errs, fmt.Errorf("denoise.backend %q is invalid; valid values: %v", cfg.Denoise.Backend, validDenoiseBackends))
		}
		if !slices.Contains(validDenoiseStrengths, cfg.Denoise.Strength) {
			errs = append(errs, fmt.Errorf("denoise.strength %q is invalid; valid values: %v", cfg.Denoise.Strength, validDenoiseStrengths))
		}
	}

	if cfg.Pipeline.ASRParallelWorkers <= 0 {
		errs = append(errs, errors.New("pipeline.asr_parallel_workers must be > 0"))
	}
	if cfg.Pipeline.ChunkParallelWorkers <= 0 {
		errs = append(errs, errors.New("pipeline.chunk_parallel_workers must be > 0"))
	}

	if cfg.Scripture.PostgresDSN != "" && cfg.Scripture.EmbeddingDimensions <= 0 {
		errs = append(errs, errors.New("scripture.embedding_dimensions must be set when scripture.postgres_dsn is configured"))
	}

	return errors.Join(errs...)
}
