package router

import (
	"testing"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/types"
)

func testConfig() config.RouterConfig {
	return config.RouterConfig{
		ScriptureShortSec: 6,
		LangIDFloor:       0.6,
		LangIDTieDelta:    0.1,
		CuePhrases:        []string{"gurbani fermaya hai"},
		ArchaicMarkers:    []string{"kahu", "jih"},
	}
}

func TestClassifyScriptureCuePhraseShortChunk(t *testing.T) {
	r := New(testConfig())
	route := r.Classify(Input{
		PreviewText: "as the gurbani fermaya hai in this shabad",
		DurationSec: 3,
	})
	if route.Kind != types.RouteScriptureQuoteLikely {
		t.Errorf("got %q", route.Kind)
	}
}

func TestClassifyCuePhraseIgnoredWhenChunkTooLong(t *testing.T) {
	r := New(testConfig())
	route := r.Classify(Input{
		PreviewText: "as the gurbani fermaya hai in this shabad",
		DurationSec: 20,
	})
	if route.Kind == types.RouteScriptureQuoteLikely {
		t.Error("expected cue phrase rule to not fire for a long chunk")
	}
}

func TestClassifyConfidentLangID(t *testing.T) {
	r := New(testConfig())
	route := r.Classify(Input{
		LangScores: []LangScore{{Lang: "en", Confidence: 0.9}, {Lang: "pa", Confidence: 0.1}},
	})
	if route.Kind != types.RouteEnglish {
		t.Errorf("got %q", route.Kind)
	}
}

func TestClassifyTieWithinDeltaIsMixed(t *testing.T) {
	r := New(testConfig())
	route := r.Classify(Input{
		LangScores: []LangScore{{Lang: "en", Confidence: 0.65}, {Lang: "pa", Confidence: 0.6}},
	})
	if route.Kind != types.RouteMixed {
		t.Errorf("got %q", route.Kind)
	}
}

func TestClassifyBelowFloorFallsBackToPrevRoute(t *testing.T) {
	r := New(testConfig())
	prev := types.RoutePunjabi
	route := r.Classify(Input{
		LangScores: []LangScore{{Lang: "en", Confidence: 0.3}, {Lang: "pa", Confidence: 0.1}},
		PrevRoute:  &prev,
	})
	if route.Kind != types.RoutePunjabi {
		t.Errorf("got %q", route.Kind)
	}
}

func TestClassifyArchaicMarkerSignal(t *testing.T) {
	r := New(testConfig())
	route := r.Classify(Input{PreviewText: "tum kahu so sunau"})
	if route.Kind != types.RouteScriptureQuoteLikely {
		t.Errorf("got %q", route.Kind)
	}
}

func TestClassifyNoSignalFallsBackToUnknown(t *testing.T) {
	r := New(testConfig())
	route := r.Classify(Input{})
	if route.Kind != types.RouteUnknown {
		t.Errorf("got %q", route.Kind)
	}
	if route.Reason == "" {
		t.Error("expected a non-empty reason")
	}
}
