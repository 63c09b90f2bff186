package script

import (
	"testing"

	"github.com/gurbani-transcribe/core/pkg/types"
)

func TestDetectScriptGurmukhi(t *testing.T) {
	got, conf := detectScript("ਸਤਿਨਾਮ ਵਾਹਿਗੁਰੂ", 0.15)
	if got != types.ScriptGurmukhi {
		t.Errorf("got %v", got)
	}
	if conf < 0.99 {
		t.Errorf("expected near-1.0 confidence, got %v", conf)
	}
}

func TestDetectScriptShahmukhi(t *testing.T) {
	got, _ := detectScript("واہگرو دا شکر", 0.15)
	if got != types.ScriptShahmukhi {
		t.Errorf("got %v", got)
	}
}

func TestDetectScriptLatin(t *testing.T) {
	got, _ := detectScript("this is english text", 0.15)
	if got != types.ScriptLatin {
		t.Errorf("got %v", got)
	}
}

func TestDetectScriptEmptyInput(t *testing.T) {
	got, conf := detectScript("1234 !? ", 0.15)
	if got != types.ScriptEmpty {
		t.Errorf("got %v", got)
	}
	if conf != 1.0 {
		t.Errorf("expected confidence 1.0 for empty classification, got %v", conf)
	}
}

func TestDetectScriptMixedWhenClose(t *testing.T) {
	// 5 Gurmukhi runes ("ਸਤਨਾਮ") vs 5 Latin letters ("hello"): an even
	// split should classify as mixed.
	got, _ := detectScript("ਸਤਨਾਮ hello", 0.15)
	if got != types.ScriptMixed {
		t.Errorf("got %v", got)
	}
}

func TestDetectScriptNotMixedWhenDominant(t *testing.T) {
	got, _ := detectScript("ਸਤਿਨਾਮ ਵਾਹਿਗੁਰੂ ਗੁਰੂ ਗੁਰੂ a", 0.15)
	if got != types.ScriptGurmukhi {
		t.Errorf("got %v", got)
	}
}
