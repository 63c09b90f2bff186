package whisper

// NewGeneral constructs the role-A (general-purpose) engine: multilingual,
// no forced language, so whisper.cpp auto-detects Punjabi vs English vs
// mixed speech per chunk.
func NewGeneral(modelPath string) (*Engine, error) {
	return New("whisper-general", modelPath)
}

// NewEnglish constructs the role-C (english-tuned) engine from the same
// binding as role A, pinned to English. Spec §4.4 names three independent
// engine roles; whisper.cpp's multilingual model covers both the general
// and English-tuned ends once the language is forced, so a fourth SDK isn't
// needed to fill role C.
func NewEnglish(modelPath string) (*Engine, error) {
	return New("whisper-english", modelPath, WithForcedLanguage("en"))
}
