// Package detector identifies the language of document prose. The fixed
// proofreading instruction assumes English text, so the pipeline samples a
// few paragraphs and warns when they read as something else. Advisory only;
// detection never blocks a run.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"
)

// minSampleRunes is the smallest prose sample worth detecting. Below this,
// results are noise and the sample passes as English.
const minSampleRunes = 20

// Detector wraps a lingua language detector. Building one is expensive;
// reuse the instance.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the ISO 639-1 code of the detected language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// IsEnglish reports whether text reads as English. Short or undetectable
// samples count as English so that markup-heavy documents never trigger a
// spurious warning.
func (d *Detector) IsEnglish(text string) bool {
	if len([]rune(text)) < minSampleRunes {
		return true
	}
	lang, ok := d.Detect(text)
	return !ok || lang == lingua.English
}
