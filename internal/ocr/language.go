package ocr

import "strings"

// knownLanguages is the whitelist declared languages are validated
// against at upload time; anything else falls back to english. Values
// are the canonical OCR language pack name after alias resolution.
var knownLanguages = map[string]string{
	"english": "english", "french": "french", "spanish": "spanish",
	"german": "german", "italian": "italian", "portuguese": "portuguese",
	"russian": "russian", "arabic": "arabic", "chinese_simplified": "chinese_simplified",
	"chinese_traditional": "chinese_traditional", "japanese": "japanese",
	"korean": "korean", "hindi": "hindi", "urdu": "urdu", "farsi": "farsi",
	"turkish": "turkish", "vietnamese": "vietnamese", "thai": "thai",
	"myanmar": "myanmar", "khmer": "khmer", "indonesian": "indonesian",
	"malay": "malay", "dutch": "dutch", "polish": "polish",
	"ukrainian": "ukrainian", "swahili": "swahili", "amharic": "amharic",
	"somali": "somali", "pashto": "pashto", "dari": "dari",
	"bengali": "bengali", "tamil": "tamil", "nepali": "nepali",
}

// languageAliases maps common variant names to the canonical pack name
// used for OCR language selection.
var languageAliases = map[string]string{
	"mandarin":  "chinese_simplified",
	"cantonese": "chinese_traditional",
	"burmese":   "myanmar",
	"farsi-af":  "dari",
	"persian":   "farsi",
	"tagalog":   "indonesian",
	"filipino":  "indonesian",
}

const defaultLanguage = "english"

// ResolveLanguage normalises a declared language string to a canonical
// OCR pack name, applying aliases and falling back to English for
// anything not in the known set.
func ResolveLanguage(declared string) string {
	key := strings.ToLower(strings.TrimSpace(declared))
	if canonical, ok := languageAliases[key]; ok {
		key = canonical
	}
	if _, ok := knownLanguages[key]; ok {
		return key
	}
	return defaultLanguage
}

// IsKnownLanguage reports whether declared resolves to something other
// than the default fallback, i.e. whether it was already a recognised
// name or alias.
func IsKnownLanguage(declared string) bool {
	key := strings.ToLower(strings.TrimSpace(declared))
	if canonical, ok := languageAliases[key]; ok {
		key = canonical
	}
	_, ok := knownLanguages[key]
	return ok
}

func IsEnglish(declared string) bool {
	return ResolveLanguage(declared) == defaultLanguage
}
