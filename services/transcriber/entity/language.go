package entity

import (
	"strings"
)

type Variant string

const (
	VariantStandard     Variant = "standard"
	VariantPhonetic     Variant = "phonetic"
	VariantNativeScript Variant = "native_script"
)

type Script string

const (
	ScriptDefault Script = "default"
	ScriptLatin   Script = "latin"
	ScriptTamil   Script = "tamil"
)

type Language struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Variant Variant `json:"variant"`
	Script  Script  `json:"script"`
	// Base is the regional language a phonetic variant romanizes.
	Base string `json:"base,omitempty"`
}

func (l Language) IsZero() bool {
	return l.ID == ""
}

var catalog = []Language{
	{ID: "english", Name: "English", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "spanish", Name: "Spanish", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "french", Name: "French", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "german", Name: "German", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "italian", Name: "Italian", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "portuguese", Name: "Portuguese", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "dutch", Name: "Dutch", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "turkish", Name: "Turkish", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "indonesian", Name: "Indonesian", Variant: VariantStandard, Script: ScriptLatin},
	{ID: "russian", Name: "Russian", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "japanese", Name: "Japanese", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "korean", Name: "Korean", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "chinese", Name: "Chinese (Simplified)", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "arabic", Name: "Arabic", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "hindi", Name: "Hindi", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "bengali", Name: "Bengali", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "telugu", Name: "Telugu", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "kannada", Name: "Kannada", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "malayalam", Name: "Malayalam", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "marathi", Name: "Marathi", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "urdu", Name: "Urdu", Variant: VariantStandard, Script: ScriptDefault},
	{ID: "hinglish", Name: "Hinglish (Hindi-English)", Variant: VariantPhonetic, Script: ScriptLatin, Base: "Hindi"},
	{ID: "manglish", Name: "Manglish (Malayalam-English)", Variant: VariantPhonetic, Script: ScriptLatin, Base: "Malayalam"},
	{ID: "tanglish", Name: "Tanglish (Tamil-English)", Variant: VariantPhonetic, Script: ScriptLatin, Base: "Tamil"},
	{ID: "tamil", Name: "Tamil (Script)", Variant: VariantNativeScript, Script: ScriptTamil, Base: "Tamil"},
}

// Languages returns a copy of the fixed catalog in display order.
func Languages() []Language {
	out := make([]Language, len(catalog))
	copy(out, catalog)
	return out
}

// LookupLanguage matches the catalog by id or display name, ignoring case.
func LookupLanguage(key string) (Language, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Language{}, false
	}
	for _, l := range catalog {
		if strings.EqualFold(l.ID, key) || strings.EqualFold(l.Name, key) {
			return l, true
		}
	}
	return Language{}, false
}
