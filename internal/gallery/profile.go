// Package gallery manages the enrolled persons: their reference images on
// disk and the profile metadata used for voice announcements.
package gallery

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Profile holds the announcement metadata for one enrolled person.
type Profile struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Relationship string            `json:"relationship,omitempty"`
	Language     string            `json:"language,omitempty"`
	VoiceMessage string            `json:"voice_message,omitempty"`
	Translations map[string]string `json:"translations,omitempty"`
	PhotoPath    string            `json:"photo_path,omitempty"`
	CreatedAt    time.Time         `json:"created_at,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at,omitempty"`
}

// DisplayName returns the name to use in messages, falling back to the id.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// VoiceMessageFor picks the announcement text for a language. Lookup order:
// best translation match for the requested language, then the profile's own
// language, then the plain voice message, then a generated greeting.
func (p *Profile) VoiceMessageFor(lang string) string {
	if msg, ok := p.translationFor(lang); ok {
		return msg
	}
	if msg, ok := p.translationFor(p.Language); ok {
		return msg
	}
	if p.VoiceMessage != "" {
		return p.VoiceMessage
	}
	return fmt.Sprintf("Hello %s!", p.DisplayName())
}

// translationFor matches a language tag against the translation keys. Uses
// language matching rather than string equality so "en-US" finds "en".
func (p *Profile) translationFor(lang string) (string, bool) {
	if lang == "" || len(p.Translations) == 0 {
		return "", false
	}

	want, err := language.Parse(lang)
	if err != nil {
		return "", false
	}

	keys := make([]string, 0, len(p.Translations))
	tags := make([]language.Tag, 0, len(p.Translations))
	for key := range p.Translations {
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		keys = append(keys, key)
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return "", false
	}

	matcher := language.NewMatcher(tags)
	_, idx, conf := matcher.Match(want)
	if conf == language.No {
		return "", false
	}
	return p.Translations[keys[idx]], true
}
