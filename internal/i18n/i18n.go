package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle   *goi18n.Bundle
	initOnce sync.Once
)

// Init loads the embedded locales. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)
		for _, f := range []string{"locales/active.en.json", "locales/active.id.json"} {
			if _, err := b.LoadMessageFileFS(localeFS, f); err != nil {
				panic(err)
			}
		}
		bundle = b
	})
}

// Load adds an extra message file from disk, overriding embedded messages.
func Load(path string) error {
	Init()
	_, err := bundle.LoadMessageFile(path)
	return err
}

// Translate renders messageID for the accept-language value lang, falling
// back to English and finally to the message id itself.
func Translate(lang, messageID string, data map[string]any) string {
	Init()
	loc := goi18n.NewLocalizer(bundle, lang, language.English.String())
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
