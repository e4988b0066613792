// Package i18n localizes request labels, notices and export headers.
// Chinese is the default language; English is selected by Accept-Language.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/garyjia/signage-ops/internal/domain/entity"
)

//go:embed locales/*.json
var localeFS embed.FS

var supported = []language.Tag{language.Chinese, language.English}

type ctxKey struct{}

// Translator resolves message ids against the embedded locale files
type Translator struct {
	bundle      *i18n.Bundle
	matcher     language.Matcher
	defaultLang string
}

// New loads the locale files. defaultLocale is used when a context carries
// no locale; it must be one of the supported languages.
func New(defaultLocale string) (*Translator, error) {
	if defaultLocale == "" {
		defaultLocale = "zh"
	}
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("invalid default locale %q: %w", defaultLocale, err)
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
	}

	t := &Translator{
		bundle:  bundle,
		matcher: language.NewMatcher(supported),
	}
	t.defaultLang = t.Match(defaultLocale)
	return t, nil
}

// Match picks the supported locale closest to an Accept-Language value
func (t *Translator) Match(acceptLanguage string) string {
	tag, _ := language.MatchStrings(t.matcher, acceptLanguage)
	base, _ := tag.Base()
	return base.String()
}

// DefaultLocale returns the locale used when none is requested
func (t *Translator) DefaultLocale() string {
	return t.defaultLang
}

// WithLocale returns a context carrying locale
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext returns the locale in ctx, or "" when none is set
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// T translates messageID for the locale in ctx. Unknown ids come back unchanged.
func (t *Translator) T(ctx context.Context, messageID string, data map[string]interface{}) string {
	lang := LocaleFromContext(ctx)
	if lang == "" {
		lang = t.defaultLang
	}

	msg, err := i18n.NewLocalizer(t.bundle, lang, t.defaultLang).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// KindLabel returns the display name of a request kind
func (t *Translator) KindLabel(ctx context.Context, kind entity.Kind) string {
	id := "kind." + kind.String()
	if label := t.T(ctx, id, nil); label != id {
		return label
	}
	return kind.String()
}

// StatusLabel returns the display name of a status
func (t *Translator) StatusLabel(ctx context.Context, status entity.Status) string {
	return t.T(ctx, "status."+status.String(), nil)
}

// FormatDays renders a leave duration such as "2.0 天"
func (t *Translator) FormatDays(ctx context.Context, days float64) string {
	return t.T(ctx, "amount.days", map[string]interface{}{
		"Days": strconv.FormatFloat(days, 'f', 1, 64),
	})
}

var cnyPrinter = message.NewPrinter(language.Chinese)

// FormatCurrency renders a yuan amount with grouping, e.g. "¥5,000.00"
func FormatCurrency(amount float64) string {
	return cnyPrinter.Sprintf("¥%v", number.Decimal(amount, number.Scale(2)))
}
