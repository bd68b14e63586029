// Package i18n resolves dashboard strings for the active language.
package i18n

import (
	"strings"
)

// Translator looks keys up in a Table with fallback to the default language
// and then to the raw key.
type Translator struct {
	table    Table
	fallback string
	reverse  map[string]string // testo inglese -> chiave
}

func New(table Table) *Translator {
	if table == nil {
		table = Builtin
	}
	t := &Translator{table: table, fallback: Default, reverse: map[string]string{}}
	for k, v := range table[Default] {
		t.reverse[v] = k
	}
	return t
}

// Supports reports whether the table has strings for lang.
func (t *Translator) Supports(lang string) bool {
	_, ok := t.table[lang]
	return ok
}

// Translate returns the text of key in lang, the default language text, or key.
func (t *Translator) Translate(lang, key string) string {
	if s, ok := t.table[lang][key]; ok && s != "" {
		return s
	}
	if s, ok := t.table[t.fallback][key]; ok && s != "" {
		return s
	}
	return key
}

// KeyFor finds the key whose default-language text is exactly phrase.
// Renderers use it to bind server-provided text that happens to be a known
// phrase, at render time only.
func (t *Translator) KeyFor(phrase string) (string, bool) {
	k, ok := t.reverse[strings.TrimSpace(phrase)]
	return k, ok
}

// Expand fills a template: each {name} becomes args[name] when present,
// otherwise the translation of name. An unterminated brace is kept as is.
func (t *Translator) Expand(lang, template string, args map[string]string) string {
	if !strings.Contains(template, "{") {
		return template
	}
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		name := rest[open+1 : open+end]
		if v, ok := args[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(t.Translate(lang, name))
		}
		rest = rest[open+end+1:]
	}
	return b.String()
}
