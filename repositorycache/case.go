package repositorycache

import (
	"reflect"
	"strings"
	"unicode"
)

// namespaceFor derives the cache namespace of an entity type: the snake_cased,
// pluralised type name. FollowedAuthor becomes "followed_authors".
func namespaceFor[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := toSnake(t.Name())
	if name == "" {
		return "entities"
	}
	return name + "s"
}

// toSnake converts a Go identifier to snake_case. Acronym runs stay together
// ("HTTPServer" -> "http_server") and anything outside [A-Za-z0-9] becomes a
// single underscore, which keeps generic suffixes such as "[...]" out of keys.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	pendingSep := false
	for i, r := range runes {
		if !isAlnum(r) {
			pendingSep = b.Len() > 0
			continue
		}

		if unicode.IsUpper(r) && b.Len() > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				pendingSep = true
			}
		}
		if unicode.IsDigit(r) && b.Len() > 0 && !unicode.IsDigit(runes[i-1]) {
			pendingSep = true
		}

		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

func isAlnum(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
