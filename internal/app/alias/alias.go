// Package alias проверяет пользовательские короткие псевдонимы ссылок
// и предлагает псевдоним по адресу исходной ссылки.
package alias

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinLength минимальная длина псевдонима в символах
	MinLength = 3
	// MaxLength максимальная длина псевдонима в символах
	MaxLength = 30
)

// Verdict результат проверки псевдонима
type Verdict int

const (
	Valid Verdict = iota
	Empty
	TooShort
	TooLong
	InvalidCharacters
	Reserved
)

// ReservedWords пути, которые сервис использует сам
var ReservedWords = []string{"api", "admin", "static", "health", "shorten", "logout", "login", "register"}

var reserved = func() map[string]struct{} {
	m := make(map[string]struct{}, len(ReservedWords))
	for _, w := range ReservedWords {
		m[w] = struct{}{}
	}
	return m
}()

// String возвращает стабильное имя вердикта для логов и JSON
func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Empty:
		return "empty"
	case TooShort:
		return "too_short"
	case TooLong:
		return "too_long"
	case InvalidCharacters:
		return "invalid_characters"
	case Reserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// Message текст уведомления, которое показывается при блокировке отправки формы
func (v Verdict) Message() string {
	switch v {
	case Valid:
		return ""
	case Empty:
		return "Please enter a custom URL or turn off the custom URL option"
	case TooShort:
		return "Custom URL must be at least 3 characters long"
	case TooLong:
		return "Custom URL must be no more than 30 characters long"
	case InvalidCharacters:
		return "Custom URL can only contain letters, numbers, hyphens, and underscores"
	case Reserved:
		return "This custom URL is a reserved word and cannot be used"
	default:
		return "Custom URL is invalid"
	}
}

// Hint короткий текст для подсказки под полем ввода
func (v Verdict) Hint() string {
	switch v {
	case Valid:
		return "Custom URL looks good!"
	case Empty:
		return ""
	case TooShort:
		return "Custom URL must be at least 3 characters long"
	case TooLong:
		return "Custom URL must be no more than 30 characters long"
	case InvalidCharacters:
		return "Only letters, numbers, hyphens, and underscores allowed"
	case Reserved:
		return "This is a reserved word and cannot be used"
	default:
		return "Custom URL is invalid"
	}
}

// Check проверяет псевдоним. Правила применяются по порядку, срабатывает первое.
func Check(alias string) Verdict {
	alias = strings.TrimSpace(alias)
	n := utf8.RuneCountInString(alias)
	switch {
	case n == 0:
		return Empty
	case n < MinLength:
		return TooShort
	case n > MaxLength:
		return TooLong
	case !allowedOnly(alias):
		return InvalidCharacters
	case IsReserved(alias):
		return Reserved
	}
	return Valid
}

// Validate как Check, но пустой псевдоним допустим, если он не обязателен
// (режим собственного псевдонима выключен).
func Validate(alias string, required bool) Verdict {
	v := Check(alias)
	if v == Empty && !required {
		return Valid
	}
	return v
}

// IsReserved сообщает, совпадает ли псевдоним с зарезервированным словом без учёта регистра
func IsReserved(alias string) bool {
	_, ok := reserved[strings.ToLower(strings.TrimSpace(alias))]
	return ok
}

func allowed(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}

func allowedOnly(s string) bool {
	for _, r := range s {
		if !allowed(r) {
			return false
		}
	}
	return true
}
