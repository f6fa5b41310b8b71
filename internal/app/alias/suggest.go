package alias

import (
	"math/rand/v2"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

var (
	disallowedChar = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	hyphenRun      = regexp.MustCompile(`-+`)
	schemePrefix   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
)

// Suggester предлагает псевдоним по адресу ссылки
type Suggester struct {
	// IntN возвращает случайное число из [0, n); по умолчанию math/rand/v2
	IntN func(n int) int
}

// Suggest вычисляет псевдоним по имени хоста. Возвращает false, если адрес
// не удалось разобрать: в этом случае поле ввода не трогается.
func (s Suggester) Suggest(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}
	if !schemePrefix.MatchString(rawURL) {
		rawURL = "http://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	host, err = idna.Punycode.ToASCII(host)
	if err != nil {
		return "", false
	}

	host = strings.TrimPrefix(host, "www.")
	label, _, _ := strings.Cut(host, ".")

	label = disallowedChar.ReplaceAllString(label, "-")
	label = hyphenRun.ReplaceAllString(label, "-")
	label = strings.ToLower(strings.Trim(label, "-"))

	if len(label) < MinLength || IsReserved(label) {
		label += "-" + strconv.Itoa(100+s.intN(900))
	}
	if len(label) > MaxLength {
		label = label[:MaxLength]
	}
	return label, true
}

func (s Suggester) intN(n int) int {
	if s.IntN != nil {
		return s.IntN(n)
	}
	return rand.IntN(n)
}

// Suggest использует Suggester со случайным источником по умолчанию
func Suggest(rawURL string) (string, bool) {
	return Suggester{}.Suggest(rawURL)
}
