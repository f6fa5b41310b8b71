/*
Package staticlint запускает кастомный multichecker, состоящий из следующих анализаторов:

1. Стандартные анализаторы x/tools:
  - printf, structtag, errorsas, sortslice, httpresponse
  - lostcancel, copylocks: контексты и мьютексы супервизора бэкенда
  - shadow: проверка на затенение переменных

2. Анализаторы Staticcheck (https://staticcheck.io):
  - Все SA-анализаторы (предупреждения об ошибках)
  - S1000..S1039 из класса simple (упрощение кода)

3. Сторонние анализаторы:
  - asciicheck: запрещает использование не-ASCII символов в идентификаторах

4. Собственный анализатор:
  - noosexit: запрещает прямой вызов os.Exit внутри main функции пакета main.

Запуск:

	go run ./cmd/staticlint ./...

Вывод будет содержать список всех проблем, найденных анализаторами.
*/
package main

import (
	"strings"

	"github.com/issafronov/shortener-front/cmd/staticlint/noosexit"
	"github.com/tdakkota/asciicheck"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/sortslice"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
)

func main() {
	multichecker.Main(analyzers()...)
}

// analyzers собирает набор анализаторов без повторов по имени
func analyzers() []*analysis.Analyzer {
	var out []*analysis.Analyzer
	seen := make(map[string]bool)
	add := func(as ...*analysis.Analyzer) {
		for _, a := range as {
			if !seen[a.Name] {
				out = append(out, a)
				seen[a.Name] = true
			}
		}
	}

	add(
		printf.Analyzer,
		structtag.Analyzer,
		errorsas.Analyzer,
		sortslice.Analyzer,
		httpresponse.Analyzer,
		lostcancel.Analyzer,
		copylock.Analyzer,
		shadow.Analyzer,
	)
	add(pick(staticcheck.Analyzers, func(name string) bool { return strings.HasPrefix(name, "SA") })...)
	add(pick(simple.Analyzers, func(name string) bool { return name >= "S1000" && name <= "S1039" })...)
	add(asciicheck.NewAnalyzer(), noosexit.Analyzer)
	return out
}

func pick(src []*lint.Analyzer, keep func(name string) bool) []*analysis.Analyzer {
	var out []*analysis.Analyzer
	for _, a := range src {
		if keep(a.Analyzer.Name) {
			out = append(out, a.Analyzer)
		}
	}
	return out
}
