// Command aliascheck проверяет псевдонимы коротких ссылок и предлагает
// псевдоним по длинному URL теми же правилами, что и форма.
//
//	aliascheck validate my-link admin ab
//	aliascheck suggest https://www.example.com/page
//
// Код выхода 1, если хотя бы один псевдоним неверен или не удалось
// предложить псевдоним; 2 при ошибке использования.
package main

import (
	"os"
)

// exit завершает процесс с ненулевым кодом; тесты подменяют его, чтобы
// проверить код выхода main без завершения тестового бинарника
var exit = os.Exit

func main() {
	if code := run(os.Args[1:]); code != 0 {
		exit(code)
	}
}
