// Package ui форматирует вывод CLI: цвет в терминале, текстовые маркеры без него.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter применяет семантическое форматирование к тексту
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (f Formatter) Sprintf(format string, a ...any) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

// EnsureNewline дописывает перевод строки, если его нет
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// Mask скрывает секрет целиком, длина тоже не видна
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// noColor учитывает NO_COLOR (https://no-color.org/) и детектор fatih/color
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	// Code - команды, которые можно выполнить. Без цвета в `обратных кавычках`.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Flag - флаги CLI
	Flag = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	Info    = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight - значения пользователя: email, заголовки записей.
	// Без цвета в 'одинарных кавычках'.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted - второстепенный текст, без цвета в (скобках)
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
