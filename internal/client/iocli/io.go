// Package iocli - ввод и вывод CLI: сообщения, строки и скрытый ввод паролей.
package iocli

import "errors"

// ErrNoInput - ввод закончился (EOF)
var ErrNoInput = errors.New("no more input")

// IO - все, что команды CLI делают с терминалом. Write позволяет
// передавать IO в text/template и cobra как io.Writer.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
