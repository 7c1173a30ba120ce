package iocli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio - IO поверх reader/writer. Если in - терминал, пароль читается без эха.
type Stdio struct {
	in     *bufio.Reader
	out    io.Writer
	termFd int
	isTerm bool
}

// NewStdio создает IO поверх os.Stdin и os.Stdout
func NewStdio() IO {
	fd := int(os.Stdin.Fd())
	s := New(os.Stdin, os.Stdout)
	s.termFd = fd
	s.isTerm = term.IsTerminal(fd)
	return s
}

// New создает IO поверх произвольных потоков (пайпы, тесты).
// Пароль читается как обычная строка.
func New(in io.Reader, out io.Writer) *Stdio {
	return &Stdio{in: bufio.NewReader(in), out: out}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	return s.readLine()
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)
	if !s.isTerm {
		return s.readLine()
	}
	pwBytes, err := term.ReadPassword(s.termFd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

// readLine читает строку без завершающего перевода строки.
// Последняя строка без '\n' возвращается как есть, пустой EOF - ErrNoInput.
func (s *Stdio) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
