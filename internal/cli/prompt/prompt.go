// Package prompt — интерактивное подтверждение в терминале.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Stdin спрашивает y/N. Пустой ответ или конец ввода — отказ.
type Stdin struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// New создаёт Confirmer поверх произвольных reader/writer (os.Stdin/os.Stderr в CLI).
func New(in io.Reader, out io.Writer) *Stdin {
	return &Stdin{in: bufio.NewReader(in), out: out}
}

// Confirm печатает вопрос и ждёт ответа. Отмена ctx прерывает ожидание.
func (p *Stdin) Confirm(ctx context.Context, message string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s [y/N]: ", message)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes", "д", "да":
			return true, nil
		default:
			return false, nil
		}
	}
}
