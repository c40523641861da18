// Package interactive runs the prediction prompt loop.
package interactive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"threatcat/internal/util"
)

const (
	DefaultPrompt = "\nEnter a cleaned threat description (or type 'exit' to quit): "
	ExitToken     = "exit"

	// MaxLineBytes caps one description. Longer lines are skipped.
	MaxLineBytes = 1 << 20
)

var ErrLineTooLong = errors.New("line too long")

// Predictor maps one description to a category.
type Predictor interface {
	Predict(text string) (string, error)
}

// REPL reads one description per line and prints its predicted category
// until the exit token or end of input.
type REPL struct {
	In        io.Reader
	Out       io.Writer
	Predictor Predictor
	Prompt    string
}

func New(in io.Reader, out io.Writer, p Predictor) *REPL {
	return &REPL{In: in, Out: out, Predictor: p, Prompt: DefaultPrompt}
}

// Run returns the number of predictions made. An error on one line,
// including a line over MaxLineBytes, is printed and the loop moves on;
// only a read failure or a canceled context ends the loop with an error.
func (r *REPL) Run(ctx context.Context) (int, error) {
	label := color.New(color.FgCyan, color.Bold)
	reader := bufio.NewReader(r.In)

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		fmt.Fprint(r.Out, r.Prompt)
		raw, err := readLine(reader)
		if errors.Is(err, ErrLineTooLong) {
			fmt.Fprintf(r.Out, "%s %v\n", color.RedString("Error:"), err)
			continue
		}
		if err != nil {
			fmt.Fprintln(r.Out)
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}

		line := util.CleanText(raw, "input")
		if strings.EqualFold(line, ExitToken) {
			return n, nil
		}
		if line == "" {
			continue
		}

		category, err := r.Predictor.Predict(line)
		if err != nil {
			fmt.Fprintf(r.Out, "%s %v\n", color.RedString("Error:"), err)
			continue
		}
		n++
		fmt.Fprintf(r.Out, "Predicted Threat Category: %s\n", label.Sprint(category))
	}
}

// readLine returns the next line without its line ending. A line longer
// than MaxLineBytes is consumed through its newline and reported as
// ErrLineTooLong. A final line without a newline is still returned.
func readLine(reader *bufio.Reader) (string, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, more, err := reader.ReadLine()
		if err != nil {
			switch {
			case tooLong:
				return "", ErrLineTooLong
			case len(buf) > 0:
				return string(buf), nil
			}
			return "", err
		}
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !more {
			if tooLong {
				return "", ErrLineTooLong
			}
			return string(buf), nil
		}
	}
}
