package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks questions on out and reads the answers from in.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(in), out: out}
}

// PromptForValue prompts the user for input with optional requirement
func (p *Prompter) PromptForValue(prompt string, required bool) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", prompt)
		value, err := p.readLine()
		if err != nil {
			return "", err
		}
		if value != "" || !required {
			return value, nil
		}
		fmt.Fprintln(p.out, "This field is required")
	}
}

// PromptWithDefault returns def when the answer is empty. validate, if not
// nil, is asked again until it accepts the answer.
func (p *Prompter) PromptWithDefault(prompt, def string, validate func(string) (bool, string)) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, def)
		value, err := p.readLine()
		if err != nil {
			return "", err
		}
		if value == "" {
			value = def
		}
		if validate == nil {
			return value, nil
		}
		valid, msg := validate(value)
		if valid {
			return value, nil
		}
		fmt.Fprintf(p.out, "Error: %s\n", msg)
	}
}

func (p *Prompter) readLine() (string, error) {
	value, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && value != "") {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
