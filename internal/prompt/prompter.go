package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

//go:generate go tool mockgen -source=prompter.go -destination=mocks/prompter.gen.go -package=mocks

const (
	inputClosedMessageConstant = "operator input closed"
	readErrorTemplateConstant  = "read operator input: %w"
	writeErrorTemplateConstant = "write prompt: %w"
	menuOptionTemplateConstant = "  %s. %s\n"
	lineTerminatorConstant     = "\n"
	menuKeyColorConstant       = "6"
	menuHeadingColorConstant   = "4"
	newlineDelimiterConstant   = '\n'
)

// ErrInputClosed indicates the operator input stream ended before an answer was read.
var ErrInputClosed = errors.New(inputClosedMessageConstant)

// MenuOption is one selectable entry of a menu.
type MenuOption struct {
	Key   string
	Label string
}

// Menu is a titled list of options presented before a question.
type Menu struct {
	Title   string
	Options []MenuOption
}

// Prompter provides operator interaction.
type Prompter interface {
	// Present renders a menu without reading input.
	Present(menu Menu) error
	// Ask writes the question and returns the trimmed answer.
	Ask(question string) (string, error)
	// Notify writes an informational line.
	Notify(message string) error
}

// IOPrompter reads answers from an io.Reader and renders menus to an io.Writer.
type IOPrompter struct {
	reader       *bufio.Reader
	writer       io.Writer
	headingStyle lipgloss.Style
	keyStyle     lipgloss.Style
}

// NewIOPrompter constructs a prompter from the provided reader and writer.
// Styling is dropped automatically when the writer is not a terminal.
func NewIOPrompter(input io.Reader, output io.Writer) *IOPrompter {
	if output == nil {
		output = io.Discard
	}
	renderer := lipgloss.NewRenderer(output)
	return &IOPrompter{
		reader:       bufio.NewReader(input),
		writer:       output,
		headingStyle: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(menuHeadingColorConstant)),
		keyStyle:     renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(menuKeyColorConstant)),
	}
}

// Present writes the menu title followed by one line per option.
func (prompter *IOPrompter) Present(menu Menu) error {
	var builder strings.Builder
	builder.WriteString(lineTerminatorConstant)
	if len(menu.Title) > 0 {
		builder.WriteString(prompter.headingStyle.Render(menu.Title))
		builder.WriteString(lineTerminatorConstant)
	}
	for _, option := range menu.Options {
		builder.WriteString(fmt.Sprintf(menuOptionTemplateConstant, prompter.keyStyle.Render(option.Key), option.Label))
	}
	return prompter.write(builder.String())
}

// Ask writes the question and reads one line of input.
func (prompter *IOPrompter) Ask(question string) (string, error) {
	if writeError := prompter.write(question); writeError != nil {
		return "", writeError
	}

	response, readError := prompter.reader.ReadString(newlineDelimiterConstant)
	if readError != nil {
		if !errors.Is(readError, io.EOF) {
			return "", fmt.Errorf(readErrorTemplateConstant, readError)
		}
		if len(response) == 0 {
			return "", ErrInputClosed
		}
	}
	return strings.TrimSpace(response), nil
}

// Notify writes the message on its own line.
func (prompter *IOPrompter) Notify(message string) error {
	return prompter.write(message + lineTerminatorConstant)
}

func (prompter *IOPrompter) write(text string) error {
	if _, writeError := io.WriteString(prompter.writer, text); writeError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, writeError)
	}
	return nil
}
