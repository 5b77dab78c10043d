package flags

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix   = "<"
	choicePlaceholderSuffix   = ">"
	choiceSeparatorLiteral    = "|"
	choiceUsageEmptyTemplate  = "`%s`"
	choiceUsageFullTemplate   = "`%s` %s"
	choiceValueTypeConstant   = "choice"
	unsupportedChoiceTemplate = "unsupported value %q (expected one of %s)"
	supportedChoicesSeparator = ", "
)

// ChoiceValue is a pflag.Value restricted to a fixed set of case-insensitive options.
type ChoiceValue struct {
	defaultChoice string
	choices       []string
	current       string
}

var _ pflag.Value = (*ChoiceValue)(nil)

// NewChoiceValue builds a ChoiceValue holding defaultChoice. Choices are trimmed, lowercased, and deduplicated.
func NewChoiceValue(defaultChoice string, choices []string) *ChoiceValue {
	normalizedChoices := make([]string, 0, len(choices))
	for _, choice := range choices {
		normalizedChoice := normalizeChoice(choice)
		if len(normalizedChoice) == 0 || slices.Contains(normalizedChoices, normalizedChoice) {
			continue
		}
		normalizedChoices = append(normalizedChoices, normalizedChoice)
	}

	normalizedDefault := normalizeChoice(defaultChoice)
	return &ChoiceValue{defaultChoice: normalizedDefault, choices: normalizedChoices, current: normalizedDefault}
}

// String returns the selected option.
func (value *ChoiceValue) String() string {
	if value == nil {
		return ""
	}
	return value.current
}

// Set selects an option, rejecting values outside the configured choices.
func (value *ChoiceValue) Set(rawValue string) error {
	normalizedValue := normalizeChoice(rawValue)
	if !slices.Contains(value.choices, normalizedValue) {
		return fmt.Errorf(unsupportedChoiceTemplate, rawValue, strings.Join(value.choices, supportedChoicesSeparator))
	}
	value.current = normalizedValue
	return nil
}

// Type names the flag value kind in help output.
func (value *ChoiceValue) Type() string {
	return choiceValueTypeConstant
}

// Usage renders description behind the choice placeholder.
func (value *ChoiceValue) Usage(description string) string {
	return FormatChoiceUsage(value.defaultChoice, value.choices, description)
}

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := normalizeChoice(defaultChoice)
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, exists := seen[normalizedChoice]; exists || len(normalizedChoice) == 0 {
			continue
		}
		seen[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		highlighted = append(highlighted, trimmedChoice)
	}

	return highlighted
}

func normalizeChoice(choice string) string {
	return strings.ToLower(strings.TrimSpace(choice))
}
