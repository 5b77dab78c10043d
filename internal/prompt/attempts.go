package prompt

import (
	"errors"
	"strings"
)

const (
	invalidAnswerMessageConstant     = "invalid answer"
	attemptsExhaustedMessageConstant = "maximum prompt attempts reached"
	affirmativeShortAnswerConstant   = "y"
	affirmativeLongAnswerConstant    = "yes"
)

// DefaultMaxAttempts bounds how often a question is repeated after invalid answers.
const DefaultMaxAttempts = 5

// ErrInvalidAnswer marks an answer that should be asked for again.
var ErrInvalidAnswer = errors.New(invalidAnswerMessageConstant)

// ErrAttemptsExhausted indicates that every allowed attempt produced an invalid answer.
var ErrAttemptsExhausted = errors.New(attemptsExhaustedMessageConstant)

// InvalidAnswerError explains why an answer was rejected.
type InvalidAnswerError struct {
	Reason string
}

// Error returns the operator-facing reason.
func (invalidError InvalidAnswerError) Error() string {
	return invalidError.Reason
}

// Is reports whether target is ErrInvalidAnswer.
func (invalidError InvalidAnswerError) Is(target error) bool {
	return target == ErrInvalidAnswer
}

// InvalidAnswer builds an InvalidAnswerError with the provided reason.
func InvalidAnswer(reason string) error {
	return InvalidAnswerError{Reason: reason}
}

// AskUntil repeats question until interpret accepts the answer or maxAttempts is reached.
// Rejections are reported to the operator through Notify; any other error ends the loop.
func AskUntil[T any](prompter Prompter, question string, maxAttempts int, interpret func(answer string) (T, error)) (T, error) {
	var zeroValue T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		answer, askError := prompter.Ask(question)
		if askError != nil {
			return zeroValue, askError
		}

		value, interpretError := interpret(answer)
		if interpretError == nil {
			return value, nil
		}
		if !errors.Is(interpretError, ErrInvalidAnswer) {
			return zeroValue, interpretError
		}
		if notifyError := prompter.Notify(interpretError.Error()); notifyError != nil {
			return zeroValue, notifyError
		}
	}

	return zeroValue, ErrAttemptsExhausted
}

// IsAffirmative reports whether the answer is y or yes, ignoring case.
func IsAffirmative(answer string) bool {
	normalizedAnswer := strings.ToLower(strings.TrimSpace(answer))
	return normalizedAnswer == affirmativeShortAnswerConstant || normalizedAnswer == affirmativeLongAnswerConstant
}

// AskRequired repeats question until a non-empty answer is given.
func AskRequired(prompter Prompter, question string, emptyAnswerMessage string, maxAttempts int) (string, error) {
	return AskUntil(prompter, question, maxAttempts, func(answer string) (string, error) {
		trimmedAnswer := strings.TrimSpace(answer)
		if len(trimmedAnswer) == 0 {
			return "", InvalidAnswer(emptyAnswerMessage)
		}
		return trimmedAnswer, nil
	})
}

// Confirm asks a yes/no question once. Anything other than y or yes is a refusal.
func Confirm(prompter Prompter, question string) (bool, error) {
	answer, askError := prompter.Ask(question)
	if askError != nil {
		return false, askError
	}
	return IsAffirmative(answer), nil
}
