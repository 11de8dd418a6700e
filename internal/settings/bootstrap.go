package settings

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/sirupsen/logrus"
)

// ConfigurationError means a required setting is missing and the user declined to provide it
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("No %s provided", e.Key)
}

// Prompt describes one request for user input
type Prompt struct {
	Title     string
	Text      string
	InputName string
	// Err is the reason the previous answer was refused, if any
	Err error
}

// Prompter asks the user for a value. ok is false when the user declines.
type Prompter interface {
	Prompt(p Prompt) (value string, ok bool)
}

// CheckFunc validates a candidate value, returning nil when it may be stored
type CheckFunc func(value string) error

// DefineIfNotExists makes sure key holds a checked value. A candidate (e.g. from the
// environment) is tried first, then the user is prompted until a value passes check
// or they decline. Prompter may be nil, in which case only the candidate is tried.
func (s *Settings) DefineIfNotExists(key string, candidate string, prompt Prompt, prompter Prompter, check CheckFunc) error {
	if s.store.Contains(key) {
		return nil
	}

	logger.Log.WithField("key", key).Info("Setting not found, asking for a value")

	if candidate != "" {
		err := check(candidate)
		if err == nil {
			s.set(key, []byte(candidate))
			return nil
		}
		logger.Log.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Configured value refused")
		prompt.Err = err
	}

	if prompter == nil {
		return &ConfigurationError{Key: key}
	}

	for {
		value, ok := prompter.Prompt(prompt)
		if !ok {
			return &ConfigurationError{Key: key}
		}

		if err := check(value); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Entered value refused")
			prompt.Err = err
			continue
		}

		s.set(key, []byte(value))
		return nil
	}
}

// TerminalPrompter asks on a line-oriented terminal. End of input declines.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (t *TerminalPrompter) Prompt(p Prompt) (string, bool) {
	fmt.Fprintf(t.out, "== %s ==\n%s\n", p.Title, p.Text)
	if p.Err != nil {
		fmt.Fprintf(t.out, "Error: %v\n", p.Err)
	}
	fmt.Fprintf(t.out, "%s: ", capitalize(p.InputName))

	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		fmt.Fprintln(t.out)
		return "", false
	}
	return strings.TrimSpace(line), true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
