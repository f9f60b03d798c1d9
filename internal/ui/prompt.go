package ui

import (
	"github.com/AlecAivazis/survey/v2"
)

// AskOne is survey.AskOne, replaceable in tests.
var AskOne = survey.AskOne

// Confirm asks a yes/no question on the terminal.
func Confirm(message string, def bool) (bool, error) {
	answer := def
	if err := AskOne(&survey.Confirm{Message: message, Default: def}, &answer); err != nil {
		return false, err
	}
	return answer, nil
}
