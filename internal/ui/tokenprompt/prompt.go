package tokenprompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// minTokenLength rejects obviously truncated pastes.
const minTokenLength = 16

// Validate checks a pasted token.
func Validate(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return errors.New("a token is required")
	case strings.ContainsAny(s, " \t\n"):
		return errors.New("the token must not contain whitespace")
	case len(s) < minTokenLength:
		return fmt.Errorf("the token looks too short (%d characters)", len(s))
	}
	return nil
}

// Run asks for the API token on the terminal before the main program
// starts. It returns huh.ErrUserAborted when the user cancels.
func Run(baseURL string) (string, error) {
	var token string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Health Alerts").
				Description("No API token is stored for "+baseURL+".\n"+
					"Paste the bearer token from your account settings.\n"+
					"It is saved in the system keyring."),
			huh.NewInput().
				Title("API token").
				EchoMode(huh.EchoModePassword).
				Validate(Validate).
				Value(&token),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}
