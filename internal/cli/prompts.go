package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/showtime-xyz/walletsession/internal/seal"
	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// MinPasswordLength is the shortest accepted keystore password.
const MinPasswordLength = 8

//nolint:gochecknoglobals // swapped in tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptMnemonicFn    = promptMnemonic
	stdin               io.Reader = os.Stdin
)

// promptPassword reads a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	_, _ = fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() fits in int
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPasswordFn("Enter keystore password: ")
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		seal.Zero(password)
		return nil, wserr.WithSuggestion(wserr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	confirm, err := promptPasswordFn("Confirm password: ")
	if err != nil {
		seal.Zero(password)
		return nil, err
	}
	defer seal.Zero(confirm)

	if string(password) != string(confirm) {
		seal.Zero(password)
		return nil, wserr.WithSuggestion(wserr.ErrInvalidInput, "passwords do not match")
	}
	return password, nil
}

// promptMnemonic reads a recovery phrase from one line of input.
func promptMnemonic() (string, error) {
	_, _ = fmt.Fprint(os.Stderr, "Enter recovery phrase (all words on one line): ")
	return readLine(stdin)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	line = strings.TrimSpace(line)
	switch {
	case err != nil && !errors.Is(err, io.EOF):
		return "", fmt.Errorf("reading input: %w", err)
	case line == "":
		return "", wserr.WithSuggestion(wserr.ErrInvalidInput, "no input provided")
	}
	return line, nil
}
