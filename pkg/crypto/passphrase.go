package crypto

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// EnvPassphrase supplies the passphrase non-interactively
const EnvPassphrase = "HX_PASSPHRASE"

// ReadPassphrase returns $HX_PASSPHRASE when set, otherwise prompts on the
// terminal without echo. With confirm the passphrase is asked twice.
func ReadPassphrase(prompt string, confirm bool) (string, error) {
	if p := os.Getenv(EnvPassphrase); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}

	pass, err := promptHidden(fd, prompt)
	if err != nil {
		return "", err
	}

	if confirm {
		again, err := promptHidden(fd, "Confirm passphrase: ")
		if err != nil {
			return "", err
		}
		if again != pass {
			return "", fmt.Errorf("passphrases do not match")
		}
	}

	if pass == "" {
		return "", ErrEmptyPassphrase
	}
	return pass, nil
}

func promptHidden(fd int, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(b), nil
}

// readLine reads a piped passphrase
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", ErrEmptyPassphrase
	}
	return line, nil
}
