package capture

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed shell/bash.sh
var bashHook string

//go:embed shell/zsh.sh
var zshHook string

const (
	// hookMarker is the first line of every installed hook
	hookMarker = "# hx - shell history"

	widgetName   = "__hx_widget"
	backupSuffix = ".hx.backup"
)

// ShellType represents the type of shell
type ShellType string

// Shell type constants
const (
	// ShellBash represents Bash shell
	ShellBash ShellType = "bash"
	// ShellZsh represents Zsh shell
	ShellZsh ShellType = "zsh"
)

// ParseShell parses a shell name such as "zsh" or "/usr/bin/bash"
func ParseShell(name string) (ShellType, error) {
	switch filepath.Base(strings.TrimSpace(name)) {
	case "bash":
		return ShellBash, nil
	case "zsh":
		return ShellZsh, nil
	default:
		return "", fmt.Errorf("unsupported shell: %s", name)
	}
}

// DetectShell detects the current shell from environment
func DetectShell() (ShellType, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "", fmt.Errorf("SHELL environment variable not set")
	}
	return ParseShell(shell)
}

// GetHookContent returns the shell hook content for the given shell type with keybinding
func GetHookContent(shell ShellType, keybinding string) (string, error) {
	var hookTemplate string

	switch shell {
	case ShellBash:
		hookTemplate = bashHook
	case ShellZsh:
		hookTemplate = zshHook
	default:
		return "", fmt.Errorf("unsupported shell: %s", shell)
	}

	display, code, err := parseKeybinding(shell, keybinding)
	if err != nil {
		return "", err
	}

	content := strings.ReplaceAll(hookTemplate, "{{KEYBINDING_DISPLAY}}", display)
	content = strings.ReplaceAll(content, "{{KEYBINDING_CODE}}", code)

	return content, nil
}

// parseKeybinding converts a keybinding name to display format and shell-specific code
// Supports format like "ctrl-r", "ctrl-g", "ctrl-f", etc.
func parseKeybinding(shell ShellType, keybinding string) (display string, code string, err error) {
	kb := strings.ToLower(strings.TrimSpace(keybinding))

	key, ok := strings.CutPrefix(kb, "ctrl-")
	if !ok {
		return "", "", fmt.Errorf("unsupported keybinding format: %s (expected ctrl-X format like 'ctrl-r' or 'ctrl-g')", keybinding)
	}
	if len(key) != 1 || key[0] < 'a' || key[0] > 'z' {
		return "", "", fmt.Errorf("invalid keybinding format: %s (expected ctrl-X where X is a single letter)", keybinding)
	}

	display = "Ctrl-" + strings.ToUpper(key)

	switch shell {
	case ShellZsh:
		// ^R, ^G, ...
		code = "^" + strings.ToUpper(key)
	default:
		// \C-r, \C-g, ...
		code = `\C-` + key
	}

	return display, code, nil
}

// GetRCFile returns the RC file path for the given shell type
func GetRCFile(shell ShellType) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	switch shell {
	case ShellBash:
		// Try .bashrc first, then .bash_profile
		bashrc := filepath.Join(home, ".bashrc")
		if _, err := os.Stat(bashrc); err == nil {
			return bashrc, nil
		}
		return filepath.Join(home, ".bash_profile"), nil

	case ShellZsh:
		if zdotdir := os.Getenv("ZDOTDIR"); zdotdir != "" {
			return filepath.Join(zdotdir, ".zshrc"), nil
		}
		return filepath.Join(home, ".zshrc"), nil

	default:
		return "", fmt.Errorf("unsupported shell: %s", shell)
	}
}

// IsHookInstalled checks if the hx hook is already present in the RC file
func IsHookInstalled(rcFile string) (bool, error) {
	content, err := os.ReadFile(rcFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read RC file: %w", err)
	}

	return strings.Contains(string(content), hookMarker), nil
}

// HookInstallResult contains information about the hook installation
type HookInstallResult struct {
	RCFile           string // Path to the RC file that was modified
	BackupFile       string // Path to the backup file
	Installed        bool   // Whether the hook was newly installed
	KeybindingUpdate bool   // Whether the keybinding was updated
}

// InstallHook appends the hook to rcFile, keeping a backup of the previous
// content. When the hook is already there only its key binding is updated.
func InstallHook(shell ShellType, rcFile string, keybinding string) (*HookInstallResult, error) {
	result := &HookInstallResult{
		RCFile: rcFile,
	}

	installed, err := IsHookInstalled(rcFile)
	if err != nil {
		return nil, err
	}

	if installed {
		current, err := extractCurrentKeybinding(rcFile, shell)
		if err != nil {
			// Hand-edited hook; leave it alone
			return result, nil
		}

		if !strings.EqualFold(strings.TrimSpace(keybinding), current) {
			if err := updateKeybinding(rcFile, shell, keybinding); err != nil {
				return nil, fmt.Errorf("failed to update keybinding: %w", err)
			}
			result.KeybindingUpdate = true
		}

		return result, nil
	}

	hookContent, err := GetHookContent(shell, keybinding)
	if err != nil {
		return nil, err
	}

	// Create RC file if it doesn't exist
	if _, err := os.Stat(rcFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(rcFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create RC directory: %w", err)
		}
		if err := os.WriteFile(rcFile, []byte{}, 0644); err != nil {
			return nil, fmt.Errorf("failed to create RC file: %w", err)
		}
	}

	backupFile := rcFile + backupSuffix
	if err := copyFile(rcFile, backupFile); err != nil {
		return nil, fmt.Errorf("failed to backup RC file: %w", err)
	}
	result.BackupFile = backupFile

	f, err := os.OpenFile(rcFile, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open RC file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.WriteString("\n" + hookContent + "\n"); err != nil {
		return nil, fmt.Errorf("failed to write hook to RC file: %w", err)
	}

	result.Installed = true
	return result, nil
}

// isBindingLine reports whether line binds the search widget
func isBindingLine(shell ShellType, line string) bool {
	if !strings.Contains(line, widgetName) {
		return false
	}

	switch shell {
	case ShellBash:
		return strings.HasPrefix(line, "bind -x")
	case ShellZsh:
		return strings.HasPrefix(line, "bindkey")
	default:
		return false
	}
}

// bindingLine renders the key binding line for code
func bindingLine(shell ShellType, code string) string {
	if shell == ShellBash {
		return fmt.Sprintf("bind -x '\"%s\": %s'", code, widgetName)
	}
	return fmt.Sprintf("bindkey '%s' %s", code, widgetName)
}

// extractCurrentKeybinding finds the installed key binding, as "ctrl-x"
func extractCurrentKeybinding(rcFile string, shell ShellType) (string, error) {
	content, err := os.ReadFile(rcFile)
	if err != nil {
		return "", fmt.Errorf("failed to read RC file: %w", err)
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if !isBindingLine(shell, line) {
			continue
		}

		prefix := `"\C-`
		if shell == ShellZsh {
			prefix = "'^"
		}

		if idx := strings.Index(line, prefix); idx != -1 && idx+len(prefix) < len(line) {
			key := line[idx+len(prefix)]
			return "ctrl-" + strings.ToLower(string(key)), nil
		}
	}

	return "", fmt.Errorf("keybinding not found in RC file")
}

// updateKeybinding rewrites the key binding line in the RC file
func updateKeybinding(rcFile string, shell ShellType, keybinding string) error {
	content, err := os.ReadFile(rcFile)
	if err != nil {
		return fmt.Errorf("failed to read RC file: %w", err)
	}

	_, code, err := parseKeybinding(shell, keybinding)
	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	modified := false

	for i, line := range lines {
		if isBindingLine(shell, strings.TrimSpace(line)) {
			lines[i] = bindingLine(shell, code)
			modified = true
		}
	}

	if !modified {
		return fmt.Errorf("keybinding line not found in RC file")
	}

	if err := os.WriteFile(rcFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write RC file: %w", err)
	}

	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0644)
}
