package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/xdg/cmdbridge/internal/clog"
)

// Edit opens the configuration file at path in the user's editor, creating
// the default file first if it doesn't exist. The editor is determined by
// the EDITOR environment variable, falling back to "vi". After the editor
// exits the file is loaded and validated; a validation failure is logged
// but not returned, since the user may want to fix it later.
func Edit(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefault(path); err != nil {
			return fmt.Errorf("create default config: %w", err)
		}
	}

	if err := openEditor(path); err != nil {
		return err
	}

	if _, err := Load(path); err != nil {
		clog.Warn("config %s has errors after edit: %v", path, err)
	}
	return nil
}

// openEditor opens the specified file in the user's editor.
func openEditor(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", editor, err)
	}
	return nil
}
