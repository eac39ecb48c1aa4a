// Package cli holds small helpers shared by the interactive commands:
// directory prompting, validation, and terminal formatting.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// PromptForDirectory asks the user for a directory, preferring the native
// OS folder picker. When the picker is unavailable (headless session, no
// dialog backend) it falls back to a stdin prompt; cancelling the picker
// also lands on the prompt so the user can still type a path.
// Returns the current directory if the user enters nothing.
func PromptForDirectory() string {
	selected, err := zenity.SelectFile(
		zenity.Directory(),
		zenity.Title("Select photo folder"),
	)
	if err == nil && selected != "" {
		return selected
	}
	if err != nil && !errors.Is(err, zenity.ErrCanceled) {
		log.Debug().Err(err).Msg("Folder picker unavailable, falling back to prompt")
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	fmt.Printf("Directory [%s]: ", cwd)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read input, using current directory")
		return cwd
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return cwd
	}

	return input
}
