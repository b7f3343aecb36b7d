package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// optionalFlag reads a flag that may not be registered on cmd, which keeps
// the run functions callable with bare commands.
func optionalFlag[T any](cmd *cobra.Command, name string, fallback T, get func(string) (T, error)) (T, error) {
	if cmd.Flags().Lookup(name) == nil {
		return fallback, nil
	}
	value, err := get(name)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	value, err := optionalFlag(cmd, name, "", cmd.Flags().GetString)
	return strings.TrimSpace(value), err
}

func OptionalBoolFlag(cmd *cobra.Command, name string, fallback bool) (bool, error) {
	return optionalFlag(cmd, name, fallback, cmd.Flags().GetBool)
}

func OptionalIntFlag(cmd *cobra.Command, name string, fallback int) (int, error) {
	return optionalFlag(cmd, name, fallback, cmd.Flags().GetInt)
}

func OptionalStringArrayFlag(cmd *cobra.Command, name string) ([]string, error) {
	return optionalFlag(cmd, name, nil, cmd.Flags().GetStringArray)
}
