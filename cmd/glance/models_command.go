package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glance/internal/config"
)

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "models",
		Short:       "List supported model identifiers",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, model := range config.SupportedModels {
				fmt.Fprintln(out, model)
			}
			return nil
		},
	}
}
