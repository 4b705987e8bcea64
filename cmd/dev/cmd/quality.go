package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// QualityCmds returns the test, lint and integration-test commands.
func QualityCmds() []*cobra.Command {
	steps := []struct {
		use   string
		short string
		run   func() error
	}{
		{"test", "Run unit tests", test.Test},
		{"lint", "Run linting", test.Lint},
		// integration tests need a sensor attached to the host bus
		{"integration-test", "Run integration tests against real hardware", test.Integ},
	}
	cmds := make([]*cobra.Command, 0, len(steps))
	for _, step := range steps {
		cmds = append(cmds, &cobra.Command{
			Use:   step.use,
			Short: step.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := step.run(); err != nil {
					return fmt.Errorf("%s failed: %w", step.use, err)
				}
				return nil
			},
		})
	}
	return cmds
}
