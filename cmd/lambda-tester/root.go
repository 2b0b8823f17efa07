package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "lambda-tester",
		Short:         "Inspect and support legacy Lambda handler test runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(cmd.ErrOrStderr())
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newContextCmd(),
		newEventCmd(),
		newXRayCmd(logger),
	)
	return root
}

// render writes v in the requested format.
func render(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(toYAMLValue(v))
	}
	return fmt.Errorf("unknown output format %q (want %s or %s)", format, outputJSON, outputYAML)
}

// toYAMLValue routes structs through JSON so yaml keys follow json tags.
func toYAMLValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", outputJSON, "output format: json or yaml")
}
