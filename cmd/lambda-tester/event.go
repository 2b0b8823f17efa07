package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lambda-tester/pkg/events"
)

func newEventCmd() *cobra.Command {
	var (
		output string
		sets   []string
	)

	cmd := &cobra.Command{
		Use:       "event <kind>",
		Short:     "Print a synthetic event",
		Long:      "Print a synthetic event of the given kind (" + strings.Join(events.Kinds(), ", ") + ").",
		Args:      cobra.ExactArgs(1),
		ValidArgs: events.Kinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseSets(sets)
			if err != nil {
				return err
			}
			event, err := events.Build(args[0], params)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, event)
		},
	}

	addOutputFlag(cmd, &output)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set a value: path=value (JSON values are decoded)")
	return cmd
}

// parseSets turns path=value pairs into Build parameters. Values that parse
// as JSON keep their JSON type.
func parseSets(sets []string) (map[string]any, error) {
	params := make(map[string]any, len(sets))
	for _, set := range sets {
		path, raw, ok := strings.Cut(set, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --set %q: want path=value", set)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		params[path] = value
	}
	return params, nil
}
