package main

import (
	"github.com/spf13/cobra"

	"lambda-tester/pkg/lambda"
)

func newContextCmd() *cobra.Command {
	var (
		output string
		values lambda.ContextValues
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print a generated handler context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.OutOrStdout(), output, lambda.BuildContext(values))
		},
	}

	addOutputFlag(cmd, &output)
	cmd.Flags().StringVar(&values.FunctionName, "function-name", "", "function name (default "+lambda.DefaultFunctionName+")")
	cmd.Flags().StringVar(&values.FunctionVersion, "function-version", "", "function version (default "+lambda.DefaultFunctionVersion+")")
	cmd.Flags().StringVar(&values.MemoryLimitInMB, "memory", "", "memory limit in MB (default "+lambda.DefaultMemoryLimitInMB+")")
	cmd.Flags().StringVar(&values.InvokeID, "invoke-id", "", "invoke id (default random)")
	return cmd
}
