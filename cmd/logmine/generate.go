package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/logmine/internal/model"
)

func newGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate [iterations]",
		Short: "Write synthetic log lines for benchmarking",
		Long: `generate writes 600 lines per iteration drawn from two templates,
"value config K I" and "device K I", for K in A, B, C and I in 0..99.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := model.DefaultGenerateCount
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 {
					return fmt.Errorf("invalid iteration count %q", args[0])
				}
				n = v
			}
			return writeSynthetic(cmd.OutOrStdout(), n)
		},
	}
}

func writeSynthetic(w io.Writer, iterations int) error {
	bw := bufio.NewWriter(w)
	for it := 0; it < iterations; it++ {
		for i := 0; i < 100; i++ {
			for _, k := range []string{"A", "B", "C"} {
				fmt.Fprintf(bw, "value config %s %d\n", k, i)
				fmt.Fprintf(bw, "device %s %d\n", k, i)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write lines: %w", err)
	}
	return nil
}
