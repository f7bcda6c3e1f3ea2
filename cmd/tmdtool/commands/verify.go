package commands

import (
	"strconv"

	"jpog-tmd/internal/printer"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify MODEL.tmd...",
	Short: "Check that models re-encode byte for byte",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	var failed int
	for _, path := range args {
		src, _, err := openModel(path)
		if err != nil {
			failed++
			continue
		}
		if err := src.Verify(); err != nil {
			printer.Warning("%s: %v\n", path, err)
			failed++
			continue
		}
		if src.Pool != nil {
			printer.Success("%s and its key pool round trip\n", path)
		} else {
			printer.Success("%s round trips\n", path)
		}
	}
	if failed > 0 {
		return printer.Error("Round trip failed", "", map[string]string{
			"failed": strconv.Itoa(failed),
			"total":  strconv.Itoa(len(args)),
		})
	}
	return nil
}
