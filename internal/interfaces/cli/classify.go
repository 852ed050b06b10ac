package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/internal/domain/industry"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
)

// newClassifyCmd resolves a free-text sector term against the built-in
// industry taxonomy.  Runs fully offline.
func newClassifyCmd(opts *RootOptions) *cobra.Command {
	var (
		fundIndustries []string
		minConfidence  int
	)

	cmd := &cobra.Command{
		Use:   "classify <term>",
		Short: "Classify an industry term, optionally checking fund alignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.TrimSpace(args[0])
			if term == "" {
				return appErrors.InvalidParam("term must not be empty")
			}

			classifier := industry.NewClassifier(nil)
			match := classifier.FindBestMatch(term)

			out := map[string]interface{}{
				"term":    term,
				"match":   match,
				"matched": match != nil,
			}

			if len(fundIndustries) > 0 {
				out["alignment"] = classifier.AreIndustriesAligned(term, fundIndustries, minConfidence)
			}

			return printResult(cmd, opts, out)
		},
	}

	cmd.Flags().StringSliceVar(&fundIndustries, "fund-industries", nil,
		"fund focus industries to check alignment against")
	cmd.Flags().IntVar(&minConfidence, "min-confidence", fund.DefaultMinAlignmentConfidence,
		"minimum classifier confidence for alignment")
	return cmd
}
