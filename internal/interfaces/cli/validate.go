package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reubenai/dealsense/internal/domain/criteria"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// newValidateCmd validates a criteria template's weight invariants.  With a
// file argument it validates that template; without one it validates the
// built-in default for the selected fund type.
func newValidateCmd(opts *RootOptions) *cobra.Command {
	var fundType string

	cmd := &cobra.Command{
		Use:   "validate [template.json]",
		Short: "Validate a criteria template's weights",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := resolveTemplate(args, fundType)
			if err != nil {
				return err
			}

			validator := criteria.NewValidator(criteria.DefaultTolerance)
			result := validator.ValidateTemplate(tpl)

			if err := printResult(cmd, opts, result); err != nil {
				return err
			}
			if !result.IsValid {
				return fmt.Errorf("template is invalid (%d finding(s))", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fundType, "fund-type", string(common.FundTypeVC),
		"fund type for the default template (vc, pe)")
	return cmd
}

func resolveTemplate(args []string, fundType string) (*criteria.CriteriaTemplate, error) {
	if len(args) == 1 {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		tpl := &criteria.CriteriaTemplate{}
		if err := json.Unmarshal(raw, tpl); err != nil {
			return nil, fmt.Errorf("parse template: %w", err)
		}
		return tpl, nil
	}

	tpl, ok := criteria.DefaultTemplate(common.FundType(fundType))
	if !ok {
		return nil, fmt.Errorf("unsupported fund type %q", fundType)
	}
	return tpl, nil
}
