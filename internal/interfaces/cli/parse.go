package cli

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MedRemind/internal/infrastructure/drugvocab/openfda"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// parseReport renders an NLPResult as one row per structured medication.
type parseReport struct {
	result *medication.NLPResult
}

func (r parseReport) MarshalJSON() ([]byte, error) { return json.Marshal(r.result) }

func (r parseReport) TableHeaders() []string {
	return []string{"NAME", "DOSAGE", "FREQUENCY", "INSTRUCTIONS", "TIMES", "VALIDATION"}
}

func (r parseReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.result.StructuredMedications))
	for _, m := range r.result.StructuredMedications {
		validation := "-"
		if m.Validation != nil {
			validation = string(m.Validation.Outcome)
		}
		rows = append(rows, []string{
			m.Name, m.Dosage, m.Frequency, m.Instructions,
			strings.Join(m.ReminderTimes, ","), validation,
		})
	}
	return rows
}

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "parse [text...]",
		Short: "Extract medications from text",
		Long: "Run the extraction pipeline over the given text and print the recognised\n" +
			"entities and structured medication. Pass \"-\" to read the text from stdin.",
		Example: `  medremind parse "Take Metformin 500 mg twice a day with food"
  echo "Lipitor at night" | medremind parse - -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			var validator med_extractor.DrugValidator
			if validate {
				validator, err = newValidator(cliCtx)
				if err != nil {
					return err
				}
			}
			vocab, err := cliCtx.loadVocabulary()
			if err != nil {
				return err
			}
			parser := med_extractor.NewDefaultParser(vocab, validator, nil, cliCtx.Logger)

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()
			result, err := parser.Parse(ctx, text)
			if err != nil {
				return err
			}
			if result.Empty() && strings.ToLower(cliCtx.OutputFormat) != "json" {
				return PrintResult(cmd, "No medication recognised.")
			}
			return PrintResult(cmd, parseReport{result: result})
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", false, "confirm the medication name against the drug vocabulary service")
	return cmd
}

// newValidator builds a DrugValidator over the configured openFDA endpoint.
func newValidator(cliCtx *CLIContext) (med_extractor.DrugValidator, error) {
	dv := cliCtx.Config.DrugVocabulary
	client, err := openfda.NewClient(openfda.Config{
		BaseURL: dv.BaseURL,
		APIKey:  dv.APIKey,
		Timeout: dv.Timeout,
	}, cliCtx.Logger)
	if err != nil {
		return nil, err
	}
	return med_extractor.NewDrugValidator(client, med_extractor.ValidatorConfig{Timeout: dv.Timeout}, nil, cliCtx.Logger)
}

// readText joins args, or reads stdin when the only arg is "-".
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInvalidParam, "read stdin")
		}
		args = []string{string(raw)}
	}
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", errors.New(errors.ErrCodeTextMissing, "text is required")
	}
	return text, nil
}

//Personal.AI order the ending
