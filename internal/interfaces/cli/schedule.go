package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MedRemind/internal/application/scheduling"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// ScheduleRow is one medication and the reminder times it would get.
type ScheduleRow struct {
	Medication string   `json:"medication"`
	Frequency  string   `json:"frequency,omitempty"`
	Rule       string   `json:"rule"`
	Times      []string `json:"times"`
	Display    []string `json:"display"`
}

type scheduleReport []ScheduleRow

func (r scheduleReport) TableHeaders() []string {
	return []string{"MEDICATION", "FREQUENCY", "RULE", "TIMES"}
}

func (r scheduleReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, s := range r {
		rows = append(rows, []string{s.Medication, s.Frequency, s.Rule, strings.Join(s.Display, ", ")})
	}
	return rows
}

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	var frequency string

	cmd := &cobra.Command{
		Use:   "schedule [text...]",
		Short: "Show the reminder times text or a frequency would produce",
		Example: `  medremind schedule "Aspirin every 6 hours"
  medremind schedule --frequency "three times a day"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			gen := scheduling.NewGenerator()

			if frequency != "" {
				return PrintResult(cmd, scheduleReport{scheduleRow(gen, medication.StructuredMedication{Frequency: frequency})})
			}

			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			vocab, err := cliCtx.loadVocabulary()
			if err != nil {
				return err
			}
			parser := med_extractor.NewDefaultParser(vocab, nil, nil, cliCtx.Logger)

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()
			result, err := parser.Parse(ctx, text)
			if err != nil {
				return err
			}
			if result.Empty() {
				return errors.New(errors.ErrCodeExtractionEmpty, "no medication recognised in text")
			}

			report := make(scheduleReport, 0, len(result.StructuredMedications))
			for _, m := range result.StructuredMedications {
				report = append(report, scheduleRow(gen, m))
			}
			return PrintResult(cmd, report)
		},
	}

	cmd.Flags().StringVarP(&frequency, "frequency", "f", "", "infer times from this frequency alone")
	return cmd
}

func scheduleRow(gen *scheduling.Generator, m medication.StructuredMedication) ScheduleRow {
	rule := gen.Rule(m.Frequency)
	if len(m.ReminderTimes) > 0 {
		rule = "explicit"
	}
	times, _ := medication.CanonicalizeTimes(gen.Generate(m))
	display := make([]string, len(times))
	for i, t := range times {
		display[i] = medication.ToDisplayClock(t)
	}
	name := m.Name
	if name == "" {
		name = "-"
	}
	return ScheduleRow{Medication: name, Frequency: m.Frequency, Rule: rule, Times: times, Display: display}
}

//Personal.AI order the ending
