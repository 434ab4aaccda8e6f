package cli

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/MedRemind/internal/application/scheduling"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/memory"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

type dueReport []medication.DueReminder

func (r dueReport) TableHeaders() []string {
	return []string{"TIME", "USER", "PRESCRIPTION", "MEDICATION", "DOSAGE"}
}

func (r dueReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, d := range r {
		rows = append(rows, []string{d.Time, d.UserID, d.PrescriptionID, d.MedicationName, d.Dosage})
	}
	return rows
}

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	var (
		file string
		at   string
		date string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List reminders due at a minute from a prescriptions file",
		Long: "Load prescriptions from a JSON array and report every active schedule of a\n" +
			"scheduled prescription whose reminder times include the given minute.",
		Example: `  medremind scan --file prescriptions.json --at 08:00
  medremind scan --file prescriptions.json --at "8:00 PM" --date 2026-03-01 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			loc := cliCtx.Config.Location()

			now, err := scanInstant(at, date, loc, time.Now())
			if err != nil {
				return err
			}

			repo, err := loadPrescriptions(cmd, file)
			if err != nil {
				return err
			}
			scanner, err := scheduling.NewDueScanner(repo, scheduling.ScannerConfig{Location: loc}, cliCtx.Logger)
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()
			due, err := scanner.Scan(ctx, now)
			if err != nil {
				return err
			}
			if len(due) == 0 && cliCtx.OutputFormat != "json" {
				return PrintResult(cmd, "No reminders due at "+medication.FormatMinute(now.In(loc))+".")
			}
			return PrintResult(cmd, dueReport(due))
		},
	}

	f := cmd.Flags()
	f.StringVar(&file, "file", "", "JSON file holding an array of prescriptions (required)")
	f.StringVar(&at, "at", "", "minute to scan, \"HH:MM\" or \"h:mm AM\" (default: now)")
	f.StringVar(&date, "date", "", "date to scan, YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// scanInstant combines the optional date and clock flags with now.
func scanInstant(at, date string, loc *time.Location, now time.Time) (time.Time, error) {
	now = now.In(loc)
	y, m, d := now.Date()
	if date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, errors.Wrap(err, errors.CodeInvalidParam, "date must be YYYY-MM-DD")
		}
		y, m, d = day.Date()
	}
	hour, minute := now.Hour(), now.Minute()
	if at != "" {
		canonical, err := medication.ToCanonicalClock(at)
		if err != nil {
			return time.Time{}, errors.Wrap(err, errors.ErrCodeTimeFormatInvalid, "invalid --at time")
		}
		t, _ := time.Parse(medication.ClockLayout, canonical)
		hour, minute = t.Hour(), t.Minute()
	}
	return time.Date(y, m, d, hour, minute, 0, 0, loc), nil
}

// loadPrescriptions reads path ("-" for stdin) into an in-memory repository.
func loadPrescriptions(cmd *cobra.Command, path string) (*memory.PrescriptionRepo, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "read prescriptions file")
	}

	var items []*medication.Prescription
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "prescriptions file must be a JSON array")
	}

	repo := memory.NewPrescriptionRepo()
	for _, p := range items {
		if p == nil {
			continue
		}
		if _, err := repo.Add(cmd.Context(), p); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

//Personal.AI order the ending
