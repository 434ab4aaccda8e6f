package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "medremind", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"parse", "schedule", "scan", "vocab"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "log-level", "output", "verbose", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestExecute_UnknownSubcommand(t *testing.T) {
	_, err := runCLI(t, "", "unknownsubcommand")
	assert.Error(t, err)
}

func TestExecute_MissingConfigFile(t *testing.T) {
	_, err := runCLI(t, "", "vocab", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config initialization failed")
}

func TestParseCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "", "parse", "-o", "json", "Take Metformin 500 mg twice a day with food")
	require.NoError(t, err)

	var res medication.NLPResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.StructuredMedications, 1)
	assert.Equal(t, "Metformin", res.StructuredMedications[0].Name)
	assert.Nil(t, res.StructuredMedications[0].Validation)
}

func TestParseCmd_TextFromStdin(t *testing.T) {
	out, err := runCLI(t, "Take Metformin 500 mg twice a day\n", "parse", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Metformin")
}

func TestParseCmd_NothingRecognised(t *testing.T) {
	out, err := runCLI(t, "", "parse", "good", "morning")
	require.NoError(t, err)
	assert.Equal(t, "No medication recognised.\n", out)
}

func TestParseCmd_RequiresText(t *testing.T) {
	_, err := runCLI(t, "", "parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MED_002")
}

func TestParseCmd_VocabularyFile(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "vocab.yaml")
	require.NoError(t, os.WriteFile(vocabPath, []byte(`
entries:
  - type: medication
    canonical: ibuprofen
    aliases: [Ibuprofen, Advil]
`), 0o600))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("extractor:\n  vocabulary_file: "+vocabPath+"\n"), 0o600))

	out, err := runCLI(t, "", "parse", "-c", cfgPath, "-o", "json", "take Advil daily")
	require.NoError(t, err)

	var res medication.NLPResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.StructuredMedications, 1)
	assert.Equal(t, "Ibuprofen", res.StructuredMedications[0].Name)
}

func TestScheduleCmd_Frequency(t *testing.T) {
	tests := []struct {
		frequency string
		rule      string
		times     []string
	}{
		{"three times a day", "three_times", []string{"08:00", "12:00", "20:00"}},
		{"every 6 hours", "interval", []string{"08:00", "14:00", "20:00"}},
		{"as needed", "default", []string{"08:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			out, err := runCLI(t, "", "schedule", "-o", "json", "--frequency", tt.frequency)
			require.NoError(t, err)

			var rows []ScheduleRow
			require.NoError(t, json.Unmarshal([]byte(out), &rows))
			require.Len(t, rows, 1)
			assert.Equal(t, tt.rule, rows[0].Rule)
			assert.Equal(t, tt.times, rows[0].Times)
			assert.Equal(t, "8:00 AM", rows[0].Display[0])
		})
	}
}

func TestScheduleCmd_FromText(t *testing.T) {
	out, err := runCLI(t, "", "schedule", "-o", "table", "Take Metformin 500 mg twice a day")
	require.NoError(t, err)
	assert.Contains(t, out, "MEDICATION")
	assert.Contains(t, out, "Metformin")
	assert.Contains(t, out, "AM")
}

func TestScheduleCmd_NothingRecognised(t *testing.T) {
	_, err := runCLI(t, "", "schedule", "good morning")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MED_001")
}

func writePrescriptions(t *testing.T, items []medication.Prescription) string {
	t.Helper()
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "prescriptions.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func scanFixture() []medication.Prescription {
	return []medication.Prescription{
		{
			ID: "rx-1", UserID: "alice", Status: medication.StatusScheduled,
			MedicationSchedules: []medication.MedicationSchedule{
				{Name: "Metformin", Dosage: "500 mg", ReminderTimes: []string{"08:00", "20:00"}, Active: true},
				{Name: "Paused", ReminderTimes: []string{"08:00"}, Active: false},
			},
		},
		{
			ID: "rx-2", UserID: "bob", Status: medication.StatusScheduled,
			MedicationSchedules: []medication.MedicationSchedule{
				{Name: "Lipitor", ReminderTimes: []string{"8:00 AM"}, Active: true},
			},
		},
		{
			ID: "rx-3", UserID: "carol", Status: medication.StatusProcessing,
			MedicationSchedules: []medication.MedicationSchedule{
				{Name: "Aspirin", ReminderTimes: []string{"08:00"}, Active: true},
			},
		},
	}
}

func TestScanCmd_JSON(t *testing.T) {
	path := writePrescriptions(t, scanFixture())

	out, err := runCLI(t, "", "scan", "-o", "json", "--file", path, "--at", "08:00", "--date", "2026-03-01")
	require.NoError(t, err)

	var due []medication.DueReminder
	require.NoError(t, json.Unmarshal([]byte(out), &due))
	require.Len(t, due, 2)

	names := []string{due[0].MedicationName, due[1].MedicationName}
	assert.ElementsMatch(t, []string{"Metformin", "Lipitor"}, names)
	for _, d := range due {
		assert.Equal(t, "08:00", d.Time)
	}
}

func TestScanCmd_TwelveHourFlagFromStdin(t *testing.T) {
	raw, err := json.Marshal(scanFixture())
	require.NoError(t, err)

	out, err := runCLI(t, string(raw), "scan", "--file", "-", "--at", "8:00 PM")
	require.NoError(t, err)
	assert.Contains(t, out, "Metformin")
	assert.NotContains(t, out, "Lipitor")
}

func TestScanCmd_NothingDue(t *testing.T) {
	path := writePrescriptions(t, scanFixture())

	out, err := runCLI(t, "", "scan", "--file", path, "--at", "03:15")
	require.NoError(t, err)
	assert.Equal(t, "No reminders due at 03:15.\n", out)
}

func TestScanCmd_Errors(t *testing.T) {
	path := writePrescriptions(t, scanFixture())

	_, err := runCLI(t, "", "scan")
	assert.Error(t, err)

	_, err = runCLI(t, "", "scan", "--file", path, "--at", "25:99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCH_003")

	_, err = runCLI(t, "", "scan", "--file", path, "--date", "yesterday")
	assert.Error(t, err)

	_, err = runCLI(t, "not json", "scan", "--file", "-")
	assert.Error(t, err)
}

func TestScanInstant(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 5, 4, 13, 27, 45, 0, loc)

	got, err := scanInstant("", "", loc, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 4, 13, 27, 0, 0, loc), got)

	got, err = scanInstant("7:05 PM", "2026-01-02", loc, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 19, 5, 0, 0, loc), got)
}

func TestVocabCmd(t *testing.T) {
	out, err := runCLI(t, "", "vocab", "-o", "json", "--type", "medication")
	require.NoError(t, err)

	var entries []med_extractor.VocabularyEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, medication.EntityMedication, e.Type)
	}

	out, err = runCLI(t, "", "vocab")
	require.NoError(t, err)
	assert.Contains(t, out, "frequencyTerm")
	assert.Contains(t, out, "Metformin, Glucophage")

	_, err = runCLI(t, "", "vocab", "--type", "colour")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"A", "LONG"}, [][]string{{"xyz", "1"}, {"b"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A    LONG", lines[0])
	assert.Equal(t, "---  ----", lines[1])
	assert.Equal(t, "xyz  1   ", lines[2])
	assert.Equal(t, "", FormatTable(nil, nil))
}

//Personal.AI order the ending
