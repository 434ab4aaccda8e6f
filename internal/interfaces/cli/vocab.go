package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

type vocabReport []med_extractor.VocabularyEntry

func (r vocabReport) TableHeaders() []string { return []string{"TYPE", "CANONICAL", "ALIASES"} }

func (r vocabReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, e := range r {
		rows = append(rows, []string{string(e.Type), e.Canonical, strings.Join(e.Aliases, ", ")})
	}
	return rows
}

// NewVocabCmd creates the vocab command.
func NewVocabCmd() *cobra.Command {
	var entityType string

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "List the entity vocabulary used by the recognizer",
		Example: `  medremind vocab
  medremind vocab --type medication`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			vocab, err := cliCtx.loadVocabulary()
			if err != nil {
				return err
			}

			types := medication.EntityTypes
			if entityType != "" {
				t, ok := lookupEntityType(entityType)
				if !ok {
					return errors.New(errors.CodeInvalidParam, "unknown entity type").WithDetail(entityType)
				}
				types = []medication.EntityType{t}
			}

			var report vocabReport
			for _, t := range types {
				report = append(report, vocab.Entries(t)...)
			}
			return PrintResult(cmd, report)
		},
	}

	cmd.Flags().StringVarP(&entityType, "type", "t", "", "only list entries of this entity type")
	return cmd
}

func lookupEntityType(name string) (medication.EntityType, bool) {
	for _, t := range medication.EntityTypes {
		if strings.EqualFold(string(t), name) {
			return t, true
		}
	}
	return "", false
}

//Personal.AI order the ending
