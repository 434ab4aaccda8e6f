//go:build integration

// Integration tests for the JSONB prescription repository against a real
// PostgreSQL. They need Docker and run only with the "integration" build tag.
package repositories_test

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/postgres"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// startPostgres launches a PostgreSQL 16 container, applies the migrations
// and returns a repository over it.
func startPostgres(t *testing.T) prescription.Repository {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "medremind_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	port, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)

	conn, err := postgres.NewConnection(postgres.PostgresConfig{
		Host:     host,
		Port:     port,
		Database: "medremind_test",
		Username: "test",
		Password: "test",
		SSLMode:  "disable",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	migrations, err := filepath.Abs("../../../../../migrations")
	require.NoError(t, err)
	require.NoError(t, conn.RunMigrations(migrations))

	return repositories.NewPostgresPrescriptionRepo(conn, nil)
}

func TestPrescriptionRepo_Integration(t *testing.T) {
	repo := startPostgres(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	id, err := repo.Add(ctx, &medication.Prescription{
		UserID:    "alice",
		Source:    medication.SourceVoice,
		Status:    medication.StatusProcessing,
		InputText: "Take Metformin 500 mg twice a day",
		NLPResult: medication.NLPResult{
			RawEntities: []medication.RawEntity{{
				Type: medication.EntityMedication, CanonicalValue: "metformin",
				SourceText: "Metformin", Span: medication.Span{Start: 5, End: 14},
			}},
			StructuredMedications: []medication.StructuredMedication{{Name: "Metformin", Dosage: "500 mg"}},
		},
		CreatedAt: base,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = repo.Add(ctx, &medication.Prescription{ID: id, UserID: "alice", Source: medication.SourceVoice, Status: medication.StatusProcessing})
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	require.NotNil(t, got.NLPResult)
	assert.Equal(t, medication.Span{Start: 5, End: 14}, got.NLPResult.RawEntities[0].Span)

	schedules := []medication.MedicationSchedule{{Name: "Metformin", ReminderTimes: []string{"08:00", "20:00"}, Active: true}}
	require.NoError(t, repo.Update(ctx, id, prescription.Patch{
		Status:              prescription.StatusPtr(medication.StatusScheduled),
		MedicationSchedules: prescription.SchedulesPtr(schedules),
		UpdatedAt:           base.Add(time.Minute),
	}))

	scheduled, err := repo.FindByStatus(ctx, medication.StatusScheduled)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, []string{"08:00", "20:00"}, scheduled[0].MedicationSchedules[0].ReminderTimes)

	processing, err := repo.FindByStatus(ctx, medication.StatusProcessing)
	require.NoError(t, err)
	assert.Empty(t, processing)

	_, err = repo.Add(ctx, &medication.Prescription{
		UserID: "alice", Source: medication.SourceManual, Status: medication.StatusProcessing, CreatedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)

	page, err := repo.FindByUser(ctx, "alice", prescription.ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, medication.SourceManual, page[0].Source)

	filtered, err := repo.FindByUser(ctx, "alice", prescription.ListFilter{Status: medication.StatusScheduled})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, id, filtered[0].ID)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.True(t, errors.IsCode(err, errors.ErrCodePrescriptionNotFound))
	assert.True(t, errors.IsCode(repo.Delete(ctx, id), errors.ErrCodePrescriptionNotFound))
}

//Personal.AI order the ending
