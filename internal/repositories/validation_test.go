package repositories_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/myrjola/scenevalidator/internal/models"
	"github.com/myrjola/scenevalidator/internal/repositories"
	"github.com/myrjola/scenevalidator/internal/sqlite"
	"github.com/myrjola/scenevalidator/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// newTestRepository creates a repository backed by a fresh in-memory database.
func newTestRepository(t *testing.T) *repositories.ValidationRepository {
	t.Helper()

	logger := testhelpers.NewLogger(io.Discard)
	dbs, err := sqlite.NewDatabase(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.ReadWrite.Close())
		require.NoError(t, dbs.ReadOnly.Close())
	})

	return repositories.NewValidationRepository(dbs, logger)
}

func testResult(validationID, projectID string, createdAt time.Time) models.ValidationResult {
	return models.ValidationResult{
		ProjectID:        projectID,
		ValidationID:     validationID,
		Timestamp:        createdAt,
		ValidationStatus: models.StatusWarning,
		Issues: []models.Issue{
			{
				ID:           "issue-1",
				SceneID:      "scene_001",
				Type:         models.IssueTypeTiming,
				Severity:     models.SeverityMedium,
				Description:  "Timing gap between scenes: expected 10, got 12",
				SuggestedFix: "Adjust timestamp to 10 or add a transition scene",
			},
		},
		Summary: models.Summary{
			TotalScenes:     2,
			ScenesValidated: 2,
			TotalIssues:     1,
		},
	}
}

func TestValidationRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	repo := newTestRepository(t)
	ctx := context.Background()

	want := testResult("val-1", "proj-1", time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, want))

	got, err := repo.Get(ctx, "val-1")
	require.NoError(t, err)
	require.Equal(t, want, *got)
}

func TestValidationRepository_Get_notFound(t *testing.T) {
	t.Parallel()
	repo := newTestRepository(t)

	result, err := repo.Get(context.Background(), "nonexistent")
	require.ErrorIs(t, err, repositories.ErrNotFound)
	require.Nil(t, result)
}

func TestValidationRepository_Create_duplicateID(t *testing.T) {
	t.Parallel()
	repo := newTestRepository(t)
	ctx := context.Background()

	result := testResult("val-1", "proj-1", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, result))
	require.Error(t, repo.Create(ctx, result))
}

func TestValidationRepository_ListByProject(t *testing.T) {
	t.Parallel()
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	// Insert out of chronological order to exercise the ordering.
	require.NoError(t, repo.Create(ctx, testResult("val-2", "proj-1", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, testResult("val-1", "proj-1", base)))
	require.NoError(t, repo.Create(ctx, testResult("val-3", "proj-2", base)))

	results, err := repo.ListByProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "val-1", results[0].ValidationID)
	require.Equal(t, "val-2", results[1].ValidationID)

	results, err = repo.ListByProject(ctx, "proj-2")
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = repo.ListByProject(ctx, "nonexistent")
	require.NoError(t, err)
	require.Empty(t, results)
}
