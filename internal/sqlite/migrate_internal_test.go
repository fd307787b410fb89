package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/scenevalidator/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestDatabase_migrateTo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name              string
		schemaDefinitions []string
		testQueries       []string
		wantErr           bool
	}{
		{
			name:              "empty schema",
			schemaDefinitions: []string{""},
			testQueries:       []string{"SELECT * FROM sqlite_schema"},
			wantErr:           false,
		},
		{
			name:              "create table",
			schemaDefinitions: []string{"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, result TEXT)"},
			testQueries: []string{
				"INSERT INTO validations (validation_id, result) VALUES ('v1', '{}')",
				"SELECT * FROM validations",
			},
			wantErr: false,
		},
		{
			name: "drop table",
			schemaDefinitions: []string{
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, result TEXT)",
				"", // drop table
			},
			testQueries: []string{"INSERT INTO validations (validation_id, result) VALUES ('v1', '{}')"},
			wantErr:     true,
		},
		{
			name: "add column",
			schemaDefinitions: []string{
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY)",
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT)",
			},
			testQueries: []string{"INSERT INTO validations (validation_id, project_id) VALUES ('v1', 'p1')"},
			wantErr:     false,
		},
		{
			name: "remove column",
			schemaDefinitions: []string{
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT)",
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY)",
			},
			testQueries: []string{"INSERT INTO validations (validation_id, project_id) VALUES ('v1', 'p1')"},
			wantErr:     true,
		},
		{
			name: "create index",
			schemaDefinitions: []string{
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT);" +
					" CREATE INDEX validations_project_idx ON validations (project_id)",
			},
			testQueries: []string{"DROP INDEX validations_project_idx"},
			wantErr:     false,
		},
		{
			name: "drop index",
			schemaDefinitions: []string{
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT);" +
					" CREATE INDEX validations_project_idx ON validations (project_id)",
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT)",
			},
			testQueries: []string{"DROP INDEX validations_project_idx"},
			wantErr:     true,
		},
		{
			name: "update index",
			schemaDefinitions: []string{
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT);" +
					" CREATE INDEX validations_project_idx ON validations (project_id)",
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT);" +
					" CREATE INDEX validations_project_idx ON validations (project_id, validation_id)",
			},
			testQueries: []string{"DROP INDEX validations_project_idx"},
			wantErr:     false,
		},
		{
			name: "index survives table migration",
			schemaDefinitions: []string{
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT);" +
					" CREATE INDEX validations_project_idx ON validations (project_id)",
				"CREATE TABLE validations (validation_id TEXT PRIMARY KEY, project_id TEXT, created_at TEXT);" +
					" CREATE INDEX validations_project_idx ON validations (project_id)",
			},
			testQueries: []string{"DROP INDEX validations_project_idx"},
			wantErr:     false,
		},
		{
			name: "create trigger",
			schemaDefinitions: []string{
				`CREATE TABLE validations ( validation_id TEXT PRIMARY KEY, result TEXT );
                 CREATE TRIGGER validations_trigger AFTER INSERT ON validations
                 BEGIN SELECT RAISE ( FAIL, 'fail' ); END;`,
			},
			testQueries: []string{"INSERT INTO validations (validation_id, result) VALUES ('v1', '{}')"},
			wantErr:     true,
		},
		{
			name: "delete trigger",
			schemaDefinitions: []string{
				`CREATE TABLE validations ( validation_id TEXT PRIMARY KEY, result TEXT );
                 CREATE TRIGGER validations_trigger AFTER INSERT ON validations
                 BEGIN SELECT RAISE ( FAIL, 'fail' ); END;`,
				"CREATE TABLE validations ( validation_id TEXT PRIMARY KEY, result TEXT )",
			},
			testQueries: []string{"INSERT INTO validations (validation_id, result) VALUES ('v1', '{}')"},
			wantErr:     false,
		},
		{
			name: "update trigger",
			schemaDefinitions: []string{
				`CREATE TABLE validations ( validation_id TEXT PRIMARY KEY, result TEXT );
                 CREATE TRIGGER validations_trigger AFTER INSERT ON validations
                 BEGIN SELECT RAISE ( FAIL, 'fail' ); END;`,
				`CREATE TABLE validations ( validation_id TEXT PRIMARY KEY, result TEXT );
                 CREATE TRIGGER validations_trigger AFTER INSERT ON validations BEGIN SELECT 1; END;`,
			},
			testQueries: []string{"INSERT INTO validations (validation_id, result) VALUES ('v1', '{}')"},
			wantErr:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			logger := testhelpers.NewLogger(io.Discard)
			db, err := connect(":memory:", logger)
			require.NoError(t, err)
			for _, schemaDefinition := range tt.schemaDefinitions {
				logger.LogAttrs(ctx, slog.LevelInfo, "migrating", slog.String("schema", schemaDefinition))
				err = db.migrateTo(ctx, schemaDefinition)
				require.NoError(t, err)
			}
			for _, query := range tt.testQueries {
				logger.LogAttrs(ctx, slog.LevelInfo, "executing", slog.String("query", query))
				_, err = db.ReadWrite.ExecContext(ctx, query)
				if tt.wantErr {
					require.Error(t, err)
				} else {
					require.NoError(t, err)
				}
			}
		})
	}
}
