//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idcheck/internal/registry/models"
	"idcheck/pkg/testutil"
	"idcheck/pkg/testutil/containers"
)

func TestPostgresRoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	importer, err := NewPostgresImporter(pg.Pool, "public.roll")
	require.NoError(t, err)
	loader, err := NewPostgresLoader(pg.Pool, "public.roll", nil, nil)
	require.NoError(t, err)

	testutil.Given(t, "an empty roll relation", func(t *testing.T) {
		require.NoError(t, importer.EnsureSchema(ctx))
		require.NoError(t, importer.EnsureSchema(ctx), "schema creation must be idempotent")

		testutil.When(t, "a table is imported", func(t *testing.T) {
			source := NewTable([]models.Record{
				{ID: 100200300, GivenNames: "MARIA JOSE", FirstSurname: "GARCIA", SecondSurname: "LOPEZ"},
				{ID: 5, GivenNames: "ANA", FirstSurname: "RUIZ", SecondSurname: "DIAZ"},
			})
			n, err := importer.Import(ctx, source, true)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)

			testutil.Then(t, "the loader returns the same records", func(t *testing.T) {
				table, err := loader.Load(ctx)
				require.NoError(t, err)
				assert.Equal(t, 2, table.Len())
				assert.Equal(t, "postgres:public.roll", table.Stats().Source)

				rec, ok := table.FindByID(100200300)
				require.True(t, ok)
				assert.Equal(t, "MARIA JOSE", rec.GivenNames)
				assert.Equal(t, "LOPEZ", rec.SecondSurname)
			})
		})

		testutil.When(t, "a second import replaces the first", func(t *testing.T) {
			n, err := importer.Import(ctx, NewTable([]models.Record{
				{ID: 9, GivenNames: "LUIS", FirstSurname: "PEREZ", SecondSurname: "GOMEZ"},
			}), true)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			testutil.Then(t, "only the new rows remain", func(t *testing.T) {
				table, err := loader.Load(ctx)
				require.NoError(t, err)
				assert.Equal(t, 1, table.Len())
				_, ok := table.FindByID(5)
				assert.False(t, ok)
			})
		})

		testutil.When(t, "rows hold nulls and negative ids", func(t *testing.T) {
			pg.Exec(t, "TRUNCATE public.roll")
			pg.Exec(t, "ALTER TABLE public.roll ALTER COLUMN given_names DROP NOT NULL")
			pg.Exec(t, "INSERT INTO public.roll (id, given_names, first_surname, second_surname) VALUES (1, NULL, 'A', 'B'), (-4, 'X', 'Y', 'Z')")

			testutil.Then(t, "nulls load as empty and negative ids are rejected", func(t *testing.T) {
				table, err := loader.Load(ctx)
				require.NoError(t, err)
				assert.Equal(t, 1, table.Len())
				assert.Equal(t, 1, table.Stats().Rejected)
				rec, ok := table.FindByID(1)
				require.True(t, ok)
				assert.Empty(t, rec.GivenNames)
			})
		})
	})
}

func TestPostgresLoaderMissingTable(t *testing.T) {
	pg := containers.NewPostgresContainer(t)

	loader, err := NewPostgresLoader(pg.Pool, "does_not_exist", nil, nil)
	require.NoError(t, err)
	_, err = loader.Load(context.Background())
	require.Error(t, err)
}
