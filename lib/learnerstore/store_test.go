package learnerstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"nemis-backend/lib/learnerstore/db"
	"nemis-backend/lib/telemetry"
	"nemis-backend/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:learnerstore")
	defer cleanup()

	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = sqlite.Exec(db.Schema)
	require.NoError(t, err)
	store := NewStore(sqlite)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	const institution = "10200300"

	jane := Record{
		Upi:         "AAA0000001",
		Name:        "Jane Wanjiku Doe",
		Gender:      "F",
		DateOfBirth: time.Date(2011, 3, 14, 0, 0, 0, 0, timezone.Location),
		BirthCertNo: "BC-991001",
		IndexNo:     "100001",
	}
	john := Record{
		Upi:         "AAA0000002",
		Name:        "John Otieno Smith",
		Gender:      "M",
		DateOfBirth: time.Date(2011, 7, 2, 0, 0, 0, 0, timezone.Location),
		BirthCertNo: "BC-991002",
		IndexNo:     "100002",
	}

	{
		_, err := store.Get(ctx, institution, "AAA0000001")
		require.ErrorIs(t, err, ErrNotFound)

		records, err := store.Pull(ctx, institution, "Grade 7")
		require.NoError(t, err)
		require.Len(t, records, 0)
	}
	{
		err := store.Push(ctx, PushRequest{
			Institution: institution,
			Grade:       "Grade 7",
			Learners:    []Record{jane, john},
		})
		require.NoError(t, err)

		got, err := store.Get(ctx, institution, "AAA0000001")
		require.NoError(t, err)
		require.Equal(t, jane.Name, got.Name)
		require.Equal(t, "Grade 7", got.Grade)
		require.True(t, got.DateOfBirth.Equal(jane.DateOfBirth))

		records, err := store.Pull(ctx, institution, "Grade 7")
		require.NoError(t, err)
		require.Len(t, records, 2)
		// ordered by name
		require.Equal(t, "AAA0000001", records[0].Upi)
		require.Equal(t, "AAA0000002", records[1].Upi)
	}
	{
		// a later push is the new truth: john left, jane was renamed
		renamed := jane
		renamed.Name = "Jane Wanjiku Kamau"
		err := store.Push(ctx, PushRequest{
			Institution: institution,
			Grade:       "Grade 7",
			Learners:    []Record{renamed},
		})
		require.NoError(t, err)

		records, err := store.Pull(ctx, institution, "Grade 7")
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "Jane Wanjiku Kamau", records[0].Name)

		_, err = store.Get(ctx, institution, "AAA0000002")
		require.ErrorIs(t, err, ErrNotFound)
	}
	{
		// rosters are scoped per institution
		err := store.Push(ctx, PushRequest{
			Institution: "other-school",
			Grade:       "Grade 7",
			Learners:    []Record{john},
		})
		require.NoError(t, err)

		records, err := store.Pull(ctx, institution, "Grade 7")
		require.NoError(t, err)
		require.Len(t, records, 1)
	}
}
