package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/xilidan/lingua/pkg/gen"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("lingua"),
		tcpostgres.WithUsername("lingua"),
		tcpostgres.WithPassword("lingua"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewPostgres(ctx, dsn, 2, gen.UUID())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	first, err := store.Save(ctx, &Record{
		SessionID:   "s1",
		Fingerprint: "fp",
		Mode:        entity.ModeAudio,
		AudioName:   "clip.wav",
		Language:    "spanish",
		Source:      source,
		Translation: translation,
	})
	require.NoError(t, err)

	updated := entity.Transcript{{Timestamp: "00:00-00:05", Text: "Buenas"}}
	second, err := store.Save(ctx, &Record{
		SessionID:   "s1",
		Fingerprint: "fp",
		Mode:        entity.ModeAudio,
		AudioName:   "clip.wav",
		Language:    "spanish",
		Source:      source,
		Translation: updated,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	got, err := store.Get(ctx, "s1", first.ID)
	require.NoError(t, err)
	require.Equal(t, "s1", got.SessionID)
	require.Equal(t, entity.ModeAudio, got.Mode)
	require.Equal(t, source, got.Source)
	require.Equal(t, updated, got.Translation)

	_, err = store.Save(ctx, &Record{SessionID: "s1", Fingerprint: "other", Mode: entity.ModeText, Language: "french", Source: source, Translation: translation})
	require.NoError(t, err)

	theirs, err := store.Save(ctx, &Record{SessionID: "s2", Fingerprint: "fp", Mode: entity.ModeAudio, Language: "spanish", Source: source, Translation: translation})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, theirs.ID)

	list, err := store.List(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "other", list[0].Fingerprint)

	list, err = store.List(ctx, "s2", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = store.Get(ctx, "s1", theirs.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "s1", gen.UUID().Next())
	require.ErrorIs(t, err, ErrNotFound)
}
