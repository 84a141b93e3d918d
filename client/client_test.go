package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hushtape/confessionserver/pkg/confession"
	"github.com/hushtape/confessionserver/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })

	store, err := confession.OpenSQLiteStore(filepath.Join(t.TempDir(), "confessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := confession.New(zaptest.NewLogger(t),
		confession.NewBlobStorageFromBucket(bucket, ""), store)
	server := httptest.NewServer(handler.NewHTTP(zaptest.NewLogger(t), svc))
	t.Cleanup(server.Close)

	return New(server.URL, WithHTTPClient(server.Client()))
}

func TestClientUploadAndList(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	reply, err := c.Upload(ctx, []byte("audio-bytes"), "Test", "late night thoughts", "Work, Stress")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(reply.DeletionCode), 10)

	confessions, err := c.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, confessions, 1)
	assert.Equal(t, "Test", confessions[0].Name)
	assert.Equal(t, "late night thoughts", confessions[0].Description)
	assert.Equal(t, []string{"work", "stress"}, confessions[0].Tags)
	assert.False(t, confessions[0].CreatedAt.IsZero())
}

func TestClientUpload_NoAudio(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Upload(context.Background(), nil, "Test", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio")
}

func TestClientDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	reply, err := c.Upload(ctx, []byte("audio"), "bye", "", "")
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, reply.DeletionCode))
	require.ErrorIs(t, c.Delete(ctx, reply.DeletionCode), confession.ErrNotFound)

	confessions, err := c.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, confessions)
}

func TestClientPlayAndPopular(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Upload(ctx, []byte("a"), "quiet", "", "")
	require.NoError(t, err)
	_, err = c.Upload(ctx, []byte("b"), "loud", "", "")
	require.NoError(t, err)

	confessions, err := c.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, confessions, 2)

	var loudID int64
	for _, conf := range confessions {
		if conf.Name == "loud" {
			loudID = conf.ID
		}
	}
	require.Positive(t, loudID)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Play(ctx, loudID))
	}
	require.ErrorIs(t, c.Play(ctx, 99999), confession.ErrNotFound)

	popular, err := c.Popular(ctx)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "loud", popular[0].Name)
	assert.Equal(t, int64(3), popular[0].DailyPlays)
}

func TestClientSearch(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Upload(ctx, []byte("a"), "Midnight Snack", "", "")
	require.NoError(t, err)

	results, err := c.Search(ctx, "midnight")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Midnight Snack", results[0].Name)

	results, err = c.Search(ctx, "nothing here")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClientAudio(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Upload(ctx, []byte("audio-bytes"), "clip", "", "")
	require.NoError(t, err)

	confessions, err := c.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, confessions, 1)

	data, err := c.Audio(ctx, confessions[0].AudioKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)

	_, err = c.Audio(ctx, "missing.webm")
	require.ErrorIs(t, err, confession.ErrNotFound)
}
