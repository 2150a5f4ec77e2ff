package image_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stegosuite/pkg/metrics"
	"stegosuite/pkg/repository/image"
)

func TestMemoryRepositorySaveGetDelete(t *testing.T) {
	reg := metrics.NewRegistry()
	repo := image.NewMemoryRepository(reg)
	defer repo.Close()
	ctx := context.Background()

	data := []byte{0x89, 'P', 'N', 'G'}
	id, err := repo.Save(ctx, data, "lsbm", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	data[0] = 0
	got, ok := repo.Get(ctx, id)
	require.True(t, ok)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got.Data)
	require.Equal(t, "lsbm", got.Scheme)

	got.Data[1] = 'X'
	again, _ := repo.Get(ctx, id)
	require.Equal(t, byte('P'), again.Data[1])

	require.NoError(t, repo.Delete(ctx, id))
	_, ok = repo.Get(ctx, id)
	require.False(t, ok)
	require.NoError(t, repo.Delete(ctx, id))

	require.EqualValues(t, 1, reg.Value("images_stored_total", metrics.Labels{"scheme": "lsbm"}))
	require.EqualValues(t, 1, reg.Value("images_freed_total", metrics.Labels{"reason": "deleted"}))
}

func TestMemoryRepositoryExpires(t *testing.T) {
	repo := image.NewMemoryRepository(nil)
	defer repo.Close()

	id, err := repo.Save(context.Background(), []byte("png"), "dct", 20*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := repo.Get(context.Background(), id)
		return !ok
	}, time.Second, 5*time.Millisecond)
	require.Zero(t, repo.Len())
}

func TestMemoryRepositoryRejectsEmpty(t *testing.T) {
	repo := image.NewMemoryRepository(nil)
	_, err := repo.Save(context.Background(), nil, "pvd", time.Minute)
	require.Error(t, err)
}
