package redis_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroprice/internal/domain"
	redisstore "agroprice/internal/repository/redis"
)

func setup(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleTask(id string, createdAt time.Time) *domain.ParseTask {
	return &domain.ParseTask{
		ID:          id,
		Status:      domain.TaskStatusProcessing,
		TotalImages: 2,
		ImageResults: []domain.ImageResult{
			{ImageIndex: 1, ImageName: "a.png", ParseStatus: domain.ParseStatusSuccess, ParsedData: []domain.ParsedPriceRecord{
				{ProductName: "草甘膦", WeekEndDate: "2025-03-07", UnitPrice: 23500},
			}},
			{ImageIndex: 2, ImageName: "b.png", ParseStatus: domain.ParseStatusSuccess, ParsedData: []domain.ParsedPriceRecord{}},
		},
		GlobalErrors: []string{},
		ExchangeRate: 7.2,
		CreatedAt:    createdAt.UTC(),
	}
}

func TestTaskStore_SetGetRoundTrip(t *testing.T) {
	_, client := setup(t)
	store := redisstore.NewTaskStore(client, "test:task:", time.Hour)
	ctx := context.Background()
	task := sampleTask("t1", time.Now())

	require.NoError(t, store.Set(ctx, task))
	got, err := store.Get(ctx, "t1")

	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.ImageResults, got.ImageResults)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt))
}

func TestTaskStore_GetUnknown(t *testing.T) {
	_, client := setup(t)
	store := redisstore.NewTaskStore(client, "test:task:", time.Hour)

	_, err := store.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskStore_TTLExpiry(t *testing.T) {
	mr, client := setup(t)
	store := redisstore.NewTaskStore(client, "test:task:", time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, sampleTask("t1", time.Now())))

	assert.Equal(t, time.Minute, mr.TTL("test:task:t1"))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskStore_ListNewestFirstAndPrunesExpired(t *testing.T) {
	mr, client := setup(t)
	store := redisstore.NewTaskStore(client, "test:task:", time.Hour)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, sampleTask("old", base)))
	require.NoError(t, store.Set(ctx, sampleTask("new", base.Add(time.Hour))))
	require.NoError(t, store.Set(ctx, sampleTask("gone", base.Add(time.Minute))))
	mr.Del("test:task:gone")

	tasks, err := store.List(ctx)

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "new", tasks[0].ID)
	assert.Equal(t, "old", tasks[1].ID)

	members, err := mr.ZMembers("test:task:index")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"old", "new"}, members)
}
