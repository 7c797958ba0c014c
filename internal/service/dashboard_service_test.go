package service

import (
	"context"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Summary(t *testing.T) {
	db := testutil.NewDB(t)
	var users []*models.User
	for i := 0; i < 6; i++ {
		users = append(users, testutil.CreateUser(t, db))
	}
	post := testutil.CreatePost(t, db, "Only post")
	testutil.CreateComment(t, db, post.ID, users[0].ID, "first")

	svc := NewDashboardService(
		repository.NewUserRepository(db),
		repository.NewPostRepository(db),
		repository.NewCommentRepository(db),
		cache.New(nil),
	)

	d, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), d.TotalUsers)
	assert.Equal(t, int64(1), d.TotalPosts)
	assert.Equal(t, int64(1), d.TotalComments)
	assert.Len(t, d.RecentUsers, 5)
	require.Len(t, d.RecentPosts, 1)
	assert.Equal(t, "Only post", d.RecentPosts[0].Title)
	require.Len(t, d.RecentComments, 1)
	assert.Equal(t, "Only post", d.RecentComments[0].PostTitle)
}

func TestDashboardService_EmptyListsAreNotNil(t *testing.T) {
	t.Parallel()

	svc := NewDashboardService(&userRepoStub{}, &postRepoStub{}, &commentRepoStub{}, cache.New(nil))

	d, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, d.RecentUsers)
	assert.NotNil(t, d.RecentPosts)
	assert.NotNil(t, d.RecentComments)
}

func TestDashboardService_CachesSummary(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	posts := &postRepoStub{countFn: func(context.Context) (int64, error) {
		calls++
		return int64(calls), nil
	}}
	svc := NewDashboardService(&userRepoStub{}, posts, &commentRepoStub{}, cache.New(rdb))
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first.TotalPosts, second.TotalPosts)
	assert.True(t, mr.Exists(cache.DashboardKey))

	cache.New(rdb).Invalidate(ctx, cache.DashboardKey)
	third, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.TotalPosts)
}

func TestDashboardService_PropagatesErrors(t *testing.T) {
	t.Parallel()

	users := &userRepoStub{countFn: func(context.Context) (int64, error) {
		return 0, models.NewDependencyError("database", assert.AnError)
	}}
	svc := NewDashboardService(users, &postRepoStub{}, &commentRepoStub{}, cache.New(nil))

	_, err := svc.Summary(context.Background())
	assertCode(t, err, models.CodeDependency)
}
