package repository

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Create(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, "Post")

	comment := &models.Comment{PostID: post.ID, UserID: user.ID, Content: "Nice post!"}
	require.NoError(t, repo.Create(ctx, comment))
	assert.NotZero(t, comment.ID)

	orphan := &models.Comment{PostID: 4242, UserID: user.ID, Content: "into the void"}
	assertCode(t, repo.Create(ctx, orphan), models.CodeNotFound)
}

func TestCommentRepository_ListByPost(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db)
	viewer := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, "Post")
	other := testutil.CreatePost(t, db, "Other")

	older := testutil.CreateComment(t, db, post.ID, author.ID, "older")
	db.Model(older).UpdateColumn("created_at", time.Now().UTC().Add(-time.Hour))
	newer := testutil.CreateComment(t, db, post.ID, author.ID, "newer")
	testutil.CreateComment(t, db, other.ID, author.ID, "elsewhere")
	testutil.CreateLike(t, db, viewer.ID, models.CommentTarget(older.ID))
	testutil.CreateLike(t, db, author.ID, models.CommentTarget(older.ID))

	comments, total, err := repo.ListByPost(ctx, post.ID, 0, 10, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, comments, 2)

	assert.Equal(t, newer.ID, comments[0].ID)
	assert.Equal(t, 0, comments[0].LikesCount)
	assert.False(t, comments[0].IsLiked)

	assert.Equal(t, older.ID, comments[1].ID)
	assert.Equal(t, 2, comments[1].LikesCount)
	assert.True(t, comments[1].IsLiked)

	require.NotNil(t, comments[1].User)
	assert.Equal(t, author.Username, comments[1].User.Username)
	assert.Equal(t, author.Avatar, comments[1].User.Avatar)
	assert.Empty(t, comments[1].User.Email)

	page, total, err := repo.ListByPost(ctx, post.ID, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)
	assert.False(t, page[0].IsLiked)
}

func TestCommentRepository_UpdateContent_Ownership(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db)
	stranger := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, "Post")
	c := testutil.CreateComment(t, db, post.ID, owner.ID, "draft")

	_, err := repo.UpdateContent(ctx, c.ID, &stranger.ID, "hijacked")
	assertCode(t, err, models.CodeNotFound)

	updated, err := repo.UpdateContent(ctx, c.ID, &owner.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)

	_, err = repo.UpdateContent(ctx, 9999, nil, "x")
	assertCode(t, err, models.CodeNotFound)
}

func TestCommentRepository_AdminReads(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, "Titled")
	first := testutil.CreateComment(t, db, post.ID, user.ID, "first")
	second := testutil.CreateComment(t, db, post.ID, user.ID, "second")
	db.Model(first).UpdateColumn("updated_at", time.Now().UTC().Add(time.Hour))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, "Titled", all[0].PostTitle)
	require.NotNil(t, all[0].User)
	assert.Equal(t, user.Username, all[0].User.Username)

	recent, err := repo.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, user.Username, recent[0].Username)
	assert.Equal(t, "Titled", recent[0].PostTitle)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
