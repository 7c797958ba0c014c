package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestCascade(t *testing.T) (*CascadeService, *gorm.DB, *testutil.MemoryBlobStore) {
	t.Helper()
	db := testutil.NewDB(t)
	blobs := testutil.NewMemoryBlobStore()
	svc := NewCascadeService(
		repository.NewCascadeRepository(db),
		repository.NewPostRepository(db),
		blobs,
		cache.New(nil),
	)
	return svc, db, blobs
}

func TestCascadeService_DeletePost(t *testing.T) {
	svc, db, blobs := newTestCascade(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db)
	bob := testutil.CreateUser(t, db)
	doomed := testutil.CreatePost(t, db, "Doomed")
	kept := testutil.CreatePost(t, db, "Kept")

	c1 := testutil.CreateComment(t, db, doomed.ID, alice.ID, "one")
	c2 := testutil.CreateComment(t, db, doomed.ID, bob.ID, "two")
	keptComment := testutil.CreateComment(t, db, kept.ID, alice.ID, "stays")

	testutil.CreateLike(t, db, alice.ID, models.PostTarget(doomed.ID))
	testutil.CreateLike(t, db, bob.ID, models.PostTarget(doomed.ID))
	testutil.CreateLike(t, db, alice.ID, models.CommentTarget(c1.ID))
	testutil.CreateLike(t, db, bob.ID, models.CommentTarget(c2.ID))
	testutil.CreateLike(t, db, bob.ID, models.PostTarget(kept.ID))
	testutil.CreateLike(t, db, bob.ID, models.CommentTarget(keptComment.ID))

	out, err := svc.DeletePost(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, doomed.ID, out.Post.ID)
	assert.Equal(t, int64(2), out.DeletedComments)
	assert.Equal(t, int64(4), out.DeletedLikes)

	assert.Zero(t, testutil.CountRows(t, db, &models.Post{}, "id = ?", doomed.ID))
	assert.Zero(t, testutil.CountRows(t, db, &models.Comment{}, "post_id = ?", doomed.ID))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.Comment{}))
	assert.Equal(t, int64(2), testutil.CountRows(t, db, &models.Like{}))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.Like{}, "post_id = ?", kept.ID))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.Like{}, "comment_id = ?", keptComment.ID))

	require.Len(t, blobs.Deleted, 1)
}

func TestCascadeService_DeletePostWithoutChildren(t *testing.T) {
	svc, db, _ := newTestCascade(t)
	post := testutil.CreatePost(t, db, "Lonely")

	out, err := svc.DeletePost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Zero(t, out.DeletedComments)
	assert.Zero(t, out.DeletedLikes)
	assert.Zero(t, testutil.CountRows(t, db, &models.Post{}))
}

func TestCascadeService_DeleteMissingPost(t *testing.T) {
	svc, _, blobs := newTestCascade(t)

	_, err := svc.DeletePost(context.Background(), 999)
	assertCode(t, err, models.CodeNotFound)
	assert.Empty(t, blobs.Deleted)
}

func TestCascadeService_BlobReleaseFailureKeepsDelete(t *testing.T) {
	svc, db, blobs := newTestCascade(t)
	blobs.DeleteErr = errors.New("bucket gone")
	post := testutil.CreatePost(t, db, "Has image")

	_, err := svc.DeletePost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Zero(t, testutil.CountRows(t, db, &models.Post{}))
	assert.Len(t, blobs.Deleted, 1)
}

func TestCascadeService_DeleteComment(t *testing.T) {
	svc, db, _ := newTestCascade(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db)
	other := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, "Post")
	comment := testutil.CreateComment(t, db, post.ID, owner.ID, "mine")
	sibling := testutil.CreateComment(t, db, post.ID, other.ID, "theirs")
	testutil.CreateLike(t, db, owner.ID, models.CommentTarget(comment.ID))
	testutil.CreateLike(t, db, other.ID, models.CommentTarget(comment.ID))
	testutil.CreateLike(t, db, owner.ID, models.CommentTarget(sibling.ID))

	t.Run("someone else's comment is not found", func(t *testing.T) {
		_, err := svc.DeleteComment(ctx, comment.ID, other.ID)
		assertCode(t, err, models.CodeNotFound)
		assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.Comment{}, "id = ?", comment.ID))
		assert.Equal(t, int64(2), testutil.CountRows(t, db, &models.Like{}, "comment_id = ?", comment.ID))
	})

	t.Run("owner deletes likes then comment", func(t *testing.T) {
		out, err := svc.DeleteComment(ctx, comment.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, comment.ID, out.Comment.ID)
		assert.Equal(t, int64(2), out.DeletedLikes)
		assert.Zero(t, testutil.CountRows(t, db, &models.Comment{}, "id = ?", comment.ID))
		assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.Like{}))
	})

	t.Run("second delete is not found", func(t *testing.T) {
		_, err := svc.DeleteComment(ctx, comment.ID, owner.ID)
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("admin ignores ownership", func(t *testing.T) {
		out, err := svc.DeleteCommentAdmin(ctx, sibling.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), out.DeletedLikes)
		assert.Zero(t, testutil.CountRows(t, db, &models.Comment{}))
		assert.Zero(t, testutil.CountRows(t, db, &models.Like{}))
	})

	assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.Post{}))
}

func TestCascadeService_SweepOrphans(t *testing.T) {
	svc, db, _ := newTestCascade(t)
	user := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, "Alive")
	comment := testutil.CreateComment(t, db, post.ID, user.ID, "c")
	testutil.CreateLike(t, db, user.ID, models.PostTarget(post.ID))
	testutil.CreateLike(t, db, user.ID, models.CommentTarget(comment.ID))

	res, err := svc.SweepOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repository.SweepResult{}, res)
	assert.Equal(t, int64(2), testutil.CountRows(t, db, &models.Like{}))
}
