package database

import (
	"context"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		DBPath:       ":memory:",
		DBSchemaMode: SchemaModeHybrid,
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", SQLiteDSN(""))
	assert.Equal(t, "blog.db?_foreign_keys=on", SQLiteDSN("blog.db"))
	assert.Equal(t, "file:blog.db?cache=shared&_foreign_keys=on", SQLiteDSN("file:blog.db?cache=shared"))
	assert.Equal(t, "blog.db?_foreign_keys=off", SQLiteDSN("blog.db?_foreign_keys=off"))
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		mode     string
		env      string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid postgres dev", "postgres", SchemaModeHybrid, "development", true, true, false},
		{"hybrid postgres prod", "postgres", SchemaModeHybrid, "production", true, false, false},
		{"sql postgres", "postgres", SchemaModeSQL, "production", true, false, false},
		{"auto postgres prod refused", "postgres", SchemaModeAuto, "production", false, false, true},
		{"hybrid sqlite", "sqlite", SchemaModeHybrid, "development", false, true, false},
		{"hybrid mysql prod", "mysql", SchemaModeHybrid, "production", false, true, false},
		{"sql mysql refused", "mysql", SchemaModeSQL, "development", false, false, true},
		{"unknown mode", "postgres", "magic", "development", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{DBDriver: tt.driver, DBSchemaMode: tt.mode, Env: tt.env}
			runSQL, runAuto, err := schemaPolicy(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.GreaterOrEqual(t, len(all), 2)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "blog_schema", all[0].Name)
	assert.Contains(t, all[0].UpScript, "chk_likes_single_target")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS likes")
	assert.Equal(t, "000001_blog_schema", all[0].String())

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}
	assert.NotNil(t, GetMigrationByVersion(2))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestValidateAppliedVersions(t *testing.T) {
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, GetMigrations()))
	assert.ErrorContains(t, validateAppliedVersions([]int{1, 77}, GetMigrations()), "000077")
}

func TestConnect_SQLiteAutoMigrates(t *testing.T) {
	db, err := Connect(context.Background(), sqliteConfig())
	require.NoError(t, err)

	for _, table := range []string{"users", "posts", "comments", "likes"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Post{}, "idx_posts_slug"))
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_likes_user_comment"))

	status, err := GetSchemaStatus(context.Background(), db, sqliteConfig())
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
}

func TestConnect_SQLiteEnforcesForeignKeysAndTargetCheck(t *testing.T) {
	db, err := Connect(context.Background(), sqliteConfig())
	require.NoError(t, err)

	orphan := models.Comment{PostID: 404, UserID: 404, Content: "nobody home"}
	assert.Error(t, db.Create(&orphan).Error)

	user := models.User{Username: "ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(&user).Error)
	post := models.Post{Title: "Guide to Go", Slug: "guide-to-go", FeaturedImage: "/uploads/a.png", Content: "<p>x</p>"}
	require.NoError(t, db.Create(&post).Error)

	neither := models.Like{UserID: user.ID}
	assert.Error(t, db.Create(&neither).Error)

	comment := models.Comment{PostID: post.ID, UserID: user.ID, Content: "hi"}
	require.NoError(t, db.Create(&comment).Error)
	both := models.Like{UserID: user.ID, PostID: &post.ID, CommentID: &comment.ID}
	assert.Error(t, db.Create(&both).Error)

	// Parents cannot be removed while children still reference them.
	assert.Error(t, db.Delete(&models.Post{}, post.ID).Error)
}
