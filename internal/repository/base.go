// Package repository implements the data access layer for posts, comments,
// likes and the users that author them.
package repository

import (
	"strings"

	"gorm.io/gorm"
)

const likeEscape = "!"

// escapeLike makes s safe to embed in a LIKE pattern using likeEscape.
func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

// containsPattern builds a case-folded substring pattern for LIKE.
func containsPattern(term string) string {
	return "%" + escapeLike(strings.ToLower(term)) + "%"
}

// tagMatch returns a predicate, taking one LIKE pattern, that holds when
// any single element of the JSON tags column matches. Elements are
// matched individually so the array's own punctuation never does.
func tagMatch(db *gorm.DB, column string) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(CASE WHEN jsonb_typeof(" + column + ") = 'array' THEN " + column +
			" ELSE '[]'::jsonb END) AS t(tag) WHERE LOWER(t.tag) LIKE ? ESCAPE '" + likeEscape + "')"
	case "mysql":
		return "EXISTS (SELECT 1 FROM JSON_TABLE(" + column + ", '$[*]' COLUMNS (tag VARCHAR(255) PATH '$')) AS jt" +
			" WHERE LOWER(jt.tag) LIKE ? ESCAPE '" + likeEscape + "')"
	default:
		return "EXISTS (SELECT 1 FROM json_each(CAST(" + column + " AS TEXT)) WHERE json_each.type = 'text'" +
			" AND LOWER(json_each.value) LIKE ? ESCAPE '" + likeEscape + "')"
	}
}

// withPostAggregates selects posts plus the derived likes_count,
// comments_count and the viewer's is_liked flag. viewerID 0 is anonymous.
func withPostAggregates(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS is_liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS is_liked")
}

// withCommentAggregates is withPostAggregates for comments.
func withCommentAggregates(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "comments.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.comment_id = comments.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.comment_id = comments.id AND likes.user_id = ?) AS is_liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS is_liked")
}

// publicUser limits a preloaded author to the fields engagement reads expose.
func publicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "avatar")
}
