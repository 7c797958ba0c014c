package service

import (
	"context"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

const dashboardRecent = 5

// DashboardService builds the admin summary.
type DashboardService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	cache    *cache.Cache
}

// NewDashboardService wires the dashboard.
func NewDashboardService(users repository.UserRepository, posts repository.PostRepository, comments repository.CommentRepository, c *cache.Cache) *DashboardService {
	return &DashboardService{users: users, posts: posts, comments: comments, cache: c}
}

// Summary returns entity totals and the five newest users, comments and
// posts. The result is cached briefly.
func (s *DashboardService) Summary(ctx context.Context) (*models.Dashboard, error) {
	span, ctx := observability.NewSpan(ctx, "dashboard.summary")
	defer span.End()

	var d models.Dashboard
	err := s.cache.Aside(ctx, cache.DashboardKey, &d, cache.DashboardTTL, func() error {
		var err error
		if d.TotalUsers, err = s.users.Count(ctx); err != nil {
			return err
		}
		if d.TotalComments, err = s.comments.Count(ctx); err != nil {
			return err
		}
		if d.TotalPosts, err = s.posts.Count(ctx); err != nil {
			return err
		}
		if d.RecentUsers, err = s.users.Recent(ctx, dashboardRecent); err != nil {
			return err
		}
		if d.RecentComments, err = s.comments.Recent(ctx, dashboardRecent); err != nil {
			return err
		}
		if d.RecentPosts, err = s.posts.Recent(ctx, dashboardRecent); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if d.RecentUsers == nil {
		d.RecentUsers = []models.UserSummary{}
	}
	if d.RecentComments == nil {
		d.RecentComments = []models.CommentSummary{}
	}
	if d.RecentPosts == nil {
		d.RecentPosts = []models.PostSummary{}
	}
	return &d, nil
}
