package repository

import (
	"context"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
)

type VoteRepository interface {
	// Upsert records the user's vote, replacing any earlier one.
	Upsert(ctx context.Context, vote *model.HelpfulVote) error
	// ReviewIDsByVoter lists reviews by other authors that the user has voted on.
	ReviewIDsByVoter(ctx context.Context, userID string) ([]string, error)
}

type voteRepository struct {
	db db.Querier
}

func NewVoteRepository(db db.Querier) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Upsert(ctx context.Context, vote *model.HelpfulVote) error {
	query := `
		INSERT INTO review_helpful_votes (review_id, user_id, is_helpful, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (review_id, user_id) DO UPDATE SET is_helpful = EXCLUDED.is_helpful
	`
	_, err := r.db.ExecContext(ctx, query, vote.ReviewID, vote.UserID, vote.IsHelpful, vote.CreatedAt)
	if isForeignKeyViolation(err) {
		return ErrReviewNotFound
	}
	return err
}

func (r *voteRepository) ReviewIDsByVoter(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT v.review_id FROM review_helpful_votes v
		JOIN reviews r ON r.id = v.review_id
		WHERE v.user_id = $1 AND r.user_id <> $1
		ORDER BY v.review_id
	`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, err
	}
	return ids, nil
}
