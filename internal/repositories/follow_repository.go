package repositories

import (
	"time"

	"github.com/linkupapp/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow-edge operations. Edge
// mutations that touch the denormalized profile counters run inside a single
// transaction so readers never observe an edge without its counter effect.
type FollowRepository interface {
	Get(followerID, followingID uint) (*models.Follow, error)
	CreatePending(followerID, followingID uint) error
	CreateAccepted(followerID, followingID uint) error
	Reopen(edge *models.Follow) error
	Accept(followerID, followingID uint) (*models.Follow, error)
	Reject(followerID, followingID uint) (*models.Follow, error)
	DeleteAccepted(followerID, followingID uint) error
	IsAccepted(followerID, followingID uint) (bool, error)
	GetFollowers(userID uint, page, limit int) ([]models.Profile, int64, error)
	GetFollowing(userID uint, page, limit int) ([]models.Profile, int64, error)
	GetPendingRequests(userID uint, page, limit int) ([]models.Follow, int64, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// Get returns the edge for the ordered pair, or gorm.ErrRecordNotFound.
func (r *PostgresFollowRepository) Get(followerID, followingID uint) (*models.Follow, error) {
	var edge models.Follow
	err := r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).First(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// CreatePending inserts a pending edge. A concurrent duplicate surfaces as
// gorm.ErrDuplicatedKey via the compound unique index.
func (r *PostgresFollowRepository) CreatePending(followerID, followingID uint) error {
	edge := models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      models.FollowStatusPending,
		RequestedAt: time.Now(),
	}
	return r.db.Create(&edge).Error
}

// CreateAccepted inserts an immediately-accepted edge (public target) and
// applies both counter increments in the same transaction.
func (r *PostgresFollowRepository) CreateAccepted(followerID, followingID uint) error {
	now := time.Now()
	edge := models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      models.FollowStatusAccepted,
		RequestedAt: now,
		RespondedAt: &now,
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
		return applyCounterDelta(tx, followerID, followingID, 1)
	})
}

// Reopen transitions a rejected edge back to pending and refreshes the
// request timestamp.
func (r *PostgresFollowRepository) Reopen(edge *models.Follow) error {
	edge.Status = models.FollowStatusPending
	edge.RequestedAt = time.Now()
	edge.RespondedAt = nil
	return r.db.Save(edge).Error
}

// Accept transitions a pending edge to accepted and increments both profiles'
// counters. Returns gorm.ErrRecordNotFound when no pending edge exists.
func (r *PostgresFollowRepository) Accept(followerID, followingID uint) (*models.Follow, error) {
	var edge models.Follow
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("follower_id = ? AND following_id = ? AND status = ?",
			followerID, followingID, models.FollowStatusPending).First(&edge).Error; err != nil {
			return err
		}
		now := time.Now()
		edge.Status = models.FollowStatusAccepted
		edge.RespondedAt = &now
		if err := tx.Save(&edge).Error; err != nil {
			return err
		}
		return applyCounterDelta(tx, followerID, followingID, 1)
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// Reject transitions a pending edge to rejected. No counter change.
func (r *PostgresFollowRepository) Reject(followerID, followingID uint) (*models.Follow, error) {
	var edge models.Follow
	if err := r.db.Where("follower_id = ? AND following_id = ? AND status = ?",
		followerID, followingID, models.FollowStatusPending).First(&edge).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	edge.Status = models.FollowStatusRejected
	edge.RespondedAt = &now
	if err := r.db.Save(&edge).Error; err != nil {
		return nil, err
	}
	return &edge, nil
}

// DeleteAccepted hard-deletes an accepted edge and decrements both counters.
// Returns gorm.ErrRecordNotFound when the caller is not following the target.
func (r *PostgresFollowRepository) DeleteAccepted(followerID, followingID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ? AND status = ?",
			followerID, followingID, models.FollowStatusAccepted).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return applyCounterDelta(tx, followerID, followingID, -1)
	})
}

func (r *PostgresFollowRepository) IsAccepted(followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ? AND status = ?",
			followerID, followingID, models.FollowStatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFollowers returns the profiles with an accepted edge into userID.
func (r *PostgresFollowRepository) GetFollowers(userID uint, page, limit int) ([]models.Profile, int64, error) {
	sub := r.db.Model(&models.Follow{}).Select("follower_id").
		Where("following_id = ? AND status = ?", userID, models.FollowStatusAccepted)
	return r.pageProfiles(sub, page, limit)
}

// GetFollowing returns the profiles userID has an accepted edge toward.
func (r *PostgresFollowRepository) GetFollowing(userID uint, page, limit int) ([]models.Profile, int64, error) {
	sub := r.db.Model(&models.Follow{}).Select("following_id").
		Where("follower_id = ? AND status = ?", userID, models.FollowStatusAccepted)
	return r.pageProfiles(sub, page, limit)
}

// GetPendingRequests lists incoming pending edges, newest request first.
func (r *PostgresFollowRepository) GetPendingRequests(userID uint, page, limit int) ([]models.Follow, int64, error) {
	var edges []models.Follow
	var total int64

	q := r.db.Model(&models.Follow{}).
		Where("following_id = ? AND status = ?", userID, models.FollowStatusPending)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("requested_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&edges).Error
	return edges, total, err
}

func (r *PostgresFollowRepository) pageProfiles(sub *gorm.DB, page, limit int) ([]models.Profile, int64, error) {
	var profiles []models.Profile
	var total int64

	if err := r.db.Model(&models.Profile{}).Where("id IN (?)", sub).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Where("id IN (?)", sub).
		Order("id").
		Offset((page - 1) * limit).Limit(limit).
		Find(&profiles).Error
	return profiles, total, err
}

// applyCounterDelta adjusts the denormalized counters on both ends of an
// accepted edge: the follower's following_count and the target's
// followers_count.
func applyCounterDelta(tx *gorm.DB, followerID, followingID uint, delta int) error {
	if err := tx.Model(&models.Profile{}).Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&models.Profile{}).Where("id = ?", followingID).
		UpdateColumn("followers_count", gorm.Expr("followers_count + ?", delta)).Error
}
