package repositories

import (
	"github.com/linkupapp/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like-edge operations
type LikeRepository interface {
	Create(like *models.Like) error
	Delete(postID string, userID uint) error
	HasUserLikedPost(postID string, userID uint) (bool, error)
	GetLikers(postID string, page, limit int) ([]models.Profile, int64, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// Create inserts a like edge. The (post_id, user_id) unique index rejects a
// duplicate with gorm.ErrDuplicatedKey, which the caller reports as a
// conflict.
func (r *PostgresLikeRepository) Create(like *models.Like) error {
	return r.db.Create(like).Error
}

// Delete removes the like edge; gorm.ErrRecordNotFound when it never existed.
func (r *PostgresLikeRepository) Delete(postID string, userID uint) error {
	res := r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PostgresLikeRepository) HasUserLikedPost(postID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikers returns the profiles that liked a post, newest like first.
func (r *PostgresLikeRepository) GetLikers(postID string, page, limit int) ([]models.Profile, int64, error) {
	var profiles []models.Profile
	var total int64

	if err := r.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.
		Joins("JOIN likes ON likes.user_id = profiles.id").
		Where("likes.post_id = ?", postID).
		Order("likes.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&profiles).Error
	return profiles, total, err
}
