package repositories

import (
	"github.com/linkupapp/backend/internal/models"
	"gorm.io/gorm"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	Create(profile *models.Profile) error
	GetByID(id uint) (*models.Profile, error)
	GetByEmail(email string) (*models.Profile, error)
	GetByMobile(mobile string) (*models.Profile, error)
	GetByEmailOrMobile(email, mobile string) (*models.Profile, error)
	Update(profile *models.Profile) error
	Delete(id uint) error
	Search(query string) ([]models.Profile, error)
	IncrementPostsCount(id uint) error
}

// PostgresProfileRepository implements ProfileRepository for PostgreSQL
type PostgresProfileRepository struct {
	db *gorm.DB
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository
func NewPostgresProfileRepository(db *gorm.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

func (r *PostgresProfileRepository) GetByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresProfileRepository) GetByEmail(email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresProfileRepository) GetByMobile(mobile string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("mobile = ?", mobile).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByEmailOrMobile finds a profile matching either identifier. Empty
// arguments are excluded from the match.
func (r *PostgresProfileRepository) GetByEmailOrMobile(email, mobile string) (*models.Profile, error) {
	var profile models.Profile
	q := r.db
	switch {
	case email != "" && mobile != "":
		q = q.Where("email = ? OR mobile = ?", email, mobile)
	case email != "":
		q = q.Where("email = ?", email)
	case mobile != "":
		q = q.Where("mobile = ?", mobile)
	default:
		return nil, gorm.ErrRecordNotFound
	}
	if err := q.First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresProfileRepository) Update(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

func (r *PostgresProfileRepository) Delete(id uint) error {
	return r.db.Delete(&models.Profile{}, id).Error
}

// Search finds profiles by name, username or email (case-insensitive).
func (r *PostgresProfileRepository) Search(query string) ([]models.Profile, error) {
	var profiles []models.Profile
	pattern := "%" + query + "%"
	err := r.db.
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)",
			pattern, pattern, pattern).
		Limit(50).
		Find(&profiles).Error
	return profiles, err
}

func (r *PostgresProfileRepository) IncrementPostsCount(id uint) error {
	return r.db.Model(&models.Profile{}).Where("id = ?", id).
		UpdateColumn("posts_count", gorm.Expr("posts_count + ?", 1)).Error
}
