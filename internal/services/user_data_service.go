package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/models"
)

// userDataService keeps one document per user.
type userDataService struct {
	db *gorm.DB
}

// NewUserDataService creates a new UserDataServicer.
func NewUserDataService(db *gorm.DB) UserDataServicer {
	return &userDataService{db: db}
}

// Get returns the user's document, creating an empty one on first access.
func (s *userDataService) Get(ctx context.Context, email string) (*models.Document, error) {
	db := s.db.WithContext(ctx)

	var row models.UserData
	err := db.Where("email = ?", email).First(&row).Error
	if isNotFound(err) {
		empty := models.UserData{Email: email, Document: models.EmptyDocument()}
		// A concurrent first fetch may have inserted already; either row is empty.
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&empty).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		err = db.Where("email = ?", email).First(&row).Error
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	doc := row.Document.WithDefaults()
	return &doc, nil
}

// Put replaces the user's whole document in a single upsert.
func (s *userDataService) Put(ctx context.Context, email string, doc models.Document) error {
	row := models.UserData{Email: email, Document: doc.WithDefaults()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
