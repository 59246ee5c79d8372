package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/logger"
	"grindsheet/internal/models"
	"grindsheet/internal/pagination"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, email, action, ipAddress string, details map[string]any) {
	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log details", "error", err, "action", action)
			detailsJSON = "{}"
		} else {
			detailsJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		Email:     email,
		Action:    action,
		IPAddress: ipAddress,
		Details:   detailsJSON,
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"email", email,
			"action", action,
		)
	}
}

// List returns the user's audit events, newest first.
func (s *auditService) List(ctx context.Context, email string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()
	db := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("email = ?", email)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := db.Order("created_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPageResponse(entries, page, total), nil
}
