package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"community-match-service/internal/metrics"
	"community-match-service/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReportLimits bounds the free-text fields of a report.
type ReportLimits struct {
	ReasonMaxLength  int
	DetailsMaxLength int
}

// ModerationGuard owns blocks and reports. IsBlocked is consulted before
// every like, match and message write.
type ModerationGuard struct {
	db       *gorm.DB
	profiles ProfileDirectory
	validate *validator.Validate
	limits   ReportLimits
	log      logrus.FieldLogger
}

func NewModerationGuard(db *gorm.DB, profiles ProfileDirectory, limits ReportLimits, log logrus.FieldLogger) *ModerationGuard {
	return &ModerationGuard{
		db:       db,
		profiles: profiles,
		validate: validator.New(),
		limits:   limits,
		log:      log,
	}
}

// Block records that blocker suppresses blocked. Blocking twice is not an
// error; created reports whether this call added the row. Existing likes,
// matches and messages are left untouched.
func (g *ModerationGuard) Block(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	if blockerID == blockedID {
		return false, models.NewValidationError("Cannot block yourself")
	}
	if _, err := g.profiles.Get(ctx, blockedID); err != nil {
		return false, err
	}

	block := models.BlockedUser{BlockerID: blockerID, BlockedID: blockedID}
	created, err := insertOrIgnore(ctx, g.db, &block, "blocker_id", "blocked_id")
	if err != nil {
		return false, storeError("insert block", err)
	}
	if created {
		metrics.ModerationActions.WithLabelValues("block").Inc()
		g.log.WithFields(logrus.Fields{"blocker_id": blockerID, "blocked_id": blockedID}).Info("profile blocked")
	}
	return created, nil
}

// Unblock removes the directed block if present.
func (g *ModerationGuard) Unblock(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	res := g.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockedUser{})
	if res.Error != nil {
		return false, storeError("delete block", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.ModerationActions.WithLabelValues("unblock").Inc()
	}
	return res.RowsAffected > 0, nil
}

// IsBlocked reports whether either profile blocks the other.
func (g *ModerationGuard) IsBlocked(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, storeError("check block", err)
	}
	return count > 0, nil
}

// ensureNotBlocked turns an active block into a Forbidden error.
func (g *ModerationGuard) ensureNotBlocked(ctx context.Context, a, b uint, action string) error {
	blocked, err := g.IsBlocked(ctx, a, b)
	if err != nil {
		return err
	}
	if blocked {
		return models.NewForbiddenError(fmt.Sprintf("Cannot %s: a block is active between these profiles", action))
	}
	return nil
}

// ListBlocks returns the blocks created by blockerID, newest first.
func (g *ModerationGuard) ListBlocks(ctx context.Context, blockerID uint) ([]models.BlockedUser, error) {
	blocks := []models.BlockedUser{}
	err := g.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Order("created_at DESC, id DESC").
		Find(&blocks).Error
	if err != nil {
		return nil, storeError("list blocks", err)
	}
	return blocks, nil
}

// Report appends an audit record. It never changes what either profile may do.
func (g *ModerationGuard) Report(ctx context.Context, reporterID, targetID uint, reason, details string) (*models.Report, error) {
	if reporterID == targetID {
		return nil, models.NewValidationError("Cannot report yourself")
	}

	reason = strings.TrimSpace(reason)
	details = strings.TrimSpace(details)
	if err := g.validate.Var(reason, fmt.Sprintf("required,max=%d", g.limits.ReasonMaxLength)); err != nil {
		return nil, lengthError("report reason", g.limits.ReasonMaxLength, err)
	}
	if err := g.validate.Var(details, fmt.Sprintf("max=%d", g.limits.DetailsMaxLength)); err != nil {
		return nil, lengthError("report details", g.limits.DetailsMaxLength, err)
	}

	if _, err := g.profiles.Get(ctx, targetID); err != nil {
		return nil, err
	}

	report := models.Report{ReporterID: reporterID, TargetID: targetID, Reason: reason}
	if details != "" {
		report.Details = &details
	}
	if err := g.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, storeError("insert report", err)
	}

	metrics.ModerationActions.WithLabelValues("report").Inc()
	g.log.WithFields(logrus.Fields{
		"reporter_id": reporterID,
		"target_id":   targetID,
		"reason":      reason,
	}).Info("profile reported")
	return &report, nil
}

// lengthError maps a validator failure on a text field to a Validation error.
func lengthError(field string, max int, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return models.NewValidationError(fmt.Sprintf("%s is required", field))
		case "max":
			return models.NewValidationError(fmt.Sprintf("%s exceeds %d characters", field, max))
		}
	}
	return models.NewValidationError(fmt.Sprintf("invalid %s", field))
}
