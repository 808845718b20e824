package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"arcanum/internal/models/db_models"
)

// ISubscriptionRepository is the single write path for subscription rows.
// Snapshot writes are keyed on the provider subscription id, which makes
// concurrent duplicate webhook deliveries converge without extra locking.
type ISubscriptionRepository interface {
	Insert(ctx context.Context, sub *db_models.Subscription) error
	FindById(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error)
	FindByProviderSubID(ctx context.Context, providerSubID string) (*db_models.Subscription, error)
	// FindActiveByAccount returns the most recently created row whose
	// status grants access, or nil. Most-recently-created wins when
	// history overlaps.
	FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*db_models.Subscription, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Subscription, error)

	// UpdateSnapshotFields persists the reconciler-owned columns of sub.
	// Cancellation reason and feedback are deliberately not in this set.
	UpdateSnapshotFields(ctx context.Context, sub *db_models.Subscription) error

	// Orchestrator-owned writes.
	UpdatePlan(ctx context.Context, id uuid.UUID, priceID string, metadata datatypes.JSON) error
	UpdateIntent(ctx context.Context, id uuid.UUID, metadata datatypes.JSON) error
	UpdateStatusAndIntent(ctx context.Context, id uuid.UUID, status db_models.SubscriptionStatus, metadata datatypes.JSON) error
	SetCancelAt(ctx context.Context, id uuid.UUID, cancelAt int64) error
	MarkCanceled(ctx context.Context, id uuid.UUID, canceledAt int64) error

	// RecordCancellationFeedback captures reason/feedback once. Subsequent
	// calls never overwrite a previous capture.
	RecordCancellationFeedback(ctx context.Context, id uuid.UUID, reason, feedback string) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) ISubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Insert(ctx context.Context, sub *db_models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) FindById(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByProviderSubID(ctx context.Context, providerSubID string) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).First(&sub, "provider_sub_id = ?", providerSubID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND status IN ?", accountID,
			[]db_models.SubscriptionStatus{db_models.SubStatusActive, db_models.SubStatusTrialing}).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Reconciler-owned columns. One full-snapshot replace per write keeps
// duplicate and reordered deliveries convergent.
var snapshotColumns = []string{
	"provider_customer_id", "provider_price_id", "status",
	"current_period_start", "current_period_end",
	"cancel_at", "canceled_at", "ended_at", "metadata", "updated_at",
}

func (r *subscriptionRepository) UpdateSnapshotFields(ctx context.Context, sub *db_models.Subscription) error {
	return r.db.WithContext(ctx).
		Model(sub).
		Select(snapshotColumns).
		Updates(sub).Error
}

func (r *subscriptionRepository) UpdatePlan(ctx context.Context, id uuid.UUID, priceID string, metadata datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"provider_price_id": priceID,
			"metadata":          metadata,
		}).Error
}

func (r *subscriptionRepository) UpdateIntent(ctx context.Context, id uuid.UUID, metadata datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Update("metadata", metadata).Error
}

func (r *subscriptionRepository) UpdateStatusAndIntent(ctx context.Context, id uuid.UUID, status db_models.SubscriptionStatus, metadata datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   status,
			"metadata": metadata,
		}).Error
}

func (r *subscriptionRepository) SetCancelAt(ctx context.Context, id uuid.UUID, cancelAt int64) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Update("cancel_at", cancelAt).Error
}

func (r *subscriptionRepository) MarkCanceled(ctx context.Context, id uuid.UUID, canceledAt int64) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      db_models.SubStatusCanceled,
			"canceled_at": canceledAt,
		}).Error
}

func (r *subscriptionRepository) RecordCancellationFeedback(ctx context.Context, id uuid.UUID, reason, feedback string) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cancellation_reason":   gorm.Expr("COALESCE(cancellation_reason, ?)", reason),
			"cancellation_feedback": gorm.Expr("COALESCE(cancellation_feedback, ?)", feedback),
		}).Error
}
