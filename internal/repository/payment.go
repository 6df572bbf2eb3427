package repository

import (
	"context"
	"shop-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByReference(ctx context.Context, reference string) (*model.Payment, error)
	HasSuccessful(ctx context.Context, orderID uint) (bool, error)
	MarkSuccessful(ctx context.Context, tx *gorm.DB, reference, method string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, reference string) (bool, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByReference(ctx context.Context, reference string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) HasSuccessful(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ?", orderID).
		Where("status = ?", model.PaymentStatusSuccessful).
		Count(&count).Error

	return count > 0, err
}

// MarkSuccessful flips a pending payment to successful unless its order already has a
// successful payment. Only one caller can observe true for a given order; replays, losing
// racers and duplicate charges get false.
func (r *paymentRepoImpl) MarkSuccessful(ctx context.Context, tx *gorm.DB, reference, method string, paidAt time.Time) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("reference = ? AND status IN ?", reference, model.PaymentStatusesBefore(model.PaymentStatusSuccessful)).
		Where("NOT EXISTS (SELECT 1 FROM payments p WHERE p.order_id = payments.order_id AND p.status = ?)", model.PaymentStatusSuccessful).
		Updates(map[string]interface{}{
			"status":         model.PaymentStatusSuccessful,
			"payment_method": method,
			"paid_at":        paidAt,
			"updated_at":     time.Now(),
		})

	return result.RowsAffected > 0, result.Error
}

func (r *paymentRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, reference string) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("reference = ? AND status IN ?", reference, model.PaymentStatusesBefore(model.PaymentStatusFailed)).
		Updates(map[string]interface{}{
			"status":     model.PaymentStatusFailed,
			"updated_at": time.Now(),
		})

	return result.RowsAffected > 0, result.Error
}
