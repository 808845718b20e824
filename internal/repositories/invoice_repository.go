package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"arcanum/internal/models/db_models"
)

type IInvoiceRepository interface {
	FindByProviderInvoiceID(ctx context.Context, providerInvoiceID string) (*db_models.Invoice, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Invoice, error)

	// Upsert inserts the invoice or, when a row with the same provider
	// invoice id exists, updates it only while the stored status is open.
	// Paid and void rows are immutable.
	Upsert(ctx context.Context, inv *db_models.Invoice) error
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) IInvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindByProviderInvoiceID(ctx context.Context, providerInvoiceID string) (*db_models.Invoice, error) {
	var inv db_models.Invoice
	err := r.db.WithContext(ctx).First(&inv, "provider_invoice_id = ?", providerInvoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Invoice, error) {
	var invoices []db_models.Invoice
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("period_start DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) Upsert(ctx context.Context, inv *db_models.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing db_models.Invoice
		err := tx.First(&existing, "provider_invoice_id = ?", inv.ProviderInvoiceID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(inv).Error
		}
		if err != nil {
			return err
		}
		if existing.Status != db_models.InvStatusOpen {
			// Terminal invoice: redeliveries are acknowledged silently.
			inv.ID = existing.ID
			return nil
		}
		inv.ID = existing.ID
		return tx.Model(&existing).
			Select("status", "amount_minor", "paid_at", "hosted_invoice_url", "invoice_pdf", "updated_at").
			Updates(inv).Error
	})
}
