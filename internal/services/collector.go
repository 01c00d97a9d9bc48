package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/events"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/metrics"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CollectionResult is returned by every ledger Collect.
type CollectionResult struct {
	Receipt  *models.CollectionReceipt `json:"receipt"`
	Replayed bool                      `json:"replayed"`
	Ledger   interface{}               `json:"ledger"`
}

// ledgerWrite is what a ledger reports back from inside the transaction.
type ledgerWrite struct {
	reference  string
	amount     decimal.Decimal
	adjustment decimal.Decimal
	before     interface{}
	after      interface{}
}

type collection struct {
	category       string
	scope          string
	idempotencyKey string
	studentID      uuid.UUID
	year           int
	collectedBy    string
	collectionDate time.Time
	// reference names the ledger entry written, such as the month.
	reference   string
	fingerprint string
	// write runs inside the transaction with the voucher number it consumes.
	write func(ctx context.Context, tx repository.Repository, voucherNo int64) (ledgerWrite, error)
}

// Collector runs the voucher-plus-ledger transaction shared by all fee categories.
type Collector struct {
	repo   repository.Repository
	broker *events.Broker
	audit  *AuditService
	log    *zap.Logger
}

func NewCollector(repo repository.Repository, broker *events.Broker, audit *AuditService, log *zap.Logger) *Collector {
	return &Collector{repo: repo, broker: broker, audit: audit, log: log}
}

func (c *Collector) run(ctx context.Context, actor Actor, op collection) (*models.CollectionReceipt, bool, error) {
	if op.idempotencyKey != "" {
		receipt, err := c.replay(ctx, op)
		if receipt != nil || err != nil {
			return receipt, receipt != nil, err
		}
	}

	var receipt *models.CollectionReceipt
	var written ledgerWrite
	err := c.repo.WithTx(ctx, func(tx repository.Repository) error {
		voucherNo, err := tx.NextVoucher(ctx, op.scope)
		if err != nil {
			return fmt.Errorf("next voucher %s: %w", op.scope, err)
		}
		written, err = op.write(ctx, tx, voucherNo)
		if err != nil {
			return err
		}

		receipt = &models.CollectionReceipt{
			Category:       op.category,
			Scope:          op.scope,
			VoucherNo:      voucherNo,
			StudentID:      op.studentID,
			Year:           op.year,
			Reference:      written.reference,
			RequestDigest:  op.digest(),
			Amount:         written.amount,
			Adjustment:     written.adjustment,
			CollectedBy:    op.collectedBy,
			CollectionDate: op.collectionDate,
		}
		if op.idempotencyKey != "" {
			key := op.idempotencyKey
			receipt.IdempotencyKey = &key
		}
		return tx.CreateReceipt(ctx, receipt)
	})

	if err != nil {
		// A concurrent request with the same key committed first.
		if op.idempotencyKey != "" && errors.Is(err, repository.ErrDuplicateKey) {
			if replayed, rerr := c.replay(ctx, op); replayed != nil || rerr != nil {
				return replayed, replayed != nil, rerr
			}
		}
		return nil, false, c.fail(op, err)
	}

	c.committed(ctx, actor, op, receipt, written)
	return receipt, false, nil
}

// replay returns the receipt of an earlier collection with the same key, or
// nil when the key is new.
func (c *Collector) replay(ctx context.Context, op collection) (*models.CollectionReceipt, error) {
	receipt, err := c.repo.FindReceiptByKey(ctx, op.idempotencyKey)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, c.fail(op, err)
	}
	if !op.matches(receipt) {
		metrics.FeeCollectionFailures.WithLabelValues(op.category, "conflict").Inc()
		c.log.Warn("idempotency key reused for a different collection",
			zap.String("category", op.category),
			zap.String("idempotency_key", op.idempotencyKey),
			zap.String("reference", op.reference),
			zap.String("receipt_reference", receipt.Reference))
		return nil, ErrIdempotencyConflict
	}
	metrics.IdempotentReplays.WithLabelValues(op.category).Inc()
	c.log.Info("fee collection replayed",
		zap.String("category", op.category),
		zap.String("idempotency_key", op.idempotencyKey),
		zap.Int64("voucher_no", receipt.VoucherNo))
	return receipt, nil
}

func (op collection) digest() string {
	sum := sha256.Sum256([]byte(op.category + "|" + op.studentID.String() + "|" +
		op.scope + "|" + op.reference + "|" + op.fingerprint))
	return hex.EncodeToString(sum[:])
}

// matches reports whether receipt was issued for the same request as op.
// Receipts stored without a digest are compared by reference only.
func (op collection) matches(receipt *models.CollectionReceipt) bool {
	if receipt.Category != op.category || receipt.StudentID != op.studentID || receipt.Scope != op.scope {
		return false
	}
	if receipt.Reference != op.reference {
		return false
	}
	return receipt.RequestDigest == "" || receipt.RequestDigest == op.digest()
}

func (c *Collector) fail(op collection, err error) error {
	reason := "backend"
	switch {
	case errors.Is(err, fees.ErrValidation):
		reason = "validation"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		reason = "timeout"
	}
	metrics.FeeCollectionFailures.WithLabelValues(op.category, reason).Inc()

	if reason == "validation" {
		return err
	}
	c.log.Error("fee collection failed",
		zap.String("category", op.category),
		zap.String("scope", op.scope),
		zap.String("student_id", op.studentID.String()),
		zap.Error(err))
	return fmt.Errorf("%w: %w", ErrCollectionFailed, err)
}

func (c *Collector) committed(ctx context.Context, actor Actor, op collection, receipt *models.CollectionReceipt, written ledgerWrite) {
	metrics.FeeCollections.WithLabelValues(op.category).Inc()
	if written.amount.IsPositive() {
		metrics.FeeAmountCollected.WithLabelValues(op.category).Add(written.amount.InexactFloat64())
	}

	c.broker.Publish(events.Change{
		StudentID: op.studentID,
		Year:      op.year,
		Category:  op.category,
		VoucherNo: receipt.VoucherNo,
	})
	c.audit.Log(ctx, actor, "collect", op.category+"_fee", written.reference, written.before, written.after)

	c.log.Info("fee collected",
		zap.String("category", op.category),
		zap.String("scope", op.scope),
		zap.Int64("voucher_no", receipt.VoucherNo),
		zap.String("student_id", op.studentID.String()),
		zap.String("amount", written.amount.String()),
		zap.String("collected_by", op.collectedBy))
}
