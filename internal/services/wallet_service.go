package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/models"
	"github.com/chidiebere-dev/homefolio/internal/payment"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/metrics"
)

// DepositResult reports the outcome of a deposit verification. A duplicate
// reference is not an error; AlreadyProcessed tells the caller the credit
// happened on an earlier delivery.
type DepositResult struct {
	Transaction      *models.WalletTransaction
	Balance          float64
	AlreadyProcessed bool
}

// AdjustInput is a manual wallet adjustment performed by an admin.
type AdjustInput struct {
	UserID      string
	Direction   string
	Amount      float64
	Description string
	Reference   string
}

// WalletService manages user balances and the transaction ledger.
type WalletService struct {
	db       *gorm.DB
	verifier payment.Verifier
}

// NewWalletService constructs a wallet service. The verifier confirms
// externally reported payments before any credit is applied.
func NewWalletService(db *gorm.DB, verifier payment.Verifier) (*WalletService, error) {
	if db == nil {
		return nil, errors.New("wallet service: db is required")
	}
	if verifier == nil {
		return nil, errors.New("wallet service: payment verifier is required")
	}
	return &WalletService{db: db, verifier: verifier}, nil
}

// VerifyDeposit confirms a payment with the provider and credits the wallet
// exactly once per external reference. Redelivered callbacks for an already
// credited reference return the original ledger entry without touching the
// balance.
func (s *WalletService) VerifyDeposit(ctx context.Context, userID, transactionID string) (*DepositResult, []Effect, error) {
	userID = strings.TrimSpace(userID)
	transactionID = strings.TrimSpace(transactionID)
	if userID == "" || transactionID == "" {
		return nil, nil, apperrors.NewBadRequest("user id and transaction id are required")
	}

	verified, err := s.verifier.VerifyTransaction(ctx, transactionID)
	if err != nil {
		metrics.WalletDeposits.WithLabelValues("rejected").Inc()
		if errors.Is(err, payment.ErrVerificationFailed) {
			return nil, nil, apperrors.NewBadRequest("payment could not be verified")
		}
		return nil, nil, fmt.Errorf("wallet service: verify payment: %w", err)
	}
	if verified.Amount <= 0 {
		metrics.WalletDeposits.WithLabelValues("rejected").Inc()
		return nil, nil, apperrors.NewBadRequest("payment amount must be positive")
	}

	reference := verified.Reference
	if reference == "" {
		reference = verified.TransactionID
	}

	// Fast path: the reference was already credited. A reference recorded
	// against another account is a collision, not a redelivery.
	if existing, err := s.findByReference(ctx, reference); err != nil {
		return nil, nil, err
	} else if existing != nil {
		if existing.UserID != userID {
			metrics.WalletDeposits.WithLabelValues("rejected").Inc()
			return nil, nil, apperrors.NewConflict("payment reference belongs to another account")
		}
		balance, err := s.Balance(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		metrics.WalletDeposits.WithLabelValues("duplicate").Inc()
		return &DepositResult{Transaction: existing, Balance: balance, AlreadyProcessed: true}, nil, nil
	}

	var (
		entry   models.WalletTransaction
		balance float64
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("wallet service: load user: %w", err)
		}

		entry = models.WalletTransaction{
			UserID:      user.ID,
			Direction:   models.TransactionCredit,
			Amount:      verified.Amount,
			Status:      models.TransactionSuccessful,
			Description: fmt.Sprintf("Wallet funding (%s)", verified.Currency),
			Reference:   reference,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if err := tx.Model(&user).
			Update("wallet_balance", gorm.Expr("wallet_balance + ?", verified.Amount)).Error; err != nil {
			return fmt.Errorf("wallet service: apply credit: %w", err)
		}

		return tx.Model(&models.User{}).
			Select("wallet_balance").
			Where("id = ?", user.ID).
			Scan(&balance).Error
	})
	if err != nil {
		// Two deliveries can race past the fast path; the unique reference
		// index picks the winner and the loser reads the committed entry.
		if isUniqueConstraintError(err) {
			existing, lookupErr := s.findByReference(ctx, reference)
			if lookupErr != nil {
				return nil, nil, lookupErr
			}
			if existing != nil {
				if existing.UserID != userID {
					metrics.WalletDeposits.WithLabelValues("rejected").Inc()
					return nil, nil, apperrors.NewConflict("payment reference belongs to another account")
				}
				balance, balErr := s.Balance(ctx, userID)
				if balErr != nil {
					return nil, nil, balErr
				}
				metrics.WalletDeposits.WithLabelValues("duplicate").Inc()
				return &DepositResult{Transaction: existing, Balance: balance, AlreadyProcessed: true}, nil, nil
			}
		}
		return nil, nil, err
	}

	metrics.WalletDeposits.WithLabelValues("credited").Inc()

	effects := []Effect{
		NotifyEffect{
			UserID:   &entry.UserID,
			Category: models.NotificationWallet,
			Title:    "Wallet funded",
			Message:  fmt.Sprintf("Your wallet was credited with %.2f %s", verified.Amount, verified.Currency),
			Metadata: map[string]any{"reference": reference, "amount": verified.Amount},
		},
		NotifyEffect{
			Category: models.NotificationWallet,
			Title:    "Wallet deposit",
			Message:  fmt.Sprintf("A deposit of %.2f %s was credited (ref %s)", verified.Amount, verified.Currency, reference),
			Metadata: map[string]any{"user_id": entry.UserID, "reference": reference},
		},
	}

	return &DepositResult{Transaction: &entry, Balance: balance}, effects, nil
}

// Adjust applies a manual credit or debit from an admin. Debits cannot take
// the balance below zero.
func (s *WalletService) Adjust(ctx context.Context, input AdjustInput) (*DepositResult, []Effect, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	input.Reference = strings.TrimSpace(input.Reference)
	if input.UserID == "" {
		return nil, nil, apperrors.NewBadRequest("user id is required")
	}
	if input.Amount <= 0 {
		return nil, nil, apperrors.NewBadRequest("amount must be positive")
	}
	if input.Direction != models.TransactionCredit && input.Direction != models.TransactionDebit {
		return nil, nil, apperrors.NewBadRequest("direction must be credit or debit")
	}
	if input.Reference == "" {
		return nil, nil, apperrors.NewBadRequest("reference is required")
	}

	var (
		entry   models.WalletTransaction
		balance float64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", input.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("wallet service: load user: %w", err)
		}

		delta := input.Amount
		if input.Direction == models.TransactionDebit {
			if user.WalletBalance < input.Amount {
				return apperrors.NewBadRequest("insufficient balance")
			}
			delta = -input.Amount
		}

		entry = models.WalletTransaction{
			UserID:      user.ID,
			Direction:   input.Direction,
			Amount:      input.Amount,
			Status:      models.TransactionSuccessful,
			Description: input.Description,
			Reference:   input.Reference,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if err := tx.Model(&user).
			Update("wallet_balance", gorm.Expr("wallet_balance + ?", delta)).Error; err != nil {
			return fmt.Errorf("wallet service: apply adjustment: %w", err)
		}

		return tx.Model(&models.User{}).
			Select("wallet_balance").
			Where("id = ?", user.ID).
			Scan(&balance).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, nil, apperrors.NewConflict("reference already used")
		}
		return nil, nil, err
	}

	verb := "credited to"
	if input.Direction == models.TransactionDebit {
		verb = "debited from"
	}
	effects := []Effect{
		NotifyEffect{
			UserID:   &entry.UserID,
			Category: models.NotificationWallet,
			Title:    "Wallet adjustment",
			Message:  fmt.Sprintf("%.2f was %s your wallet", input.Amount, verb),
			Metadata: map[string]any{"reference": input.Reference, "direction": input.Direction},
		},
	}

	return &DepositResult{Transaction: &entry, Balance: balance}, effects, nil
}

// Balance returns the current wallet balance for a user.
func (s *WalletService) Balance(ctx context.Context, userID string) (float64, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Select("wallet_balance").
		First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("wallet service: load balance: %w", err)
	}
	return user.WalletBalance, nil
}

// ListTransactions returns a page of the user's ledger, newest first. Pass an
// empty userID to list across all users (admin view).
func (s *WalletService) ListTransactions(ctx context.Context, userID string, page, limit int) ([]models.WalletTransaction, int64, error) {
	page = normalizePage(page)
	limit = normalizeLimit(limit)

	query := s.db.WithContext(ctx).Model(&models.WalletTransaction{})
	if userID = strings.TrimSpace(userID); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("wallet service: count transactions: %w", err)
	}

	var entries []models.WalletTransaction
	if err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("wallet service: list transactions: %w", err)
	}
	if entries == nil {
		entries = []models.WalletTransaction{}
	}

	return entries, total, nil
}

func (s *WalletService) findByReference(ctx context.Context, reference string) (*models.WalletTransaction, error) {
	var entry models.WalletTransaction
	if err := s.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("wallet service: lookup reference: %w", err)
	}
	return &entry, nil
}
