package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"shop-api/internal/apperr"
	"shop-api/internal/client"
	"shop-api/internal/config"
	"shop-api/internal/metrics"
	"shop-api/internal/model"
	"shop-api/internal/notifier"
	"shop-api/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	settleSourceVerify  = "verify"
	settleSourceWebhook = "webhook"
)

type PaymentService interface {
	Initialize(ctx context.Context, orderID uint, email string) (*model.Payment, *model.PaystackInitializeData, error)
	Verify(ctx context.Context, reference string) (*model.Payment, error)
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
}

type paymentServiceImpl struct {
	db               *gorm.DB
	paystackClient   client.PaystackClient
	paystackCfg      *config.Paystack
	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	webhookEventRepo repository.WebhookEventRepository
	notifier         notifier.Notifier
	metrics          *metrics.Metrics
	logger           zerolog.Logger
}

func NewPaymentService(
	db *gorm.DB,
	paystackClient client.PaystackClient,
	paystackCfg *config.Paystack,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
	notifier notifier.Notifier,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		paystackClient:   paystackClient,
		paystackCfg:      paystackCfg,
		orderRepo:        orderRepo,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
		notifier:         notifier,
		metrics:          metrics,
		logger:           logger.With().Str("component", "payment").Logger(),
	}
}

// Initialize starts a provider transaction for a pending order. No payment row is written
// unless the provider accepted the transaction.
func (s *paymentServiceImpl) Initialize(ctx context.Context, orderID uint, email string) (*model.Payment, *model.PaystackInitializeData, error) {
	if orderID == 0 {
		return nil, nil, apperr.ErrValidation.Withf("'order_id' is required")
	}
	if strings.TrimSpace(email) == "" {
		return nil, nil, apperr.ErrValidation.Withf("'email' is required")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.ErrOrderNotFound
		}
		return nil, nil, fmt.Errorf("find order: %w", err)
	}
	if order.Status != model.OrderStatusPending {
		return nil, nil, apperr.ErrOrderNotPayable.Withf("order %d is %s", order.ID, order.Status)
	}

	paid, err := s.paymentRepo.HasSuccessful(ctx, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check successful payments: %w", err)
	}
	if paid {
		return nil, nil, apperr.ErrOrderNotPayable.Withf("order %d is already paid", order.ID)
	}

	reference := uuid.NewString()
	data, err := s.paystackClient.InitializeTransaction(ctx, &client.InitializeRequest{
		Email:       email,
		Amount:      MinorUnits(order.TotalAmount),
		Currency:    s.paystackCfg.Currency,
		Reference:   reference,
		CallbackURL: s.paystackCfg.CallbackURL,
		Metadata: map[string]any{
			"order_id": order.ID,
			"user_id":  order.UserID,
		},
	})
	if err != nil {
		s.providerError("initialize", err)
		if apperr.KindOf(err) == apperr.KindProviderRejected {
			var rejected *apperr.Error
			errors.As(err, &rejected)
			return nil, nil, apperr.ErrPaymentInitFailed.
				Withf("failed to initialize payment: %s", rejected.Message).
				WithDetails(rejected.Details).
				Wrap(err)
		}
		return nil, nil, err
	}

	payment := &model.Payment{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    order.TotalAmount,
		Currency:  s.paystackCfg.Currency,
		Status:    model.PaymentStatusPending,
		Reference: reference,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("store payment in db: %w", err)
	}

	s.logger.Info().
		Uint("order_id", order.ID).
		Str("reference", reference).
		Msg("payment initialized")

	return payment, data, nil
}

// Verify asks the provider for the transaction outcome and settles the payment when it succeeded.
// It returns the payment only when it ends up successful.
func (s *paymentServiceImpl) Verify(ctx context.Context, reference string) (*model.Payment, error) {
	payment, err := s.findPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.Status == model.PaymentStatusSuccessful {
		return payment, nil
	}
	if payment.Status == model.PaymentStatusFailed {
		return nil, apperr.ErrVerificationFailed.Withf("payment %s has failed", reference)
	}

	tx, err := s.paystackClient.VerifyTransaction(ctx, reference)
	if err != nil {
		s.providerError("verify", err)
		return nil, err
	}

	switch tx.Status {
	case model.PaystackStatusSuccess:
		if err := checkAmount(payment, tx); err != nil {
			return nil, err
		}
		if _, err := s.settle(ctx, settleSourceVerify, payment, tx, nil); err != nil {
			return nil, err
		}
	case model.PaystackStatusFailed:
		if err := s.fail(ctx, payment); err != nil {
			return nil, err
		}
		return nil, apperr.ErrVerificationFailed.
			Withf("payment failed: %s", tx.GatewayResponse).
			WithDetails(map[string]string{"status": tx.Status})
	default:
		return nil, apperr.ErrVerificationFailed.
			Withf("payment not completed yet").
			WithDetails(map[string]string{"status": tx.Status})
	}

	payment, err = s.findPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentStatusSuccessful {
		return nil, apperr.ErrVerificationFailed.Withf("payment %s is %s", reference, payment.Status)
	}
	return payment, nil
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := s.paystackClient.VerifyWebhookSignature(headers, body); err != nil {
		return err
	}

	var event model.PaystackWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.ErrInvalidPayload.Withf("decode webhook payload").Wrap(err)
	}
	if event.Event == "" {
		return apperr.ErrInvalidPayload.Withf("webhook payload has no event")
	}

	switch event.Event {
	case model.PaystackEventChargeSuccess:
		return s.handleChargeSuccess(ctx, &event)
	default:
		s.logger.Debug().Str("event", event.Event).Msg("ignoring webhook event")
	}

	return nil
}

func (s *paymentServiceImpl) handleChargeSuccess(ctx context.Context, event *model.PaystackWebhookEvent) error {
	tx := &event.Data
	if tx.Reference == "" {
		return apperr.ErrInvalidPayload.Withf("webhook payload has no data.reference")
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.Event, tx.Reference)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		s.logger.Debug().Str("reference", tx.Reference).Msg("webhook event already processed")
		return nil
	}

	payment, err := s.paymentRepo.FindByReference(ctx, tx.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Str("reference", tx.Reference).Msg("webhook for unknown payment reference")
			return nil
		}
		return fmt.Errorf("find payment: %w", err)
	}

	if err := checkAmount(payment, tx); err != nil {
		s.logger.Warn().Err(err).Str("reference", tx.Reference).Msg("ignoring webhook with mismatched amount")
		return nil
	}

	_, err = s.settle(ctx, settleSourceWebhook, payment, tx, func(dbTx *gorm.DB) error {
		if err := s.webhookEventRepo.MarkProcessed(ctx, dbTx, event.Event, tx.Reference); err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		return nil
	})
	return err
}

var errNotSettled = errors.New("payment is no longer pending")

// settle marks the payment successful and the order paid in one transaction. At most one payment
// per order can settle: a capture for an order that already has a successful payment marks this
// payment failed and asks for a refund. Only the caller that flips the payment sends notifications.
func (s *paymentServiceImpl) settle(
	ctx context.Context,
	source string,
	payment *model.Payment,
	tx *model.PaystackTransaction,
	extra func(dbTx *gorm.DB) error,
) (bool, error) {
	paidAt := time.Now()
	if t, err := time.Parse(time.RFC3339, tx.PaidAt); err == nil {
		paidAt = t
	}

	var settled, duplicate, refund bool
	err := s.db.WithContext(ctx).Transaction(func(dbTx *gorm.DB) error {
		// the order row is locked first so captures for one order settle one at a time
		advanced, err := s.orderRepo.UpdateStatus(ctx, dbTx, payment.OrderID, model.OrderStatusPending, model.OrderStatusPaid)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		flipped, err := s.paymentRepo.MarkSuccessful(ctx, dbTx, payment.Reference, tx.Channel, paidAt)
		if err != nil {
			return fmt.Errorf("mark payment successful: %w", err)
		}

		switch {
		case advanced && !flipped:
			return errNotSettled
		case !advanced && flipped:
			refund = true
		case !advanced && !flipped:
			// still pending means another payment already settled the order
			failed, err := s.paymentRepo.MarkFailed(ctx, dbTx, payment.Reference)
			if err != nil {
				return fmt.Errorf("mark duplicate payment failed: %w", err)
			}
			duplicate = failed
			refund = failed
		}

		if extra != nil {
			if err := extra(dbTx); err != nil {
				return err
			}
		}

		settled = flipped
		return nil
	})
	if errors.Is(err, errNotSettled) {
		s.logger.Warn().
			Uint("order_id", payment.OrderID).
			Str("reference", payment.Reference).
			Msg("capture for a payment that is no longer pending")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if duplicate {
		s.metrics.PaymentsSettled.WithLabelValues(source, string(model.PaymentStatusFailed)).Inc()
		s.logger.Warn().
			Str("source", source).
			Uint("order_id", payment.OrderID).
			Str("reference", payment.Reference).
			Msg("duplicate capture for an order that is already paid")
	}
	if settled {
		s.metrics.PaymentsSettled.WithLabelValues(source, string(model.PaymentStatusSuccessful)).Inc()
		s.logger.Info().
			Str("source", source).
			Uint("order_id", payment.OrderID).
			Str("reference", payment.Reference).
			Msg("payment settled")
		if refund {
			s.logger.Warn().
				Uint("order_id", payment.OrderID).
				Str("reference", payment.Reference).
				Msg("payment settled for an order that is no longer pending")
		} else {
			s.notify(ctx, notifier.EventOrderPaid, payment, paidAt)
		}
	}
	if refund {
		s.notify(ctx, notifier.EventRefundRequired, payment, paidAt)
	}
	return settled, nil
}

func (s *paymentServiceImpl) fail(ctx context.Context, payment *model.Payment) error {
	flipped, err := s.paymentRepo.MarkFailed(ctx, s.db, payment.Reference)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if !flipped {
		return nil
	}

	s.metrics.PaymentsSettled.WithLabelValues(settleSourceVerify, string(model.PaymentStatusFailed)).Inc()
	s.notify(ctx, notifier.EventPaymentFailed, payment, time.Now())
	return nil
}

func (s *paymentServiceImpl) notify(ctx context.Context, eventType string, payment *model.Payment, at time.Time) {
	s.notifier.Notify(ctx, notifier.Event{
		Type:       eventType,
		OrderID:    payment.OrderID,
		UserID:     payment.UserID,
		Reference:  payment.Reference,
		Amount:     payment.Amount.StringFixed(2),
		Currency:   payment.Currency,
		OccurredAt: at,
	})
}

func (s *paymentServiceImpl) findPayment(ctx context.Context, reference string) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrPaymentNotFound.Withf("payment with reference %s not found", reference)
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return payment, nil
}

func (s *paymentServiceImpl) providerError(op string, err error) {
	code := "internal"
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	s.metrics.ProviderErrors.WithLabelValues(op, code).Inc()
	s.logger.Error().Err(err).Str("op", op).Msg("paystack call failed")
}

// MinorUnits converts an amount to the provider's smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func checkAmount(payment *model.Payment, tx *model.PaystackTransaction) error {
	expected := MinorUnits(payment.Amount)
	if tx.Amount != expected {
		return apperr.ErrProviderRejected.
			Withf("paid amount %d does not match expected %d", tx.Amount, expected).
			WithDetails(map[string]any{"expected": expected, "received": tx.Amount})
	}
	if tx.Currency != "" && payment.Currency != "" && !strings.EqualFold(tx.Currency, payment.Currency) {
		return apperr.ErrProviderRejected.
			Withf("paid currency %s does not match expected %s", tx.Currency, payment.Currency)
	}
	return nil
}
