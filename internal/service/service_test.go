package service_test

import (
	"context"
	"shop-api/internal/client"
	"shop-api/internal/metrics"
	"shop-api/internal/model"
	"shop-api/internal/notifier"
	"shop-api/internal/repository"
	"shop-api/internal/service"
	"shop-api/internal/testutil"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event notifier.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) Count(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, e := range n.events {
		if e.Type == eventType {
			count++
		}
	}
	return count
}

type serviceSuite struct {
	suite.Suite

	ctx      context.Context
	db       *gorm.DB
	paystack *testutil.FakePaystack
	notifier *recordingNotifier

	tee   *model.Product
	jeans *model.Product

	cart    service.CartService
	order   service.OrderService
	payment service.PaymentService
}

func (s *serviceSuite) SetupTest() {
	t := s.T()
	s.ctx = context.Background()
	s.db = testutil.NewDB(t)
	s.paystack = testutil.NewFakePaystack(t)
	s.notifier = &recordingNotifier{}

	s.tee = testutil.CreateProduct(t, s.db, "Classic Tee", "10.00")
	s.jeans = testutil.CreateProduct(t, s.db, "Slim Jeans", "60.00")

	productRepo := repository.NewProductRepository(s.db)
	cartRepo := repository.NewCartRepository(s.db)
	orderRepo := repository.NewOrderRepository(s.db)
	paymentRepo := repository.NewPaymentRepository(s.db)
	webhookEventRepo := repository.NewWebhookEventRepository(s.db)
	m := metrics.New()

	cfg := s.paystack.Config()
	s.cart = service.NewCartService(s.db, cartRepo, productRepo)
	s.order = service.NewOrderService(s.db, orderRepo, productRepo, cartRepo, s.notifier, m)
	s.payment = service.NewPaymentService(
		s.db,
		client.NewPaystackClient(cfg),
		cfg,
		orderRepo,
		paymentRepo,
		webhookEventRepo,
		s.notifier,
		m,
		zerolog.Nop(),
	)
}

func (s *serviceSuite) count(table any, query string, args ...any) int64 {
	var n int64
	s.Require().NoError(s.db.Model(table).Where(query, args...).Count(&n).Error)
	return n
}

func qty(n int) *int {
	return &n
}

func TestServices(t *testing.T) {
	suite.Run(t, new(serviceSuite))
}
