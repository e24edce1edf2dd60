package tests

import (
	"time"

	"github.com/sakashimaa/flash-sale/internal/order/domain"
	"github.com/sakashimaa/flash-sale/pkg/events"
)

func (s *IntegrationTestSuite) TestOrderCreated_PersistsPendingOrder() {
	orderID := events.NewOrderID()
	s.handleCreated(orderID)

	order, err := s.OrderService.GetOrder(s.Ctx, orderID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusPending, order.Status)
	s.Require().Equal(int64(1), order.Quantity)

	s.Require().Equal(1, s.countOutbox(orderID, events.TypeOrderSaved))

	publishedAtQuery := `
		SELECT published_at
		FROM outbox
		WHERE aggregate_id = $1 AND event_type = $2
	`

	s.Require().Eventually(func() bool {
		var publishedAt *time.Time

		err := s.DbPool.QueryRow(s.Ctx, publishedAtQuery, orderID, events.TypeOrderSaved).
			Scan(&publishedAt)

		return err == nil && publishedAt != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestOrderCreated_DuplicateDeliveryIsNoop() {
	orderID := events.NewOrderID()
	s.handleCreated(orderID)
	s.handleCreated(orderID)

	var count int
	err := s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM orders WHERE id = $1`, orderID).Scan(&count)
	s.Require().NoError(err)
	s.Require().Equal(1, count)

	s.Require().Equal(1, s.countOutbox(orderID, events.TypeOrderSaved))
}

func (s *IntegrationTestSuite) TestInventoryReserved_ConfirmsOrder() {
	orderID := events.NewOrderID()
	s.handleCreated(orderID)

	err := s.OrderService.HandleInventoryReserved(s.Ctx, &events.InventoryReservedData{
		OrderID:        orderID,
		ProductID:      testProductID,
		Quantity:       1,
		RemainingStock: 99,
	})
	s.Require().NoError(err)

	order, err := s.OrderService.GetOrder(s.Ctx, orderID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusConfirmed, order.Status)
	s.Require().Nil(order.Reason)

	s.Require().Equal(1, s.countOutbox(orderID, events.TypeOrderConfirmed))
}

func (s *IntegrationTestSuite) TestInventoryInsufficient_CancelsOrder() {
	orderID := events.NewOrderID()
	s.handleCreated(orderID)

	err := s.OrderService.HandleInventoryInsufficient(s.Ctx, &events.InventoryInsufficientData{
		OrderID:        orderID,
		ProductID:      testProductID,
		Quantity:       1,
		AvailableStock: 0,
		Reason:         "OUT_OF_STOCK",
	})
	s.Require().NoError(err)

	order, err := s.OrderService.GetOrder(s.Ctx, orderID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusCancelled, order.Status)
	s.Require().NotNil(order.Reason)
	s.Require().Equal("Out of stock", *order.Reason)

	s.Require().Equal(1, s.countOutbox(orderID, events.TypeOrderCancelled))
}

func (s *IntegrationTestSuite) TestDuplicateDecision_EmitsSingleConfirmation() {
	orderID := events.NewOrderID()
	s.handleCreated(orderID)

	decision := &events.InventoryReservedData{
		OrderID:        orderID,
		ProductID:      testProductID,
		Quantity:       1,
		RemainingStock: 99,
	}

	s.Require().NoError(s.OrderService.HandleInventoryReserved(s.Ctx, decision))
	s.Require().NoError(s.OrderService.HandleInventoryReserved(s.Ctx, decision))

	order, err := s.OrderService.GetOrder(s.Ctx, orderID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusConfirmed, order.Status)

	s.Require().Equal(1, s.countOutbox(orderID, events.TypeOrderConfirmed))
}

func (s *IntegrationTestSuite) TestConflictingDecision_FirstOneWins() {
	orderID := events.NewOrderID()
	s.handleCreated(orderID)

	err := s.OrderService.HandleInventoryReserved(s.Ctx, &events.InventoryReservedData{
		OrderID:        orderID,
		ProductID:      testProductID,
		Quantity:       1,
		RemainingStock: 99,
	})
	s.Require().NoError(err)

	err = s.OrderService.HandleInventoryInsufficient(s.Ctx, &events.InventoryInsufficientData{
		OrderID:        orderID,
		ProductID:      testProductID,
		Quantity:       1,
		AvailableStock: 0,
		Reason:         "OUT_OF_STOCK",
	})
	s.Require().NoError(err)

	order, err := s.OrderService.GetOrder(s.Ctx, orderID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusConfirmed, order.Status)

	s.Require().Equal(0, s.countOutbox(orderID, events.TypeOrderCancelled))
}

func (s *IntegrationTestSuite) TestDecisionForUnknownOrder_Fails() {
	err := s.OrderService.HandleInventoryReserved(s.Ctx, &events.InventoryReservedData{
		OrderID:        "order_missing",
		ProductID:      testProductID,
		Quantity:       1,
		RemainingStock: 99,
	})
	s.Require().Error(err)
}
