package service

import (
	"math"
	"sync"
	"time"

	"github.com/sakashimaa/storefront/internal/domain"
)

func (s *ServiceSuite) TestCreateOrder_Success() {
	s.seedProduct("p1", "Kuronami No Yaiba", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)
	_, err = s.CartService.UpdateQuantity(s.Ctx, "u1", "p1", 5)
	s.Require().NoError(err)

	order, err := s.OrderService.CreateOrder(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().NotEmpty(order.ID)
	s.Require().Equal("u1", order.UserID)
	s.Require().Equal(domain.OrderStatusConfirmed, order.Status)
	s.Require().Equal([]domain.OrderItem{
		{ProductID: "p1", Name: "Kuronami No Yaiba", Price: 10, Quantity: 5},
	}, order.Items)
	s.Require().EqualValues(50, order.TotalSum)
	s.Require().False(order.CreatedAt.IsZero())

	items, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Empty(items)

	stored, err := s.OrderService.GetOrder(s.Ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Equal(order.Items, stored.Items)
	s.Require().Equal(order.TotalSum, stored.TotalSum)

	s.Require().Equal([]string{order.ID}, s.outboxEvents(domain.EventOrderConfirmed))
}

func (s *ServiceSuite) TestCreateOrder_TotalMatchesItems() {
	s.seedProduct("a", "Vinyl", 999, 100)
	s.seedProduct("b", "Poster", 1, 100)
	s.seedProduct("c", "Sticker", 0, 100)
	s.seedProduct("d", "Hoodie", 5350, 100)

	for id, q := range map[string]int64{"a": 3, "b": 17, "c": 4, "d": 1} {
		_, err := s.CartService.AddItem(s.Ctx, "u1", id, q)
		s.Require().NoError(err)
	}

	total, err := s.CartService.GetTotal(s.Ctx, "u1")
	s.Require().NoError(err)

	order, err := s.OrderService.CreateOrder(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(order.Items, 4)
	sum, err := domain.SumItems(order.Items)
	s.Require().NoError(err)
	s.Require().Equal(sum, order.TotalSum)
	s.Require().Equal(total, order.TotalSum)

	for i, id := range []string{"a", "b", "c", "d"} {
		s.Require().Equal(id, order.Items[i].ProductID)
	}
}

func (s *ServiceSuite) TestCreateOrder_EmptyCartIsConflict() {
	order, err := s.OrderService.CreateOrder(s.Ctx, "u1")
	s.Require().Nil(order)
	s.Require().ErrorIs(err, ErrEmptyCart)
	s.Require().ErrorIs(err, domain.ErrConflict)

	orders, err := s.OrderService.GetAllOrders(s.Ctx)
	s.Require().NoError(err)
	s.Require().Empty(orders)
}

func (s *ServiceSuite) TestCreateOrder_DeletedProductLeavesCartUntouched() {
	s.seedProduct("p1", "Vinyl", 10, 100)
	s.seedProduct("p2", "Poster", 3, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)
	_, err = s.CartService.AddItem(s.Ctx, "u1", "p2", 1)
	s.Require().NoError(err)

	before, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)

	s.Require().NoError(s.ProductService.Delete(s.Ctx, "p2"))

	order, err := s.OrderService.CreateOrder(s.Ctx, "u1")
	s.Require().Nil(order)
	s.Require().ErrorIs(err, ErrProductUnavailable)
	s.Require().ErrorIs(err, domain.ErrNotFound)

	after, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Equal(before, after)

	orders, err := s.OrderService.GetAllOrders(s.Ctx)
	s.Require().NoError(err)
	s.Require().Empty(orders)
	s.Require().Empty(s.outboxEvents(domain.EventOrderConfirmed))
}

func (s *ServiceSuite) TestCreateOrder_InsufficientStock() {
	s.seedProduct("p1", "Vinyl", 10, 1)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)

	_, err = s.OrderService.CreateOrder(s.Ctx, "u1")
	s.Require().ErrorIs(err, ErrInsufficientStock)
	s.Require().ErrorIs(err, domain.ErrConflict)

	items, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(items, 1)
}

func (s *ServiceSuite) TestCreateOrder_TotalOverflowWritesNothing() {
	s.seedProduct("p1", "Vinyl", 2, math.MaxInt64)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", math.MaxInt64/2+1)
	s.Require().NoError(err)

	order, err := s.OrderService.CreateOrder(s.Ctx, "u1")
	s.Require().Nil(order)
	s.Require().ErrorIs(err, domain.ErrAmountOverflow)
	s.Require().ErrorIs(err, domain.ErrValidation)

	items, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(items, 1)

	orders, err := s.OrderService.GetAllOrders(s.Ctx)
	s.Require().NoError(err)
	s.Require().Empty(orders)
	s.Require().Empty(s.outboxEvents(domain.EventOrderConfirmed))
}

func (s *ServiceSuite) TestCreateOrder_FailedCommitWritesNothing() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)

	s.Store.failCommit.Store(true)

	order, err := s.OrderService.CreateOrder(s.Ctx, "u1")
	s.Require().Nil(order)
	s.Require().ErrorIs(err, domain.ErrStoreUnavailable)

	s.Store.failCommit.Store(false)

	items, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(items, 1)

	orders, err := s.OrderService.GetAllOrders(s.Ctx)
	s.Require().NoError(err)
	s.Require().Empty(orders)
	s.Require().Empty(s.outboxEvents(domain.EventOrderConfirmed))
}

func (s *ServiceSuite) TestCreateOrder_SnapshotIgnoresLaterCatalogChanges() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 1)
	s.Require().NoError(err)

	order, err := s.OrderService.CreateOrder(s.Ctx, "u1")
	s.Require().NoError(err)

	s.seedProduct("p1", "Vinyl (repress)", 25, 100)
	s.Require().NoError(s.ProductService.Delete(s.Ctx, "p1"))

	stored, err := s.OrderService.GetOrder(s.Ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Equal("Vinyl", stored.Items[0].Name)
	s.Require().EqualValues(10, stored.Items[0].Price)
	s.Require().EqualValues(10, stored.TotalSum)
}

func (s *ServiceSuite) TestCreateOrder_ConcurrentConfirmationsYieldOneOrder() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 3)
	s.Require().NoError(err)

	const callers = 8

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		orders []*domain.Order
		errs   []error
	)

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			order, err := s.OrderService.CreateOrder(s.Ctx, "u1")

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			orders = append(orders, order)
		}()
	}
	wg.Wait()

	s.Require().Len(orders, 1)
	s.Require().Len(errs, callers-1)
	for _, err := range errs {
		s.Require().ErrorIs(err, ErrEmptyCart)
	}

	all, err := s.OrderService.GetAllOrders(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Require().Zero(s.Locks.size())
}

func (s *ServiceSuite) TestGetOrder_NotFound() {
	_, err := s.OrderService.GetOrder(s.Ctx, "missing")
	s.Require().ErrorIs(err, domain.ErrNotFound)

	_, err = s.OrderService.GetOrder(s.Ctx, "")
	s.Require().ErrorIs(err, domain.ErrValidation)
}

func (s *ServiceSuite) TestGetAllOrders_OldestFirst() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string

	for i, user := range []string{"u1", "u2", "u1"} {
		_, err := s.CartService.AddItem(s.Ctx, user, "p1", 1)
		s.Require().NoError(err)

		s.setClock(base.Add(time.Duration(i) * time.Minute))

		order, err := s.OrderService.CreateOrder(s.Ctx, user)
		s.Require().NoError(err)
		ids = append(ids, order.ID)
	}

	all, err := s.OrderService.GetAllOrders(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	for i := range all {
		s.Require().Equal(ids[i], all[i].ID)
	}

	mine, err := s.OrderService.ListUserOrders(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Require().Equal(ids[0], mine[0].ID)
	s.Require().Equal(ids[2], mine[1].ID)

	none, err := s.OrderService.ListUserOrders(s.Ctx, "u3")
	s.Require().NoError(err)
	s.Require().NotNil(none)
	s.Require().Empty(none)
}
