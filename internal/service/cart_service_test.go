package service

import (
	"math"

	"github.com/sakashimaa/storefront/internal/domain"
	"go.uber.org/zap"
)

func (s *ServiceSuite) TestCart_AddThenUpdateTotals() {
	s.seedProduct("p1", "Kuronami No Yaiba", 10, 100)

	items, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().EqualValues(2, items[0].Quantity)
	s.Require().NotEmpty(items[0].ID)

	total, err := s.CartService.GetTotal(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().EqualValues(20, total)

	items, err = s.CartService.UpdateQuantity(s.Ctx, "u1", "p1", 5)
	s.Require().NoError(err)
	s.Require().EqualValues(5, items[0].Quantity)

	total, err = s.CartService.GetTotal(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().EqualValues(50, total)
}

func (s *ServiceSuite) TestCart_AddMergesByDefault() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)

	items, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 3)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().EqualValues(5, items[0].Quantity)
}

func (s *ServiceSuite) TestCart_MergeOverflowIsRejected() {
	s.seedProduct("p1", "Vinyl", 1, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", math.MaxInt64)
	s.Require().NoError(err)

	_, err = s.CartService.AddItem(s.Ctx, "u1", "p1", 1)
	s.Require().ErrorIs(err, ErrInvalidQuantity)

	items, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().EqualValues(int64(math.MaxInt64), items[0].Quantity)
}

func (s *ServiceSuite) TestCart_TotalOverflowIsValidationError() {
	s.seedProduct("p1", "Vinyl", 2, 100)
	s.seedProduct("p2", "Poster", 1, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", math.MaxInt64/2+1)
	s.Require().NoError(err)

	_, err = s.CartService.GetTotal(s.Ctx, "u1")
	s.Require().ErrorIs(err, domain.ErrAmountOverflow)

	_, err = s.CartService.UpdateQuantity(s.Ctx, "u1", "p1", math.MaxInt64/2)
	s.Require().NoError(err)
	_, err = s.CartService.AddItem(s.Ctx, "u1", "p2", 2)
	s.Require().NoError(err)

	_, err = s.CartService.GetTotal(s.Ctx, "u1")
	s.Require().ErrorIs(err, domain.ErrAmountOverflow)
}

func (s *ServiceSuite) TestCart_AddReplacePolicy() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	replacing := NewCartService(s.CartRepo, s.ProductService, s.Locks, zap.NewNop(), CartOptions{Policy: ReplaceQuantity})

	_, err := replacing.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)

	items, err := replacing.AddItem(s.Ctx, "u1", "p1", 3)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().EqualValues(3, items[0].Quantity)
}

func (s *ServiceSuite) TestCart_AddKeepsLineIdentity() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	first, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 1)
	s.Require().NoError(err)

	second, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 1)
	s.Require().NoError(err)
	s.Require().Equal(first[0].ID, second[0].ID)
	s.Require().Equal(first[0].AddedAt, second[0].AddedAt)
}

func (s *ServiceSuite) TestCart_AddRejectsBadInput() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 0)
	s.Require().ErrorIs(err, ErrInvalidQuantity)

	_, err = s.CartService.AddItem(s.Ctx, "u1", "p1", -4)
	s.Require().ErrorIs(err, domain.ErrValidation)

	_, err = s.CartService.AddItem(s.Ctx, "", "p1", 1)
	s.Require().ErrorIs(err, ErrInvalidID)

	_, err = s.CartService.AddItem(s.Ctx, "u1", "a/b", 1)
	s.Require().ErrorIs(err, domain.ErrValidation)

	_, err = s.CartService.AddItem(s.Ctx, "u1", "missing", 1)
	s.Require().ErrorIs(err, domain.ErrNotFound)

	items, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Empty(items)
}

func (s *ServiceSuite) TestCart_UpdateToZeroRemovesLine() {
	s.seedProduct("p1", "Vinyl", 10, 100)
	s.seedProduct("p2", "Poster", 3, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)
	_, err = s.CartService.AddItem(s.Ctx, "u1", "p2", 1)
	s.Require().NoError(err)

	items, err := s.CartService.UpdateQuantity(s.Ctx, "u1", "p1", 0)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().Equal("p2", items[0].ProductID)

	items, err = s.CartService.UpdateQuantity(s.Ctx, "u1", "p2", -1)
	s.Require().NoError(err)
	s.Require().Empty(items)
}

func (s *ServiceSuite) TestCart_UpdateAbsentLineIsNotFound() {
	_, err := s.CartService.UpdateQuantity(s.Ctx, "u1", "p1", 3)
	s.Require().ErrorIs(err, domain.ErrNotFound)

	_, err = s.CartService.UpdateQuantity(s.Ctx, "u1", "p1", 0)
	s.Require().ErrorIs(err, domain.ErrNotFound)
}

func (s *ServiceSuite) TestCart_RemoveNeverAddedIsNoop() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 2)
	s.Require().NoError(err)

	s.Require().NoError(s.CartService.RemoveItem(s.Ctx, "u1", "never-added"))
	s.Require().NoError(s.CartService.RemoveItem(s.Ctx, "u2", "p1"))

	items, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().EqualValues(2, items[0].Quantity)

	s.Require().NoError(s.CartService.RemoveItem(s.Ctx, "u1", "p1"))
	s.Require().NoError(s.CartService.RemoveItem(s.Ctx, "u1", "p1"))

	items, err = s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Empty(items)
}

func (s *ServiceSuite) TestCart_ItemsSortedByProduct() {
	for _, id := range []string{"c", "a", "b"} {
		s.seedProduct(id, "item "+id, 1, 10)
		_, err := s.CartService.AddItem(s.Ctx, "u1", id, 1)
		s.Require().NoError(err)
	}

	items, err := s.CartService.GetItems(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	s.Require().Equal("a", items[0].ProductID)
	s.Require().Equal("b", items[1].ProductID)
	s.Require().Equal("c", items[2].ProductID)
}

func (s *ServiceSuite) TestCart_TotalTracksEveryMutation() {
	s.seedProduct("p1", "Vinyl", 10, 100)
	s.seedProduct("p2", "Poster", 250, 100)
	s.seedProduct("p3", "Sticker", 0, 100)

	type step struct {
		op        string
		productID string
		quantity  int64
	}
	steps := []step{
		{"add", "p1", 2},
		{"add", "p2", 1},
		{"add", "p3", 7},
		{"add", "p1", 3},
		{"update", "p2", 4},
		{"remove", "p3", 0},
		{"update", "p1", 0},
		{"add", "p1", 1},
		{"remove", "p9", 0},
	}

	prices := map[string]int64{"p1": 10, "p2": 250, "p3": 0}

	for _, st := range steps {
		var err error
		switch st.op {
		case "add":
			_, err = s.CartService.AddItem(s.Ctx, "u1", st.productID, st.quantity)
		case "update":
			_, err = s.CartService.UpdateQuantity(s.Ctx, "u1", st.productID, st.quantity)
		case "remove":
			err = s.CartService.RemoveItem(s.Ctx, "u1", st.productID)
		}
		s.Require().NoError(err, "%s %s", st.op, st.productID)

		items, err := s.CartService.GetItems(s.Ctx, "u1")
		s.Require().NoError(err)

		var want int64
		for _, item := range items {
			want += prices[item.ProductID] * item.Quantity
		}

		total, err := s.CartService.GetTotal(s.Ctx, "u1")
		s.Require().NoError(err)
		s.Require().Equal(want, total, "after %s %s", st.op, st.productID)
	}
}

func (s *ServiceSuite) TestCart_TotalUsesCurrentPrice() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 3)
	s.Require().NoError(err)

	s.seedProduct("p1", "Vinyl", 12, 100)

	total, err := s.CartService.GetTotal(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().EqualValues(36, total)
}

func (s *ServiceSuite) TestCart_TotalOfEmptyCartIsZero() {
	total, err := s.CartService.GetTotal(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.Require().Zero(total)
}

func (s *ServiceSuite) TestCart_TotalWithDeletedProduct() {
	s.seedProduct("p1", "Vinyl", 10, 100)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 3)
	s.Require().NoError(err)
	s.Require().NoError(s.ProductService.Delete(s.Ctx, "p1"))

	_, err = s.CartService.GetTotal(s.Ctx, "u1")
	s.Require().ErrorIs(err, ErrProductUnavailable)
	s.Require().ErrorIs(err, domain.ErrNotFound)
}

func (s *ServiceSuite) TestCart_StoreFailureIsUnavailable() {
	s.seedProduct("p1", "Vinyl", 10, 100)
	s.Store.failCommit.Store(true)

	_, err := s.CartService.AddItem(s.Ctx, "u1", "p1", 1)
	s.Require().ErrorIs(err, domain.ErrStoreUnavailable)
}

func (s *ServiceSuite) TestParseAddPolicy() {
	p, err := ParseAddPolicy("")
	s.Require().NoError(err)
	s.Require().Equal(MergeQuantities, p)

	p, err = ParseAddPolicy("replace")
	s.Require().NoError(err)
	s.Require().Equal(ReplaceQuantity, p)

	_, err = ParseAddPolicy("sum")
	s.Require().ErrorIs(err, ErrInvalidAddPolicy)
}
