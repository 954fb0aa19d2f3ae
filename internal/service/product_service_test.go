package service

import (
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/internal/repository"
)

func (s *ServiceSuite) TestProduct_RoundTrip() {
	product := &domain.Product{
		Name:          "A Great Chaos Vinyl",
		Description:   "Best album vinyl",
		Price:         9999,
		StockQuantity: 5,
	}

	created, err := s.ProductService.Save(s.Ctx, product)
	s.Require().NoError(err)
	s.Require().NotEmpty(created.ID)
	s.Require().Empty(product.ID)

	found, err := s.ProductService.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(product.Name, found.Name)
	s.Require().Equal(product.Description, found.Description)
	s.Require().Equal(product.Price, found.Price)
	s.Require().Equal(product.StockQuantity, found.StockQuantity)

	productJP := &domain.Product{
		ID:            "kuronami-jp",
		Name:          "黒波・混沌 Edition",
		Description:   "真のサムライのための武器。⛩️",
		Price:         15000,
		StockQuantity: 1,
	}

	_, err = s.ProductService.Save(s.Ctx, productJP)
	s.Require().NoError(err)

	found, err = s.ProductService.FindByID(s.Ctx, "kuronami-jp")
	s.Require().NoError(err)
	s.Require().Equal(productJP.Name, found.Name)
	s.Require().Equal(productJP.Price, found.Price)

	s.Require().ElementsMatch([]string{created.ID, "kuronami-jp"}, s.outboxEvents(domain.EventProductCreated))
}

func (s *ServiceSuite) TestProduct_SaveExistingKeepsCreatedAt() {
	first := s.seedProduct("p1", "Vinyl", 10, 1)
	second := s.seedProduct("p1", "Vinyl", 12, 3)

	s.Require().Equal(first.CreatedAt, second.CreatedAt)
	s.Require().Equal([]string{"p1"}, s.outboxEvents(domain.EventProductUpdated))
}

func (s *ServiceSuite) TestProduct_SaveValidates() {
	cases := []*domain.Product{
		{Name: "   ", Price: 1},
		{Name: "x", Price: -1},
		{Name: "x", StockQuantity: -1},
		{ID: "a/b", Name: "x"},
	}

	for _, p := range cases {
		_, err := s.ProductService.Save(s.Ctx, p)
		s.Require().ErrorIs(err, domain.ErrValidation, "%+v", p)
	}

	list, err := s.ProductService.List(s.Ctx)
	s.Require().NoError(err)
	s.Require().Empty(list)
}

func (s *ServiceSuite) TestProduct_ListSortedByName() {
	s.seedProduct("1", "Poster", 1, 1)
	s.seedProduct("2", "Hoodie", 1, 1)
	s.seedProduct("3", "Vinyl", 1, 1)

	list, err := s.ProductService.List(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Require().Equal("Hoodie", list[0].Name)
	s.Require().Equal("Poster", list[1].Name)
	s.Require().Equal("Vinyl", list[2].Name)
}

func (s *ServiceSuite) TestProduct_Delete() {
	s.seedProduct("p1", "Vinyl", 10, 1)

	s.Require().NoError(s.ProductService.Delete(s.Ctx, "p1"))

	_, err := s.ProductService.FindByID(s.Ctx, "p1")
	s.Require().ErrorIs(err, repository.ErrProductNotFound)

	err = s.ProductService.Delete(s.Ctx, "p1")
	s.Require().ErrorIs(err, domain.ErrNotFound)

	s.Require().Equal([]string{"p1"}, s.outboxEvents(domain.EventProductDeleted))
}
