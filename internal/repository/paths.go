package repository

import "github.com/sakashimaa/storefront/pkg/docstore"

const (
	cartsCollection    = "carts"
	cartItemsName      = "items"
	productsCollection = "products"
	ordersCollection   = "orders"
)

func cartItemsPath(userID string) string {
	return docstore.Join(cartsCollection, userID, cartItemsName)
}

func cartItemPath(userID, productID string) string {
	return docstore.Join(cartItemsPath(userID), productID)
}

func productPath(id string) string {
	return docstore.Join(productsCollection, id)
}

func orderPath(id string) string {
	return docstore.Join(ordersCollection, id)
}
