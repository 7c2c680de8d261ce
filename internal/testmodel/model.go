// Package testmodel holds the entity types shared by the compiler's tests.
package testmodel

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlstn/go-odataql/internal/metadata"
)

// Product is the usual query root.
type Product struct {
	ID         int `odata:"key"`
	Name       string
	Int32      int32
	Active     bool
	Price      float64
	Cost       decimal.Decimal
	Released   time.Time
	Child      *Category
	ChildID    *int
	Orders     []Order
	Attributes map[string]interface{} `gorm:"serializer:json" odata:"dynamic=Color:Edm.String|Size.Width:Edm.Int32|Flags.OnSale:Edm.Boolean"`
}

// Category is a to-one association target that refers to itself.
type Category struct {
	ID       int
	Name     string
	Parent   *Category
	ParentID *int
}

// Order is reached through the Product.Orders collection.
type Order struct {
	ID         int
	Total      float64
	ProductID  int
	Customer   *Customer
	CustomerID *int
}

// Customer hangs off an order.
type Customer struct {
	ID   int
	Name string
}

// Entities lists every test entity, parents before children.
func Entities() []interface{} {
	return []interface{}{&Product{}, &Category{}, &Order{}, &Customer{}}
}

// Registry returns a registry holding every test entity.
func Registry() *metadata.Registry {
	r := metadata.NewRegistry()
	if err := r.Register(Entities()...); err != nil {
		panic(err)
	}
	return r
}

// Schema declares the same entities in YAML form.
const Schema = `entities:
  - name: Product
    properties:
      - {name: ID, type: Edm.Int64}
      - {name: Name, type: Edm.String}
      - {name: Int32, type: Edm.Int32}
      - {name: Active, type: Edm.Boolean}
      - {name: Price, type: Edm.Double}
      - {name: Cost, type: Edm.Decimal}
      - {name: Released, type: Edm.DateTime}
      - {name: ChildID, type: Edm.Int64, column: child_id}
      - name: Attributes
        dynamic:
          Color: Edm.String
          Size.Width: Edm.Int32
          Flags.OnSale: Edm.Boolean
    associations:
      - {name: Child, target: Category}
      - {name: Orders, target: Order, collection: true}
  - name: Category
    properties:
      - {name: ID, type: Edm.Int64}
      - {name: Name, type: Edm.String}
      - {name: ParentID, type: Edm.Int64}
    associations:
      - {name: Parent, target: Category}
  - name: Order
    properties:
      - {name: ID, type: Edm.Int64}
      - {name: Total, type: Edm.Double}
      - {name: ProductID, type: Edm.Int64}
      - {name: CustomerID, type: Edm.Int64}
    associations:
      - {name: Customer, target: Customer}
  - name: Customer
    properties:
      - {name: ID, type: Edm.Int64}
      - {name: Name, type: Edm.String}
`
