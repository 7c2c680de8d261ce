package metadata

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

type Widget struct {
	ID int
}

type WIDGET struct {
	ID int
}

func TestRegistry_Entity(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(TestProduct{}, &TestCategory{}))

	tests := []struct {
		name   string
		lookup string
		want   string
	}{
		{"entity name", "TestProduct", "TestProduct"},
		{"entity set name", "TestCategories", "TestCategory"},
		{"case-folded entity name", "testproduct", "TestProduct"},
		{"case-folded set name", "TESTCATEGORIES", "TestCategory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := r.Entity(tt.lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, meta.EntityName)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := r.Entity("Nope")
		var resErr *queryerrors.ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.Equal(t, "Nope", resErr.Name)
	})

	assert.Equal(t, []string{"TestCategory", "TestProduct"}, r.Names())
}

func TestRegistry_Ambiguous(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Widget{}, WIDGET{}))

	meta, err := r.Entity("WIDGET")
	require.NoError(t, err)
	assert.Equal(t, "WIDGET", meta.EntityName)

	_, err = r.Entity("widget")
	var resErr *queryerrors.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Contains(t, resErr.Error(), "ambiguous")
}

func TestRegistry_Duplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(TestProduct{}))
	assert.Error(t, r.Register(&TestProduct{}))
	assert.Error(t, r.Register(TestProductNoKey{}))
}

func TestRegistry_EntityFor(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(TestProduct{}))

	for _, v := range []interface{}{TestProduct{}, &TestProduct{}, []TestProduct{}, &[]*TestProduct{}} {
		meta, err := r.EntityFor(v)
		require.NoError(t, err)
		assert.Equal(t, "TestProduct", meta.EntityName)
	}

	_, err := r.EntityFor(TestCategory{})
	assert.Error(t, err)
}

func TestCache_FirstWriterWins(t *testing.T) {
	cache := NewCache()

	var wg sync.WaitGroup
	results := make([]*EntityMetadata, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			meta, err := cache.Analyze("db1", &TestProduct{}, nil)
			if err == nil {
				results[i] = meta
			}
		}(i)
	}
	wg.Wait()

	for _, meta := range results {
		require.NotNil(t, meta)
		assert.Same(t, results[0], meta)
	}
	assert.Equal(t, 1, cache.Len())

	other, err := cache.Analyze("db2", TestProduct{}, nil)
	require.NoError(t, err)
	assert.NotSame(t, results[0], other)
	assert.Equal(t, 2, cache.Len())

	cache.Clear("db1")
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Analyze("db1", TestProductNoKey{}, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_KeyedByNamer(t *testing.T) {
	cache := NewCache()

	plain, err := cache.Analyze("db1", TestProduct{}, nil)
	require.NoError(t, err)
	same, err := cache.Analyze("db1", TestProduct{}, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.Same(t, plain, same)

	prefixed, err := cache.Analyze("db1", TestProduct{}, schema.NamingStrategy{TablePrefix: "app_"})
	require.NoError(t, err)
	assert.NotSame(t, plain, prefixed)
	assert.Equal(t, "app_"+plain.Table, prefixed.Table)
	assert.Equal(t, 2, cache.Len())
}

func TestRegistry_WithCache(t *testing.T) {
	cache := NewCache()
	r1 := NewRegistry(WithCache(cache, "tenant"))
	r2 := NewRegistry(WithCache(cache, "tenant"))
	require.NoError(t, r1.Register(TestProduct{}))
	require.NoError(t, r2.Register(TestProduct{}))

	m1, err := r1.Entity("TestProduct")
	require.NoError(t, err)
	m2, err := r2.Entity("TestProduct")
	require.NoError(t, err)
	assert.Same(t, m1, m2)
}

const testSchema = `
entities:
  - name: Customer
    key: Number
    properties:
      - {name: Number, type: Edm.Int32}
      - {name: Name, type: Edm.String, column: full_name}
      - name: Extra
        dynamic:
          Tier: Edm.String
          Address.Zip: Edm.Int32
    associations:
      - {name: Orders, target: Order, collection: true}
  - name: Order
    set: PurchaseOrders
    table: orders_tbl
    properties:
      - {name: ID, type: Edm.Int64}
      - {name: Total, type: Edm.Decimal}
      - {name: CustomerID, type: Edm.Int32}
    associations:
      - {name: Customer, target: Customer}
`

func TestLoadSchema(t *testing.T) {
	entities, err := LoadSchema(strings.NewReader(testSchema), nil)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	customer, order := entities[0], entities[1]
	assert.Equal(t, "Customers", customer.EntitySetName)
	assert.Equal(t, "customers", customer.Table)
	assert.Equal(t, "Number", customer.KeyName())
	assert.Equal(t, "full_name", customer.Property("Name").Column)
	assert.Equal(t, literal.Int, customer.Property("Number").Type)
	assert.Nil(t, customer.EntityType)

	extra := customer.Property("Extra")
	require.NotNil(t, extra)
	zip, ok := extra.DynamicMember("Address.Zip")
	require.True(t, ok)
	assert.Equal(t, literal.Int, zip.Type)

	orders := customer.Property("Orders")
	require.NotNil(t, orders)
	assert.True(t, orders.NavigationIsArray)
	assert.Equal(t, "CustomerID", orders.ForeignKey)

	assert.Equal(t, "PurchaseOrders", order.EntitySetName)
	assert.Equal(t, "orders_tbl", order.Table)
	assert.Equal(t, "ID", order.KeyName())
	assert.Equal(t, "CustomerID", order.Property("Customer").ForeignKey)

	r := NewRegistry()
	require.NoError(t, r.Add(entities...))
	meta, err := r.Entity("purchaseorders")
	require.NoError(t, err)
	assert.Same(t, order, meta)
}

func TestLoadSchema_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown field":      "entities:\n  - name: A\n    colour: red\n",
		"unknown type":       "entities:\n  - name: A\n    properties:\n      - {name: ID, type: Edm.Nope}\n",
		"missing key":        "entities:\n  - name: A\n    properties:\n      - {name: Code, type: Edm.String}\n",
		"missing name":       "entities:\n  - properties: []\n",
		"association target": "entities:\n  - name: A\n    properties:\n      - {name: ID, type: Edm.Int32}\n    associations:\n      - {name: B}\n",
		"bad dynamic type":   "entities:\n  - name: A\n    properties:\n      - {name: ID, type: Edm.Int32}\n      - {name: X, dynamic: {Y: Edm.Nope}}\n",
		"not yaml":           "entities: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSchema(strings.NewReader(src), nil)
			assert.Error(t, err)
		})
	}
}
