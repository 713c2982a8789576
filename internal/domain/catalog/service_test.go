package catalog

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Category{}, &SubCategory{}, &Product{}))
	return db
}

type fixture struct {
	categories *CategoryService
	products   *Service
	wood       *Category
	oak        *SubCategory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{}
	f := &fixture{
		categories: NewCategoryService(db, cfg),
		products:   NewService(db, cfg),
	}
	ctx := context.Background()

	var err error
	f.wood, err = f.categories.CreateCategory(ctx, &CategoryCreateRequest{Name: "Wooden Flooring"})
	require.NoError(t, err)
	f.oak, err = f.categories.CreateSubCategory(ctx, &SubCategoryCreateRequest{CategoryID: f.wood.ID, Name: "Engineered Oak"})
	require.NoError(t, err)
	return f
}

func (f *fixture) product(t *testing.T, sku, name string, price int64, active bool) *Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), &ProductCreateRequest{
		SubCategoryID: f.oak.ID,
		SKU:           sku,
		Name:          name,
		Price:         price,
		Stock:         40,
		IsActive:      &active,
	})
	require.NoError(t, err)
	return p
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "teak-wood-12mm-matte", Slugify("Teak Wood – 12mm (Matte)"))
	assert.Equal(t, "vinyl", Slugify("  Vinyl!! "))
	assert.Equal(t, "", Slugify("***"))
}

func TestCategoryService_CreateRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "wooden-flooring", f.wood.Slug)
	assert.True(t, f.wood.IsActive)

	_, err := f.categories.CreateCategory(context.Background(), &CategoryCreateRequest{Name: "wooden  flooring"})
	assert.True(t, apperror.IsValidation(err))
}

func TestCategoryService_DeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.categories.DeleteCategory(ctx, f.wood.ID)
	assert.True(t, apperror.IsValidation(err), "category still has subcategories")

	f.product(t, "OAK-01", "Natural Oak", 3200, true)
	err = f.categories.DeleteSubCategory(ctx, f.oak.ID)
	assert.True(t, apperror.IsValidation(err), "subcategory still has products")

	err = f.categories.DeleteCategory(ctx, 999)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCategoryService_InactiveHiddenFromPublicListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := false
	_, err := f.categories.CreateCategory(ctx, &CategoryCreateRequest{Name: "Carpets", IsActive: &inactive})
	require.NoError(t, err)

	public, err := f.categories.GetCategories(ctx, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Wooden Flooring", public[0].Name)
	require.Len(t, public[0].SubCategories, 1)

	all, err := f.categories.GetCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_CreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "OAK-01", "Natural Oak", 3200, true)

	_, err := f.products.CreateProduct(ctx, &ProductCreateRequest{SubCategoryID: f.oak.ID, SKU: "OAK-01", Name: "Dup", Price: 10})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.products.CreateProduct(ctx, &ProductCreateRequest{SubCategoryID: 999, SKU: "X-1", Name: "Orphan", Price: 10})
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_LookupPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.product(t, "OAK-01", "Natural Oak", 3200, true)
	hidden := f.product(t, "OAK-02", "Smoked Oak", 4100, false)

	name, price, err := f.products.LookupPrice(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "Natural Oak", name)
	assert.Equal(t, int64(3200), price)

	_, _, err = f.products.LookupPrice(ctx, hidden.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, _, err = f.products.LookupPrice(ctx, 12345)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_GetProductsFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "OAK-01", "Natural Oak", 3200, true)
	f.product(t, "OAK-02", "Smoked Oak", 4100, true)
	f.product(t, "OAK-03", "White Oak", 5200, true)
	f.product(t, "OAK-04", "Retired Oak", 900, false)

	res, err := f.products.GetProducts(ctx, &ProductListRequest{Page: 1, Limit: 2, CategoryID: f.wood.ID, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Pagination.Total)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	assert.True(t, res.Pagination.HasNext)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "Natural Oak", res.Products[0].Name)

	res, err = f.products.GetProducts(ctx, &ProductListRequest{Page: 1, Limit: 10, Search: "smoked"})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, int64(4100), res.Products[0].Price)

	res, err = f.products.GetProducts(ctx, &ProductListRequest{Page: 1, Limit: 10, IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Pagination.Total)
}

func TestService_UpdateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "OAK-01", "Natural Oak", 3200, true)

	price := int64(3500)
	name := "Natural Oak Plus"
	updated, err := f.products.UpdateProduct(ctx, p.ID, &ProductUpdateRequest{Price: &price, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(3500), updated.Price)
	assert.Equal(t, "natural-oak-plus-oak-01", updated.Slug)

	zero := int64(0)
	_, err = f.products.UpdateProduct(ctx, p.ID, &ProductUpdateRequest{Price: &zero})
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, f.products.DeleteProduct(ctx, p.ID))
	_, err = f.products.GetProduct(ctx, p.ID, true)
	assert.True(t, apperror.IsNotFound(err))
}
