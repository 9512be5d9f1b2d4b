package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"commerce-service/internal/entity"
	"commerce-service/migrations"
)

// getTestDB connects to MYSQL_DSN (with parseTime=true) and resets the schema.
func getTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skipf("MYSQL_DSN not set, skipping MySQL integration test")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("MySQL not available: %v", err)
	}

	for _, table := range []string{"audit_logs", "order_items", "orders", "sizes", "product_images", "products"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			t.Fatalf("drop %s: %v", table, err)
		}
	}
	if err := migrations.AutoMigrate(0, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProduct(t *testing.T, repo *ProductRepository, name string, stock int) int64 {
	t.Helper()
	id, err := repo.CreateProduct(context.Background(), entity.Product{
		Name:          name,
		Description:   name + " description",
		Price:         decimal.RequireFromString("100.00"),
		StockQuantity: stock,
		Brand:         "Acme",
		Images: []entity.ProductImage{
			{URL: "https://img/back.png"},
			{URL: "https://img/front.png", IsMain: true},
		},
		Sizes: []entity.Size{{Name: "EU", Value: []string{"40", "41"}}},
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

func TestProductRepository_CRUD(t *testing.T) {
	db := getTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	id := seedProduct(t, repo, "Sneaker", 10)

	p, err := repo.GetProduct(ctx, id)
	if err != nil || p == nil {
		t.Fatalf("get product: %v %v", p, err)
	}
	if len(p.Images) != 2 || !p.Images[0].IsMain {
		t.Errorf("expected main image first, got %+v", p.Images)
	}
	if len(p.Sizes) != 1 || len(p.Sizes[0].Value) != 2 {
		t.Errorf("unexpected sizes %+v", p.Sizes)
	}

	discount := decimal.NewFromInt(10)
	found, err := repo.UpdateProduct(ctx, id, entity.ProductPatch{DiscountPercent: &discount, Images: []entity.ProductImage{}})
	if err != nil || !found {
		t.Fatalf("update product: %v %v", found, err)
	}
	p, _ = repo.GetProduct(ctx, id)
	if !p.FinalPrice.Equal(decimal.NewFromInt(90)) {
		t.Errorf("expected final price 90, got %s", p.FinalPrice)
	}
	if len(p.Images) != 0 {
		t.Errorf("expected images replaced by empty set, got %d", len(p.Images))
	}
	if p.Name != "Sneaker" {
		t.Errorf("untouched field changed: %s", p.Name)
	}

	if found, _ := repo.UpdateProduct(ctx, id+100, entity.ProductPatch{}); found {
		t.Error("expected update of unknown product to report not found")
	}

	deleted, err := repo.DeleteProduct(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("delete product: %v %v", deleted, err)
	}
	if p, _ := repo.GetProduct(ctx, id); p != nil {
		t.Error("expected product to be gone")
	}
	sizes, _ := repo.ListSizes(ctx, id)
	if len(sizes) != 0 {
		t.Errorf("expected sizes to cascade, got %d", len(sizes))
	}
}

func TestProductRepository_SubCollections(t *testing.T) {
	db := getTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	id := seedProduct(t, repo, "Boot", 3)

	imageID, err := repo.AddImage(ctx, id, entity.ProductImage{URL: "https://img/side.png"})
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	images, _ := repo.ListImages(ctx, id)
	if len(images) != 3 {
		t.Errorf("expected 3 images, got %d", len(images))
	}
	if removed, _ := repo.RemoveImage(ctx, id, imageID); !removed {
		t.Error("expected image to be removed")
	}
	if removed, _ := repo.RemoveImage(ctx, id, imageID); removed {
		t.Error("second removal should report false")
	}

	sizeID, err := repo.AddSize(ctx, id, entity.Size{Name: "US"})
	if err != nil {
		t.Fatalf("add size: %v", err)
	}
	sizes, _ := repo.ListSizes(ctx, id)
	if len(sizes) != 2 || sizes[1].Value == nil {
		t.Errorf("unexpected sizes %+v", sizes)
	}
	if removed, _ := repo.RemoveSize(ctx, id, sizeID); !removed {
		t.Error("expected size to be removed")
	}

	if exists, _ := repo.ProductExists(ctx, id+1000); exists {
		t.Error("unknown product should not exist")
	}
}

func TestOrderRepository_TxCommitAndCascade(t *testing.T) {
	db := getTestDB(t)
	products := NewProductRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()
	productID := seedProduct(t, products, "Laptop", 5)

	var orderID int64
	err := orders.WithinTx(ctx, func(tx OrderTx) error {
		var err error
		orderID, err = tx.InsertOrder(ctx, &entity.Order{CustomerName: "Ann", CustomerEmail: "ann@x.io", CustomerPhone: "123", CreatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		p, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil || p == nil {
			t.Fatalf("lock product: %v %v", p, err)
		}
		if ok, err := tx.DecrementStock(ctx, productID, 2); err != nil || !ok {
			t.Fatalf("decrement: %v %v", ok, err)
		}
		if ok, _ := tx.DecrementStock(ctx, productID, 4); ok {
			t.Fatal("decrement beyond stock should fail")
		}
		_, err = tx.InsertOrderItem(ctx, &entity.OrderItem{OrderID: orderID, ProductID: productID, ProductName: p.Name, Quantity: 2, Price: decimal.RequireFromString("99.50")})
		return err
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	order, err := orders.GetOrder(ctx, orderID)
	if err != nil || order == nil {
		t.Fatalf("get order: %v %v", order, err)
	}
	if len(order.Items) != 1 || !order.Items[0].Price.Equal(decimal.RequireFromString("99.50")) {
		t.Errorf("unexpected items %+v", order.Items)
	}
	p, _ := products.GetProduct(ctx, productID)
	if p.StockQuantity != 3 {
		t.Errorf("expected stock 3, got %d", p.StockQuantity)
	}

	all, err := orders.ListOrders(ctx)
	if err != nil || len(all) != 1 || len(all[0].Items) != 1 {
		t.Fatalf("list orders: %+v %v", all, err)
	}

	removed, err := orders.DeleteOrder(ctx, orderID)
	if err != nil || !removed {
		t.Fatalf("delete order: %v %v", removed, err)
	}
	var items int
	db.QueryRow(`SELECT COUNT(*) FROM order_items WHERE order_id = ?`, orderID).Scan(&items)
	if items != 0 {
		t.Errorf("expected items to cascade, %d left", items)
	}
	if removed, _ := orders.DeleteOrder(ctx, orderID); removed {
		t.Error("second delete should report false")
	}
}

func TestOrderRepository_TxRollback(t *testing.T) {
	db := getTestDB(t)
	products := NewProductRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()
	productID := seedProduct(t, products, "Phone", 5)

	boom := errors.New("boom")
	err := orders.WithinTx(ctx, func(tx OrderTx) error {
		if _, err := tx.InsertOrder(ctx, &entity.Order{CustomerName: "Bo", CustomerEmail: "bo@x.io", CustomerPhone: "1", CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		if _, err := tx.DecrementStock(ctx, productID, 5); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	all, _ := orders.ListOrders(ctx)
	if len(all) != 0 {
		t.Errorf("expected no orders after rollback, got %d", len(all))
	}
	p, _ := products.GetProduct(ctx, productID)
	if p.StockQuantity != 5 {
		t.Errorf("expected stock restored to 5, got %d", p.StockQuantity)
	}
}

func TestAuditRepository_Write(t *testing.T) {
	db := getTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	msg := "product not found"
	record := entity.AuditRecord{
		EventID:      uuid.NewString(),
		Action:       "DELETE",
		AuditData:    json.RawMessage(`{"kind":"product.deleted","data":{"id":9}}`),
		Status:       "FAILED",
		ErrorMessage: &msg,
		AuditBy:      "system",
		AuditOn:      "Product",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.Write(ctx, record); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := repo.Write(ctx, record); err != nil {
		t.Fatalf("replayed write: %v", err)
	}

	records, err := repo.ListRecent(ctx, 10)
	if err != nil || len(records) != 1 {
		t.Fatalf("list: %+v %v", records, err)
	}
	got := records[0]
	if got.EventID != record.EventID || got.ErrorMessage == nil || *got.ErrorMessage != msg {
		t.Errorf("unexpected record %+v", got)
	}
}
