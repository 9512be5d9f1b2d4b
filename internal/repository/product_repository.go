package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"commerce-service/internal/entity"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, description, price, discount_percent, final_price, stock_quantity, final_quantity, brand`

func scanProduct(scan func(dest ...any) error) (entity.Product, error) {
	var (
		p    entity.Product
		name sql.NullString
	)
	err := scan(&p.ID, &name, &p.Description, &p.Price, &p.DiscountPercent, &p.FinalPrice, &p.StockQuantity, &p.FinalQuantity, &p.Brand)
	p.Name = name.String
	return p, err
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		if products[i].Images, err = listImages(ctx, r.db, products[i].ID); err != nil {
			return nil, err
		}
		if products[i].Sizes, err = listSizes(ctx, r.db, products[i].ID); err != nil {
			return nil, err
		}
	}
	return products, nil
}

// GetProduct returns nil when no product has the given id.
func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product %d: %w", id, err)
	}

	if p.Images, err = listImages(ctx, r.db, id); err != nil {
		return nil, err
	}
	if p.Sizes, err = listSizes(ctx, r.db, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query product %d: %w", id, err)
	}
	return true, nil
}

// CreateProduct inserts the product together with its images and sizes.
func (r *ProductRepository) CreateProduct(ctx context.Context, p entity.Product) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO products (name, description, price, discount_percent, stock_quantity, final_quantity, brand)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Price, p.DiscountPercent, p.StockQuantity, p.FinalQuantity, p.Brand,
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertImages(ctx, tx, id, p.Images); err != nil {
		return 0, err
	}
	if err := insertSizes(ctx, tx, id, p.Sizes); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return id, nil
}

// UpdateProduct applies patch to the stored product. It reports false when the product does not exist.
func (r *ProductRepository) UpdateProduct(ctx context.Context, id int64, patch entity.ProductPatch) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	p, err := scanProduct(tx.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock product %d: %w", id, err)
	}

	patch.Apply(&p)
	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, discount_percent = ?, stock_quantity = ?, final_quantity = ?, brand = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Price, p.DiscountPercent, p.StockQuantity, p.FinalQuantity, p.Brand, id,
	)
	if err != nil {
		return false, fmt.Errorf("update product %d: %w", id, err)
	}

	if patch.Images != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = ?`, id); err != nil {
			return false, fmt.Errorf("clear images of product %d: %w", id, err)
		}
		if err := insertImages(ctx, tx, id, patch.Images); err != nil {
			return false, err
		}
	}
	if patch.Sizes != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sizes WHERE product_id = ?`, id); err != nil {
			return false, fmt.Errorf("clear sizes of product %d: %w", id, err)
		}
		if err := insertSizes(ctx, tx, id, patch.Sizes); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

// DeleteProduct removes the product with its images and sizes.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete product %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *ProductRepository) ListImages(ctx context.Context, productID int64) ([]entity.ProductImage, error) {
	return listImages(ctx, r.db, productID)
}

func (r *ProductRepository) AddImage(ctx context.Context, productID int64, img entity.ProductImage) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO product_images (product_id, url, is_main) VALUES (?, ?, ?)`, productID, img.URL, img.IsMain)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return res.LastInsertId()
}

func (r *ProductRepository) RemoveImage(ctx context.Context, productID, imageID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE id = ? AND product_id = ?`, imageID, productID)
	if err != nil {
		return false, fmt.Errorf("delete image %d: %w", imageID, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *ProductRepository) ListSizes(ctx context.Context, productID int64) ([]entity.Size, error) {
	return listSizes(ctx, r.db, productID)
}

func (r *ProductRepository) AddSize(ctx context.Context, productID int64, size entity.Size) (int64, error) {
	value, err := encodeSizeValue(size.Value)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO sizes (product_id, name, value) VALUES (?, ?, ?)`, productID, size.Name, value)
	if err != nil {
		return 0, fmt.Errorf("insert size: %w", err)
	}
	return res.LastInsertId()
}

func (r *ProductRepository) RemoveSize(ctx context.Context, productID, sizeID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sizes WHERE id = ? AND product_id = ?`, sizeID, productID)
	if err != nil {
		return false, fmt.Errorf("delete size %d: %w", sizeID, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// listImages returns the main image first.
func listImages(ctx context.Context, q dbtx, productID int64) ([]entity.ProductImage, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, product_id, url, is_main FROM product_images WHERE product_id = ? ORDER BY is_main DESC, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query images of product %d: %w", productID, err)
	}
	defer rows.Close()

	images := []entity.ProductImage{}
	for rows.Next() {
		var img entity.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.IsMain); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func listSizes(ctx context.Context, q dbtx, productID int64) ([]entity.Size, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, product_id, name, value FROM sizes WHERE product_id = ? ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query sizes of product %d: %w", productID, err)
	}
	defer rows.Close()

	sizes := []entity.Size{}
	for rows.Next() {
		var (
			size  entity.Size
			value []byte
		)
		if err := rows.Scan(&size.ID, &size.ProductID, &size.Name, &value); err != nil {
			return nil, fmt.Errorf("scan size: %w", err)
		}
		if err := json.Unmarshal(value, &size.Value); err != nil {
			return nil, fmt.Errorf("decode size %d value: %w", size.ID, err)
		}
		sizes = append(sizes, size)
	}
	return sizes, rows.Err()
}

func insertImages(ctx context.Context, q dbtx, productID int64, images []entity.ProductImage) error {
	for _, img := range images {
		if _, err := q.ExecContext(ctx, `INSERT INTO product_images (product_id, url, is_main) VALUES (?, ?, ?)`, productID, img.URL, img.IsMain); err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
	}
	return nil
}

func insertSizes(ctx context.Context, q dbtx, productID int64, sizes []entity.Size) error {
	for _, size := range sizes {
		value, err := encodeSizeValue(size.Value)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `INSERT INTO sizes (product_id, name, value) VALUES (?, ?, ?)`, productID, size.Name, value); err != nil {
			return fmt.Errorf("insert size: %w", err)
		}
	}
	return nil
}

// encodeSizeValue returns a string; MySQL refuses binary input for JSON columns.
func encodeSizeValue(value []string) (string, error) {
	if value == nil {
		value = []string{}
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode size value: %w", err)
	}
	return string(b), nil
}
