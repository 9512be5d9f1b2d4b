package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

// tables are created in dependency order; children reference their parents with ON DELETE CASCADE.
// order_items has no foreign key on product_id so order history outlives the product.
// order_items keeps product_id without a foreign key so order history outlives the product.
var tables = []struct {
	name  string
	query string
}{
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(250) NULL,
			description TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			discount_percent DECIMAL(10,2) NOT NULL DEFAULT 0,
			final_price DECIMAL(10,2) AS (price - (price * COALESCE(discount_percent, 0) / 100)) STORED,
			stock_quantity INT NOT NULL,
			final_quantity INT NOT NULL DEFAULT 0,
			brand VARCHAR(100) NOT NULL,
			CONSTRAINT chk_stock_quantity CHECK (stock_quantity >= 0)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"product_images", `
		CREATE TABLE IF NOT EXISTS product_images (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			url VARCHAR(500) NOT NULL,
			is_main BOOLEAN NOT NULL DEFAULT FALSE,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"sizes", `
		CREATE TABLE IF NOT EXISTS sizes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			name VARCHAR(100) NOT NULL,
			value JSON NOT NULL,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			customer_name VARCHAR(250) NOT NULL,
			customer_email VARCHAR(250) NOT NULL,
			customer_phone VARCHAR(15) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			product_name VARCHAR(250) NOT NULL,
			quantity INT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			INDEX idx_order_items_product (product_id),
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"audit_logs", `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			event_id CHAR(36) NOT NULL,
			action VARCHAR(20) NOT NULL,
			audit_data JSON NOT NULL,
			status VARCHAR(10) NOT NULL,
			error_message TEXT NULL,
			audit_by VARCHAR(250) NOT NULL,
			audit_on VARCHAR(100) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_audit_event (event_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
}

// AutoMigrate creates every table that does not exist yet, retrying each one up to retries times.
func AutoMigrate(retries int, db *sql.DB) error {
	for _, table := range tables {
		_, err := db.Exec(table.query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(table.query)
				if err == nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("create table %s: %w", table.name, err)
		}
	}
	return nil
}
