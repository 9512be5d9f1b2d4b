package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            int64       `json:"id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone"`
	CreatedAt     time.Time   `json:"created_at"`
	Items         []OrderItem `json:"items"`
}

// OrderItem keeps the product name and unit price as they were when the order was placed.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Customer is the contact block supplied with an order request.
type Customer struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

// ItemRequest is one requested line of an order.
type ItemRequest struct {
	ProductID   int64           `json:"product_id" validate:"gt=0"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

/*
Mysql Table

CREATE TABLE orders (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	customer_name VARCHAR(250) NOT NULL,
	customer_email VARCHAR(250) NOT NULL,
	customer_phone VARCHAR(15) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE order_items (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	order_id BIGINT NOT NULL,
	product_id BIGINT NOT NULL,
	product_name VARCHAR(250) NOT NULL,
	quantity INT NOT NULL,
	price DECIMAL(10,2) NOT NULL,
	FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

*/
