package entity

import "github.com/shopspring/decimal"

type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	StockQuantity   int             `json:"stock_quantity"`
	FinalQuantity   int             `json:"final_quantity"`
	Brand           string          `json:"brand"`
	Images          []ProductImage  `json:"images"`
	Sizes           []Size          `json:"sizes"`
}

type ProductImage struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	URL       string `json:"url"`
	IsMain    bool   `json:"is_main"`
}

type Size struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"product_id"`
	Name      string   `json:"name"`
	Value     []string `json:"value"`
}

// ProductPatch carries the fields of a partial product update. Nil means untouched;
// a non-nil Images or Sizes replaces the whole collection.
type ProductPatch struct {
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	StockQuantity   *int             `json:"stock_quantity,omitempty"`
	FinalQuantity   *int             `json:"final_quantity,omitempty"`
	Brand           *string          `json:"brand,omitempty"`
	Images          []ProductImage   `json:"images,omitempty"`
	Sizes           []Size           `json:"sizes,omitempty"`
}

// Apply copies the set fields of the patch onto p.
func (pp ProductPatch) Apply(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.DiscountPercent != nil {
		p.DiscountPercent = *pp.DiscountPercent
	}
	if pp.StockQuantity != nil {
		p.StockQuantity = *pp.StockQuantity
	}
	if pp.FinalQuantity != nil {
		p.FinalQuantity = *pp.FinalQuantity
	}
	if pp.Brand != nil {
		p.Brand = *pp.Brand
	}
	if pp.Images != nil {
		p.Images = pp.Images
	}
	if pp.Sizes != nil {
		p.Sizes = pp.Sizes
	}
}

/*
Schema MySQL for product tables:
CREATE TABLE `products` (
  `id` bigint NOT NULL AUTO_INCREMENT,
  `name` varchar(250) NULL,
  `description` text NOT NULL,
  `price` decimal(10,2) NOT NULL,
  `discount_percent` decimal(10,2) NOT NULL DEFAULT 0,
  `final_price` decimal(10,2) AS (`price` - (`price` * COALESCE(`discount_percent`, 0) / 100)) STORED,
  `stock_quantity` int NOT NULL,
  `final_quantity` int NOT NULL DEFAULT 0,
  `brand` varchar(100) NOT NULL,
  PRIMARY KEY (`id`),
  CONSTRAINT `chk_stock_quantity` CHECK (`stock_quantity` >= 0)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
