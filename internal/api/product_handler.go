package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"commerce-service/internal/entity"
)

type ProductService interface {
	CreateProduct(ctx context.Context, input entity.Product) (*entity.Product, error)
	ListProducts(ctx context.Context, role string) ([]entity.Product, error)
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch entity.ProductPatch) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListImages(ctx context.Context, productID int64) ([]entity.ProductImage, error)
	AddImage(ctx context.Context, productID int64, img entity.ProductImage) (*entity.ProductImage, error)
	RemoveImage(ctx context.Context, productID, imageID int64) error

	ListSizes(ctx context.Context, productID int64) ([]entity.Size, error)
	AddSize(ctx context.Context, productID int64, size entity.Size) (*entity.Size, error)
	RemoveSize(ctx context.Context, productID, sizeID int64) error
}

type ProductHandler struct {
	productService ProductService
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

type createProductRequest struct {
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description" validate:"required"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	StockQuantity   int             `json:"stock_quantity" validate:"gte=0"`
	FinalQuantity   int             `json:"final_quantity" validate:"gte=0"`
	Brand           string          `json:"brand" validate:"required,max=100"`
	Images          []imageRequest  `json:"images" validate:"dive"`
	Sizes           []sizeRequest   `json:"sizes" validate:"dive"`
}

type imageRequest struct {
	URL    string `json:"url" validate:"required,url"`
	IsMain bool   `json:"is_main"`
}

type sizeRequest struct {
	Name  string   `json:"name" validate:"required"`
	Value []string `json:"value"`
}

func (r imageRequest) entity() entity.ProductImage {
	return entity.ProductImage{URL: r.URL, IsMain: r.IsMain}
}

func (r sizeRequest) entity() entity.Size {
	value := r.Value
	if value == nil {
		value = []string{}
	}
	return entity.Size{Name: r.Name, Value: value}
}

// CreateProduct --> POST /products, /products/create
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	req := createProductRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	input := entity.Product{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		StockQuantity:   req.StockQuantity,
		FinalQuantity:   req.FinalQuantity,
		Brand:           req.Brand,
	}
	for _, img := range req.Images {
		input.Images = append(input.Images, img.entity())
	}
	for _, size := range req.Sizes {
		input.Sizes = append(input.Sizes, size.entity())
	}

	product, err := h.productService.CreateProduct(c.Request().Context(), input)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// ListProducts --> GET /products?role=ADMIN
func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.productService.ListProducts(c.Request().Context(), c.QueryParam("role"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct --> GET /products/:id
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	product, err := h.productService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateProduct --> PATCH /products/:id
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	patch := entity.ProductPatch{}
	if err := bindAndValidate(c, &patch); err != nil {
		return errorJSON(c, err)
	}

	product, err := h.productService.UpdateProduct(c.Request().Context(), id, patch)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct --> DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.productService.DeleteProduct(c.Request().Context(), id); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

// ListImages --> GET /products/:id/images
func (h *ProductHandler) ListImages(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	images, err := h.productService.ListImages(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, images)
}

// AddImage --> POST /products/:id/images
func (h *ProductHandler) AddImage(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	req := imageRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	img, err := h.productService.AddImage(c.Request().Context(), id, req.entity())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, img)
}

// RemoveImage --> DELETE /products/:id/images/:imageId
func (h *ProductHandler) RemoveImage(c echo.Context) error {
	id, ok := paramID(c, "id")
	imageID, okImage := paramID(c, "imageId")
	if !ok || !okImage {
		return invalidID(c)
	}
	if err := h.productService.RemoveImage(c.Request().Context(), id, imageID); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

// ListSizes --> GET /products/:id/sizes
func (h *ProductHandler) ListSizes(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	sizes, err := h.productService.ListSizes(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, sizes)
}

// AddSize --> POST /products/:id/sizes
func (h *ProductHandler) AddSize(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	req := sizeRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	size, err := h.productService.AddSize(c.Request().Context(), id, req.entity())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, size)
}

// RemoveSize --> DELETE /products/:id/sizes/:sizeId
func (h *ProductHandler) RemoveSize(c echo.Context) error {
	id, ok := paramID(c, "id")
	sizeID, okSize := paramID(c, "sizeId")
	if !ok || !okSize {
		return invalidID(c)
	}
	if err := h.productService.RemoveSize(c.Request().Context(), id, sizeID); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}
