package service

import (
	"context"
	"fmt"

	"commerce-service/internal/audit"
	"commerce-service/internal/cache"
	"commerce-service/internal/entity"
)

// ProductStore is implemented by repository.ProductRepository.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	CreateProduct(ctx context.Context, p entity.Product) (int64, error)
	UpdateProduct(ctx context.Context, id int64, patch entity.ProductPatch) (bool, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)

	ListImages(ctx context.Context, productID int64) ([]entity.ProductImage, error)
	AddImage(ctx context.Context, productID int64, img entity.ProductImage) (int64, error)
	RemoveImage(ctx context.Context, productID, imageID int64) (bool, error)

	ListSizes(ctx context.Context, productID int64) ([]entity.Size, error)
	AddSize(ctx context.Context, productID int64, size entity.Size) (int64, error)
	RemoveSize(ctx context.Context, productID, sizeID int64) (bool, error)
}

type ProductService struct {
	store ProductStore
	cache cache.Cache
	audit audit.Emitter
}

func NewProductService(store ProductStore, c cache.Cache, emitter audit.Emitter) *ProductService {
	return &ProductService{store: store, cache: c, audit: emitter}
}

func (s *ProductService) emit(ctx context.Context, p audit.Payload, err error) {
	s.audit.Emit(audit.Outcome(ctx, audit.SubjectProduct, p, err))
}

func (s *ProductService) CreateProduct(ctx context.Context, input entity.Product) (*entity.Product, error) {
	product, err := s.createProduct(ctx, input)
	payload := audit.ProductCreated{}
	if product != nil {
		payload.Product = *product
	}
	s.emit(ctx, payload, err)
	return product, err
}

func (s *ProductService) createProduct(ctx context.Context, input entity.Product) (*entity.Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}

	id, err := s.store.CreateProduct(ctx, input)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}
	cache.Invalidate(ctx, s.cache, cache.KeyAllProducts)

	return s.getProduct(ctx, id)
}

// ListProducts returns every product; role is only recorded in the audit trail.
func (s *ProductService) ListProducts(ctx context.Context, role string) ([]entity.Product, error) {
	products, err := s.listProducts(ctx)
	s.emit(ctx, audit.ProductsListed{Role: role, Count: len(products)}, err)
	return products, err
}

func (s *ProductService) listProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	if readThrough(ctx, s.cache, cache.KeyAllProducts, &products) {
		return products, nil
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}
	writeThrough(ctx, s.cache, cache.KeyAllProducts, products, cache.TTLProducts)
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	product, err := s.getProduct(ctx, id)
	s.emit(ctx, audit.ProductRead{ID: id}, err)
	return product, err
}

func (s *ProductService) getProduct(ctx context.Context, id int64) (*entity.Product, error) {
	key := cache.ProductKey(id)

	var cached entity.Product
	if readThrough(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting product by ID %d", id)
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	writeThrough(ctx, s.cache, key, product, cache.TTLProducts)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int64, patch entity.ProductPatch) (*entity.Product, error) {
	product, err := s.updateProduct(ctx, id, patch)
	s.emit(ctx, audit.ProductUpdated{ID: id, Patch: patch}, err)
	return product, err
}

func (s *ProductService) updateProduct(ctx context.Context, id int64, patch entity.ProductPatch) (*entity.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	found, err := s.store.UpdateProduct(ctx, id, patch)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating product %d", id)
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	cache.Invalidate(ctx, s.cache, cache.KeyAllProducts, cache.ProductKey(id), cache.ProductImagesKey(id), cache.ProductSizesKey(id))

	return s.getProduct(ctx, id)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	err := s.deleteProduct(ctx, id)
	s.emit(ctx, audit.ProductDeleted{ID: id}, err)
	return err
}

func (s *ProductService) deleteProduct(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %d", id)
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	cache.Invalidate(ctx, s.cache, cache.KeyAllProducts, cache.ProductKey(id), cache.ProductImagesKey(id), cache.ProductSizesKey(id))
	return nil
}

func (s *ProductService) ListImages(ctx context.Context, productID int64) ([]entity.ProductImage, error) {
	key := cache.ProductImagesKey(productID)

	var images []entity.ProductImage
	if readThrough(ctx, s.cache, key, &images) {
		return images, nil
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	images, err := s.store.ListImages(ctx, productID)
	if err != nil {
		return nil, err
	}
	writeThrough(ctx, s.cache, key, images, cache.TTLProducts)
	return images, nil
}

func (s *ProductService) AddImage(ctx context.Context, productID int64, img entity.ProductImage) (*entity.ProductImage, error) {
	added, err := s.addImage(ctx, productID, img)
	payload := audit.ProductImageAdded{ProductID: productID, Image: img}
	if added != nil {
		payload.Image = *added
	}
	s.emit(ctx, payload, err)
	return added, err
}

func (s *ProductService) addImage(ctx context.Context, productID int64, img entity.ProductImage) (*entity.ProductImage, error) {
	if img.URL == "" {
		return nil, validationError("image url is required")
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	id, err := s.store.AddImage(ctx, productID, img)
	if err != nil {
		logger.Error().Err(err).Msgf("Error adding image to product %d", productID)
		return nil, err
	}
	s.invalidateProduct(ctx, productID, cache.ProductImagesKey(productID))

	img.ID = id
	img.ProductID = productID
	return &img, nil
}

func (s *ProductService) RemoveImage(ctx context.Context, productID, imageID int64) error {
	err := s.removeChild(ctx, productID, imageID, s.store.RemoveImage, ErrImageNotFound, cache.ProductImagesKey(productID))
	s.emit(ctx, audit.ProductImageRemoved{ProductID: productID, ImageID: imageID}, err)
	return err
}

func (s *ProductService) ListSizes(ctx context.Context, productID int64) ([]entity.Size, error) {
	key := cache.ProductSizesKey(productID)

	var sizes []entity.Size
	if readThrough(ctx, s.cache, key, &sizes) {
		return sizes, nil
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	sizes, err := s.store.ListSizes(ctx, productID)
	if err != nil {
		return nil, err
	}
	writeThrough(ctx, s.cache, key, sizes, cache.TTLProducts)
	return sizes, nil
}

func (s *ProductService) AddSize(ctx context.Context, productID int64, size entity.Size) (*entity.Size, error) {
	added, err := s.addSize(ctx, productID, size)
	payload := audit.ProductSizeAdded{ProductID: productID, Size: size}
	if added != nil {
		payload.Size = *added
	}
	s.emit(ctx, payload, err)
	return added, err
}

func (s *ProductService) addSize(ctx context.Context, productID int64, size entity.Size) (*entity.Size, error) {
	if size.Name == "" {
		return nil, validationError("size name is required")
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	id, err := s.store.AddSize(ctx, productID, size)
	if err != nil {
		logger.Error().Err(err).Msgf("Error adding size to product %d", productID)
		return nil, err
	}
	s.invalidateProduct(ctx, productID, cache.ProductSizesKey(productID))

	size.ID = id
	size.ProductID = productID
	if size.Value == nil {
		size.Value = []string{}
	}
	return &size, nil
}

func (s *ProductService) RemoveSize(ctx context.Context, productID, sizeID int64) error {
	err := s.removeChild(ctx, productID, sizeID, s.store.RemoveSize, ErrSizeNotFound, cache.ProductSizesKey(productID))
	s.emit(ctx, audit.ProductSizeRemoved{ProductID: productID, SizeID: sizeID}, err)
	return err
}

func (s *ProductService) removeChild(ctx context.Context, productID, childID int64, remove func(context.Context, int64, int64) (bool, error), notFound error, key string) error {
	removed, err := remove(ctx, productID, childID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error removing %d from product %d", childID, productID)
		return err
	}
	if !removed {
		return fmt.Errorf("%w: id %d on product %d", notFound, childID, productID)
	}
	s.invalidateProduct(ctx, productID, key)
	return nil
}

func (s *ProductService) requireProduct(ctx context.Context, id int64) error {
	exists, err := s.store.ProductExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return nil
}

// invalidateProduct drops the snapshots that embed the product's sub-collections.
func (s *ProductService) invalidateProduct(ctx context.Context, id int64, keys ...string) {
	cache.Invalidate(ctx, s.cache, append(keys, cache.ProductKey(id), cache.KeyAllProducts)...)
}

func validateProduct(p entity.Product) error {
	switch {
	case p.Name == "":
		return validationError("product name is required")
	case p.Description == "":
		return validationError("product description is required")
	case p.Brand == "":
		return validationError("product brand is required")
	case !p.Price.IsPositive():
		return validationError("product price must be positive")
	case p.DiscountPercent.IsNegative():
		return validationError("discount percent must not be negative")
	case p.StockQuantity < 0:
		return validationError("stock quantity must not be negative")
	}
	for i, img := range p.Images {
		if img.URL == "" {
			return validationError("image %d: url is required", i)
		}
	}
	for i, size := range p.Sizes {
		if size.Name == "" {
			return validationError("size %d: name is required", i)
		}
	}
	return nil
}

func validatePatch(pp entity.ProductPatch) error {
	switch {
	case pp.Name != nil && *pp.Name == "":
		return validationError("product name must not be empty")
	case pp.Price != nil && !pp.Price.IsPositive():
		return validationError("product price must be positive")
	case pp.DiscountPercent != nil && pp.DiscountPercent.IsNegative():
		return validationError("discount percent must not be negative")
	case pp.StockQuantity != nil && *pp.StockQuantity < 0:
		return validationError("stock quantity must not be negative")
	}
	return nil
}
