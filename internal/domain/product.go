package domain

import "time"

// ProductStatus is the publication state of a catalog entry.
type ProductStatus string

const (
	ProductPublished   ProductStatus = "published"
	ProductUnpublished ProductStatus = "unpublished"
)

// Product is a single catalog entry owned by one merchant. Amounts are stored
// as the merchant entered them; no currency normalization happens here.
type Product struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	ProductName    string        `json:"productName"`
	ProductType    string        `json:"productType"`
	QuantityStock  int           `json:"quantityStock"`
	MRP            float64       `json:"mrp"`
	SellingPrice   float64       `json:"sellingPrice"`
	BrandName      string        `json:"brandName"`
	Images         []string      `json:"images"`
	ExchangeReturn string        `json:"exchangeReturn"`
	Status         ProductStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// ToggleStatus flips a product between published and unpublished.
func (p *Product) ToggleStatus() {
	if p.Status == ProductPublished {
		p.Status = ProductUnpublished
	} else {
		p.Status = ProductPublished
	}
}

// CreateProductRequest is the body of POST /api/products.
type CreateProductRequest struct {
	ProductName    string   `json:"productName"`
	ProductType    string   `json:"productType"`
	QuantityStock  int      `json:"quantityStock"`
	MRP            float64  `json:"mrp"`
	SellingPrice   float64  `json:"sellingPrice"`
	BrandName      string   `json:"brandName"`
	Images         []string `json:"images"`
	ExchangeReturn string   `json:"exchangeReturn"`
}

// UpdateProductRequest is the body of PUT /api/products/{id}. Pointer fields
// distinguish "absent" from zero values so absent fields keep their stored
// value.
type UpdateProductRequest struct {
	ProductName    *string   `json:"productName"`
	ProductType    *string   `json:"productType"`
	QuantityStock  *int      `json:"quantityStock"`
	MRP            *float64  `json:"mrp"`
	SellingPrice   *float64  `json:"sellingPrice"`
	BrandName      *string   `json:"brandName"`
	Images         *[]string `json:"images"`
	ExchangeReturn *string   `json:"exchangeReturn"`
	Status         *string   `json:"status"`
}
