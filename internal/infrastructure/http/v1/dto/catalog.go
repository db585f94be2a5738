package dto

// CreateLocationRequest creates a point of sale or storage place.
type CreateLocationRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}

// UpdateLocationRequest carries partial location updates.
type UpdateLocationRequest struct {
	Name     *string `json:"name"`
	Type     *string `json:"type"`
	Address  *string `json:"address"`
	Timezone *string `json:"timezone"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// CreateProductRequest creates a countable item.
type CreateProductRequest struct {
	Code      string  `json:"code" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Type      string  `json:"type" binding:"required"`
	SKU       *string `json:"sku"`
	Barcode   *string `json:"barcode"`
	Unit      string  `json:"unit"`
	TrackLots bool    `json:"trackLots"`
}

// UpdateProductRequest carries partial product updates.
type UpdateProductRequest struct {
	Name      *string `json:"name"`
	Type      *string `json:"type"`
	SKU       *string `json:"sku"`
	Barcode   *string `json:"barcode"`
	Unit      *string `json:"unit"`
	TrackLots *bool   `json:"trackLots"`
	IsActive  *bool   `json:"isActive"`
	Version   int     `json:"version" binding:"required,min=1"`
}
