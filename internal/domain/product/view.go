// internal/domain/product/view.go
package product

import (
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
)

// ViewOptions controls how stored products are presented
type ViewOptions struct {
	CDNBaseURL       string
	PlaceholderImage string
	DefaultBrand     string
}

// ViewOptionsFromConfig reads the storefront presentation settings
func ViewOptionsFromConfig(cfg *config.Config) ViewOptions {
	return ViewOptions{
		CDNBaseURL:       cfg.Storefront.CDNBaseURL,
		PlaceholderImage: cfg.Storefront.PlaceholderImage,
		DefaultBrand:     cfg.Storefront.DefaultBrand,
	}
}

// ProductView is the shape returned to storefront and dashboard clients
type ProductView struct {
	ID           uint      `json:"id"`
	TenantID     uint      `json:"tenant_id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Brand        string    `json:"brand"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	ImageURL     string    `json:"image_url"`
	CategoryID   uint      `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToView maps a stored product row to its view. This is the only place display
// images are resolved and missing brands defaulted.
func ToView(p Product, opts ViewOptions) ProductView {
	view := ProductView{
		ID:          p.ID,
		TenantID:    p.TenantID,
		Name:        p.Name,
		Slug:        p.Slug,
		Brand:       strings.TrimSpace(p.Brand),
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    ImageURL(p.Image, opts),
		CategoryID:  p.CategoryID,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}

	if view.Brand == "" {
		view.Brand = opts.DefaultBrand
	}
	if p.Category != nil {
		view.CategoryName = p.Category.Name
	}

	return view
}

// ToViews maps a slice of products, never returning nil
func ToViews(products []Product, opts ViewOptions) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, ToView(p, opts))
	}
	return views
}

// ImageURL resolves a stored image reference to a displayable URL
func ImageURL(image string, opts ViewOptions) string {
	image = strings.TrimSpace(image)
	switch {
	case image == "":
		return opts.PlaceholderImage
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return image
	case opts.CDNBaseURL == "":
		return image
	default:
		return strings.TrimRight(opts.CDNBaseURL, "/") + "/" + strings.TrimLeft(image, "/")
	}
}
