// internal/domain/product/category_service.go
package product

import (
	"context"
	"fmt"
)

// CategorySummary is a category with its active product counts
type CategorySummary struct {
	Name         string `json:"name"`
	ProductCount int64  `json:"productCount"`
	// ClearanceCount counts products that currently have a reduced lot
	ClearanceCount int64 `json:"clearanceCount"`
}

const categorySummaryColumns = "category AS name, COUNT(*) AS product_count, " +
	"SUM(CASE WHEN near_expiry_quantity > 0 THEN 1 ELSE 0 END) AS clearance_count"

// ListCategories returns the distinct categories of active products
func (s *Service) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	var out []CategorySummary
	err := s.db.WithContext(ctx).Model(&Product{}).
		Select(categorySummaryColumns).
		Where("is_active = ? AND category <> ''", true).
		Group("category").
		Order("category ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return out, nil
}
