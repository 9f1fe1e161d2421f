// internal/domain/product/defaults.go
package product

func uintPtr(v uint) *uint { return &v }

// DefaultCategories is the built-in category tree. It seeds new databases and is
// served whenever categories cannot be read.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Women", Slug: "women", Level: LevelTop, SortOrder: 1, IsActive: true},
		{ID: 2, Name: "Men", Slug: "men", Level: LevelTop, SortOrder: 2, IsActive: true},
		{ID: 3, Name: "Accessories", Slug: "accessories", Level: LevelTop, SortOrder: 3, IsActive: true},

		{ID: 4, Name: "Tops", Slug: "women-tops", Level: LevelMiddle, ParentID: uintPtr(1), SortOrder: 1, IsActive: true},
		{ID: 5, Name: "Bottoms", Slug: "women-bottoms", Level: LevelMiddle, ParentID: uintPtr(1), SortOrder: 2, IsActive: true},
		{ID: 6, Name: "Tops", Slug: "men-tops", Level: LevelMiddle, ParentID: uintPtr(2), SortOrder: 1, IsActive: true},
		{ID: 7, Name: "Bottoms", Slug: "men-bottoms", Level: LevelMiddle, ParentID: uintPtr(2), SortOrder: 2, IsActive: true},
		{ID: 8, Name: "Bags", Slug: "bags", Level: LevelMiddle, ParentID: uintPtr(3), SortOrder: 1, IsActive: true},
		{ID: 9, Name: "Shoes", Slug: "shoes", Level: LevelMiddle, ParentID: uintPtr(3), SortOrder: 2, IsActive: true},

		{ID: 10, Name: "T-Shirts", Slug: "women-t-shirts", Level: LevelLeaf, ParentID: uintPtr(4), SortOrder: 1, IsActive: true},
		{ID: 11, Name: "Blouses", Slug: "blouses", Level: LevelLeaf, ParentID: uintPtr(4), SortOrder: 2, IsActive: true},
		{ID: 12, Name: "Jeans", Slug: "women-jeans", Level: LevelLeaf, ParentID: uintPtr(5), SortOrder: 1, IsActive: true},
		{ID: 13, Name: "Skirts", Slug: "skirts", Level: LevelLeaf, ParentID: uintPtr(5), SortOrder: 2, IsActive: true},
		{ID: 14, Name: "Shirts", Slug: "men-shirts", Level: LevelLeaf, ParentID: uintPtr(6), SortOrder: 1, IsActive: true},
		{ID: 15, Name: "Hoodies", Slug: "hoodies", Level: LevelLeaf, ParentID: uintPtr(6), SortOrder: 2, IsActive: true},
		{ID: 16, Name: "Trousers", Slug: "trousers", Level: LevelLeaf, ParentID: uintPtr(7), SortOrder: 1, IsActive: true},
		{ID: 17, Name: "Backpacks", Slug: "backpacks", Level: LevelLeaf, ParentID: uintPtr(8), SortOrder: 1, IsActive: true},
		{ID: 18, Name: "Totes", Slug: "totes", Level: LevelLeaf, ParentID: uintPtr(8), SortOrder: 2, IsActive: true},
		{ID: 19, Name: "Sneakers", Slug: "sneakers", Level: LevelLeaf, ParentID: uintPtr(9), SortOrder: 1, IsActive: true},
	}
}
