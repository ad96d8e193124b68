package models

import "gorm.io/gorm"

// DefaultCategoryName is seeded at registration and cannot be deleted.
const DefaultCategoryName = "Random Thoughts"

const DefaultCategoryColor = "#6366F1"

type CategorySeed struct {
	Name  string
	Color string
}

// DefaultCategorySeeds is the fixed set created for every new user, both
// synchronously at registration and by the background initializer.
var DefaultCategorySeeds = []CategorySeed{
	{Name: DefaultCategoryName, Color: DefaultCategoryColor},
}

type Category struct {
	gorm.Model

	UserID uint   `gorm:"not null;index;uniqueIndex:idx_categories_user_name"`
	Name   string `gorm:"size:100;not null;uniqueIndex:idx_categories_user_name"`
	Color  string `gorm:"size:7;not null;default:'#6366F1'"`

	// Relationships
	User  User   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notes []Note `gorm:"foreignKey:CategoryID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
