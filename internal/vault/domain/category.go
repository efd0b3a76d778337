package domain

// Category discriminates the secret payload shape of a record.
type Category string

const (
	CategoryLogin Category = "login"
	CategoryCard  Category = "card"
	CategoryNote  Category = "note"
	CategoryWifi  Category = "wifi"
)

// Categories lists every supported category.
func Categories() []Category {
	return []Category{CategoryLogin, CategoryCard, CategoryNote, CategoryWifi}
}

// Valid reports whether c is a supported category.
func (c Category) Valid() bool {
	switch c {
	case CategoryLogin, CategoryCard, CategoryNote, CategoryWifi:
		return true
	}
	return false
}
