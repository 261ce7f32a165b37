package models

// All lists every persisted model, in dependency order, for AutoMigrate in
// tests and local tooling.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&SellerEarning{},
	}
}
