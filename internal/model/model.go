package model

// All returns every model registered for migration, in dependency order
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&Template{},
		&Settings{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Cart{},
		&CartItem{},
		&Reservation{},
		&Booking{},
		&Service{},
		&Post{},
		&Comment{},
		&TeamMember{},
		&CaseStudy{},
		&SequenceCounter{},
	}
}
