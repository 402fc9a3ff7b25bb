package model

// All lists every table in migration order.
func All() []any {
	return []any{
		&Client{},
		&Site{},
		&EquipmentType{},
		&Equipment{},
		&Completion{},
		&KV{},
	}
}
