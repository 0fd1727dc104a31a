package ownerservice

// Owner модель владельца EV из каталога владельцев
type Owner struct {
	NIC       string `json:"nic"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsActive  bool   `json:"isActive"`
}
