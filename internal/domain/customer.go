package domain

import "time"

// Address — адрес клиента. Region хранит свободный текст, RegionID — идентификатор из справочника.
type Address struct {
	ID                string
	Firstname         string
	Lastname          string
	Name              string
	Street            string
	City              string
	Postcode          string
	Telephone         string
	CountryID         string
	Region            string
	RegionID          int64
	IsDefaultBilling  bool
	IsDefaultShipping bool
}

// Customer агрегирует клиента и его адреса. Бизнес-ключ — email.
type Customer struct {
	ID         string
	Email      string
	Firstname  string
	Lastname   string
	Attributes map[string]string
	Addresses  []Address
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AddAddress добавляет адрес к клиенту.
func (c *Customer) AddAddress(address Address) {
	c.Addresses = append(c.Addresses, address)
}

// Attribute возвращает значение атрибута клиента по коду.
func (c *Customer) Attribute(code string) string {
	switch code {
	case "entity_id", "id":
		return c.ID
	case "email":
		return c.Email
	case "firstname":
		return c.Firstname
	case "lastname":
		return c.Lastname
	}
	return c.Attributes[code]
}

// DefaultBillingAddress возвращает адрес для выставления счёта по умолчанию.
func (c *Customer) DefaultBillingAddress() (Address, bool) {
	for _, address := range c.Addresses {
		if address.IsDefaultBilling {
			return address, true
		}
	}
	return Address{}, false
}

// DefaultShippingAddress возвращает адрес доставки по умолчанию.
func (c *Customer) DefaultShippingAddress() (Address, bool) {
	for _, address := range c.Addresses {
		if address.IsDefaultShipping {
			return address, true
		}
	}
	return Address{}, false
}

// Region — запись справочника регионов страны.
type Region struct {
	ID        int64
	CountryID string
	Name      string
}
