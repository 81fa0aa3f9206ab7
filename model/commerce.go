package model

import "time"

type Customer struct {
	Id        string `json:"id" yaml:"id"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

type Address struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Address1 string `json:"address1" yaml:"address1"`
	Address2 string `json:"address2,omitempty" yaml:"address2,omitempty"`
	City     string `json:"city" yaml:"city"`
	Province string `json:"province,omitempty" yaml:"province,omitempty"`
	Zip      string `json:"zip" yaml:"zip"`
	Country  string `json:"country" yaml:"country"`
}

type Tracking struct {
	Number  string `json:"number" yaml:"number"`
	Company string `json:"company" yaml:"company"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
}

type LineItem struct {
	Id        string `json:"id" yaml:"id"`
	ProductId string `json:"product_id" yaml:"product_id"`
	VariantId string `json:"variant_id,omitempty" yaml:"variant_id,omitempty"`
	Title     string `json:"title" yaml:"title"`
	Variant   string `json:"variant_title,omitempty" yaml:"variant_title,omitempty"`
	Quantity  int    `json:"quantity" yaml:"quantity"`
	Removed   bool   `json:"removed,omitempty" yaml:"removed,omitempty"`
	Refunded  bool   `json:"refunded,omitempty" yaml:"refunded,omitempty"`
}

type OrderContext struct {
	OrderId           string     `json:"order_id" yaml:"order_id"`
	OrderNumber       string     `json:"order_number" yaml:"order_number"`
	Customer          Customer   `json:"customer" yaml:"customer"`
	ShippingAddress   Address    `json:"shipping_address" yaml:"shipping_address"`
	BillingAddress    Address    `json:"billing_address" yaml:"billing_address"`
	FulfillmentStatus string     `json:"fulfillment_status" yaml:"fulfillment_status"`
	Tracking          *Tracking  `json:"tracking,omitempty" yaml:"tracking,omitempty"`
	LineItems         []LineItem `json:"line_items" yaml:"line_items"`
	CreatedAt         time.Time  `json:"created_at" yaml:"created_at"`
}

type WarrantyTerms struct {
	ProductId          string `json:"product_id" yaml:"product_id"`
	WarrantyDays       int    `json:"warranty_days,omitempty" yaml:"warranty_days,omitempty"`
	CoversLostItems    bool   `json:"covers_lost_items" yaml:"covers_lost_items"`
	CoversDamagedItems bool   `json:"covers_damaged_items" yaml:"covers_damaged_items"`
	CoversLateDelivery bool   `json:"covers_late_delivery" yaml:"covers_late_delivery"`
}

type MerchantPolicy struct {
	ReturnWindowDays int    `json:"return_window_days,omitempty" yaml:"return_window_days,omitempty"`
	RefundPolicy     string `json:"refund_policy,omitempty" yaml:"refund_policy,omitempty"`
	ShippingPolicy   string `json:"shipping_policy,omitempty" yaml:"shipping_policy,omitempty"`
}

type MerchantContext struct {
	UserId       string         `json:"user_id" yaml:"user_id"`
	Name         string         `json:"name" yaml:"name"`
	StoreName    string         `json:"store_name" yaml:"store_name"`
	SupportEmail string         `json:"support_email,omitempty" yaml:"support_email,omitempty"`
	Policy       MerchantPolicy `json:"policy" yaml:"policy"`
}
