package domain

// Product is a read-only catalog entry supplied by the catalog collaborator.
// The orchestrator never mutates products.
type Product struct {
	ProductID   string   `json:"product_id" bson:"productId"`
	Name        string   `json:"name" bson:"name"`
	Category    string   `json:"category" bson:"category"`
	Price       float64  `json:"price" bson:"price"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

// StockStatus is the inventory collaborator's verdict for a product.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockOutOfStock StockStatus = "out_of_stock"
	StockNotFound   StockStatus = "not_found"
	StockError      StockStatus = "error"
)

// StockReport is the result of an inventory check: overall status, total
// quantity and the per-location breakdown.
type StockReport struct {
	Status    StockStatus    `json:"status"`
	Name      string         `json:"name,omitempty"`
	Price     float64        `json:"price,omitempty"`
	TotalQty  int            `json:"total_qty"`
	Locations map[string]int `json:"locations,omitempty"`
}
