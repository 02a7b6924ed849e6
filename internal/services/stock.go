package services

// Stock level classes used when rendering medicine quantities
const (
	StockLow    = "stock-low"
	StockMedium = "stock-medium"
	StockOK     = "stock-ok"
)

// StockLevel classifies a medicine quantity
func StockLevel(quantity int) string {
	switch {
	case quantity < 10:
		return StockLow
	case quantity < 30:
		return StockMedium
	}
	return StockOK
}
