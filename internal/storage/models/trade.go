// internal/storage/models/trade.go
package models

const (
	SideBuy  = "buy"
	SideSell = "sell"

	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
)

// Trade is one executed (or attempted) order. Buys carry the committed SOL
// amount and entry price; sells carry the percentage of the balance moved.
type Trade struct {
	BaseModel
	Signature    string  `gorm:"index;type:varchar(88)"`
	Mint         string  `gorm:"index;not null;type:varchar(44)"`
	Side         string  `gorm:"not null;type:varchar(10)"`
	AmountSol    float64 `gorm:"type:decimal(20,9)"`
	Price        float64 `gorm:"type:decimal(20,9)"`
	Percentage   float64 `gorm:"type:decimal(5,2)"`
	Status       string  `gorm:"not null;type:varchar(20)"`
	ErrorMessage string  `gorm:"type:text"`
}
