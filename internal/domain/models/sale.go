package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleSource is the channel a sale came through.
type SaleSource string

const (
	SourceSocial    SaleSource = "social"
	SourceMessaging SaleSource = "messaging"
	SourceInPerson  SaleSource = "in-person"
	SourceOther     SaleSource = "other"
)

// ParseSaleSource normalizes caller input. Empty input defaults to SourceSocial.
func ParseSaleSource(value string) (SaleSource, error) {
	switch SaleSource(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return SourceSocial, nil
	case SourceSocial:
		return SourceSocial, nil
	case SourceMessaging:
		return SourceMessaging, nil
	case SourceInPerson:
		return SourceInPerson, nil
	case SourceOther:
		return SourceOther, nil
	default:
		return "", fmt.Errorf("%w: unknown sale source %q", ErrInvalidInput, value)
	}
}

// Sale is an immutable transaction record. Product, variant and cost fields are
// value snapshots of the item at the moment of sale.
type Sale struct {
	ID                 string          `json:"id"`
	BatchID            string          `json:"batchId"`
	BatchName          string          `json:"batchName"`
	ItemID             string          `json:"itemId"`
	ProductName        string          `json:"productName"`
	Variant            string          `json:"variant"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	CostPerUnitAtSale  decimal.Decimal `json:"costPerUnitAtSale"`
	ShippingCostAtSale decimal.Decimal `json:"shippingCostAtSale"`
	NetCashIn          decimal.Decimal `json:"netCashIn"`
	Source             SaleSource      `json:"source"`
	IsReseller         bool            `json:"isReseller"`
	Date               time.Time       `json:"date"`
}

// NetCashIn computes unitPrice × quantity + (shippingCharge − shippingCost).
func NetCashIn(unitPrice decimal.Decimal, quantity int, shippingCharge, shippingCost decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Add(shippingCharge.Sub(shippingCost))
}

// Expense is a cash outflow, optionally attributed to a batch.
type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	BatchID     string          `json:"batchId,omitempty"`
	BatchName   string          `json:"batchName,omitempty"`
}

// IsGeneral reports whether the expense is not attributed to any batch.
func (e Expense) IsGeneral() bool {
	return e.BatchID == ""
}
