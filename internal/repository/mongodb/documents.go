package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

type batchDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	CreatedAt   time.Time          `bson:"createdAt"`
	FinalizedAt *time.Time         `bson:"finalizedAt,omitempty"`
	Items       []itemDocument     `bson:"items"`
	Revision    int64              `bson:"revision"`
}

type itemDocument struct {
	ID           string               `bson:"id"`
	Product      string               `bson:"product"`
	Variant      string               `bson:"variant"`
	CostPerUnit  primitive.Decimal128 `bson:"costPerUnit"`
	InitialStock int                  `bson:"initialStock"`
	CurrentStock int                  `bson:"currentStock"`
}

type saleDocument struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty"`
	BatchID            string               `bson:"batchId"`
	BatchName          string               `bson:"batchName"`
	ItemID             string               `bson:"itemId"`
	ProductName        string               `bson:"productName"`
	Variant            string               `bson:"variant"`
	Quantity           int                  `bson:"quantity"`
	UnitPrice          primitive.Decimal128 `bson:"unitPrice"`
	CostPerUnitAtSale  primitive.Decimal128 `bson:"costPerUnitAtSale"`
	ShippingCostAtSale primitive.Decimal128 `bson:"shippingCostAtSale"`
	NetCashIn          primitive.Decimal128 `bson:"netCashIn"`
	Source             string               `bson:"source"`
	IsReseller         bool                 `bson:"isReseller"`
	Date               time.Time            `bson:"date"`
}

type expenseDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Description string               `bson:"description"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Date        time.Time            `bson:"date"`
	BatchID     string               `bson:"batchId,omitempty"`
	BatchName   string               `bson:"batchName,omitempty"`
}

func toDecimal128(value decimal.Decimal) (primitive.Decimal128, error) {
	d, err := primitive.ParseDecimal128(value.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", value, err)
	}
	return d, nil
}

// fromDecimal128 treats an unset field as zero.
func fromDecimal128(value primitive.Decimal128) (decimal.Decimal, error) {
	if value == (primitive.Decimal128{}) {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", value, err)
	}
	return d, nil
}

func toItemDocuments(items models.ItemSet) ([]itemDocument, error) {
	docs := make([]itemDocument, 0, items.Len())
	for _, item := range items.Ordered() {
		cost, err := toDecimal128(item.CostPerUnit)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", item.ID, err)
		}
		docs = append(docs, itemDocument{
			ID:           item.ID,
			Product:      item.Product,
			Variant:      item.Variant,
			CostPerUnit:  cost,
			InitialStock: item.InitialStock,
			CurrentStock: item.CurrentStock,
		})
	}
	return docs, nil
}

func (d batchDocument) toModel() (models.Batch, error) {
	items := make([]models.Item, 0, len(d.Items))
	for _, doc := range d.Items {
		cost, err := fromDecimal128(doc.CostPerUnit)
		if err != nil {
			return models.Batch{}, fmt.Errorf("batch %s item %s: %w", d.ID.Hex(), doc.ID, err)
		}
		items = append(items, models.Item{
			ID:           doc.ID,
			Product:      doc.Product,
			Variant:      doc.Variant,
			CostPerUnit:  cost,
			InitialStock: doc.InitialStock,
			CurrentStock: doc.CurrentStock,
		})
	}

	batch := models.Batch{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		Items:     models.NewItemSet(items...),
		Revision:  d.Revision,
	}
	if d.FinalizedAt != nil {
		finalized := *d.FinalizedAt
		batch.FinalizedAt = &finalized
	}
	return batch, nil
}

func newSaleDocument(sale models.Sale) (saleDocument, error) {
	doc := saleDocument{
		BatchID:     sale.BatchID,
		BatchName:   sale.BatchName,
		ItemID:      sale.ItemID,
		ProductName: sale.ProductName,
		Variant:     sale.Variant,
		Quantity:    sale.Quantity,
		Source:      string(sale.Source),
		IsReseller:  sale.IsReseller,
		Date:        sale.Date,
	}

	var err error
	if doc.UnitPrice, err = toDecimal128(sale.UnitPrice); err != nil {
		return saleDocument{}, err
	}
	if doc.CostPerUnitAtSale, err = toDecimal128(sale.CostPerUnitAtSale); err != nil {
		return saleDocument{}, err
	}
	if doc.ShippingCostAtSale, err = toDecimal128(sale.ShippingCostAtSale); err != nil {
		return saleDocument{}, err
	}
	if doc.NetCashIn, err = toDecimal128(sale.NetCashIn); err != nil {
		return saleDocument{}, err
	}
	return doc, nil
}

func (d saleDocument) toModel() (models.Sale, error) {
	sale := models.Sale{
		ID:          d.ID.Hex(),
		BatchID:     d.BatchID,
		BatchName:   d.BatchName,
		ItemID:      d.ItemID,
		ProductName: d.ProductName,
		Variant:     d.Variant,
		Quantity:    d.Quantity,
		Source:      models.SaleSource(d.Source),
		IsReseller:  d.IsReseller,
		Date:        d.Date,
	}

	var err error
	if sale.UnitPrice, err = fromDecimal128(d.UnitPrice); err != nil {
		return models.Sale{}, err
	}
	if sale.CostPerUnitAtSale, err = fromDecimal128(d.CostPerUnitAtSale); err != nil {
		return models.Sale{}, err
	}
	if sale.ShippingCostAtSale, err = fromDecimal128(d.ShippingCostAtSale); err != nil {
		return models.Sale{}, err
	}
	if sale.NetCashIn, err = fromDecimal128(d.NetCashIn); err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

func newExpenseDocument(expense models.Expense) (expenseDocument, error) {
	amount, err := toDecimal128(expense.Amount)
	if err != nil {
		return expenseDocument{}, err
	}
	return expenseDocument{
		Description: expense.Description,
		Amount:      amount,
		Date:        expense.Date,
		BatchID:     expense.BatchID,
		BatchName:   expense.BatchName,
	}, nil
}

func (d expenseDocument) toModel() (models.Expense, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return models.Expense{}, err
	}
	return models.Expense{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Amount:      amount,
		Date:        d.Date,
		BatchID:     d.BatchID,
		BatchName:   d.BatchName,
	}, nil
}
