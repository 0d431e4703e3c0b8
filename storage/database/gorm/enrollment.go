package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trezcool/elimu/core/enrollment"
)

type purchaseRepository struct {
	db *gorm.DB
}

var _ enrollment.Repository = (*purchaseRepository)(nil) // interface compliance check

func NewPurchaseRepository(db *gorm.DB) *purchaseRepository {
	return &purchaseRepository{db: db}
}

func (repo purchaseRepository) fromRow(row *purchaseRow) enrollment.Purchase {
	return enrollment.Purchase{
		ID:         row.ID,
		CustomerID: row.CustomerID,
		CourseID:   row.CourseID,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

func (repo purchaseRepository) CreatePurchase(ctx context.Context, p enrollment.Purchase) (bool, error) {
	row := &purchaseRow{
		ID:         p.ID,
		CustomerID: p.CustomerID,
		CourseID:   p.CourseID,
		CreatedAt:  p.CreatedAt.UTC(),
	}
	res := getDB(ctx, repo.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, errors.Wrap(translateErr(res.Error), "creating purchase")
	}
	return res.RowsAffected > 0, nil
}

func (repo purchaseRepository) GetPurchase(ctx context.Context, customerID, courseID string) (enrollment.Purchase, error) {
	var row purchaseRow
	err := getDB(ctx, repo.db).Where("customer_id = ? AND course_id = ?", customerID, courseID).Take(&row).Error
	if err != nil {
		return enrollment.Purchase{}, errors.Wrap(translateErr(err), "getting purchase")
	}
	return repo.fromRow(&row), nil
}

func (repo purchaseRepository) QueryCustomerPurchases(ctx context.Context, customerID string) ([]enrollment.Purchase, error) {
	var rows []purchaseRow
	err := getDB(ctx, repo.db).Where("customer_id = ?", customerID).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(translateErr(err), "querying purchases")
	}
	purchases := make([]enrollment.Purchase, 0, len(rows))
	for i := range rows {
		purchases = append(purchases, repo.fromRow(&rows[i]))
	}
	return purchases, nil
}
