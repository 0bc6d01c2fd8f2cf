package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// SeatResult is either a claimed spot or a waiting-room outcome.
type SeatResult struct {
	Spot        *models.Spot `json:"spot,omitempty"`
	WaitingRoom bool         `json:"waiting_room"`
}

type SeatingService struct {
	db       *gorm.DB
	rules    config.Rules
	notifier Notifier
}

func NewSeatingService(db *gorm.DB, rules config.Rules, notifier Notifier) *SeatingService {
	return &SeatingService{db: db, rules: rules, notifier: notifier}
}

// Seat returns the spot the customer already holds or claims a free one.
// Claims are conditional updates so two customers never share a spot.
func (s *SeatingService) Seat(ctx context.Context, customerID uint) (*SeatResult, error) {
	db := s.db.WithContext(ctx)

	if spot, err := s.currentSpot(db, customerID); err != nil || spot != nil {
		if err != nil {
			return nil, err
		}
		return &SeatResult{Spot: spot}, nil
	}

	candidates, err := s.candidates(db)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &SeatResult{WaitingRoom: true}, nil
	}

	for i := range candidates {
		spot := candidates[i]
		res := db.Model(&models.Spot{}).
			Where("id = ? AND availability = ? AND customer_id IS NULL", spot.ID, true).
			Updates(map[string]interface{}{"availability": false, "customer_id": customerID})
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				// A concurrent login for the same customer won.
				held, err := s.currentSpot(db, customerID)
				if err != nil {
					return nil, err
				}
				if held != nil {
					return &SeatResult{Spot: held}, nil
				}
			}
			return nil, utils.StoreFailure("failed to claim spot", res.Error)
		}
		if res.RowsAffected == 1 {
			spot.Availability = false
			spot.CustomerID = &customerID
			utils.InfoLogger.WithFields(logrus.Fields{
				"spot_id":     spot.ID,
				"customer_id": customerID,
			}).Info("Customer seated")
			s.notifier.SpotChanged(spot)
			return &SeatResult{Spot: &spot}, nil
		}
	}

	return nil, utils.Conflict("every free spot was taken, please try again")
}

func (s *SeatingService) currentSpot(db *gorm.DB, customerID uint) (*models.Spot, error) {
	var spot models.Spot
	err := db.Where("customer_id = ?", customerID).First(&spot).Error
	if err == nil {
		return &spot, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, utils.StoreFailure("failed to load spot", err)
}

// candidates lists free spots in id order. Under the capacity policy only
// spots whose waiter is below capacity qualify.
func (s *SeatingService) candidates(db *gorm.DB) ([]models.Spot, error) {
	q := db.Where("availability = ? AND customer_id IS NULL", true)

	switch s.rules.SeatingPolicy {
	case config.SeatFirstAvailable:
	case config.SeatCapacity:
		busy := db.Model(&models.Spot{}).
			Select("waiter_id").
			Where("availability = ? AND waiter_id IS NOT NULL", false).
			Group("waiter_id").
			Having("COUNT(*) >= ?", s.rules.WaiterCapacity)
		q = q.Where("waiter_id IS NOT NULL").Where("waiter_id NOT IN (?)", busy)
	default:
		return nil, utils.InvalidState("unknown seating policy")
	}

	var spots []models.Spot
	if err := q.Order("id").Find(&spots).Error; err != nil {
		return nil, utils.StoreFailure("failed to list free spots", err)
	}
	return spots, nil
}

// BootstrapWaiterSpots gives a waiter with no spots up to WaiterCapacity
// unassigned spots. Waiters that already hold a spot are left alone.
func (s *SeatingService) BootstrapWaiterSpots(ctx context.Context, waiterID uint) error {
	assigned := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var waiter models.Waiter
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&waiter, waiterID).Error; err != nil {
			return lookupErr(err, "waiter not found")
		}

		var count int64
		if err := tx.Model(&models.Spot{}).Where("waiter_id = ?", waiterID).Count(&count).Error; err != nil {
			return utils.StoreFailure("failed to count waiter spots", err)
		}
		if count > 0 {
			return nil
		}

		var free []models.Spot
		if err := tx.Where("waiter_id IS NULL").Order("id").
			Limit(s.rules.WaiterCapacity).Find(&free).Error; err != nil {
			return utils.StoreFailure("failed to list unassigned spots", err)
		}
		for _, spot := range free {
			res := tx.Model(&models.Spot{}).
				Where("id = ? AND waiter_id IS NULL", spot.ID).
				Update("waiter_id", waiterID)
			if res.Error != nil {
				return utils.StoreFailure("failed to assign spot", res.Error)
			}
			assigned += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if assigned > 0 {
		utils.InfoLogger.Infof("Assigned %d spots to waiter %d", assigned, waiterID)
	}
	return nil
}

// AssignWaiter sets or clears the waiter serving a spot. A waiter never
// holds more than WaiterCapacity spots.
func (s *SeatingService) AssignWaiter(ctx context.Context, p Principal, spotID uint, waiterID *uint) (*models.Spot, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	var spot models.Spot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&spot, spotID).Error; err != nil {
			return lookupErr(err, "spot not found")
		}
		if waiterID != nil {
			var waiter models.Waiter
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&waiter, *waiterID).Error; err != nil {
				return lookupErr(err, "waiter not found")
			}
			var count int64
			if err := tx.Model(&models.Spot{}).
				Where("waiter_id = ? AND id <> ?", waiter.ID, spot.ID).
				Count(&count).Error; err != nil {
				return utils.StoreFailure("failed to count waiter spots", err)
			}
			if count >= int64(s.rules.WaiterCapacity) {
				return utils.Conflict("waiter already serves the maximum number of spots")
			}
		}
		if err := tx.Model(&spot).Update("waiter_id", waiterID).Error; err != nil {
			return utils.StoreFailure("failed to assign waiter", err)
		}
		spot.WaiterID = waiterID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.SpotChanged(spot)
	return &spot, nil
}

// ReleaseSpot frees the spot a customer holds, if any.
func (s *SeatingService) ReleaseSpot(ctx context.Context, p Principal, spotID uint) (*models.Spot, error) {
	if err := requireRole(p, models.RoleAdmin, models.RoleWaiter); err != nil {
		return nil, err
	}
	var spot models.Spot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&spot, spotID).Error; err != nil {
			return lookupErr(err, "spot not found")
		}
		if p.Role == models.RoleWaiter {
			waiter, err := waiterFor(tx, p.ID)
			if err != nil {
				return err
			}
			if spot.WaiterID == nil || *spot.WaiterID != waiter.ID {
				return utils.Forbidden("not authorized")
			}
		}
		if spot.CustomerID != nil {
			unpaid, err := openOrder(tx, *spot.CustomerID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.StoreFailure("failed to load order", err)
			}
			if unpaid != nil {
				var items int64
				if err := tx.Model(&models.OrderLineItem{}).Where("order_id = ?", unpaid.ID).Count(&items).Error; err != nil {
					return utils.StoreFailure("failed to count order items", err)
				}
				if items > 0 {
					return utils.InvalidState("customer has an unpaid order")
				}
			}
		}
		if err := tx.Model(&spot).Updates(map[string]interface{}{"availability": true, "customer_id": nil}).Error; err != nil {
			return utils.StoreFailure("failed to release spot", err)
		}
		spot.Availability = true
		spot.CustomerID = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.SpotChanged(spot)
	return &spot, nil
}
