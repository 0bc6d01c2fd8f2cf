package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-service/database"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// NewEmployee is the input for CreateEmployee.
type NewEmployee struct {
	Name     string          `json:"name" binding:"required"`
	Phone    string          `json:"phone" binding:"required"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.Role     `json:"role" binding:"required"`
	Salary   decimal.Decimal `json:"salary"`
}

// MenuItemInput creates a menu item. Nil pointer fields of a patch are left
// unchanged.
type MenuItemInput struct {
	Name            *string          `json:"name"`
	Category        *string          `json:"category"`
	Price           *decimal.Decimal `json:"price"`
	PrepTimeMinutes *int             `json:"prep_time_minutes"`
	Allergens       *string          `json:"allergens"`
	Description     *string          `json:"description"`
	ImageRef        *string          `json:"image_ref"`
}

// RecentOrder is a row of the admin dashboard.
type RecentOrder struct {
	OrderID      uint              `json:"order_id"`
	Reference    string            `json:"reference"`
	CustomerName string            `json:"customer_name"`
	Paid         bool              `json:"paid"`
	BillStatus   models.BillStatus `json:"bill_status"`
	CreatedAt    time.Time         `json:"created_at"`
}

type AdminDashboard struct {
	Customers     int64         `json:"customers"`
	Waiters       int64         `json:"waiters"`
	Chefs         int64         `json:"chefs"`
	MenuItems     int64         `json:"menu_items"`
	Spots         int64         `json:"spots"`
	OccupiedSpots int64         `json:"occupied_spots"`
	OpenOrders    int64         `json:"open_orders"`
	RecentOrders  []RecentOrder `json:"recent_orders"`
}

type AdminService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewAdminService(db *gorm.DB, notifier Notifier) *AdminService {
	return &AdminService{db: db, notifier: notifier}
}

// CreateEmployee inserts the employee and its waiter or chef record in one
// transaction.
func (s *AdminService) CreateEmployee(ctx context.Context, p Principal, in NewEmployee) (*models.Employee, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.createEmployee(ctx, in)
}

func (s *AdminService) createEmployee(ctx context.Context, in NewEmployee) (*models.Employee, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Phone == "" || in.Password == "" {
		return nil, utils.InvalidState("name, phone and password are required")
	}
	if !in.Role.IsEmployee() {
		return nil, utils.InvalidState(fmt.Sprintf("invalid employee role %q", in.Role))
	}
	if in.Salary.IsNegative() {
		return nil, utils.InvalidState("salary cannot be negative")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, utils.StoreFailure("failed to hash password", err)
	}

	employee := models.Employee{
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         in.Role,
		PasswordHash: hash,
		Active:       true,
		Salary:       in.Salary.Round(2),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.Employee{}).Where("phone = ?", employee.Phone).Count(&taken).Error; err != nil {
			return utils.StoreFailure("failed to check phone", err)
		}
		if taken > 0 {
			return utils.Conflict("phone already registered")
		}
		if err := tx.Create(&employee).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.Conflict("phone already registered")
			}
			return utils.StoreFailure("failed to create employee", err)
		}

		switch employee.Role {
		case models.RoleWaiter:
			if err := tx.Create(&models.Waiter{EmployeeID: employee.ID}).Error; err != nil {
				return utils.StoreFailure("failed to create waiter", err)
			}
		case models.RoleChef:
			if err := tx.Create(&models.Chef{EmployeeID: employee.ID}).Error; err != nil {
				return utils.StoreFailure("failed to create chef", err)
			}
		case models.RoleAdmin:
		case models.RoleCustomer:
			return utils.InvalidState("customers are not employees")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Infof("Employee %d created with role %s", employee.ID, employee.Role)
	return &employee, nil
}

// ToggleEmployee flips the active flag. An admin cannot deactivate themselves.
func (s *AdminService) ToggleEmployee(ctx context.Context, p Principal, id uint) (*models.Employee, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	if id == p.ID {
		return nil, utils.InvalidState("cannot deactivate your own account")
	}

	var employee models.Employee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&employee, id).Error; err != nil {
			return lookupErr(err, "employee not found")
		}
		employee.Active = !employee.Active
		if err := tx.Model(&employee).Update("active", employee.Active).Error; err != nil {
			return utils.StoreFailure("failed to toggle employee", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListEmployees returns every employee ordered by id.
func (s *AdminService) ListEmployees(ctx context.Context, p Principal) ([]models.Employee, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	var employees []models.Employee
	if err := s.db.WithContext(ctx).Order("id").Find(&employees).Error; err != nil {
		return nil, utils.StoreFailure("failed to list employees", err)
	}
	return employees, nil
}

func (s *AdminService) CreateMenuItem(ctx context.Context, p Principal, in MenuItemInput) (*models.MenuItem, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return nil, utils.InvalidState("name and category are required")
	}
	if in.Price == nil || !in.Price.IsPositive() {
		return nil, utils.InvalidState("price must be positive")
	}

	item := models.MenuItem{
		Name:      strings.TrimSpace(*in.Name),
		Category:  strings.TrimSpace(*in.Category),
		Price:     in.Price.Round(2),
		Available: true,
		ImageRef:  in.ImageRef,
	}
	if in.PrepTimeMinutes != nil {
		if *in.PrepTimeMinutes < 0 {
			return nil, utils.InvalidState("prep time cannot be negative")
		}
		item.PrepTimeMinutes = *in.PrepTimeMinutes
	}
	if in.Allergens != nil {
		item.Allergens = *in.Allergens
	}
	if in.Description != nil {
		item.Description = *in.Description
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, utils.StoreFailure("failed to create menu item", err)
	}
	utils.InfoLogger.Infof("Menu item %d created: %s", item.ID, item.Name)
	return &item, nil
}

// UpdateMenuItem applies a partial edit.
func (s *AdminService) UpdateMenuItem(ctx context.Context, p Principal, id uint, in MenuItemInput) (*models.MenuItem, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, utils.InvalidState("name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		if strings.TrimSpace(*in.Category) == "" {
			return nil, utils.InvalidState("category cannot be empty")
		}
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, utils.InvalidState("price must be positive")
		}
		updates["price"] = in.Price.Round(2)
	}
	if in.PrepTimeMinutes != nil {
		if *in.PrepTimeMinutes < 0 {
			return nil, utils.InvalidState("prep time cannot be negative")
		}
		updates["prep_time_minutes"] = *in.PrepTimeMinutes
	}
	if in.Allergens != nil {
		updates["allergens"] = *in.Allergens
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ImageRef != nil {
		updates["image_ref"] = *in.ImageRef
	}

	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return lookupErr(err, "menu item not found")
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return utils.StoreFailure("failed to update menu item", err)
		}
		return tx.First(&item, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleMenuItem flips availability. Chefs may do this to mark an item sold
// out.
func (s *AdminService) ToggleMenuItem(ctx context.Context, p Principal, id uint) (*models.MenuItem, error) {
	if err := requireRole(p, models.RoleAdmin, models.RoleChef); err != nil {
		return nil, err
	}

	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return lookupErr(err, "menu item not found")
		}
		item.Available = !item.Available
		if err := tx.Model(&item).Update("available", item.Available).Error; err != nil {
			return utils.StoreFailure("failed to toggle menu item", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Infof("Menu item %d availability set to %t by %s %d", item.ID, item.Available, p.Role, p.ID)
	return &item, nil
}

func (s *AdminService) CreateSpot(ctx context.Context, p Principal, label string) (*models.Spot, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.createSpot(ctx, label)
}

func (s *AdminService) createSpot(ctx context.Context, label string) (*models.Spot, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, utils.InvalidState("label is required")
	}
	spot := models.Spot{Label: label, Availability: true}
	if err := s.db.WithContext(ctx).Create(&spot).Error; err != nil {
		return nil, utils.StoreFailure("failed to create spot", err)
	}
	s.notifier.SpotChanged(spot)
	return &spot, nil
}

// Dashboard gathers head counts and the ten most recent orders.
func (s *AdminService) Dashboard(ctx context.Context, p Principal) (*AdminDashboard, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var dash AdminDashboard
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&dash.Customers, db.Model(&models.Customer{})},
		{&dash.Waiters, db.Model(&models.Waiter{})},
		{&dash.Chefs, db.Model(&models.Chef{})},
		{&dash.MenuItems, db.Model(&models.MenuItem{})},
		{&dash.Spots, db.Model(&models.Spot{})},
		{&dash.OccupiedSpots, db.Model(&models.Spot{}).Where("availability = ?", false)},
		{&dash.OpenOrders, db.Model(&models.Order{}).Where("paid = ?", false)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, utils.StoreFailure("failed to load dashboard counts", err)
		}
	}

	var orders []models.Order
	if err := db.Preload("Customer").Order("created_at desc").Order("id desc").
		Limit(10).Find(&orders).Error; err != nil {
		return nil, utils.StoreFailure("failed to load recent orders", err)
	}
	dash.RecentOrders = make([]RecentOrder, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		row := RecentOrder{
			OrderID:    o.ID,
			Reference:  o.Reference(),
			Paid:       o.Paid,
			BillStatus: o.BillStatus,
			CreatedAt:  o.CreatedAt,
		}
		if o.Customer != nil {
			row.CustomerName = o.Customer.Name
		}
		dash.RecentOrders = append(dash.RecentOrders, row)
	}
	return &dash, nil
}

// ApplySeed loads spots, menu items and employees that are not already
// present. Spots match by label, menu items by name, employees by phone.
func (s *AdminService) ApplySeed(ctx context.Context, seed *database.Seed) error {
	db := s.db.WithContext(ctx)

	for _, sp := range seed.Spots {
		var n int64
		if err := db.Model(&models.Spot{}).Where("label = ?", sp.Label).Count(&n).Error; err != nil {
			return utils.StoreFailure("failed to check spot", err)
		}
		if n > 0 {
			continue
		}
		if _, err := s.createSpot(ctx, sp.Label); err != nil {
			return err
		}
	}

	for _, m := range seed.Menu {
		var n int64
		if err := db.Model(&models.MenuItem{}).Where("name = ?", m.Name).Count(&n).Error; err != nil {
			return utils.StoreFailure("failed to check menu item", err)
		}
		if n > 0 {
			continue
		}
		item := models.MenuItem{
			Name:            m.Name,
			Category:        m.Category,
			Price:           m.Price.Round(2),
			PrepTimeMinutes: m.PrepTimeMinutes,
			Available:       true,
			Allergens:       m.Allergens,
			Description:     m.Description,
		}
		if m.ImageRef != "" {
			ref := m.ImageRef
			item.ImageRef = &ref
		}
		if err := db.Create(&item).Error; err != nil {
			return utils.StoreFailure("failed to seed menu item", err)
		}
	}

	for _, e := range seed.Employees {
		var n int64
		if err := db.Model(&models.Employee{}).Where("phone = ?", e.Phone).Count(&n).Error; err != nil {
			return utils.StoreFailure("failed to check employee", err)
		}
		if n > 0 {
			continue
		}
		role, err := models.ParseRole(e.Role)
		if err != nil {
			return utils.InvalidState(err.Error())
		}
		if _, err := s.createEmployee(ctx, NewEmployee{
			Name:     e.Name,
			Phone:    e.Phone,
			Password: e.Password,
			Role:     role,
			Salary:   e.Salary,
		}); err != nil {
			return err
		}
	}

	utils.InfoLogger.Infof("Seed applied: %d spots, %d menu items, %d employees",
		len(seed.Spots), len(seed.Menu), len(seed.Employees))
	return nil
}
