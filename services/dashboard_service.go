package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// CategoryOrder is the order categories are shown in. Unknown categories
// follow alphabetically.
var CategoryOrder = []string{"Tiffin", "Lunch", "Pizza", "Burger", "Salad", "Drinks"}

type ItemView struct {
	MenuItemID  uint                 `json:"menu_item_id"`
	Name        string               `json:"name"`
	Category    string               `json:"category"`
	Price       decimal.Decimal      `json:"price"`
	Quantity    int                  `json:"quantity"`
	LineTotal   decimal.Decimal      `json:"line_total"`
	Status      models.KitchenStatus `json:"status"`
	StatusColor string               `json:"status_color"`
	ChefID      *uint                `json:"chef_id,omitempty"`
}

type OrderView struct {
	ID           uint              `json:"id"`
	Reference    string            `json:"reference"`
	Paid         bool              `json:"paid"`
	BillStatus   models.BillStatus `json:"bill_status"`
	CreatedAt    time.Time         `json:"created_at"`
	Items        []ItemView        `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	AllDelivered bool              `json:"all_delivered"`
	Bill         *models.Bill      `json:"bill,omitempty"`
}

type MenuEntry struct {
	models.MenuItem
	CartQuantity int `json:"cart_quantity"`
}

type MenuCategory struct {
	Name  string      `json:"name"`
	Items []MenuEntry `json:"items"`
}

type MenuView struct {
	Categories  []MenuCategory `json:"categories"`
	OpenOrderID *uint          `json:"open_order_id,omitempty"`
}

type CustomerDashboard struct {
	Customer     models.Customer `json:"customer"`
	Spot         *models.Spot    `json:"spot,omitempty"`
	CurrentOrder *OrderView      `json:"current_order,omitempty"`
	History      []OrderView     `json:"history"`
}

type SpotView struct {
	Spot  models.Spot `json:"spot"`
	Order *OrderView  `json:"order,omitempty"`
}

type DashboardService struct {
	db      *gorm.DB
	seating *SeatingService
}

func NewDashboardService(db *gorm.DB, seating *SeatingService) *DashboardService {
	return &DashboardService{db: db, seating: seating}
}

// Menu groups menu items by category. Customers only see available items,
// annotated with the quantity already in their open order.
func (s *DashboardService) Menu(ctx context.Context, p Principal) (*MenuView, error) {
	db := s.db.WithContext(ctx)

	q := db.Order("name")
	if p.Role == models.RoleCustomer || p.ID == 0 {
		q = q.Where("available = ?", true)
	}
	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, utils.StoreFailure("failed to load menu", err)
	}

	view := &MenuView{}
	cart := map[uint]int{}
	if p.Role == models.RoleCustomer && p.ID != 0 {
		order, err := openOrder(db, p.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.StoreFailure("failed to load open order", err)
		}
		if order != nil {
			view.OpenOrderID = &order.ID
			var lines []models.OrderLineItem
			if err := db.Where("order_id = ?", order.ID).Find(&lines).Error; err != nil {
				return nil, utils.StoreFailure("failed to load order items", err)
			}
			for _, li := range lines {
				cart[li.MenuItemID] = li.Quantity
			}
		}
	}

	byCategory := map[string][]MenuEntry{}
	for _, it := range items {
		byCategory[it.Category] = append(byCategory[it.Category], MenuEntry{MenuItem: it, CartQuantity: cart[it.ID]})
	}
	for _, name := range orderedCategories(byCategory) {
		view.Categories = append(view.Categories, MenuCategory{Name: name, Items: byCategory[name]})
	}
	return view, nil
}

func orderedCategories(byCategory map[string][]MenuEntry) []string {
	known := make(map[string]bool, len(CategoryOrder))
	names := make([]string, 0, len(byCategory))
	for _, c := range CategoryOrder {
		known[c] = true
		if _, ok := byCategory[c]; ok {
			names = append(names, c)
		}
	}
	var rest []string
	for c := range byCategory {
		if !known[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// CustomerDashboard shows the current order and paid history.
func (s *DashboardService) CustomerDashboard(ctx context.Context, p Principal) (*CustomerDashboard, error) {
	if p.Role != models.RoleCustomer || p.ID == 0 {
		return nil, utils.Unauthenticated("unauthorized")
	}
	db := s.db.WithContext(ctx)

	var dash CustomerDashboard
	if err := db.First(&dash.Customer, p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Unauthenticated("unauthorized")
		}
		return nil, utils.StoreFailure("failed to load customer", err)
	}

	var spot models.Spot
	err := db.Where("customer_id = ?", p.ID).First(&spot).Error
	if err == nil {
		dash.Spot = &spot
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.StoreFailure("failed to load spot", err)
	}

	var orders []models.Order
	if err := db.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("menu_item_id")
	}).Preload("LineItems.MenuItem").
		Where("customer_id = ?", p.ID).
		Order("created_at desc").Order("id desc").
		Find(&orders).Error; err != nil {
		return nil, utils.StoreFailure("failed to load orders", err)
	}

	bills, err := s.billsFor(db, orders)
	if err != nil {
		return nil, err
	}

	dash.History = []OrderView{}
	for i := range orders {
		o := &orders[i]
		if len(o.LineItems) == 0 {
			continue
		}
		view := buildOrderView(o, bills[o.ID])
		if !o.Paid && dash.CurrentOrder == nil {
			dash.CurrentOrder = &view
			continue
		}
		if o.Paid {
			dash.History = append(dash.History, view)
		}
	}
	return &dash, nil
}

func (s *DashboardService) billsFor(db *gorm.DB, orders []models.Order) (map[uint]*models.Bill, error) {
	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		if o.Paid {
			ids = append(ids, o.ID)
		}
	}
	out := make(map[uint]*models.Bill, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var bills []models.Bill
	if err := db.Where("order_id IN ?", ids).Find(&bills).Error; err != nil {
		return nil, utils.StoreFailure("failed to load bills", err)
	}
	for i := range bills {
		out[bills[i].OrderID] = &bills[i]
	}
	return out, nil
}

func buildOrderView(o *models.Order, bill *models.Bill) OrderView {
	view := OrderView{
		ID:           o.ID,
		Reference:    o.Reference(),
		Paid:         o.Paid,
		BillStatus:   o.BillStatus,
		CreatedAt:    o.CreatedAt,
		Items:        make([]ItemView, 0, len(o.LineItems)),
		AllDelivered: o.AllAtLeast(models.StatusDelivered),
		Bill:         bill,
	}
	for _, li := range o.LineItems {
		item := ItemView{
			MenuItemID:  li.MenuItemID,
			Quantity:    li.Quantity,
			Status:      li.Status,
			StatusColor: li.Status.StatusColor(),
			ChefID:      li.ChefID,
		}
		if li.MenuItem != nil {
			item.Name = li.MenuItem.Name
			item.Category = li.MenuItem.Category
			item.Price = li.MenuItem.Price
			item.LineTotal = li.MenuItem.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
		}
		view.Items = append(view.Items, item)
	}
	view.Subtotal = ComputeTotals(o.LineItems, decimal.Zero).Subtotal
	return view
}

// WaiterDashboard lists the waiter's spots with each seated customer's open
// order. A waiter without spots is bootstrapped first.
func (s *DashboardService) WaiterDashboard(ctx context.Context, p Principal) ([]SpotView, error) {
	if err := requireRole(p, models.RoleWaiter); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	waiter, err := waiterFor(db, p.ID)
	if err != nil {
		return nil, err
	}
	if err := s.seating.BootstrapWaiterSpots(ctx, waiter.ID); err != nil {
		return nil, err
	}

	var spots []models.Spot
	if err := db.Preload("Customer").Where("waiter_id = ?", waiter.ID).
		Order("id").Find(&spots).Error; err != nil {
		return nil, utils.StoreFailure("failed to load spots", err)
	}

	views := make([]SpotView, 0, len(spots))
	for _, spot := range spots {
		view, err := s.spotView(db, spot)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// WaiterSpot shows one spot. Waiters may only open their own spots.
func (s *DashboardService) WaiterSpot(ctx context.Context, p Principal, spotID uint) (*SpotView, error) {
	if err := requireRole(p, models.RoleWaiter, models.RoleAdmin); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	q := db.Preload("Customer").Where("id = ?", spotID)
	if p.Role == models.RoleWaiter {
		waiter, err := waiterFor(db, p.ID)
		if err != nil {
			return nil, err
		}
		q = q.Where("waiter_id = ?", waiter.ID)
	}
	var spot models.Spot
	if err := q.First(&spot).Error; err != nil {
		return nil, lookupErr(err, "spot not found")
	}
	return s.spotView(db, spot)
}

func (s *DashboardService) spotView(db *gorm.DB, spot models.Spot) (*SpotView, error) {
	view := &SpotView{Spot: spot}
	if spot.CustomerID == nil {
		return view, nil
	}
	order, err := openOrder(db, *spot.CustomerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, utils.StoreFailure("failed to load order", err)
	}
	if err := db.Preload("MenuItem").Where("order_id = ?", order.ID).
		Order("menu_item_id").Find(&order.LineItems).Error; err != nil {
		return nil, utils.StoreFailure("failed to load order items", err)
	}
	if len(order.LineItems) == 0 {
		return view, nil
	}
	ov := buildOrderView(order, nil)
	view.Order = &ov
	return view, nil
}
