package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

type AccountService struct {
	db      *gorm.DB
	rules   config.Rules
	seating *SeatingService
}

func NewAccountService(db *gorm.DB, rules config.Rules, seating *SeatingService) *AccountService {
	return &AccountService{db: db, rules: rules, seating: seating}
}

// Register creates a customer with the starting loyalty balance.
func (s *AccountService) Register(ctx context.Context, name, phone string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, utils.InvalidState("name and phone are required")
	}

	db := s.db.WithContext(ctx)
	var taken int64
	if err := db.Model(&models.Customer{}).Where("phone = ?", phone).Count(&taken).Error; err != nil {
		return nil, utils.StoreFailure("failed to check phone", err)
	}
	if taken > 0 {
		return nil, utils.Conflict("phone already registered")
	}

	customer := models.Customer{Name: name, Phone: phone, LoyaltyPoints: s.rules.StartingLoyaltyPoints}
	err := db.Create(&customer).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, utils.Conflict("phone already registered")
	}
	if err != nil {
		return nil, utils.StoreFailure("failed to register customer", err)
	}
	utils.InfoLogger.WithField("customer_id", customer.ID).Info("Customer registered")
	return &customer, nil
}

// CustomerLogin identifies a customer by phone and seats them.
func (s *AccountService) CustomerLogin(ctx context.Context, phone string) (*models.Customer, *SeatResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil, utils.InvalidState("phone is required")
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&customer).Error; err != nil {
		return nil, nil, lookupErr(err, "phone not found")
	}

	seat, err := s.seating.Seat(ctx, customer.ID)
	if err != nil {
		return nil, nil, err
	}
	return &customer, seat, nil
}

// EmployeeLogin checks phone and password. Unknown phones, wrong passwords
// and deactivated accounts all read as invalid credentials.
func (s *AccountService) EmployeeLogin(ctx context.Context, phone, password string) (*models.Employee, error) {
	var employee models.Employee
	err := s.db.WithContext(ctx).Where("phone = ?", strings.TrimSpace(phone)).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return nil, utils.StoreFailure("failed to load employee", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		utils.InfoLogger.WithField("employee_id", employee.ID).Warn("Failed employee login")
		return nil, utils.Unauthenticated("invalid credentials")
	}
	if !employee.Active {
		return nil, utils.Unauthenticated("invalid credentials")
	}
	return &employee, nil
}

// Customer loads a customer by id.
func (s *AccountService) Customer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, lookupErr(err, "customer not found")
	}
	return &customer, nil
}

// ActiveEmployee confirms a staff token still belongs to an active employee
// with the role the token claims.
func (s *AccountService) ActiveEmployee(ctx context.Context, id uint, role models.Role) (*models.Employee, error) {
	var employee models.Employee
	err := s.db.WithContext(ctx).First(&employee, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.Unauthenticated("unauthorized")
	}
	if err != nil {
		return nil, utils.StoreFailure("failed to load employee", err)
	}
	if !employee.Active || employee.Role != role {
		return nil, utils.Unauthenticated("unauthorized")
	}
	return &employee, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
