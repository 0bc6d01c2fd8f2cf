package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/table-service/utils"
)

// SeatingPolicy selects how a free spot is chosen at customer login.
type SeatingPolicy string

const (
	// SeatCapacity only seats at spots whose waiter serves fewer than
	// WaiterCapacity customers.
	SeatCapacity SeatingPolicy = "capacity"
	// SeatFirstAvailable takes the first free spot regardless of waiter.
	SeatFirstAvailable SeatingPolicy = "first_available"
)

// ChefAssignment selects how line items get a chef.
type ChefAssignment string

const (
	ChefManual     ChefAssignment = "manual"
	ChefRoundRobin ChefAssignment = "round_robin"
)

type Config struct {
	Port       string
	GinMode    string
	CORSOrigin string

	DBDriver   string
	DBDSN      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SeedFile   string

	JWTSecret string

	Rules Rules
}

// Rules are the business knobs the services read.
type Rules struct {
	TaxRate               decimal.Decimal
	WaiterCapacity        int
	SeatingPolicy         SeatingPolicy
	ChefAssignment        ChefAssignment
	AllowBackwardStatus   bool
	DeleteEmptyOrders     bool
	StartingLoyaltyPoints int
	LoyaltyDivisor        int64
}

// DefaultRules matches the reference behaviour of the restaurant.
func DefaultRules() Rules {
	return Rules{
		TaxRate:               decimal.RequireFromString("0.18"),
		WaiterCapacity:        3,
		SeatingPolicy:         SeatCapacity,
		ChefAssignment:        ChefManual,
		AllowBackwardStatus:   false,
		DeleteEmptyOrders:     true,
		StartingLoyaltyPoints: 100,
		LoyaltyDivisor:        10,
	}
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Printf("Warning: .env file not found or error loading: %v", err)
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://127.0.0.1:5500"),
		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBDSN:      os.Getenv("DB_DSN"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "restaurant_db"),
		SeedFile:   os.Getenv("SEED_FILE"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		Rules:      DefaultRules(),
	}

	if cfg.JWTSecret == "" {
		utils.InfoLogger.Println("Warning: JWT_SECRET not set, using development secret")
		cfg.JWTSecret = "TableServiceDevSecret"
	}

	if err := cfg.loadRules(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) loadRules() error {
	r := &cfg.Rules

	if v := os.Getenv("TAX_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil || rate.IsNegative() {
			return fmt.Errorf("invalid TAX_RATE %q", v)
		}
		r.TaxRate = rate
	}

	var err error
	if r.WaiterCapacity, err = getEnvInt("WAITER_CAPACITY", r.WaiterCapacity); err != nil {
		return err
	}
	if r.WaiterCapacity <= 0 {
		return fmt.Errorf("WAITER_CAPACITY must be positive")
	}
	if r.StartingLoyaltyPoints, err = getEnvInt("STARTING_LOYALTY_POINTS", r.StartingLoyaltyPoints); err != nil {
		return err
	}
	divisor, err := getEnvInt("LOYALTY_DIVISOR", int(r.LoyaltyDivisor))
	if err != nil {
		return err
	}
	if divisor <= 0 {
		return fmt.Errorf("LOYALTY_DIVISOR must be positive")
	}
	r.LoyaltyDivisor = int64(divisor)

	switch p := SeatingPolicy(getEnv("SEATING_POLICY", string(r.SeatingPolicy))); p {
	case SeatCapacity, SeatFirstAvailable:
		r.SeatingPolicy = p
	default:
		return fmt.Errorf("invalid SEATING_POLICY %q", p)
	}

	switch a := ChefAssignment(getEnv("CHEF_ASSIGNMENT", string(r.ChefAssignment))); a {
	case ChefManual, ChefRoundRobin:
		r.ChefAssignment = a
	default:
		return fmt.Errorf("invalid CHEF_ASSIGNMENT %q", a)
	}

	if r.AllowBackwardStatus, err = getEnvBool("KITCHEN_ALLOW_BACKWARD", r.AllowBackwardStatus); err != nil {
		return err
	}
	if r.DeleteEmptyOrders, err = getEnvBool("DELETE_EMPTY_ORDERS", r.DeleteEmptyOrders); err != nil {
		return err
	}
	return nil
}

// DSN builds the connection string for the configured driver unless DB_DSN
// overrides it.
func (cfg *Config) DSN() string {
	if cfg.DBDSN != "" {
		return cfg.DBDSN
	}
	switch cfg.DBDriver {
	case "postgres":
		port := cfg.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, port)
	case "sqlite":
		return cfg.DBName + ".db"
	default:
		port := cfg.DBPort
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, port, cfg.DBName)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
