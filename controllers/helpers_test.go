package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/database"
	"github.com/yeremiapane/table-service/kds"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/router"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testAPI struct {
	t   *testing.T
	db  *gorm.DB
	svc *services.Services
	hub *kds.Hub
	r   *gin.Engine
	seq int
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SilenceLogger()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{JWTSecret: testSecret, CORSOrigin: "*", Rules: config.DefaultRules()}
	hub := kds.NewHub()
	svc := services.New(db, cfg.Rules, hub)
	return &testAPI{t: t, db: db, svc: svc, hub: hub, r: router.NewEngine(svc, cfg, hub)}
}

func (a *testAPI) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *testAPI) employee(name string, role models.Role, password string) models.Employee {
	a.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(a.t, err)
	a.seq++
	e := models.Employee{
		Name:         name,
		Phone:        fmt.Sprintf("07%08d", a.seq),
		Role:         role,
		PasswordHash: string(hash),
		Active:       true,
		Salary:       decimal.RequireFromString("3000.00"),
	}
	require.NoError(a.t, a.db.Create(&e).Error)
	switch role {
	case models.RoleWaiter:
		require.NoError(a.t, a.db.Create(&models.Waiter{EmployeeID: e.ID}).Error)
	case models.RoleChef:
		require.NoError(a.t, a.db.Create(&models.Chef{EmployeeID: e.ID}).Error)
	}
	return e
}

func (a *testAPI) waiterID(e models.Employee) uint {
	a.t.Helper()
	var w models.Waiter
	require.NoError(a.t, a.db.Where("employee_id = ?", e.ID).First(&w).Error)
	return w.ID
}

func (a *testAPI) spot(label string, waiterID *uint) models.Spot {
	a.t.Helper()
	s := models.Spot{Label: label, Availability: true, WaiterID: waiterID}
	require.NoError(a.t, a.db.Create(&s).Error)
	return s
}

func (a *testAPI) menuItem(name, category, price string) models.MenuItem {
	a.t.Helper()
	m := models.MenuItem{
		Name:            name,
		Category:        category,
		Price:           decimal.RequireFromString(price),
		PrepTimeMinutes: 10,
		Available:       true,
	}
	require.NoError(a.t, a.db.Create(&m).Error)
	return m
}

func (a *testAPI) tokenFor(id uint, role models.Role) string {
	a.t.Helper()
	token, err := utils.GenerateToken(testSecret, id, string(role))
	require.NoError(a.t, err)
	return token
}

// seatedCustomer registers and logs in a customer over HTTP.
func (a *testAPI) seatedCustomer(name, phone string) (models.Customer, string) {
	a.t.Helper()
	w, _ := a.do(http.MethodPost, "/register", "", gin.H{"name": name, "phone": phone})
	require.Equal(a.t, http.StatusCreated, w.Code)

	w, env := a.do(http.MethodPost, "/customer/login", "", gin.H{"phone": phone})
	require.Equal(a.t, http.StatusOK, w.Code)
	var data struct {
		Token    string          `json:"token"`
		Customer models.Customer `json:"customer"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &data))
	return data.Customer, data.Token
}

func (a *testAPI) hubClients() int {
	return a.hub.Clients()
}

func (a *testAPI) openOrder(customerID uint) *models.Order {
	a.t.Helper()
	o, err := a.svc.Orders.OpenOrder(context.Background(), customerID)
	require.NoError(a.t, err)
	return o
}
