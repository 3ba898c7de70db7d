package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"essentia-system/internal/database"
	"essentia-system/internal/database/models"
	"essentia-system/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.JwtSecret = []byte("router-test-secret")
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r, _ := setupRouterWithDB(t)
	return r
}

func setupRouterWithDB(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"),
		&gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return New(db, nil, Options{}), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// registerAndSignIn provisions a user through the public endpoints and
// returns a bearer token for it.
func registerAndSignIn(t *testing.T, r *gin.Engine, email, role string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/users/signup", "", gin.H{
		"email":    email,
		"password": "secret123",
		"fullName": "User " + role,
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/users/signin", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func createPerfume(t *testing.T, r *gin.Engine, token, name, price string, qty int32) int64 {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/perfumes", token, gin.H{
		"name":               name,
		"price":              price,
		"available_quantity": qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		ID int64 `json:"id"`
	}
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func createComponent(t *testing.T, r *gin.Engine, token, name, price string, qty int32) int64 {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/components", token, gin.H{
		"name":               name,
		"price_per_unit":     price,
		"available_quantity": qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		ID int64 `json:"id"`
	}
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func TestSignUpAndSignIn(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/users/signup", "", gin.H{
		"email":    "amelie@example.com",
		"password": "secret123",
		"fullName": "Amelie",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	// duplicate email is rejected
	w = doJSON(t, r, http.MethodPost, "/api/users/signup", "", gin.H{
		"email":    "amelie@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// wrong password
	w = doJSON(t, r, http.MethodPost, "/api/users/signin", "", gin.H{
		"email":    "amelie@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/users/signin", "", gin.H{
		"email":    "amelie@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSignUpRejectsUnknownRole(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/users/signup", "", gin.H{
		"email":    "x@example.com",
		"password": "secret123",
		"role":     "Superuser",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPerfumeCatalogIsPublic(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/perfumes", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/perfumes/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrdersRequireAuthentication(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/orders", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGates(t *testing.T) {
	r := setupRouter(t)
	clientToken := registerAndSignIn(t, r, "client@example.com", models.RoleClient)
	supplierToken := registerAndSignIn(t, r, "supplier@example.com", models.RoleSupplier)

	// clients cannot touch the catalog
	w := doJSON(t, r, http.MethodPost, "/api/perfumes", clientToken, gin.H{
		"name": "Noir", "price": "10.00", "available_quantity": 5,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// suppliers cannot place orders
	w = doJSON(t, r, http.MethodPost, "/api/orders", supplierToken, gin.H{
		"orderItems": []gin.H{{"perfumeId": 1, "quantity": 1}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// clients cannot transition order status
	w = doJSON(t, r, http.MethodPut, "/api/orders/1/Status", clientToken, gin.H{"status": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderLifecycle(t *testing.T) {
	r := setupRouter(t)
	supplierToken := registerAndSignIn(t, r, "supplier@example.com", models.RoleSupplier)
	otherSupplierToken := registerAndSignIn(t, r, "other-supplier@example.com", models.RoleSupplier)
	clientToken := registerAndSignIn(t, r, "client@example.com", models.RoleClient)
	otherClientToken := registerAndSignIn(t, r, "other-client@example.com", models.RoleClient)

	p1 := createPerfume(t, r, supplierToken, "Vetiver Eau de Parfum", "10.00", 10)
	p2 := createPerfume(t, r, supplierToken, "Oud Intense", "25.00", 3)

	w := doJSON(t, r, http.MethodPost, "/api/orders", clientToken, gin.H{
		"orderItems": []gin.H{
			{"perfumeId": p1, "quantity": 2},
			{"perfumeId": p2, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order struct {
		ID         int64  `json:"id"`
		TotalPrice string `json:"total_price"`
		Status     int32  `json:"status"`
	}
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "45.00", order.TotalPrice)
	assert.Equal(t, int32(0), order.Status)

	// over-ordering answers 400 and leaves stock intact
	w = doJSON(t, r, http.MethodPost, "/api/orders", clientToken, gin.H{
		"orderItems": []gin.H{{"perfumeId": p2, "quantity": 5}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/perfumes/%d", p2), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var perfume struct {
		AvailableQuantity int32 `json:"available_quantity"`
	}
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &perfume))
	assert.Equal(t, int32(2), perfume.AvailableQuantity)

	// owner sees the order, another client does not
	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)
	w = doJSON(t, r, http.MethodGet, orderPath, clientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, orderPath, otherClientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// only a supplier with products in the order may transition it
	statusPath := fmt.Sprintf("/api/orders/%d/Status", order.ID)
	w = doJSON(t, r, http.MethodPut, statusPath, otherSupplierToken, gin.H{"status": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, r, http.MethodPut, statusPath, supplierToken, gin.H{"status": 1})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, orderPath, clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, int32(1), order.Status)
}

func TestCustomOrderLifecycle(t *testing.T) {
	r := setupRouter(t)
	supplierToken := registerAndSignIn(t, r, "supplier@example.com", models.RoleSupplier)
	adminToken := registerAndSignIn(t, r, "admin@example.com", models.RoleAdmin)
	clientToken := registerAndSignIn(t, r, "client@example.com", models.RoleClient)

	c1 := createComponent(t, r, supplierToken, "Bergamot Oil", "3.50", 20)
	c2 := createComponent(t, r, supplierToken, "Sandalwood Base", "7.25", 8)

	w := doJSON(t, r, http.MethodPost, "/api/orders/Custom", clientToken, gin.H{
		"components": []gin.H{
			{"componentId": c1, "quantity": 4},
			{"componentId": c2, "quantity": 2},
		},
		"notes": "long lasting, woody",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order struct {
		ID         int64  `json:"id"`
		TotalPrice string `json:"total_price"`
	}
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "0.00", order.TotalPrice)

	// admin prices the blend while moving it to production
	statusPath := fmt.Sprintf("/api/orders/%d/Status", order.ID)
	w = doJSON(t, r, http.MethodPut, statusPath, adminToken, gin.H{"status": 1, "price": "120.50"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/orders/Custom/%d", order.ID), clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var custom struct {
		Price string `json:"price"`
		Notes string `json:"notes"`
	}
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &custom))
	assert.Equal(t, "120.50", custom.Price)
	assert.Equal(t, "long lasting, woody", custom.Notes)
}

func TestDashboards(t *testing.T) {
	r := setupRouter(t)
	clientToken := registerAndSignIn(t, r, "client@example.com", models.RoleClient)
	supplierToken := registerAndSignIn(t, r, "supplier@example.com", models.RoleSupplier)
	adminToken := registerAndSignIn(t, r, "admin@example.com", models.RoleAdmin)

	w := doJSON(t, r, http.MethodGet, "/api/dashboard/Client", clientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/dashboard/Supplier", supplierToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/dashboard/Admin", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// admin dashboard is gated
	w = doJSON(t, r, http.MethodGet, "/api/dashboard/Admin", clientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// dropRowBeforeUpdate deletes the given row right before the handler's
// update statement runs, simulating a delete racing the update.
func dropRowBeforeUpdate(t *testing.T, db *gorm.DB, table string, id int64) {
	t.Helper()
	fired := false
	err := db.Callback().Update().Before("gorm:update").Register("drop_row_before_update", func(tx *gorm.DB) {
		if fired {
			return
		}
		fired = true
		tx.Session(&gorm.Session{NewDB: true}).Exec("DELETE FROM "+table+" WHERE id = ?", id)
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Callback().Update().Remove("drop_row_before_update")
	})
}

func TestPerfumeUpdateLosingToDeleteIsNotFound(t *testing.T) {
	r, db := setupRouterWithDB(t)
	supplierToken := registerAndSignIn(t, r, "supplier@example.com", models.RoleSupplier)
	id := createPerfume(t, r, supplierToken, "Ambre Nuit", "10.00", 5)

	dropRowBeforeUpdate(t, db, "perfumes", id)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/perfumes/%d", id), supplierToken,
		gin.H{"price": "12.00"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	// the losing update must not bring the deleted row back
	var count int64
	require.NoError(t, db.Model(&models.Perfume{}).Where("id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
}

func TestComponentUpdateLosingToDeleteIsNotFound(t *testing.T) {
	r, db := setupRouterWithDB(t)
	supplierToken := registerAndSignIn(t, r, "supplier@example.com", models.RoleSupplier)
	id := createComponent(t, r, supplierToken, "Iris Butter", "8.00", 5)

	dropRowBeforeUpdate(t, db, "components", id)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/components/%d", id), supplierToken,
		gin.H{"price_per_unit": "9.00"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	var count int64
	require.NoError(t, db.Model(&models.Component{}).Where("id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSignInRecordsLastLogin(t *testing.T) {
	r, db := setupRouterWithDB(t)
	registerAndSignIn(t, r, "amelie@example.com", models.RoleClient)

	var user models.User
	require.NoError(t, db.Where("email = ?", "amelie@example.com").First(&user).Error)
	require.NotNil(t, user.LastLogin)
	assert.WithinDuration(t, time.Now(), *user.LastLogin, time.Minute)
}
