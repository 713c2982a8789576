package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/infrastructure/database/postgres"
	"github.com/your-org/flooring-store/internal/pkg/pdf"
)

// stubReceipts renders receipts without the wkhtmltopdf binary
type stubReceipts struct {
	*pdf.Service
	fail bool
}

func (s *stubReceipts) GeneratePDF(data *pdf.ReceiptData) (*bytes.Buffer, error) {
	if s.fail {
		return nil, errors.New("wkhtmltopdf not installed")
	}
	return bytes.NewBufferString("%PDF-1.4 " + data.ReceiptNumber), nil
}

type envelope struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
	Data    json.RawMessage   `json:"data"`
}

type apiSuite struct {
	t        *testing.T
	router   *gin.Engine
	receipts *stubReceipts
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:          "flooring-store",
			Environment:   "test",
			AdminEmail:    "admin@flooring.local",
			AdminPassword: "admin12345",
		},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key-that-is-long-enough-123",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
		Cart:     config.CartConfig{MaxRetries: 3},
		Checkout: config.CheckoutConfig{
			SessionTTL:     30 * time.Minute,
			IdempotencyTTL: time.Hour,
			Currency:       "INR",
		},
		Company: config.CompanyConfig{Name: "Flooring Store"},
	}
}

func newAPISuite(t *testing.T) *apiSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log, _ := test.NewNullLogger()
	cfg := testConfig()
	cfg.Upload = config.UploadConfig{Dir: t.TempDir(), URLPrefix: "/uploads", MaxSize: 1 << 20}

	migration := postgres.NewMigration(db, log)
	require.NoError(t, migration.RunAutoMigrations())
	require.NoError(t, migration.SeedInitialData(context.Background(), cfg))

	receipts := &stubReceipts{Service: pdf.NewService(cfg)}
	h := NewHandlers(Dependencies{
		DB:       db,
		Redis:    rdb,
		Config:   cfg,
		Log:      log,
		Events:   order.NoopPublisher{},
		Receipts: receipts,
	})

	router := gin.New()
	SetupRoutes(router.Group("/api/v1"), h, cfg)
	return &apiSuite{t: t, router: router, receipts: receipts}
}

func (s *apiSuite) do(method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "application/pdf" && w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *apiSuite) decode(env envelope, v interface{}) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(env.Data, v))
}

func (s *apiSuite) register(email string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"email":            email,
		"password":         "Secret123",
		"confirm_password": "Secret123",
		"full_name":        "Asha Rao",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	s.decode(env, &auth)
	return auth.AccessToken
}

func (s *apiSuite) login(email, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	s.decode(env, &auth)
	return auth.AccessToken
}

var validAddress = gin.H{
	"full_name": "Asha Rao",
	"contact":   "9876543210",
	"pincode":   "560001",
	"address":   "12 MG Road, Bengaluru",
}

func TestAPI_CartCheckoutOrderFlow(t *testing.T) {
	s := newAPISuite(t)
	token := s.register("asha@example.com")

	// oak planks at 2400 and skirting at 650
	w, _ := s.do(http.MethodPost, "/cart/items", token, gin.H{"product_id": 1, "quantity": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, env := s.do(http.MethodPost, "/cart/items", token, gin.H{"product_id": 6, "quantity": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view struct {
		Total int64 `json:"total"`
		Quote struct {
			DiscountPercent int64 `json:"discount_percent"`
			NetPayable      int64 `json:"net_payable"`
		} `json:"quote"`
	}
	s.decode(env, &view)
	assert.Equal(t, int64(61000), view.Total)
	assert.Equal(t, int64(5), view.Quote.DiscountPercent)
	assert.Equal(t, int64(57950), view.Quote.NetPayable)

	w, env = s.do(http.MethodPost, "/checkout/sessions", token, gin.H{
		"mode":             "cart",
		"shipping_address": validAddress,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess struct {
		ID string `json:"id"`
	}
	s.decode(env, &sess)
	require.NotEmpty(t, sess.ID)

	confirmPath := fmt.Sprintf("/checkout/sessions/%s/confirm", sess.ID)
	w, env = s.do(http.MethodPost, confirmPath, token, gin.H{"payment_mode": "COD"}, "Idempotency-Key", "order-attempt-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		Order struct {
			ID      uint   `json:"id"`
			Status  string `json:"status"`
			NetBill int64  `json:"net_bill"`
		} `json:"order"`
		Duplicate bool `json:"duplicate"`
	}
	s.decode(env, &placed)
	assert.Equal(t, "pending", placed.Order.Status)
	assert.Equal(t, int64(57950), placed.Order.NetBill)
	assert.False(t, placed.Duplicate)

	// same key replays the first result
	w, env = s.do(http.MethodPost, confirmPath, token, gin.H{"payment_mode": "COD"}, "Idempotency-Key", "order-attempt-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var replay struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
		Duplicate bool `json:"duplicate"`
	}
	s.decode(env, &replay)
	assert.True(t, replay.Duplicate)
	assert.Equal(t, placed.Order.ID, replay.Order.ID)

	w, env = s.do(http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var emptied struct {
		ItemCount int `json:"item_count"`
	}
	s.decode(env, &emptied)
	assert.Zero(t, emptied.ItemCount)

	w, env = s.do(http.MethodGet, "/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Orders []struct {
			ID uint `json:"id"`
		} `json:"orders"`
	}
	s.decode(env, &list)
	require.Len(t, list.Orders, 1)

	orderPath := fmt.Sprintf("/orders/%d", placed.Order.ID)
	w, env = s.do(http.MethodGet, orderPath+"/receipt/data", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var receipt pdf.ReceiptData
	s.decode(env, &receipt)
	assert.Equal(t, int64(57950), receipt.NetBill)
	assert.Equal(t, order.PaymentStatusProcessing, receipt.PaymentStatus)

	w, _ = s.do(http.MethodGet, orderPath+"/receipt", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), receipt.OrderNumber)

	// another customer cannot see the order
	other := s.register("ravi@example.com")
	w, _ = s.do(http.MethodGet, orderPath, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// only admins move orders forward
	statusPath := fmt.Sprintf("/admin/orders/%d/status", placed.Order.ID)
	w, _ = s.do(http.MethodPut, statusPath, token, gin.H{"status": "arriving"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := s.login("admin@flooring.local", "admin12345")
	w, _ = s.do(http.MethodPut, statusPath, admin, gin.H{"status": "arriving", "comment": "dispatched"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(http.MethodPut, orderPath+"/cancel", token, gin.H{"reason": "changed my mind"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "order cannot be cancelled at this stage", env.Error)

	w, env = s.do(http.MethodGet, "/admin/analytics/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats struct {
		TotalRevenue int64 `json:"total_revenue"`
		TotalOrders  int64 `json:"total_orders"`
	}
	s.decode(env, &stats)
	assert.Equal(t, int64(57950), stats.TotalRevenue)
	assert.Equal(t, int64(1), stats.TotalOrders)

	w, _ = s.do(http.MethodGet, "/admin/analytics/sales?days=abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodGet, "/admin/analytics/sales?days=7", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_CancelPendingOrder(t *testing.T) {
	s := newAPISuite(t)
	token := s.register("asha@example.com")

	w, env := s.do(http.MethodPost, "/checkout/sessions", token, gin.H{
		"mode":             "buy_now",
		"product_id":       3,
		"quantity":         1,
		"shipping_address": validAddress,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess struct {
		ID    string `json:"id"`
		Quote struct {
			NetPayable int64 `json:"net_payable"`
		} `json:"quote"`
	}
	s.decode(env, &sess)
	// teak at 5200: 2% off plus 499 shipping
	assert.Equal(t, int64(5200-104+499), sess.Quote.NetPayable)

	w, env = s.do(http.MethodPost, "/checkout/sessions/"+sess.ID+"/confirm", token, gin.H{
		"payment_mode":    "UPI",
		"idempotency_key": "body-key",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
	}
	s.decode(env, &placed)

	w, env = s.do(http.MethodPut, fmt.Sprintf("/orders/%d/cancel", placed.Order.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled struct {
		Status string `json:"status"`
	}
	s.decode(env, &cancelled)
	assert.Equal(t, "cancel", cancelled.Status)
}

func TestAPI_ErrorMapping(t *testing.T) {
	s := newAPISuite(t)
	token := s.register("asha@example.com")

	w, _ := s.do(http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/cart/items", token, gin.H{"product_id": 999, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/cart/items", token, gin.H{"product_id": 1, "quantity": int64(1) << 59})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPost, "/cart/items", token, gin.H{"product_id": 1, "quantity": 10001})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(http.MethodPost, "/checkout/sessions", token, gin.H{
		"mode":             "cart",
		"shipping_address": gin.H{"full_name": "A", "contact": "123", "pincode": "56", "address": "short"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid shipping address", env.Error)
	assert.Contains(t, env.Fields, "contact")
	assert.Contains(t, env.Fields, "pincode")

	w, env = s.do(http.MethodPost, "/checkout/sessions", token, gin.H{"mode": "cart", "shipping_address": validAddress})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cart is empty", env.Error)

	w, _ = s.do(http.MethodPost, "/checkout/sessions/missing/confirm", token, gin.H{"payment_mode": "COD"}, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/checkout/sessions/missing/confirm", token, gin.H{"payment_mode": "COD"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/orders/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/admin/orders", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_PricingEndpoints(t *testing.T) {
	s := newAPISuite(t)

	w, env := s.do(http.MethodGet, "/pricing/quote?subtotal=5000&policy=buy_now", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var q struct {
		NetPayable int64 `json:"net_payable"`
	}
	s.decode(env, &q)
	assert.Equal(t, int64(5299), q.NetPayable)

	w, env = s.do(http.MethodGet, "/pricing/quote?subtotal=4500&policy=review", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var review struct {
		NextTier *struct {
			AmountToUnlock int64 `json:"amount_to_unlock"`
		} `json:"next_tier"`
	}
	s.decode(env, &review)
	require.NotNil(t, review.NextTier)
	assert.Equal(t, int64(500), review.NextTier.AmountToUnlock)

	w, _ = s.do(http.MethodGet, "/pricing/quote?subtotal=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/pricing/quote?subtotal=100&policy=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, "/pricing/policies", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var policies []struct {
		Name string `json:"name"`
	}
	s.decode(env, &policies)
	assert.Len(t, policies, 3)
}

func TestAPI_CatalogAndFeedback(t *testing.T) {
	s := newAPISuite(t)
	token := s.register("asha@example.com")
	admin := s.login("admin@flooring.local", "admin12345")

	w, env := s.do(http.MethodGet, "/products?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Products   []json.RawMessage `json:"products"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	s.decode(env, &page)
	assert.Len(t, page.Products, 2)
	assert.Equal(t, int64(7), page.Pagination.Total)

	w, _ = s.do(http.MethodPost, "/admin/products", token, gin.H{"subcategory_id": 1, "sku": "X", "name": "X", "price": 10})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/admin/products", admin, gin.H{
		"subcategory_id": 1,
		"sku":            "WF-OAK-WHT-14",
		"name":           "White Oak Engineered Plank",
		"price":          2750,
		"stock":          60,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// teak starts with 40 boxes
	w, env = s.do(http.MethodPost, "/admin/products/3/stock", admin, gin.H{
		"movement_type": "outbound",
		"reason":        "damage",
		"quantity":      35,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var movement struct {
		NewQuantity int `json:"new_quantity"`
	}
	s.decode(env, &movement)
	assert.Equal(t, 5, movement.NewQuantity)

	w, _ = s.do(http.MethodPost, "/admin/products/3/stock", admin, gin.H{
		"movement_type": "outbound",
		"reason":        "sale",
		"quantity":      6,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, "/admin/inventory/low-stock", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var low []struct {
		SKU string `json:"sku"`
	}
	s.decode(env, &low)
	require.NotEmpty(t, low)
	assert.Equal(t, "WF-TEAK-18", low[0].SKU)

	w, env = s.do(http.MethodPost, "/feedback", token, gin.H{
		"name":    "Asha",
		"email":   "asha@example.com",
		"message": "too short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Fields, "message")

	w, _ = s.do(http.MethodPost, "/feedback", token, gin.H{
		"name":    "Asha",
		"email":   "asha@example.com",
		"message": "Installation team was quick and tidy.",
		"rating":  5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(http.MethodGet, "/admin/feedback", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fb struct {
		Feedback []struct {
			ID uint `json:"id"`
		} `json:"feedback"`
	}
	s.decode(env, &fb)
	require.Len(t, fb.Feedback, 1)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/admin/feedback/%d", fb.Feedback[0].ID), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_ReceiptRenderFailureIsServerError(t *testing.T) {
	s := newAPISuite(t)
	token := s.register("asha@example.com")

	w, env := s.do(http.MethodPost, "/checkout/sessions", token, gin.H{
		"mode": "buy_now", "product_id": 4, "quantity": 2, "shipping_address": validAddress,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess struct {
		ID string `json:"id"`
	}
	s.decode(env, &sess)
	w, env = s.do(http.MethodPost, "/checkout/sessions/"+sess.ID+"/confirm", token, gin.H{"payment_mode": "COD"}, "Idempotency-Key", "r1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
	}
	s.decode(env, &placed)

	s.receipts.fail = true
	w, env = s.do(http.MethodGet, fmt.Sprintf("/orders/%d/receipt", placed.Order.ID), token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), env.Error)
}

func TestAPI_AdminUsers(t *testing.T) {
	s := newAPISuite(t)
	token := s.register("asha@example.com")
	admin := s.login("admin@flooring.local", "admin12345")

	w, _ := s.do(http.MethodGet, "/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodGet, "/admin/users?role=customer", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Users []struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
		} `json:"users"`
	}
	s.decode(env, &list)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "asha@example.com", list.Users[0].Email)
	customerID := list.Users[0].ID

	w, _ = s.do(http.MethodGet, "/admin/users?status=banned", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPut, fmt.Sprintf("/admin/users/%d/status", customerID), admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPut, fmt.Sprintf("/admin/users/%d/status", customerID), admin, gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		IsActive bool `json:"is_active"`
	}
	s.decode(env, &updated)
	assert.False(t, updated.IsActive)

	w, _ = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "asha@example.com", "password": "Secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/admin/users/9999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ProductImageUpload(t *testing.T) {
	s := newAPISuite(t)
	admin := s.login("admin@flooring.local", "admin12345")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	upload := func(field string, data []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile(field, "oak.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/1/image", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+admin)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := upload("image", img.Bytes())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var uploaded struct {
		URL string `json:"url"`
	}
	s.decode(env, &uploaded)

	w, env = s.do(http.MethodGet, "/products/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var product struct {
		Image string `json:"image"`
	}
	s.decode(env, &product)
	assert.Equal(t, uploaded.URL, product.Image)

	assert.Equal(t, http.StatusBadRequest, upload("photo", img.Bytes()).Code)
	assert.Equal(t, http.StatusBadRequest, upload("image", []byte("not an image at all")).Code)

	w, _ = s.do(http.MethodDelete, "/admin/products/1/image", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
