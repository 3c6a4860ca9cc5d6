package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"nike_shop_backend/internal/commerce"
	"nike_shop_backend/internal/models"
)

// cartRouter monte les routes panier avec une identité injectée, comme le
// ferait le middleware JWT après validation.
func cartRouter(store *stubStore, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCartHandler(commerce.NewCartService(store))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	r.GET("/api/cart", h.GetCart)
	r.POST("/api/cart/add", h.AddToCart)
	r.PUT("/api/cart/items/:itemId", h.UpdateCartItem)
	r.DELETE("/api/cart/items/:itemId", h.RemoveCartItem)
	r.DELETE("/api/cart", h.ClearCart)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetCartEmptyByDefault(t *testing.T) {
	r := cartRouter(newStubStore(), "u1")

	w := doJSON(r, http.MethodGet, "/api/cart", "")
	if w.Code != http.StatusOK {
		t.Fatalf("statut = %d, attendu 200", w.Code)
	}

	var resp struct {
		Cart struct {
			Items     []models.CartItem `json:"items"`
			Total     float64           `json:"total"`
			ItemCount int               `json:"itemCount"`
		} `json:"cart"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("réponse illisible: %v", err)
	}
	if len(resp.Cart.Items) != 0 || resp.Cart.Total != 0 {
		t.Errorf("panier non vide: %+v", resp.Cart)
	}
}

func TestAddToCartEndToEnd(t *testing.T) {
	store := newStubStore()
	store.addProduct("p1", "Air Max", 1000, 5)
	r := cartRouter(store, "u1")

	w := doJSON(r, http.MethodPost, "/api/cart/add", `{"productId":"p1","quantity":2,"size":"42"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("statut = %d (corps: %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Cart struct {
			Items []models.CartItem `json:"items"`
			Total float64           `json:"total"`
		} `json:"cart"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Cart.Items) != 1 || resp.Cart.Total != 2000 {
		t.Errorf("panier inattendu: %+v", resp.Cart)
	}
}

func TestAddToCartUnknownProductIs404(t *testing.T) {
	r := cartRouter(newStubStore(), "u1")

	w := doJSON(r, http.MethodPost, "/api/cart/add", `{"productId":"fantome"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("statut = %d, attendu 404", w.Code)
	}
}

func TestAddToCartInsufficientStockIs400WithDetails(t *testing.T) {
	store := newStubStore()
	store.addProduct("p1", "Air Max", 1000, 1)
	r := cartRouter(store, "u1")

	w := doJSON(r, http.MethodPost, "/api/cart/add", `{"productId":"p1","quantity":3}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("statut = %d, attendu 400", w.Code)
	}

	var resp struct {
		Code      string `json:"code"`
		Available int    `json:"available"`
		Requested int    `json:"requested"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "INSUFFICIENT_STOCK" || resp.Available != 1 || resp.Requested != 3 {
		t.Errorf("détails stock manquants: %s", w.Body.String())
	}
}

func TestAddToCartMissingProductIDIs400(t *testing.T) {
	r := cartRouter(newStubStore(), "u1")

	w := doJSON(r, http.MethodPost, "/api/cart/add", `{"quantity":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("statut = %d, attendu 400", w.Code)
	}
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	store := newStubStore()
	store.addProduct("p1", "Air Max", 1000, 5)
	r := cartRouter(store, "u1")

	w := doJSON(r, http.MethodPost, "/api/cart/add", `{"productId":"p1","quantity":1}`)
	var added struct {
		Cart struct {
			Items []models.CartItem `json:"items"`
		} `json:"cart"`
	}
	json.Unmarshal(w.Body.Bytes(), &added)
	itemID := added.Cart.Items[0].ID

	w = doJSON(r, http.MethodPut, "/api/cart/items/"+itemID, `{"quantity":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("mise à jour: statut = %d (corps: %s)", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodDelete, "/api/cart/items/"+itemID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("suppression: statut = %d", w.Code)
	}

	// Suppression rejouée : toujours 200
	w = doJSON(r, http.MethodDelete, "/api/cart/items/"+itemID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("suppression rejouée: statut = %d, attendu 200", w.Code)
	}
}

func TestClearCartWithoutCartIs404(t *testing.T) {
	r := cartRouter(newStubStore(), "u1")

	w := doJSON(r, http.MethodDelete, "/api/cart", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("statut = %d, attendu 404 pour un utilisateur sans panier", w.Code)
	}

	var resp struct {
		Code string `json:"code"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "NOT_FOUND" {
		t.Errorf("code = %q, attendu NOT_FOUND", resp.Code)
	}
}

func TestClearCart(t *testing.T) {
	store := newStubStore()
	store.addProduct("p1", "Air Max", 1000, 5)
	r := cartRouter(store, "u1")

	doJSON(r, http.MethodPost, "/api/cart/add", `{"productId":"p1","quantity":2}`)

	w := doJSON(r, http.MethodDelete, "/api/cart", "")
	if w.Code != http.StatusOK {
		t.Fatalf("vidage: statut = %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/cart", "")
	var resp struct {
		Cart struct {
			Items []models.CartItem `json:"items"`
		} `json:"cart"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Cart.Items) != 0 {
		t.Errorf("panier non vide après vidage: %+v", resp.Cart.Items)
	}
}
