package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

func TestBook_SalePrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount int
		want     string
		off      int
	}{
		{"no discount", "50", 100, "50", 0},
		{"zero means none", "50", 0, "50", 0},
		{"out of range", "50", 120, "50", 0},
		{"eighty percent", "50", 80, "40", 20},
		{"whole yuan to cents", "59", 85, "50.15", 15},
		{"rounds down", "19.99", 85, "16.99", 15},
		{"rounds half up", "0.1", 25, "0.03", 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Book{Price: decimal.RequireFromString(tt.price), Discount: tt.discount}
			if got := b.SalePrice(); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("SalePrice() = %s, want %s", got, tt.want)
			}
			if got := b.PercentOff(); got != tt.off {
				t.Fatalf("PercentOff() = %d, want %d", got, tt.off)
			}
		})
	}
}

func TestBook_DecodesIntegerPrice(t *testing.T) {
	var b Book
	if err := json.Unmarshal([]byte(`{"id":3,"title":"Go","price":59,"discount":80,"status":1}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !b.Price.Equal(decimal.NewFromInt(59)) {
		t.Fatalf("price = %s", b.Price)
	}
	if !b.OnShelf() {
		t.Fatalf("status 1 should be on shelf")
	}
}

func TestNewOrderLine_SendsPlainNumber(t *testing.T) {
	line := NewOrderLine(5, 2, decimal.RequireFromString("47.20"))
	buf, err := json.Marshal(CreateOrderRequest{Items: []OrderLine{line}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"items":[{"book_id":5,"quantity":2,"price":47.2}]}`
	if string(buf) != want {
		t.Fatalf("body = %s, want %s", buf, want)
	}
}

func TestUserPage_Pages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := (UserPage{Total: tt.total, PageSize: tt.size}).Pages(); got != tt.want {
			t.Fatalf("Pages(%d/%d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
		s, err := tok.SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	future := sign(now.Add(time.Hour))
	past := sign(now.Add(-time.Hour))

	if exp, ok := TokenExpiry(future); !ok || !exp.Equal(now.Add(time.Hour)) {
		t.Fatalf("TokenExpiry(future) = %v, %v", exp, ok)
	}
	if TokenExpired(future, now) {
		t.Fatalf("future token reported expired")
	}
	if !TokenExpired(past, now) {
		t.Fatalf("past token not reported expired")
	}
	if TokenExpired("opaque-session-token", now) {
		t.Fatalf("non-JWT token should not be judged locally")
	}
	if _, ok := TokenExpiry("opaque-session-token"); ok {
		t.Fatalf("TokenExpiry(opaque) ok = true")
	}
}
