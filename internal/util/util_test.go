package util

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		pageSize uint
		want     int
	}{
		{"empty", 0, 10, 1},
		{"exact", 20, 10, 2},
		{"remainder", 21, 10, 3},
		{"default page size", 45, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateTotalPage(tt.total, tt.pageSize); got != tt.want {
				t.Errorf("CalculateTotalPage(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
			}
		})
	}
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 1000)
	if page != 1 || size != 100 {
		t.Errorf("NormalizePage(0, 1000) = %d, %d", page, size)
	}
}

func TestReadBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def", "abc.def", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"missing", "", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"no token", "Bearer", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				ctx.Request.Header.Set("Authorization", tt.header)
			}

			got, err := ReadBearerToken(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadBearerToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReadBearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildResponseFailed(t *testing.T) {
	resp := BuildResponseFailed("", errors.New("boom"), nil)
	if resp.Success || resp.Message == "" {
		t.Errorf("unexpected envelope %+v", resp)
	}

	apiErrors, ok := resp.Errors.([]ApiError)
	if !ok || len(apiErrors) != 1 || apiErrors[0].Message != "boom" {
		t.Errorf("expected a single ApiError, got %#v", resp.Errors)
	}
}
