package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{name: "empty uses current month", query: url.Values{}, wantYear: 2026, wantMonth: 3},
		{name: "both values", query: url.Values{"year": {"2025"}, "month": {"11"}}, wantYear: 2025, wantMonth: 11},
		{name: "only month", query: url.Values{"month": {"1"}}, wantYear: 2026, wantMonth: 1},
		{name: "month out of range", query: url.Values{"month": {"13"}}, wantErr: true},
		{name: "month zero", query: url.Values{"month": {"0"}}, wantErr: true},
		{name: "non numeric year", query: url.Values{"year": {"abc"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: `"12.30"`, want: 1230},
		{raw: `"12,30"`, want: 1230},
		{raw: `"€ 7,5"`, want: 750},
		{raw: `12.3`, want: 1230},
		{raw: `40`, want: 4000},
		{raw: `"abc"`, wantErr: true},
		{raw: `null`, wantErr: true},
		{raw: ``, wantErr: true},
		{raw: `"-3"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cents != tt.want {
				t.Errorf("cents = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
	}{
		{name: "valid", body: `{"name":"Pan"}`, contentType: "application/json"},
		{name: "charset suffix", body: `{"name":"Pan"}`, contentType: "application/json; charset=utf-8"},
		{name: "no content type", body: `{"name":"Pan"}`},
		{name: "form content type", body: `{"name":"Pan"}`, contentType: "application/x-www-form-urlencoded", wantErr: true},
		{name: "unknown field", body: `{"name":"Pan","extra":1}`, contentType: "application/json", wantErr: true},
		{name: "empty body", body: ``, contentType: "application/json", wantErr: true},
		{name: "trailing object", body: `{"name":"a"}{"name":"b"}`, contentType: "application/json", wantErr: true},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, contentType: "application/json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			var p payload
			err := DecodeJSON(r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.Name != "Pan" {
				t.Errorf("name = %q", p.Name)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Pan  ", "Pan"},
		{"Pan\x00de\x07molde", "Pandemolde"},
		{"línea\tcon\ttabs", "línea\tcon\ttabs"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
