package models

import "testing"

func TestScrapeRequestDefaults(t *testing.T) {
	tests := []struct {
		name         string
		maxPages     int
		wantMaxPages int
	}{
		{"unset gets boundary default", 0, DefaultMaxPages},
		{"explicit value kept", 7, 7},
		{"one page kept", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ScrapeRequest{URL: "https://shop.example/sch?_pgn=1", MaxPages: tt.maxPages}
			r.Defaults()
			if r.MaxPages != tt.wantMaxPages {
				t.Errorf("MaxPages = %d, want %d", r.MaxPages, tt.wantMaxPages)
			}
		})
	}
}
