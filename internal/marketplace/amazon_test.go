package marketplace

import (
	"context"
	"testing"
)

func TestAmazonClientSearch(t *testing.T) {
	tests := []struct {
		name         string
		associateTag string
		query        string
		isbn         string
		wantURL      string
		wantTitle    string
	}{
		{
			name:      "title query",
			query:     "Calculus Early Transcendentals",
			wantURL:   "https://www.amazon.com/s?k=Calculus+Early+Transcendentals",
			wantTitle: "Search results for: Calculus Early Transcendentals",
		},
		{
			name:      "isbn preferred for the link, title keeps the query",
			query:     "Calculus",
			isbn:      "978-0134438986",
			wantURL:   "https://www.amazon.com/s?k=978-0134438986",
			wantTitle: "Search results for: Calculus",
		},
		{
			name:         "associate tag appended",
			associateTag: "textbooksaver-20",
			query:        "Linear Algebra",
			wantURL:      "https://www.amazon.com/s?k=Linear+Algebra&tag=textbooksaver-20",
			wantTitle:    "Search results for: Linear Algebra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewAmazonClient(tt.associateTag)

			offers := client.Search(context.Background(), tt.query, tt.isbn)
			if len(offers) != 1 {
				t.Fatalf("offers = %d, want 1", len(offers))
			}

			offer := offers[0]
			if offer.Source != "Amazon" {
				t.Errorf("source = %q, want %q", offer.Source, "Amazon")
			}
			if offer.Price != 0 {
				t.Errorf("price = %.2f, want 0", offer.Price)
			}
			if !offer.IsSearchLink {
				t.Error("IsSearchLink = false, want true")
			}
			if offer.URL != tt.wantURL {
				t.Errorf("url = %q, want %q", offer.URL, tt.wantURL)
			}
			if offer.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", offer.Title, tt.wantTitle)
			}
			if offer.Condition != "Various" {
				t.Errorf("condition = %q, want %q", offer.Condition, "Various")
			}
		})
	}
}
