package validation

import (
	"strings"
	"testing"

	"github.com/shelfwise/shelfwise/internal/types"
)

const validULID = "01HQXW5P8MZJY3K2T9R4V6B7N8"

// --- ValidateRequired Tests ---

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"present", "hello", false},
		{"empty", "", true},
		{"whitespace only", "   \t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired("field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired(%q) = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

// --- ValidateUTF8 Tests ---

func TestValidateUTF8(t *testing.T) {
	for _, value := range []string{"hello world", "", "Hello, 世界", "Hello 👋🏻"} {
		if err := ValidateUTF8("field", value); err != nil {
			t.Errorf("ValidateUTF8(%q) = %v, want nil", value, err)
		}
	}

	invalidUTF8 := string([]byte{0xff, 0xfe})
	err := ValidateUTF8("content", invalidUTF8)
	if err == nil {
		t.Fatal("ValidateUTF8(invalid) = nil, want error")
	}
	if err.Field != "content" {
		t.Errorf("error.Field = %q, want %q", err.Field, "content")
	}
}

// --- ValidateMaxLength Tests ---

func TestValidateMaxLength(t *testing.T) {
	if err := ValidateMaxLength("field", strings.Repeat("a", 10), 10); err != nil {
		t.Errorf("value at limit should pass, got %v", err)
	}
	if err := ValidateMaxLength("field", strings.Repeat("a", 11), 10); err == nil {
		t.Error("value over limit should fail")
	}
	// Length is counted in runes, not bytes.
	if err := ValidateMaxLength("field", strings.Repeat("世", 10), 10); err != nil {
		t.Errorf("10 runes should pass a 10-rune limit, got %v", err)
	}
}

// --- ValidateULID Tests ---

func TestValidateULID(t *testing.T) {
	if err := ValidateULID("book_id", validULID); err != nil {
		t.Errorf("valid ULID rejected: %v", err)
	}

	tests := []struct {
		name  string
		value string
	}{
		{"too short", "01HQXW5P8M"},
		{"too long", validULID + "X"},
		{"invalid character", "01HQXW5P8MZJY3K2T9R4V6B7NI"}, // I excluded
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateULID("book_id", tt.value); err == nil {
				t.Errorf("ValidateULID(%q) = nil, want error", tt.value)
			}
		})
	}
}

// --- ValidateIntRange Tests ---

func TestValidateIntRange(t *testing.T) {
	for _, v := range []int{1, 3, 5} {
		if err := ValidateIntRange("rating", v, 1, 5); err != nil {
			t.Errorf("ValidateIntRange(%d) = %v, want nil", v, err)
		}
	}
	for _, v := range []int{0, 6, -1} {
		if err := ValidateIntRange("rating", v, 1, 5); err == nil {
			t.Errorf("ValidateIntRange(%d) = nil, want error", v)
		}
	}
}

// --- Collector Tests ---

func TestCollector_AccumulatesErrors(t *testing.T) {
	var c Collector
	c.Add(nil)
	if c.HasErrors() {
		t.Error("nil add should not register an error")
	}

	c.Add(&ValidationError{Field: "a", Message: "bad"})
	c.Add(&ValidationError{Field: "b", Message: "worse"})
	if !c.HasErrors() {
		t.Error("expected errors after adds")
	}
	if len(c.Errors()) != 2 {
		t.Errorf("expected 2 errors, got %d", len(c.Errors()))
	}
}

// --- Request Validators ---

func TestValidateUserRequest(t *testing.T) {
	if errs := ValidateUserRequest(types.NewUser{DisplayName: "Ada"}); len(errs) != 0 {
		t.Errorf("valid user rejected: %v", errs)
	}
	if errs := ValidateUserRequest(types.NewUser{}); len(errs) == 0 {
		t.Error("missing display_name should fail")
	}
	long := types.NewUser{DisplayName: strings.Repeat("a", 101)}
	if errs := ValidateUserRequest(long); len(errs) == 0 {
		t.Error("overlong display_name should fail")
	}
}

func TestValidateBookRequest(t *testing.T) {
	valid := types.NewBook{
		Title:         "The Hobbit",
		Author:        "J.R.R. Tolkien",
		Genres:        []string{"Fantasy"},
		PublishedYear: 1937,
	}
	if errs := ValidateBookRequest(valid); len(errs) != 0 {
		t.Errorf("valid book rejected: %v", errs)
	}

	tests := []struct {
		name string
		req  types.NewBook
	}{
		{"missing title", types.NewBook{Author: "X"}},
		{"missing author", types.NewBook{Title: "X"}},
		{"empty genre entry", types.NewBook{Title: "X", Author: "Y", Genres: []string{" "}}},
		{"too many genres", types.NewBook{Title: "X", Author: "Y", Genres: make([]string, 11)}},
		{"year too early", types.NewBook{Title: "X", Author: "Y", PublishedYear: 999}},
		{"year too late", types.NewBook{Title: "X", Author: "Y", PublishedYear: 2101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := ValidateBookRequest(tt.req); len(errs) == 0 {
				t.Error("expected validation errors")
			}
		})
	}

	// Zero year means unknown and is allowed.
	noYear := types.NewBook{Title: "X", Author: "Y"}
	if errs := ValidateBookRequest(noYear); len(errs) != 0 {
		t.Errorf("zero published_year should pass: %v", errs)
	}
}

func TestValidateReviewRequest(t *testing.T) {
	valid := types.NewReview{BookID: validULID, Rating: 4, Content: "Great read"}
	if errs := ValidateReviewRequest(valid); len(errs) != 0 {
		t.Errorf("valid review rejected: %v", errs)
	}

	tests := []struct {
		name string
		req  types.NewReview
	}{
		{"missing book_id", types.NewReview{Rating: 4}},
		{"malformed book_id", types.NewReview{BookID: "not-a-ulid", Rating: 4}},
		{"rating too low", types.NewReview{BookID: validULID, Rating: 0}},
		{"rating too high", types.NewReview{BookID: validULID, Rating: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := ValidateReviewRequest(tt.req); len(errs) == 0 {
				t.Error("expected validation errors")
			}
		})
	}
}

func TestValidateFavoriteRequest(t *testing.T) {
	if errs := ValidateFavoriteRequest(types.NewFavorite{BookID: validULID}); len(errs) != 0 {
		t.Errorf("valid favorite rejected: %v", errs)
	}
	if errs := ValidateFavoriteRequest(types.NewFavorite{}); len(errs) == 0 {
		t.Error("missing book_id should fail")
	}
}
