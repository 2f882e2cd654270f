package recommend

import (
	"strings"
	"testing"

	"github.com/shelfwise/shelfwise/internal/types"
)

func TestBuildPrompt_EmbedsProfileSummary(t *testing.T) {
	p := &Profile{
		User: types.User{ID: "u1"},
		Reviews: []types.Review{
			review("a", 5, testBook("a", "The Hobbit", "Fantasy")),
			review("b", 3, testBook("b", "Middling", "Drama")),
			review("c", 1, testBook("c", "Bad Romance", "Romance")),
		},
		Favorites: []types.Favorite{
			favorite("d", testBook("d", "Dune", "Science Fiction")),
		},
		FavoriteGenres: []string{"Fantasy", "Science Fiction"},
		AverageRating:  3.0,
	}

	system, user := buildPrompt(p, 5)

	if !strings.Contains(system, "book recommendation assistant") {
		t.Errorf("system prompt missing role instruction: %q", system)
	}
	if !strings.Contains(system, "JSON array") {
		t.Errorf("system prompt missing output format: %q", system)
	}

	for _, want := range []string{
		"Suggest 5 books",
		"Fantasy, Science Fiction",
		"3.0 out of 5",
		`"The Hobbit"`,
		"rated 5/5",
		`"Bad Romance"`,
		`"Dune"`,
		"Do not suggest any of the books listed above",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}

	// Mid-rated reviews are neither loved nor disliked.
	if strings.Contains(user, "Middling") {
		t.Errorf("3-star review should not appear in the prompt:\n%s", user)
	}
}

func TestBuildPrompt_NoReviewsOmitsAverage(t *testing.T) {
	p := &Profile{
		User:           types.User{ID: "u1"},
		Favorites:      []types.Favorite{favorite("d", testBook("d", "Dune", "Science Fiction"))},
		FavoriteGenres: []string{"Science Fiction"},
	}

	_, user := buildPrompt(p, 5)
	if strings.Contains(user, "Average rating") {
		t.Errorf("prompt should omit average when there are no reviews:\n%s", user)
	}
}

func TestBuildPrompt_CapsHistoryLists(t *testing.T) {
	p := &Profile{User: types.User{ID: "u1"}}
	for i := 0; i < 10; i++ {
		title := "Loved Book " + string(rune('A'+i))
		p.Reviews = append(p.Reviews, review(title, 5, testBook(title, title, "Fantasy")))
	}
	p.AverageRating = 5

	_, user := buildPrompt(p, 5)

	if n := strings.Count(user, "rated 5/5"); n != promptHistoryLimit {
		t.Errorf("expected %d loved entries in prompt, got %d", promptHistoryLimit, n)
	}
}
