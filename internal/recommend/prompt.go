package recommend

import (
	"fmt"
	"strings"
)

// systemPrompt is the fixed instruction sent with every completion request.
const systemPrompt = "You are a book recommendation assistant. " +
	"Given a reader's taste profile, suggest books they are likely to enjoy. " +
	"Respond with only a JSON array of objects, each with the fields " +
	`"title", "author", "reason", and "confidence" (a number between 0 and 1). ` +
	"Do not include any text outside the JSON array."

// promptHistoryLimit caps how many reviews/favorites of each kind the
// prompt embeds; lists are most-recent-first so the newest survive.
const promptHistoryLimit = 5

// buildPrompt composes the user prompt from the profile: recent loved and
// disliked reviews, recent favorites, favorite genres, and average rating.
func buildPrompt(p *Profile, limit int) (system, user string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Suggest %d books for this reader.\n\n", limit)

	if len(p.FavoriteGenres) > 0 {
		fmt.Fprintf(&b, "Favorite genres: %s.\n", strings.Join(p.FavoriteGenres, ", "))
	}
	if len(p.Reviews) > 0 {
		fmt.Fprintf(&b, "Average rating given: %.1f out of 5.\n", p.AverageRating)
	}

	var loved, disliked []string
	for _, r := range p.Reviews {
		if r.Book == nil {
			continue
		}
		line := fmt.Sprintf("%q by %s (rated %d/5)", r.Book.Title, r.Book.Author, r.Rating)
		switch {
		case r.Rating >= 4 && len(loved) < promptHistoryLimit:
			loved = append(loved, line)
		case r.Rating <= 2 && len(disliked) < promptHistoryLimit:
			disliked = append(disliked, line)
		}
	}
	if len(loved) > 0 {
		fmt.Fprintf(&b, "\nRecently loved:\n- %s\n", strings.Join(loved, "\n- "))
	}
	if len(disliked) > 0 {
		fmt.Fprintf(&b, "\nRecently disliked:\n- %s\n", strings.Join(disliked, "\n- "))
	}

	var favorites []string
	for _, f := range p.Favorites {
		if f.Book == nil || len(favorites) >= promptHistoryLimit {
			continue
		}
		favorites = append(favorites, fmt.Sprintf("%q by %s", f.Book.Title, f.Book.Author))
	}
	if len(favorites) > 0 {
		fmt.Fprintf(&b, "\nRecent favorites:\n- %s\n", strings.Join(favorites, "\n- "))
	}

	b.WriteString("\nDo not suggest any of the books listed above.")

	return systemPrompt, b.String()
}
