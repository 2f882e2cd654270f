package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/shelfwise/shelfwise/internal/types"
)

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

const bookColumns = "id, title, author, description, cover_key, genres, published_year, average_rating, review_count, created_at"

// SQLiteStore is the SQLite-backed catalog, review, and favorite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser registers a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, input types.NewUser) (*types.User, error) {
	user := types.User{
		ID:          ulid.Make().String(),
		DisplayName: input.DisplayName,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, created_at) VALUES (?, ?, ?)
	`, user.ID, user.DisplayName, user.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

// GetUser returns a user by id, or ErrUserNotFound.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	var user types.User
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, created_at FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.DisplayName, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		user.CreatedAt = t
	}
	return &user, nil
}

// CreateBook adds a catalog entry with zeroed rating aggregates.
func (s *SQLiteStore) CreateBook(ctx context.Context, input types.NewBook) (*types.Book, error) {
	book := types.Book{
		ID:            ulid.Make().String(),
		Title:         input.Title,
		Author:        input.Author,
		Description:   input.Description,
		Genres:        input.Genres,
		PublishedYear: input.PublishedYear,
		CreatedAt:     time.Now().UTC(),
	}
	if book.Genres == nil {
		book.Genres = []string{}
	}

	genresJSON, err := json.Marshal(book.Genres)
	if err != nil {
		return nil, fmt.Errorf("marshal genres: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, description, genres, published_year, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, book.ID, book.Title, book.Author, book.Description, string(genresJSON), book.PublishedYear, book.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	return &book, nil
}

// GetBook returns a book by id, or ErrBookNotFound.
func (s *SQLiteStore) GetBook(ctx context.Context, id string) (*types.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	return book, nil
}

// ListBooks returns the full catalog, newest first.
// The catalog is expected to be modest; the resolver matches against this snapshot.
func (s *SQLiteStore) ListBooks(ctx context.Context) ([]types.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	return collectBooks(rows)
}

// SearchBooks matches the query against title and author, case-insensitively.
func (s *SQLiteStore) SearchBooks(ctx context.Context, query string, limit int) ([]types.Book, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE title LIKE ? OR author LIKE ?
		ORDER BY average_rating DESC, review_count DESC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	return collectBooks(rows)
}

// SetBookCover records the storage key of an uploaded cover image.
func (s *SQLiteStore) SetBookCover(ctx context.Context, bookID, coverKey string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE books SET cover_key = ? WHERE id = ?`, coverKey, bookID)
	if err != nil {
		return fmt.Errorf("update cover: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cover: %w", err)
	}
	if affected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// CountBooks returns the number of catalog entries.
func (s *SQLiteStore) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count)
	return count, err
}

// CreateReview inserts a review and recomputes the book's rating aggregates
// in the same transaction, keeping average_rating and review_count consistent.
func (s *SQLiteStore) CreateReview(ctx context.Context, userID string, input types.NewReview) (*types.Review, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if exists == 0 {
		return nil, ErrUserNotFound
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE id = ?`, input.BookID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}
	if exists == 0 {
		return nil, ErrBookNotFound
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = ? AND book_id = ?`, userID, input.BookID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists > 0 {
		return nil, ErrDuplicateReview
	}

	review := types.Review{
		ID:        ulid.Make().String(),
		UserID:    userID,
		BookID:    input.BookID,
		Rating:    input.Rating,
		Content:   input.Content,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, book_id, rating, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, review.ID, review.UserID, review.BookID, review.Rating, review.Content, review.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE books SET
			average_rating = (SELECT AVG(rating) FROM reviews WHERE book_id = ?),
			review_count   = (SELECT COUNT(*) FROM reviews WHERE book_id = ?)
		WHERE id = ?
	`, input.BookID, input.BookID, input.BookID)
	if err != nil {
		return nil, fmt.Errorf("update rating aggregates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &review, nil
}

// ListUserReviews returns a user's reviews, most recent first, with the
// reviewed book joined.
func (s *SQLiteStore) ListUserReviews(ctx context.Context, userID string) ([]types.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.book_id, r.rating, r.content, r.created_at,
		       b.id, b.title, b.author, b.description, b.cover_key, b.genres,
		       b.published_year, b.average_rating, b.review_count, b.created_at
		FROM reviews r
		JOIN books b ON b.id = r.book_id
		WHERE r.user_id = ?
		ORDER BY r.created_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []types.Review
	for rows.Next() {
		var review types.Review
		var createdAt string
		var book types.Book
		var bookCreatedAt, genresJSON string

		err := rows.Scan(
			&review.ID, &review.UserID, &review.BookID, &review.Rating, &review.Content, &createdAt,
			&book.ID, &book.Title, &book.Author, &book.Description, &book.CoverKey, &genresJSON,
			&book.PublishedYear, &book.AverageRating, &book.ReviewCount, &bookCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}

		if err := json.Unmarshal([]byte(genresJSON), &book.Genres); err != nil {
			return nil, fmt.Errorf("parse genres JSON: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			review.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, bookCreatedAt); err == nil {
			book.CreatedAt = t
		}

		review.Book = &book
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}

// CreateFavorite saves a favorite. Saving the same book twice is a no-op.
func (s *SQLiteStore) CreateFavorite(ctx context.Context, userID, bookID string) (*types.Favorite, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if exists == 0 {
		return nil, ErrUserNotFound
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE id = ?`, bookID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}
	if exists == 0 {
		return nil, ErrBookNotFound
	}

	fav := types.Favorite{
		UserID:    userID,
		BookID:    bookID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, book_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, book_id) DO NOTHING
	`, fav.UserID, fav.BookID, fav.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert favorite: %w", err)
	}

	return &fav, nil
}

// ListUserFavorites returns a user's favorites, most recent first, with the
// favorited book joined.
func (s *SQLiteStore) ListUserFavorites(ctx context.Context, userID string) ([]types.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.user_id, f.book_id, f.created_at,
		       b.id, b.title, b.author, b.description, b.cover_key, b.genres,
		       b.published_year, b.average_rating, b.review_count, b.created_at
		FROM favorites f
		JOIN books b ON b.id = f.book_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.book_id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []types.Favorite
	for rows.Next() {
		var fav types.Favorite
		var createdAt string
		var book types.Book
		var bookCreatedAt, genresJSON string

		err := rows.Scan(
			&fav.UserID, &fav.BookID, &createdAt,
			&book.ID, &book.Title, &book.Author, &book.Description, &book.CoverKey, &genresJSON,
			&book.PublishedYear, &book.AverageRating, &book.ReviewCount, &bookCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}

		if err := json.Unmarshal([]byte(genresJSON), &book.Genres); err != nil {
			return nil, fmt.Errorf("parse genres JSON: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			fav.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, bookCreatedAt); err == nil {
			book.CreatedAt = t
		}

		fav.Book = &book
		favorites = append(favorites, fav)
	}

	return favorites, rows.Err()
}

// ListByGenres returns books whose genre tags intersect the given set,
// excluding the given ids, ordered by rating then review count descending.
func (s *SQLiteStore) ListByGenres(ctx context.Context, genres, excludeIDs []string, limit int) ([]types.Book, error) {
	if len(genres) == 0 {
		return nil, nil
	}

	var where []string
	var args []any

	genreClauses := make([]string, len(genres))
	for i, g := range genres {
		genreClauses[i] = "genres LIKE ?"
		// Genres are stored as a JSON array, so tags appear quoted.
		args = append(args, `%"`+g+`"%`)
	}
	where = append(where, "("+strings.Join(genreClauses, " OR ")+")")

	if clause, exclArgs := notInClause("id", excludeIDs); clause != "" {
		where = append(where, clause)
		args = append(args, exclArgs...)
	}

	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY average_rating DESC, review_count DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query books by genres: %w", err)
	}
	defer rows.Close()

	return collectBooks(rows)
}

// ListPopular returns reviewed books ordered by rating then review count
// descending, excluding the given ids.
func (s *SQLiteStore) ListPopular(ctx context.Context, excludeIDs []string, limit int) ([]types.Book, error) {
	where := []string{"review_count > 0"}
	var args []any

	if clause, exclArgs := notInClause("id", excludeIDs); clause != "" {
		where = append(where, clause)
		args = append(args, exclArgs...)
	}

	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY average_rating DESC, review_count DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query popular books: %w", err)
	}
	defer rows.Close()

	return collectBooks(rows)
}

// notInClause builds a "col NOT IN (?, ...)" clause, or "" when ids is empty.
func notInClause(col string, ids []string) (string, []any) {
	if len(ids) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return col + " NOT IN (" + strings.Join(placeholders, ", ") + ")", args
}

// scanBook scans a row into a Book, handling genres JSON and timestamps.
func scanBook(scanner interface{ Scan(...any) error }) (*types.Book, error) {
	var book types.Book
	var genresJSON, createdAt string

	err := scanner.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.CoverKey,
		&genresJSON,
		&book.PublishedYear,
		&book.AverageRating,
		&book.ReviewCount,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(genresJSON), &book.Genres); err != nil {
		return nil, fmt.Errorf("parse genres JSON: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		book.CreatedAt = t
	}

	return &book, nil
}

// collectBooks drains rows into a slice using scanBook.
func collectBooks(rows *sql.Rows) ([]types.Book, error) {
	var books []types.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}
