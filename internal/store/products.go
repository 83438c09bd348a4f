package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecommerce-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type imageList []models.Image

func (l imageList) Value() (driver.Value, error) { return jsonValue([]models.Image(l)) }
func (l *imageList) Scan(src interface{}) error  { return scanJSON(src, l) }

type productRow struct {
	ID           uuid.UUID       `db:"id"`
	Name         string          `db:"name"`
	Description  string          `db:"description"`
	Price        decimal.Decimal `db:"price"`
	Ratings      float64         `db:"ratings"`
	Images       imageList       `db:"images"`
	Category     string          `db:"category"`
	Stock        int             `db:"stock"`
	NumOfReviews int             `db:"num_of_reviews"`
	UserID       uuid.UUID       `db:"user_id"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r productRow) toModel() models.Product {
	images := []models.Image(r.Images)
	if images == nil {
		images = []models.Image{}
	}
	return models.Product{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		Ratings:      r.Ratings,
		Images:       images,
		Category:     r.Category,
		Stock:        r.Stock,
		NumOfReviews: r.NumOfReviews,
		Reviews:      []models.Review{},
		UserID:       r.UserID,
		CreatedAt:    r.CreatedAt,
	}
}

type reviewRow struct {
	ID        uuid.UUID `db:"id"`
	ProductID uuid.UUID `db:"product_id"`
	UserID    uuid.UUID `db:"user_id"`
	Name      string    `db:"name"`
	Rating    float64   `db:"rating"`
	Comment   string    `db:"comment"`
}

const productColumns = `id, name, description, price, ratings, images, category, stock,
	num_of_reviews, user_id, created_at`

// CreateProduct inserts a new product; the id is assigned when empty
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO products (id, name, description, price, images, category, stock, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return s.db.GetContext(ctx, &p.CreatedAt, query,
		p.ID, p.Name, p.Description, p.Price, imageList(p.Images), p.Category, p.Stock, p.UserID)
}

// GetProductByID retrieves a product together with its reviews
func (s *Store) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	products := []models.Product{row.toModel()}
	if err := s.loadReviews(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// likeEscaper makes LIKE wildcards in a keyword match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// productWhere builds the WHERE clause of a filtered catalog query
func productWhere(f models.ProductFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Keyword != "" {
		add(`name ILIKE $%d ESCAPE '\'`, "%"+likeEscaper.Replace(f.Keyword)+"%")
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.PriceGTE != nil {
		add("price >= $%d", *f.PriceGTE)
	}
	if f.PriceLTE != nil {
		add("price <= $%d", *f.PriceLTE)
	}
	if f.RatingsGTE != nil {
		add("ratings >= $%d", *f.RatingsGTE)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListProducts retrieves the products matching the filter, newest first.
// A zero Limit returns every match.
func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	where, args := productWhere(f)
	query := "SELECT " + productColumns + " FROM products" + where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.toModel())
	}
	if err := s.loadReviews(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// CountProducts counts the products matching the filter, ignoring pagination
func (s *Store) CountProducts(ctx context.Context, f models.ProductFilter) (int, error) {
	where, args := productWhere(f)
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products"+where, args...)
	return count, err
}

// loadReviews attaches reviews to the given products with a single query
func (s *Store) loadReviews(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(products))
	index := make(map[uuid.UUID]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	query, args, err := sqlx.In(
		"SELECT id, product_id, user_id, name, rating, comment FROM reviews WHERE product_id IN (?) ORDER BY created_at", ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var rows []reviewRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}

	for _, r := range rows {
		i := index[r.ProductID]
		products[i].Reviews = append(products[i].Reviews, models.Review{
			ID:      r.ID,
			UserID:  r.UserID,
			Name:    r.Name,
			Rating:  r.Rating,
			Comment: r.Comment,
		})
	}
	return nil
}

// UpdateProduct writes the editable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, images = $4, category = $5, stock = $6
		WHERE id = $7`,
		p.Name, p.Description, p.Price, imageList(p.Images), p.Category, p.Stock, p.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteProduct removes a product and, by cascade, its reviews
func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DecrementStock subtracts quantity from a product's stock without a floor check
func (s *Store) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2", quantity, productID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// UpsertReview creates or replaces the user's review and refreshes the rating aggregates
func (s *Store) UpsertReview(ctx context.Context, productID uuid.UUID, review *models.Review) error {
	return s.withReviewTx(ctx, productID, func(tx *sqlx.Tx) error {
		if review.ID == uuid.Nil {
			review.ID = uuid.New()
		}
		return tx.GetContext(ctx, &review.ID, `
			INSERT INTO reviews (id, product_id, user_id, name, rating, comment)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (product_id, user_id)
			DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, name = EXCLUDED.name
			RETURNING id`,
			review.ID, productID, review.UserID, review.Name, review.Rating, review.Comment)
	})
}

// DeleteReview removes a review and refreshes the rating aggregates
func (s *Store) DeleteReview(ctx context.Context, productID, reviewID uuid.UUID) error {
	return s.withReviewTx(ctx, productID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM reviews WHERE id = $1 AND product_id = $2", reviewID, productID)
		if err != nil {
			return err
		}
		return expectAffected(res)
	})
}

// withReviewTx locks the product row, runs fn and recomputes ratings and num_of_reviews
func (s *Store) withReviewTx(ctx context.Context, productID uuid.UUID, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.GetContext(ctx, &locked, "SELECT id FROM products WHERE id = $1 FOR UPDATE", productID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock product: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET num_of_reviews = agg.n, ratings = agg.avg
		FROM (SELECT COUNT(*) AS n, COALESCE(AVG(rating), 0) AS avg FROM reviews WHERE product_id = $1) AS agg
		WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to refresh ratings: %w", err)
	}

	return tx.Commit()
}
