package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

const mysqlErrDuplicateEntry = 1062

// MySQLStore is the durable implementation of the storage ports. Every
// mutation commits before the call returns (write-through), so a restart
// never loses a reported success. CreateOrder uses a conditional decrement
// per line inside one transaction; the database enforces the stock invariant.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id          VARCHAR(32) PRIMARY KEY,
			name        VARCHAR(255) NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id          VARCHAR(32) PRIMARY KEY,
			name        VARCHAR(255) NOT NULL,
			description TEXT,
			price       DECIMAL(18,4) NOT NULL,
			price_unit  VARCHAR(32) NOT NULL DEFAULT '',
			stock       INT NOT NULL DEFAULT 0,
			is_active   BOOLEAN NOT NULL DEFAULT TRUE,
			is_organic  BOOLEAN NOT NULL DEFAULT FALSE,
			category_id VARCHAR(32),
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL,
			CONSTRAINT chk_stock_non_negative CHECK (stock >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id               BIGINT PRIMARY KEY,
			user_id          BIGINT NOT NULL,
			delivery_address VARCHAR(512) NOT NULL,
			subtotal         DECIMAL(18,4) NOT NULL,
			delivery_fee     DECIMAL(18,4) NOT NULL,
			total            DECIMAL(18,4) NOT NULL,
			status           VARCHAR(16) NOT NULL,
			created_at       DATETIME NOT NULL,
			delivered_at     DATETIME NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			order_id     BIGINT NOT NULL,
			product_id   VARCHAR(32) NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			quantity     INT NOT NULL,
			unit_price   DECIMAL(18,4) NOT NULL,
			subtotal     DECIMAL(18,4) NOT NULL,
			PRIMARY KEY (order_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id         BIGINT PRIMARY KEY,
			email      VARCHAR(255) NOT NULL UNIQUE,
			name       VARCHAR(255) NOT NULL,
			address    VARCHAR(512) NOT NULL DEFAULT '',
			phone      VARCHAR(64) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, price_unit, stock, is_active, is_organic,
		       COALESCE(category_id, ''), created_at, updated_at
		FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

func (s *MySQLStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, price_unit, stock, is_active, is_organic,
		       COALESCE(category_id, ''), created_at, updated_at
		FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *MySQLStore) SaveProduct(ctx context.Context, p domain.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, price_unit, stock,
			is_active, is_organic, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), description = VALUES(description),
			price = VALUES(price), price_unit = VALUES(price_unit),
			stock = VALUES(stock), is_active = VALUES(is_active),
			is_organic = VALUES(is_organic), category_id = VALUES(category_id),
			updated_at = VALUES(updated_at)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.PriceUnit, p.Stock,
		p.IsActive, p.IsOrganic, nullIfEmpty(p.CategoryID), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (s *MySQLStore) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *MySQLStore) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, '') FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

func (s *MySQLStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, '') FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *MySQLStore) SaveCategory(ctx context.Context, c domain.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, description) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), description = VALUES(description)`,
		c.ID, c.Name, c.Description,
	)
	if err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

// CreateOrder inserts the order and its lines and decrements stock inside one
// transaction. The conditional UPDATE (stock >= quantity) makes over-selling
// impossible even with concurrent placements against the same row.
func (s *MySQLStore) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, line := range order.Lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, updated_at = NOW()
			WHERE id = ? AND stock >= ?`,
			line.Quantity, line.ProductID, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return s.stockFailure(ctx, tx, line)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, delivery_address, subtotal, delivery_fee,
			total, status, created_at, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		order.ID, order.UserID, order.DeliveryAddress, order.Subtotal.String(),
		order.DeliveryFee.String(), order.Total.String(), order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, product_id, product_name, quantity,
				unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, line.ProductID, line.ProductName, line.Quantity,
			line.UnitPrice.String(), line.Subtotal.String(),
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return tx.Commit()
}

// stockFailure distinguishes a missing product from an insufficient one after
// a conditional decrement touched no rows.
func (s *MySQLStore) stockFailure(ctx context.Context, tx *sql.Tx, line domain.OrderLine) error {
	var available int
	err := tx.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = ?`, line.ProductID,
	).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query stock: %w", err)
	}
	return &domain.InsufficientStockError{
		ProductID: line.ProductID,
		Requested: line.Quantity,
		Available: available,
	}
}

func (s *MySQLStore) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, delivery_address, subtotal, delivery_fee, total,
		       status, created_at, delivered_at
		FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, err
	}

	lines, err := s.orderLines(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.Lines = lines
	return o, nil
}

func (s *MySQLStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, delivery_address, subtotal, delivery_fee, total,
		       status, created_at, delivered_at
		FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var result []domain.Order
	byID := make(map[int64]int)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		byID[o.ID] = len(result)
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, quantity, unit_price, subtotal
		FROM order_lines ORDER BY order_id, product_id`)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		line, err := scanOrderLine(lineRows)
		if err != nil {
			return nil, err
		}
		if i, ok := byID[line.OrderID]; ok {
			result[i].Lines = append(result[i].Lines, line)
		}
	}
	return result, lineRows.Err()
}

func (s *MySQLStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, deliveredAt *time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, delivered_at = ? WHERE id = ?`,
		status, deliveredAt, id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := s.GetOrder(ctx, id); err != nil {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (s *MySQLStore) HasOrdersForProduct(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM order_lines WHERE product_id = ?)`, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query order lines: %w", err)
	}
	return exists, nil
}

func (s *MySQLStore) CreateUser(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, address, phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Address, u.Phone, u.CreatedAt,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		return domain.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MySQLStore) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, address, phone, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Address, &u.Phone, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *MySQLStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, address, phone, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Address, &u.Phone, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// SequenceFloors reports the highest persisted id of each kind so the
// sequencer can resume above them after a restart.
type SequenceFloors struct {
	UserID     int64
	OrderID    int64
	ProductSeq int64
}

func (s *MySQLStore) SequenceFloors(ctx context.Context) (SequenceFloors, error) {
	var floors SequenceFloors
	queries := []struct {
		dest  *int64
		query string
	}{
		{&floors.UserID, `SELECT COALESCE(MAX(id), 0) FROM users`},
		{&floors.OrderID, `SELECT COALESCE(MAX(id), 0) FROM orders`},
		{&floors.ProductSeq, `SELECT COALESCE(MAX(CAST(SUBSTRING(id, 3) AS UNSIGNED)), 0)
			FROM products WHERE id LIKE 'PR%'`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return SequenceFloors{}, fmt.Errorf("query sequence floor: %w", err)
		}
	}
	return floors, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.PriceUnit, &p.Stock,
		&p.IsActive, &p.IsOrganic, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price: %w", err)
	}
	return p, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o                            domain.Order
		subtotal, deliveryFee, total string
		deliveredAt                  sql.NullTime
	)
	err := row.Scan(&o.ID, &o.UserID, &o.DeliveryAddress, &subtotal, &deliveryFee,
		&total, &o.Status, &o.CreatedAt, &deliveredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("scan order: %w", err)
	}
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return domain.Order{}, fmt.Errorf("parse subtotal: %w", err)
	}
	if o.DeliveryFee, err = decimal.NewFromString(deliveryFee); err != nil {
		return domain.Order{}, fmt.Errorf("parse delivery fee: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return domain.Order{}, fmt.Errorf("parse total: %w", err)
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		o.DeliveredAt = &t
	}
	return o, nil
}

func scanOrderLine(row rowScanner) (domain.OrderLine, error) {
	var (
		line                domain.OrderLine
		unitPrice, subtotal string
	)
	err := row.Scan(&line.OrderID, &line.ProductID, &line.ProductName,
		&line.Quantity, &unitPrice, &subtotal)
	if err != nil {
		return domain.OrderLine{}, fmt.Errorf("scan order line: %w", err)
	}
	if line.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return domain.OrderLine{}, fmt.Errorf("parse unit price: %w", err)
	}
	if line.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return domain.OrderLine{}, fmt.Errorf("parse line subtotal: %w", err)
	}
	return line, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *MySQLStore) orderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, quantity, unit_price, subtotal
		FROM order_lines WHERE order_id = ? ORDER BY product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		line, err := scanOrderLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
