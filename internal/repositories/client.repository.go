package repositories

import (
	"context"
	"fmt"
	"time"

	contextutil "sparklean/internal/context"
	"sparklean/internal/database"
	"sparklean/internal/logger"
	. "sparklean/internal/models"

	"gorm.io/gorm"
)

const (
	CLIENT_CACHE_EXPIRY = 1 * time.Hour
	CLIENT_CACHE_PREFIX = "client:"
)

type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	GetByID(ctx context.Context, id int) (*Client, error)
	GetByLogin(ctx context.Context, login string) (*Client, error)
	RecordSignIn(ctx context.Context, id int) error
	SetCard(ctx context.Context, id int, brand *string, last4 string) error
	SetPaymentProfile(ctx context.Context, id int, customerID string, brand *string, last4 string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	ListStats(ctx context.Context, search string) ([]ClientStats, error)
}

type clientRepository struct {
	db  database.DB
	log logger.Logger
}

func NewClientRepository(db database.DB) ClientRepository {
	return &clientRepository{
		db:  db,
		log: logger.New("clientRepository"),
	}
}

func (r *clientRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *clientRepository) Create(ctx context.Context, client *Client) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(client).Error; err != nil {
		return log.Err("failed to create client", err, "email", client.Email)
	}

	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id int) (*Client, error) {
	log := r.log.Function("GetByID")

	var client Client
	if found, err := r.getFromCache(ctx, id, &client); err == nil && found {
		return &client, nil
	}

	if err := r.getDB(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get client by id", err, "id", id)
	}

	r.addToCache(ctx, &client)

	return &client, nil
}

// GetByLogin looks a client up by username or email
func (r *clientRepository) GetByLogin(ctx context.Context, login string) (*Client, error) {
	log := r.log.Function("GetByLogin")

	var client Client
	err := r.getDB(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&client).Error
	if err != nil {
		return nil, log.Err("failed to get client by login", err, "login", login)
	}

	return &client, nil
}

func (r *clientRepository) RecordSignIn(ctx context.Context, id int) error {
	log := r.log.Function("RecordSignIn")

	err := r.getDB(ctx).Model(&Client{}).
		Where("id = ?", id).
		Update("sign_in_at", time.Now()).Error
	if err != nil {
		return log.Err("failed to record sign-in time", err, "id", id)
	}

	r.clearCache(ctx, id)
	return nil
}

func (r *clientRepository) SetCard(ctx context.Context, id int, brand *string, last4 string) error {
	log := r.log.Function("SetCard")

	result := r.getDB(ctx).Model(&Client{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"card_brand": brand,
			"card_last4": last4,
		})
	if result.Error != nil {
		return log.Err("failed to save card", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, id)
	return nil
}

// SetPaymentProfile stores the payment processor customer id together
// with the card summary
func (r *clientRepository) SetPaymentProfile(
	ctx context.Context,
	id int,
	customerID string,
	brand *string,
	last4 string,
) error {
	log := r.log.Function("SetPaymentProfile")

	result := r.getDB(ctx).Model(&Client{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stripe_customer_id": customerID,
			"card_brand":         brand,
			"card_last4":         last4,
		})
	if result.Error != nil {
		return log.Err("failed to save payment profile", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearCache(ctx, id)
	return nil
}

func (r *clientRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	log := r.log.Function("UsernameExists")

	var count int64
	err := r.getDB(ctx).Model(&Client{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, log.Err("failed to check username", err, "username", username)
	}

	return count > 0, nil
}

// ListStats returns per-client order aggregates for the admin dashboard,
// optionally filtered by a search term over name/username/email/address
func (r *clientRepository) ListStats(ctx context.Context, search string) ([]ClientStats, error) {
	log := r.log.Function("ListStats")

	query := `
		SELECT
			c.id AS client_id,
			c.username,
			c.name,
			c.email,
			c.address,
			c.card_brand,
			c.card_last4,
			COUNT(o.id) AS total_jobs,
			COALESCE(SUM(CASE WHEN o.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed_jobs,
			COALESCE(SUM(CASE WHEN o.payment_status = 'paid' THEN 1 ELSE 0 END), 0) AS paid_orders,
			COALESCE(SUM(CASE WHEN o.payment_status = 'overdue' THEN 1 ELSE 0 END), 0) AS late_payments,
			COALESCE(SUM(CASE WHEN o.payment_status IN ('due','overdue','disputed') THEN 1 ELSE 0 END), 0) AS open_orders,
			COALESCE(SUM(CASE WHEN o.payment_status IN ('due','overdue','disputed') THEN COALESCE(o.total_amount, 0) ELSE 0 END), 0) AS open_amount_due
		FROM clients c
		LEFT JOIN orders o ON o.client_id = c.id AND o.deleted_at IS NULL
		WHERE c.deleted_at IS NULL`

	args := []any{}
	if search != "" {
		like := "%" + search + "%"
		query += `
		AND (c.name ILIKE ? OR c.username ILIKE ? OR c.email ILIKE ? OR c.address ILIKE ?)`
		args = append(args, like, like, like, like)
	}

	query += `
		GROUP BY c.id, c.username, c.name, c.email, c.address, c.card_brand, c.card_last4
		ORDER BY total_jobs DESC, c.id ASC`

	var stats []ClientStats
	if err := r.getDB(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, log.Err("failed to list client stats", err)
	}

	return stats, nil
}

func (r *clientRepository) getFromCache(ctx context.Context, id int, client *Client) (bool, error) {
	if r.db.Cache.General == nil {
		return false, nil
	}

	key := fmt.Sprintf("%s%d", CLIENT_CACHE_PREFIX, id)
	return database.NewCacheBuilder(r.db.Cache.General, key).WithContext(ctx).Get(client)
}

func (r *clientRepository) addToCache(ctx context.Context, client *Client) {
	if r.db.Cache.General == nil {
		return
	}

	key := fmt.Sprintf("%s%d", CLIENT_CACHE_PREFIX, client.ID)
	err := database.NewCacheBuilder(r.db.Cache.General, key).
		WithStruct(client).
		WithTTL(CLIENT_CACHE_EXPIRY).
		WithContext(ctx).
		Set()
	if err != nil {
		r.log.Function("addToCache").Warn("failed to cache client", "id", client.ID, "error", err)
	}
}

func (r *clientRepository) clearCache(ctx context.Context, id int) {
	if r.db.Cache.General == nil {
		return
	}

	key := fmt.Sprintf("%s%d", CLIENT_CACHE_PREFIX, id)
	if err := database.NewCacheBuilder(r.db.Cache.General, key).WithContext(ctx).Delete(); err != nil {
		r.log.Function("clearCache").Warn("failed to clear client cache", "id", id, "error", err)
	}
}
