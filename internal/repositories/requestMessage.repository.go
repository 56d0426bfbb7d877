package repositories

import (
	"context"

	contextutil "sparklean/internal/context"
	"sparklean/internal/database"
	"sparklean/internal/logger"
	. "sparklean/internal/models"

	"gorm.io/gorm"
)

type RequestMessageRepository interface {
	Append(ctx context.Context, message *RequestMessage) error
	ListByRequest(ctx context.Context, requestID int) ([]RequestMessage, error)
}

type requestMessageRepository struct {
	db  database.DB
	log logger.Logger
}

func NewRequestMessageRepository(db database.DB) RequestMessageRepository {
	return &requestMessageRepository{
		db:  db,
		log: logger.New("requestMessageRepository"),
	}
}

func (r *requestMessageRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *requestMessageRepository) Append(ctx context.Context, message *RequestMessage) error {
	log := r.log.Function("Append")

	if err := r.getDB(ctx).Create(message).Error; err != nil {
		return log.Err("failed to append request message", err,
			"requestID", message.RequestID, "type", message.MessageType)
	}

	return nil
}

func (r *requestMessageRepository) ListByRequest(ctx context.Context, requestID int) ([]RequestMessage, error) {
	log := r.log.Function("ListByRequest")

	var messages []RequestMessage
	err := r.getDB(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, log.Err("failed to list request messages", err, "requestID", requestID)
	}

	return messages, nil
}
