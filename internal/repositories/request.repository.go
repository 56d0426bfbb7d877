package repositories

import (
	"context"

	contextutil "sparklean/internal/context"
	"sparklean/internal/database"
	"sparklean/internal/logger"
	. "sparklean/internal/models"

	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, request *ServiceRequest) error
	GetByID(ctx context.Context, id int) (*ServiceRequest, error)
	GetForClient(ctx context.Context, id, clientID int) (*ServiceRequest, error)
	ListOpen(ctx context.Context, clientID *int) ([]ServiceRequest, error)
	UpdateFields(ctx context.Context, id int, updates map[string]any) error
	SetStatus(ctx context.Context, id int, status RequestStatus) error
	AddPhoto(ctx context.Context, photo *RequestPhoto) error
	CountPhotos(ctx context.Context, requestID int) (int64, error)
}

type requestRepository struct {
	db  database.DB
	log logger.Logger
}

func NewRequestRepository(db database.DB) RequestRepository {
	return &requestRepository{
		db:  db,
		log: logger.New("requestRepository"),
	}
}

func (r *requestRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *requestRepository) Create(ctx context.Context, request *ServiceRequest) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(request).Error; err != nil {
		return log.Err("failed to create service request", err, "clientID", request.ClientID)
	}

	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int) (*ServiceRequest, error) {
	log := r.log.Function("GetByID")

	var request ServiceRequest
	if err := r.getDB(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get service request", err, "id", id)
	}

	r.attachPhotos(ctx, &request)

	return &request, nil
}

func (r *requestRepository) GetForClient(ctx context.Context, id, clientID int) (*ServiceRequest, error) {
	log := r.log.Function("GetForClient")

	var request ServiceRequest
	err := r.getDB(ctx).
		Where("id = ? AND client_id = ?", id, clientID).
		First(&request).Error
	if err != nil {
		return nil, log.Err("failed to get service request for client", err,
			"id", id, "clientID", clientID)
	}

	return &request, nil
}

// ListOpen returns requests that have not yet become an order, newest first.
// A nil clientID is the admin view across all clients.
func (r *requestRepository) ListOpen(ctx context.Context, clientID *int) ([]ServiceRequest, error) {
	log := r.log.Function("ListOpen")

	query := r.getDB(ctx).
		Model(&ServiceRequest{}).
		Preload("Client").
		Joins("LEFT JOIN orders ON orders.request_id = service_requests.id AND orders.deleted_at IS NULL").
		Where("orders.id IS NULL").
		Order("service_requests.id DESC")

	if clientID != nil {
		query = query.Where("service_requests.client_id = ?", *clientID)
	}

	var requests []ServiceRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list open requests", err)
	}

	for i := range requests {
		r.attachPhotos(ctx, &requests[i])
	}

	return requests, nil
}

func (r *requestRepository) UpdateFields(ctx context.Context, id int, updates map[string]any) error {
	log := r.log.Function("UpdateFields")

	result := r.getDB(ctx).Model(&ServiceRequest{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update service request", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *requestRepository) SetStatus(ctx context.Context, id int, status RequestStatus) error {
	return r.UpdateFields(ctx, id, map[string]any{"status": status})
}

func (r *requestRepository) AddPhoto(ctx context.Context, photo *RequestPhoto) error {
	log := r.log.Function("AddPhoto")

	if err := r.getDB(ctx).Create(photo).Error; err != nil {
		return log.Err("failed to add request photo", err, "requestID", photo.RequestID)
	}

	return nil
}

func (r *requestRepository) CountPhotos(ctx context.Context, requestID int) (int64, error) {
	log := r.log.Function("CountPhotos")

	var count int64
	err := r.getDB(ctx).Model(&RequestPhoto{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	if err != nil {
		return 0, log.Err("failed to count request photos", err, "requestID", requestID)
	}

	return count, nil
}

// attachPhotos loads the photo set for a request. A lookup failure degrades
// to an empty list instead of failing the listing.
func (r *requestRepository) attachPhotos(ctx context.Context, request *ServiceRequest) {
	var photos []RequestPhoto
	err := r.getDB(ctx).
		Where("request_id = ?", request.ID).
		Order("position ASC, id ASC").
		Find(&photos).Error
	if err != nil {
		r.log.Function("attachPhotos").
			Warn("failed to load request photos", "requestID", request.ID, "error", err)
		request.Photos = []RequestPhoto{}
		return
	}

	request.Photos = photos
}
