package clientController

import (
	"context"
	"errors"
	"strings"

	"sparklean/internal/database"
	"sparklean/internal/logger"
	"sparklean/internal/models"
	"sparklean/internal/repositories"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// ClientController handles the simulated card on file and the admin
// client dashboard aggregates
type ClientController struct {
	clientRepo repositories.ClientRepository
	db         database.DB
	validate   *validator.Validate
	log        logger.Logger
}

type ClientControllerInterface interface {
	SaveCard(ctx context.Context, clientID int, req SaveCardRequest) (*SaveCardResponse, error)
	ListStats(ctx context.Context, search string) ([]models.ClientStats, error)
}

type SaveCardRequest struct {
	CardNumber string  `json:"cardNumber" validate:"required,min=4"`
	Brand      *string `json:"brand,omitempty"`
}

// SaveCardResponse deliberately exposes only the last three digits
type SaveCardResponse struct {
	Brand     *string `json:"brand,omitempty"`
	CardLast3 string  `json:"cardLast3"`
}

func New(repos repositories.Repository, db database.DB) ClientControllerInterface {
	return &ClientController{
		clientRepo: repos.Client,
		db:         db,
		validate:   validator.New(),
		log:        logger.New("clientController"),
	}
}

// SaveCard stores the card brand and last four digits only. The full
// number never reaches persistence.
func (c *ClientController) SaveCard(
	ctx context.Context,
	clientID int,
	req SaveCardRequest,
) (*SaveCardResponse, error) {
	log := c.log.Function("SaveCard")

	if err := c.validate.Struct(req); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid card payload", "error", err)
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, req.CardNumber)
	if len(digits) < 4 {
		return nil, log.ErrorWithType(ErrValidation, "card number must contain at least 4 digits")
	}

	last4 := digits[len(digits)-4:]
	if err := c.clientRepo.SetCard(ctx, clientID, req.Brand, last4); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrNotFound, "client not found", "clientID", clientID)
		}
		return nil, log.Err("failed to save card", err, "clientID", clientID)
	}

	log.Info("card saved", "clientID", clientID)
	return &SaveCardResponse{
		Brand:     req.Brand,
		CardLast3: last4[1:],
	}, nil
}

// ListStats returns per-client job and billing aggregates for the admin
// dashboard, optionally filtered by a search term.
func (c *ClientController) ListStats(
	ctx context.Context,
	search string,
) ([]models.ClientStats, error) {
	log := c.log.Function("ListStats")

	stats, err := c.clientRepo.ListStats(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, log.Err("failed to list client stats", err)
	}
	return stats, nil
}
