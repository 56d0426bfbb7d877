package services

import (
	"context"

	"sparklean/config"
	"sparklean/internal/logger"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// PaymentService fronts the payment processor. Card numbers never touch
// this service, it only works with processor customer and payment method
// identifiers.
type PaymentService interface {
	Enabled() bool
	CreateCustomer(ctx context.Context, name, email string) (string, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
}

func NewPaymentService(cfg config.Config) PaymentService {
	log := logger.New("PaymentService")

	if cfg.StripeSecretKey == "" {
		log.Warn("stripe secret key not configured, payment features disabled")
		return &disabledPaymentService{log: log}
	}

	sc := &client.API{}
	sc.Init(cfg.StripeSecretKey, nil)

	return &stripePaymentService{
		client: sc,
		log:    log,
	}
}

type stripePaymentService struct {
	client *client.API
	log    logger.Logger
}

func (s *stripePaymentService) Enabled() bool { return true }

func (s *stripePaymentService) CreateCustomer(
	ctx context.Context,
	name, email string,
) (string, error) {
	log := s.log.Function("CreateCustomer")

	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.Context = ctx

	customer, err := s.client.Customers.New(params)
	if err != nil {
		return "", log.Err("failed to create stripe customer", err, "email", email)
	}

	log.Info("stripe customer created", "customerID", customer.ID)
	return customer.ID, nil
}

func (s *stripePaymentService) AttachPaymentMethod(
	ctx context.Context,
	customerID, paymentMethodID string,
) error {
	log := s.log.Function("AttachPaymentMethod")

	attachParams := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	attachParams.Context = ctx

	if _, err := s.client.PaymentMethods.Attach(paymentMethodID, attachParams); err != nil {
		return log.Err("failed to attach payment method", err, "customerID", customerID)
	}

	updateParams := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	updateParams.Context = ctx

	if _, err := s.client.Customers.Update(customerID, updateParams); err != nil {
		return log.Err("failed to set default payment method", err, "customerID", customerID)
	}

	return nil
}

// disabledPaymentService keeps registration working when no processor
// key is configured, such as local development.
type disabledPaymentService struct {
	log logger.Logger
}

func (s *disabledPaymentService) Enabled() bool { return false }

func (s *disabledPaymentService) CreateCustomer(
	_ context.Context,
	_, _ string,
) (string, error) {
	return "", s.log.ErrMsg("payment processing is not configured")
}

func (s *disabledPaymentService) AttachPaymentMethod(
	_ context.Context,
	_, _ string,
) error {
	return s.log.ErrMsg("payment processing is not configured")
}
