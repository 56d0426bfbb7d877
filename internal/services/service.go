package services

import (
	"sparklean/config"
	"sparklean/internal/database"
)

type Service struct {
	Transaction *TransactionService
	Scheduler   *SchedulerService
	Session     *SessionService
	Payment     PaymentService
	Storage     *StorageService
}

func New(db database.DB, config config.Config) (Service, error) {
	transactionService := NewTransactionService(db)
	schedulerService := NewSchedulerService()
	sessionService := NewSessionService(db, config)
	paymentService := NewPaymentService(config)

	storageService, err := NewStorageService(config)
	if err != nil {
		return Service{}, err
	}

	return Service{
		Transaction: transactionService,
		Scheduler:   schedulerService,
		Session:     sessionService,
		Payment:     paymentService,
		Storage:     storageService,
	}, nil
}
