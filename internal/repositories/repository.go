package repositories

import (
	"sparklean/internal/database"
)

type Repository struct {
	Client         ClientRepository
	Request        RequestRepository
	RequestMessage RequestMessageRepository
	Order          OrderRepository
	Report         ReportRepository
}

func New(db database.DB) Repository {
	return Repository{
		Client:         NewClientRepository(db),
		Request:        NewRequestRepository(db),
		RequestMessage: NewRequestMessageRepository(db),
		Order:          NewOrderRepository(db),
		Report:         NewReportRepository(db),
	}
}
