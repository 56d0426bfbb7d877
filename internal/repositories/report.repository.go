package repositories

import (
	"context"
	"time"

	contextutil "sparklean/internal/context"
	"sparklean/internal/database"
	"sparklean/internal/logger"
	. "sparklean/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Report types understood by the dispatch table
const (
	ReportFrequentClients    = "frequent_clients"
	ReportUncommittedClients = "uncommitted_clients"
	ReportAcceptedQuotes     = "accepted_quotes"
	ReportProspectiveClients = "prospective_clients"
	ReportLargestJob         = "largest_job"
	ReportOverdueBills       = "overdue_bills"
	ReportBadClients         = "bad_clients"
	ReportGoodClients        = "good_clients"
)

type FrequentClientRow struct {
	ClientID        int    `json:"clientId"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	CompletedOrders int    `json:"completedOrders"`
}

type UncommittedClientRow struct {
	ClientID     int    `json:"clientId"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	RequestCount int    `json:"requestCount"`
}

type AcceptedQuoteRow struct {
	RequestID       int              `json:"requestId"`
	OrderID         int              `json:"orderId"`
	ClientID        int              `json:"clientId"`
	ClientName      string           `json:"clientName"`
	ClientEmail     string           `json:"clientEmail"`
	ServiceAddress  string           `json:"serviceAddress"`
	CleaningType    string           `json:"cleaningType"`
	Rooms           int              `json:"rooms"`
	QuotePrice      *decimal.Decimal `json:"quotePrice,omitempty"`
	QuoteTimeWindow *string          `json:"quoteTimeWindow,omitempty"`
	RequestStatus   RequestStatus    `json:"requestStatus"`
	OrderStatus     OrderStatus      `json:"orderStatus"`
	TotalAmount     *decimal.Decimal `json:"totalAmount,omitempty"`
	OrderCreatedAt  time.Time        `json:"orderCreatedAt"`
}

type ProspectiveClientRow struct {
	ClientID  int       `json:"clientId"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type LargestJobRow struct {
	RequestID      int              `json:"requestId"`
	OrderID        int              `json:"orderId"`
	ClientID       int              `json:"clientId"`
	ClientName     string           `json:"clientName"`
	ServiceAddress string           `json:"serviceAddress"`
	CleaningType   string           `json:"cleaningType"`
	Rooms          int              `json:"rooms"`
	TotalAmount    *decimal.Decimal `json:"totalAmount,omitempty"`
	Status         OrderStatus      `json:"status"`
	PaymentStatus  PaymentStatus    `json:"paymentStatus"`
}

type BillingAggregateRow struct {
	ClientID     int    `json:"clientId"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	OverdueBills int    `json:"overdueBills"`
	DueBills     int    `json:"dueBills"`
	PaidBills    int    `json:"paidBills"`
}

type GoodClientRow struct {
	ClientID        int    `json:"clientId"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	CompletedOrders int    `json:"completedOrders"`
	PaidOrders      int    `json:"paidOrders"`
	ProblemOrders   int    `json:"problemOrders"`
}

type ReportRepository interface {
	Run(ctx context.Context, reportType string, month *string) (any, error)
	KnownType(reportType string) bool
}

type reportRepository struct {
	db       database.DB
	log      logger.Logger
	dispatch map[string]func(ctx context.Context, month *string) (any, error)
}

func NewReportRepository(db database.DB) ReportRepository {
	r := &reportRepository{
		db:  db,
		log: logger.New("reportRepository"),
	}

	r.dispatch = map[string]func(ctx context.Context, month *string) (any, error){
		ReportFrequentClients:    r.frequentClients,
		ReportUncommittedClients: r.uncommittedClients,
		ReportAcceptedQuotes:     r.acceptedQuotes,
		ReportProspectiveClients: r.prospectiveClients,
		ReportLargestJob:         r.largestJob,
		ReportOverdueBills:       r.overdueBills,
		ReportBadClients:         r.badClients,
		ReportGoodClients:        r.goodClients,
	}

	return r
}

func (r *reportRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *reportRepository) KnownType(reportType string) bool {
	_, ok := r.dispatch[reportType]
	return ok
}

func (r *reportRepository) Run(ctx context.Context, reportType string, month *string) (any, error) {
	fn, ok := r.dispatch[reportType]
	if !ok {
		return nil, r.log.Function("Run").Error("unknown report type", "type", reportType)
	}
	return fn(ctx, month)
}

// frequentClients ranks clients by completed orders, optionally per month
func (r *reportRepository) frequentClients(ctx context.Context, month *string) (any, error) {
	log := r.log.Function("frequentClients")

	query := `
		SELECT
			c.id AS client_id,
			c.username,
			c.name,
			c.email,
			COUNT(o.id) AS completed_orders
		FROM clients c
		JOIN orders o ON o.client_id = c.id
			AND o.status = 'completed'
			AND o.deleted_at IS NULL
		WHERE c.deleted_at IS NULL`

	args := []any{}
	if month != nil {
		query += `
		AND to_char(COALESCE(o.scheduled_at, o.created_at), 'YYYY-MM') = ?`
		args = append(args, *month)
	}

	query += `
		GROUP BY c.id, c.username, c.name, c.email
		ORDER BY completed_orders DESC, c.id ASC
		LIMIT 50`

	rows := []FrequentClientRow{}
	if err := r.getDB(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, log.Err("failed to run frequent clients report", err)
	}
	return rows, nil
}

// uncommittedClients have two or more requests that never completed an order
func (r *reportRepository) uncommittedClients(ctx context.Context, month *string) (any, error) {
	log := r.log.Function("uncommittedClients")

	query := `
		SELECT
			c.id AS client_id,
			c.username,
			c.name,
			c.email,
			COUNT(DISTINCT sr.id) AS request_count
		FROM clients c
		JOIN service_requests sr ON sr.client_id = c.id AND sr.deleted_at IS NULL
		LEFT JOIN orders o ON o.request_id = sr.id
			AND o.status = 'completed'
			AND o.deleted_at IS NULL
		WHERE o.id IS NULL
		AND c.deleted_at IS NULL`

	args := []any{}
	if month != nil {
		query += `
		AND to_char(sr.created_at, 'YYYY-MM') = ?`
		args = append(args, *month)
	}

	query += `
		GROUP BY c.id, c.username, c.name, c.email
		HAVING COUNT(DISTINCT sr.id) >= 2
		ORDER BY request_count DESC, c.id ASC`

	rows := []UncommittedClientRow{}
	if err := r.getDB(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, log.Err("failed to run uncommitted clients report", err)
	}
	return rows, nil
}

// acceptedQuotes lists the month's completed orders with their quote detail
func (r *reportRepository) acceptedQuotes(ctx context.Context, month *string) (any, error) {
	log := r.log.Function("acceptedQuotes")

	if month == nil {
		return nil, log.ErrMsg("month is required for accepted quotes report")
	}

	query := `
		SELECT
			sr.id AS request_id,
			o.id AS order_id,
			sr.client_id,
			c.name AS client_name,
			c.email AS client_email,
			sr.service_address,
			sr.cleaning_type,
			sr.rooms,
			sr.quote_price,
			sr.quote_time_window,
			sr.status AS request_status,
			o.status AS order_status,
			o.total_amount,
			o.created_at AS order_created_at
		FROM service_requests sr
		JOIN orders o ON o.request_id = sr.id
			AND o.status = 'completed'
			AND o.deleted_at IS NULL
		JOIN clients c ON c.id = sr.client_id
		WHERE to_char(COALESCE(o.scheduled_at, o.created_at), 'YYYY-MM') = ?
		AND sr.deleted_at IS NULL
		ORDER BY o.created_at DESC`

	rows := []AcceptedQuoteRow{}
	if err := r.getDB(ctx).Raw(query, *month).Scan(&rows).Error; err != nil {
		return nil, log.Err("failed to run accepted quotes report", err)
	}
	return rows, nil
}

// prospectiveClients registered (optionally that month) but never submitted
// a request
func (r *reportRepository) prospectiveClients(ctx context.Context, month *string) (any, error) {
	log := r.log.Function("prospectiveClients")

	query := `
		SELECT
			c.id AS client_id,
			c.username,
			c.name,
			c.email,
			c.created_at
		FROM clients c
		LEFT JOIN service_requests sr ON sr.client_id = c.id AND sr.deleted_at IS NULL
		WHERE sr.id IS NULL
		AND c.deleted_at IS NULL`

	args := []any{}
	if month != nil {
		query += `
		AND to_char(c.created_at, 'YYYY-MM') = ?`
		args = append(args, *month)
	}

	query += `
		ORDER BY c.id ASC`

	rows := []ProspectiveClientRow{}
	if err := r.getDB(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, log.Err("failed to run prospective clients report", err)
	}
	return rows, nil
}

// largestJob returns every completed order whose request matches the
// period's maximum room count, so ties all come back
func (r *reportRepository) largestJob(ctx context.Context, month *string) (any, error) {
	log := r.log.Function("largestJob")

	subQuery := `
		SELECT MAX(sr2.rooms)
		FROM service_requests sr2
		JOIN orders o2 ON o2.request_id = sr2.id
			AND o2.status = 'completed'
			AND o2.deleted_at IS NULL
		WHERE sr2.deleted_at IS NULL`

	args := []any{}
	if month != nil {
		subQuery += `
		AND to_char(COALESCE(o2.scheduled_at, o2.created_at), 'YYYY-MM') = ?`
		args = append(args, *month)
	}

	query := `
		SELECT
			sr.id AS request_id,
			o.id AS order_id,
			c.id AS client_id,
			c.name AS client_name,
			sr.service_address,
			sr.cleaning_type,
			sr.rooms,
			o.total_amount,
			o.status,
			o.payment_status
		FROM service_requests sr
		JOIN orders o ON o.request_id = sr.id AND o.deleted_at IS NULL
		JOIN clients c ON c.id = sr.client_id
		WHERE o.status = 'completed'
		AND sr.deleted_at IS NULL
		AND sr.rooms = (` + subQuery + `)`

	if month != nil {
		query += `
		AND to_char(COALESCE(o.scheduled_at, o.created_at), 'YYYY-MM') = ?`
		args = append(args, *month)
	}

	query += `
		ORDER BY sr.id ASC`

	rows := []LargestJobRow{}
	if err := r.getDB(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, log.Err("failed to run largest job report", err)
	}
	return rows, nil
}

// overdueBills lists clients with two or more unpaid bills
func (r *reportRepository) overdueBills(ctx context.Context, month *string) (any, error) {
	log := r.log.Function("overdueBills")

	rows, err := r.billingAggregates(ctx, month, `
		HAVING SUM(CASE WHEN o.payment_status <> 'paid' THEN 1 ELSE 0 END) >= 2`)
	if err != nil {
		return nil, log.Err("failed to run overdue bills report", err)
	}
	return rows, nil
}

// badClients have unpaid bills and have never paid one
func (r *reportRepository) badClients(ctx context.Context, month *string) (any, error) {
	log := r.log.Function("badClients")

	rows, err := r.billingAggregates(ctx, month, `
		HAVING SUM(CASE WHEN o.payment_status <> 'paid' THEN 1 ELSE 0 END) >= 1
		AND SUM(CASE WHEN o.payment_status = 'paid' THEN 1 ELSE 0 END) = 0`)
	if err != nil {
		return nil, log.Err("failed to run bad clients report", err)
	}
	return rows, nil
}

func (r *reportRepository) billingAggregates(
	ctx context.Context,
	month *string,
	having string,
) ([]BillingAggregateRow, error) {
	query := `
		SELECT
			c.id AS client_id,
			c.username,
			c.name,
			c.email,
			SUM(CASE WHEN o.payment_status <> 'paid' THEN 1 ELSE 0 END) AS overdue_bills,
			SUM(CASE WHEN o.payment_status = 'not_due' THEN 1 ELSE 0 END) AS due_bills,
			SUM(CASE WHEN o.payment_status = 'paid' THEN 1 ELSE 0 END) AS paid_bills
		FROM clients c
		JOIN orders o ON o.client_id = c.id AND o.deleted_at IS NULL
		WHERE c.deleted_at IS NULL`

	args := []any{}
	if month != nil {
		query += `
		AND to_char(o.scheduled_at, 'YYYY-MM') = ?`
		args = append(args, *month)
	}

	query += `
		GROUP BY c.id, c.username, c.name, c.email` + having + `
		ORDER BY overdue_bills DESC, c.id ASC`

	rows := []BillingAggregateRow{}
	if err := r.getDB(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// goodClients completed at least one order and have no open or problem bills
func (r *reportRepository) goodClients(ctx context.Context, month *string) (any, error) {
	log := r.log.Function("goodClients")

	query := `
		SELECT
			c.id AS client_id,
			c.username,
			c.name,
			c.email,
			COUNT(o.id) AS completed_orders,
			SUM(CASE WHEN o.payment_status = 'paid' THEN 1 ELSE 0 END) AS paid_orders,
			SUM(CASE WHEN o.payment_status IN ('due','overdue','disputed') THEN 1 ELSE 0 END) AS problem_orders
		FROM clients c
		JOIN orders o ON o.client_id = c.id
			AND o.status = 'completed'
			AND o.deleted_at IS NULL
		WHERE c.deleted_at IS NULL`

	args := []any{}
	if month != nil {
		query += `
		AND to_char(COALESCE(o.scheduled_at, o.created_at), 'YYYY-MM') = ?`
		args = append(args, *month)
	}

	query += `
		GROUP BY c.id, c.username, c.name, c.email
		HAVING COUNT(o.id) > 0
		AND SUM(CASE WHEN o.payment_status IN ('due','overdue','disputed') THEN 1 ELSE 0 END) = 0
		ORDER BY completed_orders DESC, c.id ASC`

	rows := []GoodClientRow{}
	if err := r.getDB(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, log.Err("failed to run good clients report", err)
	}
	return rows, nil
}
