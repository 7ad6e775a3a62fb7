package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
)

// DashboardService aggregates the back-office overview figures. Everything
// here is read-only and computed on request.
type DashboardService struct {
	userRepo     *repository.UserRepository
	shipmentRepo *repository.ShipmentRepository
	tourRepo     *repository.TourRepository
	invoiceRepo  *repository.InvoiceRepository
	supportRepo  *repository.SupportRepository
}

func NewDashboardService(userRepo *repository.UserRepository, shipmentRepo *repository.ShipmentRepository, tourRepo *repository.TourRepository, invoiceRepo *repository.InvoiceRepository, supportRepo *repository.SupportRepository) *DashboardService {
	return &DashboardService{
		userRepo:     userRepo,
		shipmentRepo: shipmentRepo,
		tourRepo:     tourRepo,
		invoiceRepo:  invoiceRepo,
		supportRepo:  supportRepo,
	}
}

// Overview is the landing-page snapshot.
type Overview struct {
	TotalClients      int64             `json:"total_clients"`
	TotalShipments    int64             `json:"total_shipments"`
	ShipmentsByStatus map[string]int64  `json:"shipments_by_status"`
	ToursInProgress   int64             `json:"tours_in_progress"`
	OpenIncidents     int64             `json:"open_incidents"`
	RevenueTTC        decimal.Decimal   `json:"revenue_ttc"`
	OutstandingTTC    decimal.Decimal   `json:"outstanding_ttc"`
	LatestShipments   []entity.Shipment `json:"latest_shipments"`
	LatestClaims      []entity.Claim    `json:"latest_claims"`
}

func (s *DashboardService) GetOverview(ctx context.Context) (*Overview, error) {
	overview := &Overview{
		RevenueTTC:     decimal.Zero,
		OutstandingTTC: decimal.Zero,
	}

	totalClients, err := s.userRepo.CountByRole(ctx, entity.RoleClient)
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	overview.TotalClients = totalClients

	byStatus, err := s.shipmentRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count shipments: %w", err)
	}
	overview.ShipmentsByStatus = byStatus
	for _, count := range byStatus {
		overview.TotalShipments += count
	}

	toursInProgress, err := s.tourRepo.CountByStatus(ctx, entity.TourStatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("count tours: %w", err)
	}
	overview.ToursInProgress = toursInProgress

	openIncidents, err := s.supportRepo.CountIncidentsByStatus(ctx, entity.IncidentStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("count incidents: %w", err)
	}
	overview.OpenIncidents = openIncidents

	revenueHT, err := s.invoiceRepo.SumInvoicedHT(ctx, []string{entity.InvoiceStatusPaid})
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	overview.RevenueTTC = grossUp(revenueHT)

	outstandingHT, err := s.invoiceRepo.SumInvoicedHT(ctx, []string{entity.InvoiceStatusUnpaid, entity.InvoiceStatusOverdue})
	if err != nil {
		return nil, fmt.Errorf("sum outstanding: %w", err)
	}
	overview.OutstandingTTC = grossUp(outstandingHT)

	overview.LatestShipments, err = s.shipmentRepo.Latest(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("latest shipments: %w", err)
	}

	overview.LatestClaims, err = s.supportRepo.LatestClaims(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("latest claims: %w", err)
	}

	return overview, nil
}

// grossUp converts a net total to its tax-inclusive amount.
func grossUp(ht decimal.Decimal) decimal.Decimal {
	tva := ht.Mul(entity.TVARate).Round(2)
	return ht.Add(tva)
}
