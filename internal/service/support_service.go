package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
)

// SupportService handles incidents and claims. Incident photos go to object
// storage when a client is configured.
type SupportService struct {
	supportRepo  *repository.SupportRepository
	shipmentRepo *repository.ShipmentRepository
	minioClient  *minio.Client
	bucketName   string
}

func NewSupportService(supportRepo *repository.SupportRepository, shipmentRepo *repository.ShipmentRepository, minioClient *minio.Client, bucketName string) *SupportService {
	return &SupportService{
		supportRepo:  supportRepo,
		shipmentRepo: shipmentRepo,
		minioClient:  minioClient,
		bucketName:   bucketName,
	}
}

type CreateIncidentRequest struct {
	ShipmentID   string `json:"shipment_id" binding:"required"`
	IncidentType string `json:"incident_type" binding:"required,oneof=PARCEL_DAMAGED DELIVERY_DELAYED ADDRESS_ERROR OTHER"`
	Description  string `json:"description" binding:"required"`
	DateOccurred string `json:"date_occurred" binding:"required"` // RFC 3339
	Location     string `json:"location"`
}

type UpdateIncidentRequest struct {
	Status      *string `json:"status" binding:"omitempty,oneof=OPEN IN_RESOLUTION RESOLVED"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

type CreateClaimRequest struct {
	ClientID    string  `json:"client_id" binding:"required"`
	IncidentID  *string `json:"incident_id"`
	Reason      string  `json:"reason" binding:"required,max=255"`
	Description string  `json:"description"`
}

type UpdateClaimRequest struct {
	Status      *string `json:"status" binding:"omitempty,oneof=RECEIVED UNDER_ANALYSIS ACCEPTED REFUSED"`
	Description *string `json:"description"`
}

func (s *SupportService) ListIncidents(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Incident, int64, error) {
	return s.supportRepo.ListIncidents(ctx, page, pageSize, filters)
}

func (s *SupportService) GetIncident(ctx context.Context, id string) (*entity.Incident, error) {
	return s.supportRepo.FindIncidentByID(ctx, id)
}

func (s *SupportService) CreateIncident(ctx context.Context, reporterID string, req *CreateIncidentRequest) (*entity.Incident, error) {
	occurred, err := time.Parse(time.RFC3339, req.DateOccurred)
	if err != nil {
		return nil, &ValidationError{Field: "date_occurred", Message: "expected RFC 3339 timestamp"}
	}

	if _, err := s.shipmentRepo.FindByID(ctx, req.ShipmentID); err != nil {
		return nil, fmt.Errorf("shipment %s: %w", req.ShipmentID, err)
	}

	incident := &entity.Incident{
		ID:           uuid.New().String()[:32],
		ShipmentID:   req.ShipmentID,
		IncidentType: req.IncidentType,
		Description:  req.Description,
		Status:       entity.IncidentStatusOpen,
		DateOccurred: occurred,
		Location:     req.Location,
		ReportedByID: reporterID,
	}
	if err := s.supportRepo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	return incident, nil
}

func (s *SupportService) UpdateIncident(ctx context.Context, id string, req *UpdateIncidentRequest) (*entity.Incident, error) {
	incident, err := s.supportRepo.FindIncidentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		incident.Status = *req.Status
	}
	if req.Description != nil {
		incident.Description = *req.Description
	}
	if req.Location != nil {
		incident.Location = *req.Location
	}
	if err := s.supportRepo.UpdateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}
	return incident, nil
}

// AttachPhoto stores the uploaded evidence photo and records its object path.
func (s *SupportService) AttachPhoto(ctx context.Context, incidentID string, reader io.Reader, size int64, contentType string) (*entity.Incident, error) {
	incident, err := s.supportRepo.FindIncidentByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if s.minioClient == nil {
		return nil, fmt.Errorf("object storage not configured")
	}

	objectName := fmt.Sprintf("incident_photos/%s/%s", incidentID, uuid.New().String())
	_, err = s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	incident.PhotoPath = objectName
	if err := s.supportRepo.UpdateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}
	return incident, nil
}

// GetPhoto streams the stored photo back to the caller.
func (s *SupportService) GetPhoto(ctx context.Context, incidentID string) (io.ReadCloser, error) {
	incident, err := s.supportRepo.FindIncidentByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if incident.PhotoPath == "" {
		return nil, repository.ErrNotFound
	}
	if s.minioClient == nil {
		return nil, fmt.Errorf("object storage not configured")
	}

	object, err := s.minioClient.GetObject(ctx, s.bucketName, incident.PhotoPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}
	return object, nil
}

func (s *SupportService) ListClaims(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Claim, int64, error) {
	return s.supportRepo.ListClaims(ctx, page, pageSize, filters)
}

func (s *SupportService) GetClaim(ctx context.Context, id string) (*entity.Claim, error) {
	return s.supportRepo.FindClaimByID(ctx, id)
}

func (s *SupportService) CreateClaim(ctx context.Context, req *CreateClaimRequest) (*entity.Claim, error) {
	if req.IncidentID != nil {
		if _, err := s.supportRepo.FindIncidentByID(ctx, *req.IncidentID); err != nil {
			return nil, fmt.Errorf("incident %s: %w", *req.IncidentID, err)
		}
	}

	claim := &entity.Claim{
		ID:          uuid.New().String()[:32],
		ClientID:    req.ClientID,
		IncidentID:  req.IncidentID,
		Reason:      req.Reason,
		Description: req.Description,
		Status:      entity.ClaimStatusReceived,
	}
	if err := s.supportRepo.CreateClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}
	return claim, nil
}

func (s *SupportService) UpdateClaim(ctx context.Context, id string, req *UpdateClaimRequest) (*entity.Claim, error) {
	claim, err := s.supportRepo.FindClaimByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		claim.Status = *req.Status
	}
	if req.Description != nil {
		claim.Description = *req.Description
	}
	if err := s.supportRepo.UpdateClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	return claim, nil
}
