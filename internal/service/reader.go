package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/id"
	"github.com/circulateapp/circulate-server/internal/store"
	"github.com/circulateapp/circulate-server/internal/validation"
)

// ReaderService orchestrates borrower registration and lookup.
type ReaderService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewReaderService creates a new reader service.
func NewReaderService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *ReaderService {
	return &ReaderService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// ReaderRequest contains the fields for creating or updating a reader.
type ReaderRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Type  string `json:"type" validate:"required,oneof=student faculty staff external"`
}

// CreateReader registers a new borrower.
func (s *ReaderService) CreateReader(ctx context.Context, req ReaderRequest) (*domain.Reader, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	readerID, err := id.Generate(id.PrefixReader)
	if err != nil {
		return nil, fmt.Errorf("generate reader ID: %w", err)
	}

	reader := &domain.Reader{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Type:  domain.ReaderType(req.Type),
	}
	reader.ID = readerID
	reader.InitTimestamps()

	// The email pattern check lives on the domain type, not in struct tags.
	if err := reader.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateReader(ctx, reader); err != nil {
		return nil, err
	}
	return reader, nil
}

// GetReader retrieves a reader with its derived active-loan count.
func (s *ReaderService) GetReader(ctx context.Context, readerID string) (*domain.Reader, error) {
	return s.store.GetReader(ctx, readerID)
}

// ListReaders returns all readers ordered by name.
func (s *ReaderService) ListReaders(ctx context.Context) ([]*domain.Reader, error) {
	return s.store.ListReaders(ctx)
}

// UpdateReader updates a reader's contact fields.
func (s *ReaderService) UpdateReader(ctx context.Context, readerID string, req ReaderRequest) (*domain.Reader, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	reader := &domain.Reader{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Type:  domain.ReaderType(req.Type),
	}
	reader.ID = readerID

	if err := reader.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateReader(ctx, reader); err != nil {
		return nil, err
	}
	return reader, nil
}

// DeleteReader removes a reader and all its loans. Copies held by the
// reader's active loans become available again.
func (s *ReaderService) DeleteReader(ctx context.Context, readerID string) error {
	return s.store.DeleteReader(ctx, readerID)
}
