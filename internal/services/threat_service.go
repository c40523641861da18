package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"threatcat/internal/models"
	"threatcat/internal/store"
)

var ErrCatalogDisabled = errors.New("threat catalog is disabled")

// ThreatSource yields full threat records for ingest.
type ThreatSource interface {
	Threats(ctx context.Context) ([]*models.Threat, error)
	String() string
}

// ThreatService loads the labeled dataset into the database and serves
// it back for browsing.
type ThreatService struct {
	threats store.ThreatStore // nil disables the catalog
}

func NewThreatService(threats store.ThreatStore) *ThreatService {
	return &ThreatService{threats: threats}
}

// Ingest reads src and stores its rows, replacing existing rows when
// replace is set. It returns the number of rows stored.
func (s *ThreatService) Ingest(ctx context.Context, src ThreatSource, replace bool) (int, error) {
	if s.threats == nil {
		return 0, ErrCatalogDisabled
	}
	threats, err := src.Threats(ctx)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", src, err)
	}
	if err := s.threats.InsertThreats(ctx, threats, replace); err != nil {
		return 0, err
	}
	log.Infof("Ingested %d threats from %s", len(threats), src)
	return len(threats), nil
}

func (s *ThreatService) List(ctx context.Context, f store.ThreatFilter) ([]*models.Threat, int, error) {
	if s.threats == nil {
		return nil, 0, ErrCatalogDisabled
	}
	return s.threats.ListThreats(ctx, f)
}

func (s *ThreatService) Get(ctx context.Context, id int64) (*models.Threat, error) {
	if s.threats == nil {
		return nil, ErrCatalogDisabled
	}
	return s.threats.GetThreat(ctx, id)
}

func (s *ThreatService) Stats(ctx context.Context) (*models.ThreatStats, error) {
	if s.threats == nil {
		return nil, ErrCatalogDisabled
	}
	return s.threats.ThreatStats(ctx)
}
