package efinance

import (
	"context"

	"efb/internal/models"
)

// Store hands out the current snapshot; *cache.Cache implements it.
type Store interface {
	Get(ctx context.Context, forceRefresh bool) (*models.Snapshot, error)
	Peek() *models.Snapshot
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Snapshot returns the current dataset, refreshing it when asked or stale.
func (s *Service) Snapshot(ctx context.Context, refresh bool) (*models.Snapshot, error) {
	return s.store.Get(ctx, refresh)
}

// Cached returns the held snapshot without touching the portal.
func (s *Service) Cached() *models.Snapshot {
	return s.store.Peek()
}

// Find returns the matching records together with the snapshot they came from.
func (s *Service) Find(ctx context.Context, args SearchArgs) ([]models.CompanyRecord, *models.Snapshot, error) {
	snapshot, err := s.store.Get(ctx, args.Refresh)
	if err != nil {
		return nil, nil, err
	}
	return FilterCompanies(snapshot, args), snapshot, nil
}

// Search is the text form of Find.
func (s *Service) Search(ctx context.Context, args SearchArgs) (string, error) {
	matches, snapshot, err := s.Find(ctx, args)
	if err != nil {
		return "", err
	}
	return FormatSearchResult(matches, snapshot), nil
}

func (s *Service) ComputeStatistics(ctx context.Context, refresh bool) (Statistics, error) {
	snapshot, err := s.store.Get(ctx, refresh)
	if err != nil {
		return Statistics{}, err
	}
	return ComputeStatistics(snapshot), nil
}

func (s *Service) Statistics(ctx context.Context, refresh bool) (string, error) {
	st, err := s.ComputeStatistics(ctx, refresh)
	if err != nil {
		return "", err
	}
	return FormatStatistics(st), nil
}
