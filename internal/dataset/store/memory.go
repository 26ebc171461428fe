package store

import (
	"context"
	"sync"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgerror"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*datasetRecord
	analyses map[string]string // analysis id -> dataset id
}

type datasetRecord struct {
	mu       sync.RWMutex
	dataset  entity.Dataset
	analyses []entity.Analysis
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		datasets: make(map[string]*datasetRecord),
		analyses: make(map[string]string),
	}
}

func (s *InMemoryStore) CreateDataset(ctx context.Context, ds entity.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[ds.ID]; exists {
		return pkgerror.NewBusiness("dataset already exists", pkgerror.CodeConflict)
	}

	s.datasets[ds.ID] = &datasetRecord{dataset: ds}

	return nil
}

func (s *InMemoryStore) GetDataset(ctx context.Context, id string) (entity.Dataset, error) {
	rec, err := s.get(id)
	if err != nil {
		return entity.Dataset{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return rec.dataset, nil
}

func (s *InMemoryStore) CreateAnalysis(ctx context.Context, a entity.Analysis) error {
	rec, err := s.get(a.DatasetID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.analyses[a.ID]; exists {
		s.mu.Unlock()
		return pkgerror.NewBusiness("analysis already exists", pkgerror.CodeConflict)
	}
	s.analyses[a.ID] = a.DatasetID
	s.mu.Unlock()

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.analyses = append(rec.analyses, a)

	return nil
}

func (s *InMemoryStore) UpdateAnalysis(ctx context.Context, id string, fn func(a *entity.Analysis)) error {
	s.mu.RLock()
	datasetID, ok := s.analyses[id]
	s.mu.RUnlock()
	if !ok {
		return pkgerror.ErrNotFound
	}

	rec, err := s.get(datasetID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	for i := range rec.analyses {
		if rec.analyses[i].ID == id {
			fn(&rec.analyses[i])
			return nil
		}
	}

	return pkgerror.ErrNotFound
}

func (s *InMemoryStore) ListAnalyses(ctx context.Context, datasetID string) ([]entity.Analysis, error) {
	rec, err := s.get(datasetID)
	if err != nil {
		return nil, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	items := make([]entity.Analysis, len(rec.analyses))
	copy(items, rec.analyses)

	return items, nil
}

func (s *InMemoryStore) get(id string) (*datasetRecord, error) {
	s.mu.RLock()
	rec, ok := s.datasets[id]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return rec, nil
}
