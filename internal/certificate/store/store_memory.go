package store

import (
	"context"
	"sync"

	"certmint/internal/certificate"
	"certmint/pkg/platform/sentinel"
)

// MemoryStore is the append-only test double.
type MemoryStore struct {
	mu    sync.RWMutex
	certs map[string]certificate.Certificate
}

func NewMemory() *MemoryStore {
	return &MemoryStore{certs: make(map[string]certificate.Certificate)}
}

func (s *MemoryStore) Save(_ context.Context, cert certificate.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.certs[cert.CertificateID]; exists {
		return sentinel.ErrDuplicate
	}
	s.certs[cert.CertificateID] = cert
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, ok := s.certs[id]
	if !ok {
		return certificate.Certificate{}, sentinel.ErrNotFound
	}
	return cert, nil
}

func (s *MemoryStore) List(_ context.Context) ([]certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certs := make([]certificate.Certificate, 0, len(s.certs))
	for _, cert := range s.certs {
		certs = append(certs, cert)
	}
	return certs, nil
}
