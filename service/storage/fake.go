package storage

import (
	"fmt"
	"sync"
)

type memoryService struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewFake keeps stored files in memory. Files reports what was stored.
func NewFake() IService {
	return &memoryService{
		files: map[string][]byte{},
	}
}

func (svc *memoryService) StoreFile(name string, data []byte) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	path := fmt.Sprintf("memory://%d/%s", len(svc.files), name)
	svc.files[path] = append([]byte(nil), data...)
	return path, nil
}

// Files returns the number of files a fake storage holds, or -1 for other
// implementations.
func Files(svc IService) int {
	m, ok := svc.(*memoryService)
	if !ok {
		return -1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}
