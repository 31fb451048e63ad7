package webhook

import (
	"context"
	"sync"
)

type fakeService struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
}

// NewFake records every payload instead of posting it.
func NewFake() IService {
	return &fakeService{}
}

func (svc *fakeService) Post(_ context.Context, payload map[string]interface{}) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.payloads = append(svc.payloads, payload)
	return nil
}

// Payloads returns what a fake webhook has received, or nil for other
// implementations.
func Payloads(svc IService) []map[string]interface{} {
	f, ok := svc.(*fakeService)
	if !ok {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.payloads...)
}
