package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dogscan-go/service/config"
)

type localService struct {
	CfgSvc config.IService
}

func NewLocal(cfgsvc config.IService) IService {
	return &localService{
		CfgSvc: cfgsvc,
	}
}

func (svc *localService) StoreFile(name string, data []byte) (string, error) {
	folder := svc.CfgSvc.GetUploadsFolder()
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", xerrors.Errorf("failed to create uploads folder: %w", err)
	}

	path := filepath.Join(folder, uuid.NewString()+extension(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", xerrors.Errorf("failed to store %s: %w", name, err)
	}

	return path, nil
}

func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ".img"
	}
	return ext
}
