package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dogscan-go/service/config"
)

func TestLocal_StoreFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	t.Setenv("DOGSCAN_UPLOADS_FOLDER", dir)

	cfgSvc, err := config.NewFile("")
	require.NoError(t, err)
	svc := NewLocal(cfgSvc)

	first, err := svc.StoreFile("Dog.JPG", []byte("jpeg bytes"))
	require.NoError(t, err)
	second, err := svc.StoreFile("dog.jpg", []byte("other bytes"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, dir, filepath.Dir(first))
	assert.Equal(t, ".jpg", filepath.Ext(first))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	noExt, err := svc.StoreFile("upload", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, ".img", filepath.Ext(noExt))
}

func TestFake_StoreFile(t *testing.T) {
	svc := NewFake()

	_, err := svc.StoreFile("a.png", []byte{1})
	require.NoError(t, err)
	_, err = svc.StoreFile("a.png", []byte{2})
	require.NoError(t, err)

	assert.Equal(t, 2, Files(svc))
}
