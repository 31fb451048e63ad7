package storage

type IService interface {
	// StoreFile persists data under a unique name derived from name's
	// extension and returns where it was stored.
	StoreFile(name string, data []byte) (string, error)
}
