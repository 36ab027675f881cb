package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Keys carry a file extension, so instead of nesting one directory per
// rune we shard by the first two characters of the random prefix.
func (ls *LocalStorage) getPathFromKey(key string) string {
	if len(key) < 2 {
		return filepath.Join(ls.basePath, key)
	}
	return filepath.Join(ls.basePath, key[:2], key)
}

// Save writes the payload under key and returns the number of bytes
// persisted. The returned count is authoritative for the storage
// ledger.
func (ls *LocalStorage) Save(key string, data io.Reader) (int64, error) {
	filePath := ls.getPathFromKey(key)

	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return 0, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	written, err := io.Copy(file, data)
	if err != nil {
		os.Remove(filePath)
		return 0, err
	}

	return written, nil
}

func (ls *LocalStorage) Get(key string) (io.ReadCloser, error) {
	filePath := ls.getPathFromKey(key)

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("payload %s not found: %w", key, err)
		}
		return nil, err
	}

	return file, nil
}

func (ls *LocalStorage) Delete(key string) error {
	filePath := ls.getPathFromKey(key)

	err := os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}
