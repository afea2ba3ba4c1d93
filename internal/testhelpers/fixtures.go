package testhelpers

import (
	"os"
	"path/filepath"
)

// LoadFixture reads a file from internal/testhelpers/fixtures relative to a
// package directory one level below internal/ or internal/pkg/.
func LoadFixture(name string) ([]byte, error) {
	for _, dir := range []string{
		filepath.Join("..", "testhelpers", "fixtures"),
		filepath.Join("..", "..", "testhelpers", "fixtures"),
	} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return b, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, os.ErrNotExist
}
