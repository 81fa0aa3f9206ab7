package memory

import (
	"testing"

	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/mohitkumar/resolveflow/persistence/storetest"
)

func TestMemoryStorage(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Storage {
		return NewStorage()
	})
}
