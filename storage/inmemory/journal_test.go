package inmemory

import (
	"testing"

	"github.com/gaugeflow/passthrough/storage"
	"github.com/gaugeflow/passthrough/storage/journaltest"
)

func TestJournal(t *testing.T) {
	journaltest.Run(t, func(t *testing.T, f func(storage.Journal)) {
		f(NewJournal())
	})
}
