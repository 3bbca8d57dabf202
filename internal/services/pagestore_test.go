package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finchat-backend/internal/models"
)

func TestPageStore_SaveAndLoad(t *testing.T) {
	store, err := NewPageStore(t.TempDir())
	assert.NoError(t, err)

	saved := []PageRecord{
		{Number: 1, Text: "first page", Embedding: []float32{0.1, 0.2}},
		{Number: 2, Text: "second page", Embedding: []float32{0.3, 0.4}},
	}
	assert.NoError(t, store.Save("report.pdf", saved))

	loaded, err := store.Load("report.pdf")
	assert.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestPageStore_SaveReplaces(t *testing.T) {
	store, err := NewPageStore(t.TempDir())
	assert.NoError(t, err)

	assert.NoError(t, store.Save("report.pdf", []PageRecord{{Number: 1, Text: "old"}}))
	assert.NoError(t, store.Save("report.pdf", []PageRecord{{Number: 1, Text: "new"}}))

	loaded, err := store.Load("report.pdf")
	assert.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, "new", loaded[0].Text)
}

func TestPageStore_LoadMissing(t *testing.T) {
	store, err := NewPageStore(t.TempDir())
	assert.NoError(t, err)

	_, err = store.Load("never-ingested.pdf")

	assert.Error(t, err)
	assert.Equal(t, models.KindInput, models.KindOf(err))
}
