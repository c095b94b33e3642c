package store

import (
	"sort"

	"reconciler/internal/contact/models"
)

func sortIDs(ids []models.ContactID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
