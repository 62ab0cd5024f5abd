package memstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/aody34/Darusalaampharmcy/internal/model"
)

// snapshot is the on-disk form of the store. Sales are stored oldest first.
type snapshot struct {
	Items []model.Item       `json:"items"`
	Sales []model.SaleRecord `json:"sales"`
}

// load reads the snapshot file into memory. A missing file is a fresh
// store, not an error. Must run before the loop starts.
func (s *Store) load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	for i := range snap.Items {
		item := snap.Items[i]
		s.items[item.ID] = &item
	}
	s.sales = snap.Sales
	for i, rec := range s.sales {
		if rec.IdempotencyKey != nil {
			s.keys[*rec.IdempotencyKey] = i
		}
	}
	return nil
}

// persist writes the current state to a temp file and renames it over the
// snapshot, so the file on disk is always a complete, consistent state.
// Called from the loop after each mutation; the caller rolls the mutation
// back when this fails.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })

	data, err := json.MarshalIndent(snapshot{Items: items, Sales: s.sales}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
