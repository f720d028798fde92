package cli

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/paperindex/internal/config"
	"github.com/hyperjump/paperindex/internal/embedding"
	"github.com/hyperjump/paperindex/internal/keyword"
	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/internal/persist"
	"github.com/hyperjump/paperindex/internal/semindex"
	"github.com/hyperjump/paperindex/internal/server"
	"github.com/hyperjump/paperindex/internal/vector"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.VectorPath = filepath.Join(dir, "paper_index.bin")
	cfg.Storage.MetadataPath = filepath.Join(dir, "paper_metadata.json")

	catalog, err := keyword.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog.Close() })
	layer := persist.NewLayer(cfg.Storage.VectorPath, cfg.Storage.MetadataPath,
		func() (vector.Index, error) { return vector.NewMemoryIndex(32) })
	ix, err := semindex.Open(embedding.NewHashingEmbedder(32), layer,
		semindex.WithAddHook(func(p models.Paper) { _ = catalog.Add(p) }))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ix.Close() })

	srv := httptest.NewServer(server.NewServer(ix, catalog, layer, cfg, nil).Router())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClient_RoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	inputs := []models.PaperInput{
		{ID: "p1", Summary: "Statins lower cardiovascular risk", Title: "Statins", Year: "2021"},
		{ID: "p2", Summary: "Insulin dosing in type 2 diabetes"},
		{ID: "p3", Summary: "Cardiovascular outcomes of statins in diabetes"},
	}
	for _, in := range inputs {
		res, err := c.AddPaper(ctx, in)
		if err != nil {
			t.Fatalf("AddPaper(%s): %v", in.ID, err)
		}
		if res.Duplicate || res.Paper.ID != in.ID {
			t.Errorf("AddPaper(%s) = %+v", in.ID, res)
		}
	}

	dup, err := c.AddPaper(ctx, models.PaperInput{ID: "p1", Summary: "changed"})
	if err != nil {
		t.Fatal(err)
	}
	if !dup.Duplicate || dup.Paper.Summary != inputs[0].Summary {
		t.Errorf("duplicate add = %+v", dup)
	}

	resp, err := c.Search(ctx, "Statins lower cardiovascular risk", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != "p1" {
		t.Errorf("search results = %+v", resp.Results)
	}

	sim, err := c.Similar(ctx, "p1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if sim.Total != 2 {
		t.Errorf("similar total = %d, want 2", sim.Total)
	}
	for _, r := range sim.Results {
		if r.ID == "p1" {
			t.Error("similar results include the seed paper")
		}
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Papers != 3 || status.Vectors != 3 || !status.Consistent {
		t.Errorf("status = %+v", status)
	}
}

func TestClient_Errors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	if _, err := c.Similar(ctx, "missing", 0); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Similar(missing) err = %v, want 404", err)
	}
	if _, err := c.Search(ctx, "   ", 0); err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("Search(blank) err = %v, want 400", err)
	}
	if _, err := c.AddPaper(ctx, models.PaperInput{ID: "", Summary: "x"}); err == nil {
		t.Error("AddPaper with empty id should fail")
	}
}
