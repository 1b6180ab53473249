package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.txt")
	if err := os.WriteFile(path, []byte("crust"), 0o644); err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}

	if got := string(LoadFixture(t, path)); got != "crust" {
		t.Errorf("expected %q, got %q", "crust", got)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	path := WriteConfigFile(t, "pie.json", `{"name":"Apple Pie","price":12.95}`)

	var pie struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	LoadFixtureJSON(t, path, &pie)

	if pie.Name != "Apple Pie" {
		t.Errorf("expected name Apple Pie, got %q", pie.Name)
	}
	if pie.Price != 12.95 {
		t.Errorf("expected price 12.95, got %v", pie.Price)
	}
}

func TestWriteConfigFile(t *testing.T) {
	path := WriteConfigFile(t, "config.yaml", "server:\n  addr: :9090\n")

	if filepath.Base(path) != "config.yaml" {
		t.Errorf("unexpected file name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back config: %v", err)
	}
	if string(data) != "server:\n  addr: :9090\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFixturePath(t *testing.T) {
	if got, want := FixturePath("pies.json"), filepath.Join("testdata", "pies.json"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	var n int
	if err := db.QueryRow("SELECT 1").Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1, got %d", n)
	}
}
