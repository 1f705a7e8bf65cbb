package folder

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(filepath.Join(t.TempDir(), "projects"), log.New(io.Discard, "", 0))
	m.Now = func() time.Time { return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) }
	return m
}

func TestName(t *testing.T) {
	tests := []struct {
		index int
		title string
		want  string
	}{
		{0, "Buy milk (2024-01-01)", "项目1_Buy milk (2024-01-01)"},
		{2, `a/b:c*d?"e"<f>|g`, "项目3_a_b_c_d__e__f__g"},
		{4, "   ", "项目5_任务5"},
		{0, "Milk; eggs (2024-01-01)", "项目1_Milk_ eggs (2024-01-01)"},
		{0, "", "项目1_任务1"},
		{1, strings.Repeat("长", 80), "项目2_" + strings.Repeat("长", 50)},
	}
	for _, tt := range tests {
		if got := Name(tt.index, tt.title); got != tt.want {
			t.Errorf("Name(%d, %q) = %q, want %q", tt.index, tt.title, got, tt.want)
		}
	}
}

func TestCreateLayout(t *testing.T) {
	m := newTestManager(t)

	path, err := m.Create(0, "Buy milk (2024-01-01)")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Base(path) != "项目1_Buy milk (2024-01-01)" {
		t.Errorf("unexpected folder name %q", filepath.Base(path))
	}
	for _, sub := range Subdirs {
		entries, err := os.ReadDir(filepath.Join(path, sub))
		if err != nil {
			t.Fatalf("missing subdir %s: %v", sub, err)
		}
		if len(entries) != 0 {
			t.Errorf("subdir %s not empty", sub)
		}
	}

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo failed: %v", err)
	}
	if info.Title != "Buy milk (2024-01-01)" || info.Index != 0 || info.Created != "2024-01-01 09:30:00" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestCreateIsUniqueForSameTitle(t *testing.T) {
	m := newTestManager(t)

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		path, err := m.Create(0, "same")
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		if seen[path] {
			t.Fatalf("Create returned duplicate path %s", path)
		}
		seen[path] = true
	}

	for _, name := range []string{"项目1_same", "项目1_same_1", "项目1_same_2", "项目1_same_3"} {
		if !seen[filepath.Join(m.Root, name)] {
			t.Errorf("expected folder %s", name)
		}
	}
}

func TestCreateFailsSoftlyWithoutRoot(t *testing.T) {
	m := NewManager("", log.New(io.Discard, "", 0))
	path, err := m.Create(0, "x")
	if err == nil || path != "" {
		t.Fatalf("expected failure, got %q, %v", path, err)
	}
}

func TestCreateFailsWhenRootIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "root")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(file, log.New(io.Discard, "", 0))
	if path, err := m.Create(0, "x"); err == nil {
		t.Fatalf("expected failure, got %q", path)
	}
}

func TestDelete(t *testing.T) {
	m := newTestManager(t)
	path, err := m.Create(0, "doomed")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "images", "a.png"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := m.Delete(path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if IsDir(path) {
		t.Error("folder still exists")
	}
	// Second delete is a no-op
	if err := m.Delete(path); err != nil {
		t.Errorf("repeat Delete failed: %v", err)
	}
}

func TestDeleteRefusesOutsideRoot(t *testing.T) {
	m := newTestManager(t)
	outside := t.TempDir()
	if err := m.Delete(outside); err == nil {
		t.Fatal("expected refusal")
	}
	if !IsDir(outside) {
		t.Error("outside directory was removed")
	}
}

func TestDeleteFolderFromEarlierRoot(t *testing.T) {
	old := newTestManager(t)
	path, err := old.Create(0, "moved root")
	if err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t)
	if err := m.Delete(path); err != nil {
		t.Fatalf("Delete of a project folder under an earlier root failed: %v", err)
	}
	if IsDir(path) {
		t.Error("folder still exists")
	}
}

func TestEnsure(t *testing.T) {
	m := newTestManager(t)
	path, created, err := m.Ensure("", 1, "lazy")
	if err != nil || !created {
		t.Fatalf("Ensure on empty path: %q %v %v", path, created, err)
	}
	again, created, err := m.Ensure(path, 1, "lazy")
	if err != nil || created || again != path {
		t.Fatalf("Ensure on existing path: %q %v %v", again, created, err)
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		folder, target string
		want           bool
	}{
		{"/p/a", "/p/a/images/x.png", true},
		{"/p/a", "/p/a", false},
		{"/p/a", "/p/ab/x.png", false},
		{"/p/a", "/p/x.png", false},
		{"", "/p/x.png", false},
	}
	for _, tt := range tests {
		if got := Contains(tt.folder, tt.target); got != tt.want {
			t.Errorf("Contains(%q, %q) = %v, want %v", tt.folder, tt.target, got, tt.want)
		}
	}
}
