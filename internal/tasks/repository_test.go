package tasks

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dori/dossier/internal/folder"
	"github.com/dori/dossier/internal/intake"
	"github.com/dori/dossier/internal/model"
	"github.com/dori/dossier/internal/store"
	"github.com/dori/dossier/internal/visibility"
)

type fixture struct {
	repo    *Repository
	backend store.Backend
	vis     *visibility.Store
	root    string
	ext     string // directory for "external" source files
}

func newFixture(t *testing.T, backend store.Backend) *fixture {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	base := t.TempDir()
	root := filepath.Join(base, "projects")
	ext := filepath.Join(base, "outside")
	if err := os.MkdirAll(ext, 0755); err != nil {
		t.Fatal(err)
	}

	folders := folder.NewManager(root, quiet)
	vis := visibility.New(visibility.NewMemory(), quiet)
	repo := New(backend, folders, intake.New(quiet), vis, quiet)
	repo.Now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	if err := repo.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return &fixture{repo: repo, backend: backend, vis: vis, root: root, ext: ext}
}

func (f *fixture) source(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.ext, name)
	if err := os.WriteFile(path, []byte(name), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAddAttachDeleteScenario(t *testing.T) {
	recordPath := filepath.Join(t.TempDir(), "todo_data_ui.txt")
	f := newFixture(t, store.NewFile(recordPath))

	task, err := f.repo.Add("  Buy milk ")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if task.Title != "Buy milk (2024-01-01)" {
		t.Errorf("Title = %q", task.Title)
	}
	wantFolder := filepath.Join(f.root, "项目1_Buy milk (2024-01-01)")
	if task.ProjectFolder != wantFolder {
		t.Fatalf("ProjectFolder = %q, want %q", task.ProjectFolder, wantFolder)
	}
	for _, sub := range folder.Subdirs {
		if !folder.IsDir(filepath.Join(wantFolder, sub)) {
			t.Errorf("missing subdir %s", sub)
		}
	}
	data, _ := os.ReadFile(recordPath)
	if want := "Buy milk (2024-01-01)|False|||||" + wantFolder + "\n"; string(data) != want {
		t.Errorf("record file = %q, want %q", data, want)
	}

	img := f.source(t, "receipt.png")
	results, err := f.repo.Attach(0, model.SectionImages, []string{img})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	copied := filepath.Join(wantFolder, "images", "receipt.png")
	if results[0].Path != copied || results[0].Err != nil {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	got, _ := f.repo.Get(0)
	if !reflect.DeepEqual(got.Images, []string{copied}) {
		t.Errorf("Images = %v", got.Images)
	}

	del, err := f.repo.Delete(0)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !del.FolderRemoved || folder.IsDir(wantFolder) {
		t.Error("project folder was not removed")
	}
	data, _ = os.ReadFile(recordPath)
	if len(data) != 0 {
		t.Errorf("record file not empty: %q", data)
	}
}

func TestAddRejectsBadTitles(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	for _, title := range []string{"", "   ", "a|b", "two\nlines"} {
		if _, err := f.repo.Add(title); err == nil {
			t.Errorf("Add(%q) should fail", title)
		}
	}
	if f.repo.Len() != 0 {
		t.Errorf("rejected adds left %d tasks", f.repo.Len())
	}
	if _, err := f.repo.Add(" "); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestAddKeepsTaskWhenFolderFails(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	blocker := filepath.Join(t.TempDir(), "file-not-dir")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	backend := store.NewMemory()
	repo := New(backend, folder.NewManager(blocker, quiet), intake.New(quiet), nil, quiet)

	task, err := repo.Add("orphan")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if task.HasFolder() {
		t.Errorf("unexpected folder %q", task.ProjectFolder)
	}
	saved, _ := backend.Load()
	if len(saved) != 1 {
		t.Errorf("task not persisted")
	}
}

func TestSameTitleGetsDistinctFolders(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	a, _ := f.repo.Add("dup")
	b, _ := f.repo.Add("dup")
	if a.ProjectFolder == b.ProjectFolder {
		t.Fatalf("duplicate folder %s", a.ProjectFolder)
	}
}

func TestInvalidIndex(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	f.repo.Add("only")

	if _, err := f.repo.Get(1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Get(1) err = %v", err)
	}
	if _, err := f.repo.Delete(-1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Delete(-1) err = %v", err)
	}
	if _, err := f.repo.ToggleCompleted(5); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("ToggleCompleted(5) err = %v", err)
	}
}

func TestDeleteShiftsIndexesAndFlags(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	for _, title := range []string{"zero", "one", "two", "three"} {
		if _, err := f.repo.Add(title); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.repo.SetHidden(2, model.SectionVideos, true); err != nil {
		t.Fatal(err)
	}
	if _, err := f.repo.SetHidden(1, model.SectionNote, true); err != nil {
		t.Fatal(err)
	}

	if _, err := f.repo.Delete(1); err != nil {
		t.Fatal(err)
	}

	titles := []string{}
	for _, task := range f.repo.Tasks() {
		titles = append(titles, task.BaseTitle())
	}
	if !reflect.DeepEqual(titles, []string{"zero", "two", "three"}) {
		t.Errorf("titles after delete = %v", titles)
	}
	// "two" moved from 2 to 1 and its flags moved with it
	if got := f.repo.Flags(1); got != (model.Flags{VideosHidden: true}) {
		t.Errorf("Flags(1) = %+v", got)
	}
	if got := f.repo.Flags(2); got.Any() {
		t.Errorf("Flags(2) = %+v", got)
	}
}

func TestToggleRenameAndNote(t *testing.T) {
	backend := store.NewMemory()
	f := newFixture(t, backend)
	task, _ := f.repo.Add("draft")

	done, err := f.repo.ToggleCompleted(0)
	if err != nil || !done {
		t.Fatalf("ToggleCompleted = %v, %v", done, err)
	}

	f.repo.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	if err := f.repo.Rename(0, "final"); err != nil {
		t.Fatal(err)
	}
	if err := f.repo.SetNote(0, "step 1\nstep 2"); err != nil {
		t.Fatal(err)
	}
	if err := f.repo.SetNote(0, "bad | note"); !errors.Is(err, ErrDelimiter) {
		t.Errorf("SetNote with delimiter err = %v", err)
	}

	saved, _ := backend.Load()
	got := saved[0]
	if got.Title != "final (2024-01-01)" {
		t.Errorf("Title = %q, date stamp should be kept", got.Title)
	}
	if got.Note != "step 1\nstep 2" || !got.Completed {
		t.Errorf("unexpected saved task: %+v", got)
	}
	if got.ProjectFolder != task.ProjectFolder {
		t.Error("rename must not move the project folder")
	}
}

func TestRenameStampsUndatedTitle(t *testing.T) {
	f := newFixture(t, store.NewMemory(model.Task{Title: "legacy"}))
	if err := f.repo.Rename(0, "modern"); err != nil {
		t.Fatal(err)
	}
	got, _ := f.repo.Get(0)
	if got.Title != "modern (2024-01-01)" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestDetailCreatesFolderLazilyAndReconciles(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	kept := f.source(t, "kept.pdf")
	gone := filepath.Join(f.ext, "gone.pdf")

	backend := store.NewMemory(model.Task{Title: "old", Files: []string{kept, gone}})
	f.repo = New(backend, f.repo.folders, f.repo.intake, f.vis, f.repo.logger)
	if err := f.repo.Load(); err != nil {
		t.Fatal(err)
	}

	d, err := f.repo.Detail(0)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if d.FolderErr != nil || !folder.IsDir(d.Task.ProjectFolder) {
		t.Fatalf("folder not created: %+v", d)
	}
	if !reflect.DeepEqual(d.Task.Files, []string{kept}) {
		t.Errorf("Files = %v", d.Task.Files)
	}
	if !reflect.DeepEqual(d.Dropped, []string{gone}) {
		t.Errorf("Dropped = %v", d.Dropped)
	}

	saved, _ := backend.Load()
	if saved[0].ProjectFolder != d.Task.ProjectFolder || len(saved[0].Files) != 1 {
		t.Errorf("detail changes not persisted: %+v", saved[0])
	}

	// A folder deleted behind our back is recreated on the next view
	if err := os.RemoveAll(d.Task.ProjectFolder); err != nil {
		t.Fatal(err)
	}
	d2, err := f.repo.Detail(0)
	if err != nil || !folder.IsDir(d2.Task.ProjectFolder) {
		t.Errorf("folder not recreated: %+v, %v", d2, err)
	}
}

func TestAttachFilesClassifies(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	task, _ := f.repo.Add("mixed")
	doc := f.source(t, "brief.docx")
	pic := f.source(t, "photo.jpg")

	results, err := f.repo.Attach(0, model.SectionFiles, []string{doc, pic})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(task.ProjectFolder, "docs", "brief.docx"),
		filepath.Join(task.ProjectFolder, "images", "photo.jpg"),
	}
	if got := intake.Paths(results); !reflect.DeepEqual(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
	got, _ := f.repo.Get(0)
	if !reflect.DeepEqual(got.Files, want) || len(got.Images) != 0 {
		t.Errorf("lists = files %v images %v", got.Files, got.Images)
	}
}

func TestAttachTwiceNeverOverwrites(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	f.repo.Add("clips")
	vid := f.source(t, "clip.mp4")

	f.repo.Attach(0, model.SectionVideos, []string{vid})
	f.repo.Attach(0, model.SectionVideos, []string{vid})

	got, _ := f.repo.Get(0)
	if len(got.Videos) != 2 || got.Videos[0] == got.Videos[1] {
		t.Fatalf("Videos = %v", got.Videos)
	}
	if filepath.Base(got.Videos[1]) != "clip_1.mp4" {
		t.Errorf("second copy = %s", got.Videos[1])
	}
}

func TestAttachRejectsNote(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	f.repo.Add("x")
	if _, err := f.repo.Attach(0, model.SectionNote, []string{"/a"}); !errors.Is(err, ErrNotAttachment) {
		t.Errorf("err = %v", err)
	}
}

func TestDetach(t *testing.T) {
	f := newFixture(t, store.NewMemory(model.Task{Title: "t", Images: []string{"/a", "/b", "/c"}}))

	if _, err := f.repo.Detach(0, model.SectionImages, []int{3}); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
	removed, err := f.repo.Detach(0, model.SectionImages, []int{2, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(removed, []string{"/a", "/c"}) {
		t.Errorf("removed = %v", removed)
	}
	got, _ := f.repo.Get(0)
	if !reflect.DeepEqual(got.Images, []string{"/b"}) {
		t.Errorf("Images = %v", got.Images)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	img := f.source(t, "old.png")
	doc := f.source(t, "old.txt")
	missing := filepath.Join(f.ext, "missing.mov")

	backend := store.NewMemory(model.Task{
		Title:  "legacy (2023-05-05)",
		Images: []string{img},
		Videos: []string{missing},
		Files:  []string{doc},
	})
	f.repo = New(backend, f.repo.folders, f.repo.intake, f.vis, f.repo.logger)
	if err := f.repo.Load(); err != nil {
		t.Fatal(err)
	}

	if _, err := f.repo.Migrate(0); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	first, _ := f.repo.Get(0)
	dir := first.ProjectFolder
	if !reflect.DeepEqual(first.Images, []string{filepath.Join(dir, "images", "old.png")}) {
		t.Errorf("Images = %v", first.Images)
	}
	if !reflect.DeepEqual(first.Videos, []string{missing}) {
		t.Errorf("Videos = %v", first.Videos)
	}
	if !reflect.DeepEqual(first.Files, []string{filepath.Join(dir, "docs", "old.txt")}) {
		t.Errorf("Files = %v", first.Files)
	}

	if _, err := f.repo.Migrate(0); err != nil {
		t.Fatal(err)
	}
	second, _ := f.repo.Get(0)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second migration changed the task:\n%+v\n%+v", first, second)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "images"))
	if len(entries) != 1 {
		t.Errorf("expected 1 image copy, found %d", len(entries))
	}
}

func TestRestoreAll(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	f.repo.Add("x")
	f.repo.SetHidden(0, model.SectionImages, true)
	f.repo.SetHidden(0, model.SectionFiles, true)
	if err := f.repo.RestoreAll(0); err != nil {
		t.Fatal(err)
	}
	if f.repo.Flags(0).Any() {
		t.Error("flags not restored")
	}
}

func TestLoadAssignsIDs(t *testing.T) {
	f := newFixture(t, store.NewMemory(model.Task{Title: "a"}, model.Task{Title: "b"}))
	tasks := f.repo.Tasks()
	if tasks[0].ID == "" || tasks[0].ID == tasks[1].ID {
		t.Fatalf("IDs not assigned: %+v", tasks)
	}
	idx, err := f.repo.IndexOf(tasks[1].ID)
	if err != nil || idx != 1 {
		t.Errorf("IndexOf = %d, %v", idx, err)
	}
	if _, err := f.repo.IndexOf("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("IndexOf(nope) err = %v", err)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t, store.NewMemory(
		model.Task{Title: "Buy milk (2024-01-01)"},
		model.Task{Title: "Write report (2024-01-02)"},
		model.Task{Title: "buy MILK and eggs (2024-01-03)"},
	))

	matches := f.repo.Search("milk")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %+v", matches)
	}
	if matches[0].Index != 0 || matches[1].Index != 2 {
		t.Errorf("unexpected order: %d, %d", matches[0].Index, matches[1].Index)
	}
	if got := f.repo.Search("  "); got != nil {
		t.Errorf("blank query matched %v", got)
	}
}

func TestSeparatorInTitleKeepsAttachmentsAcrossReload(t *testing.T) {
	recordPath := filepath.Join(t.TempDir(), "todo_data_ui.txt")
	f := newFixture(t, store.NewFile(recordPath))

	task, err := f.repo.Add("Milk; eggs")
	if err != nil {
		t.Fatal(err)
	}
	img := f.source(t, "a.png")
	if _, err := f.repo.Attach(0, model.SectionImages, []string{img}); err != nil {
		t.Fatal(err)
	}
	before, _ := f.repo.Get(0)

	reloaded := New(store.NewFile(recordPath), f.repo.folders, f.repo.intake, f.vis, f.repo.logger)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	d, err := reloaded.Detail(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Dropped) != 0 {
		t.Errorf("attachments dropped after reload: %v", d.Dropped)
	}
	if !reflect.DeepEqual(d.Task.Images, before.Images) || len(d.Task.Images) != 1 {
		t.Errorf("Images after reload = %v, want %v", d.Task.Images, before.Images)
	}
	if d.Task.ProjectFolder != task.ProjectFolder {
		t.Errorf("folder changed after reload: %q", d.Task.ProjectFolder)
	}
}

func TestDeleteReportsFolderLeftBehind(t *testing.T) {
	outside := t.TempDir()
	f := newFixture(t, store.NewMemory(model.Task{Title: "stray", ProjectFolder: outside}))

	d, err := f.repo.Delete(0)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if d.FolderRemoved || !errors.Is(d.FolderErr, folder.ErrOutsideRoot) {
		t.Errorf("unexpected deletion report: %+v", d)
	}
	if !folder.IsDir(outside) {
		t.Error("unmarked folder outside the root was removed")
	}
	if f.repo.Len() != 0 {
		t.Error("task record should be deleted even when the folder is kept")
	}
}
