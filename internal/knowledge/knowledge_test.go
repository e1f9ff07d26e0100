package knowledge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"portfolio-backend/internal/models"
)

type stubSource struct {
	aboutCalls    atomic.Int32
	projectsCalls atomic.Int32
	gate          chan struct{}
	err           error
}

func (s *stubSource) LoadAbout(ctx context.Context) (string, map[string]string, error) {
	s.aboutCalls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return "", nil, s.err
	}
	return "About me.", map[string]string{"github": "https://github.com/k", "linkedin": "https://linkedin.com/in/k"}, nil
}

func (s *stubSource) LoadProjects(ctx context.Context) ([]models.Project, error) {
	s.projectsCalls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []models.Project{{Name: "A", Slug: "a"}, {Name: "B", Slug: "b"}}, nil
}

func TestRepository_ConcurrentColdCallsLoadOnce(t *testing.T) {
	src := &stubSource{gate: make(chan struct{})}
	repo := NewRepository(src, time.Hour, nil)

	var wg sync.WaitGroup
	results := make([]*models.Knowledge, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := repo.GetKnowledge(context.Background())
			if err != nil {
				t.Errorf("GetKnowledge: %v", err)
				return
			}
			results[i] = k
		}(i)
	}

	// let both callers queue on the in-flight load before releasing it
	for src.aboutCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	if got := src.aboutCalls.Load(); got != 1 {
		t.Fatalf("source loaded %d times, want 1", got)
	}
	if results[0] != results[1] {
		t.Fatal("callers received different cache fills")
	}
}

func TestRepository_TTLFromLastSuccessfulFill(t *testing.T) {
	src := &stubSource{}
	repo := NewRepository(src, time.Hour, nil)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	if _, err := repo.GetKnowledge(context.Background()); err != nil {
		t.Fatalf("GetKnowledge: %v", err)
	}

	now = now.Add(30 * time.Minute)
	repo.GetKnowledge(context.Background())
	if got := src.aboutCalls.Load(); got != 1 {
		t.Fatalf("loads within ttl = %d, want 1", got)
	}

	// expire, then fail the refill: the old fill time must not move
	now = now.Add(time.Hour)
	src.err = errors.New("disk gone")
	if _, err := repo.GetKnowledge(context.Background()); err == nil {
		t.Fatal("expected error from failed refill")
	}
	if !repo.knowledgeAt.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("fill time moved on failure: %v", repo.knowledgeAt)
	}

	src.err = nil
	if _, err := repo.GetKnowledge(context.Background()); err != nil {
		t.Fatalf("GetKnowledge after recovery: %v", err)
	}
	if got := src.aboutCalls.Load(); got != 3 {
		t.Fatalf("loads = %d, want 3", got)
	}
}

func TestRepository_GetProjectsCaches(t *testing.T) {
	src := &stubSource{}
	repo := NewRepository(src, time.Hour, nil)

	for i := 0; i < 3; i++ {
		projects, err := repo.GetProjects(context.Background())
		if err != nil {
			t.Fatalf("GetProjects: %v", err)
		}
		if len(projects) != 2 || projects[0].Slug != "a" {
			t.Fatalf("projects = %+v", projects)
		}
	}
	if got := src.projectsCalls.Load(); got != 1 {
		t.Fatalf("loads = %d, want 1", got)
	}
}

func TestRepository_Refresh(t *testing.T) {
	src := &stubSource{}
	repo := NewRepository(src, time.Hour, nil)
	repo.GetKnowledge(context.Background())

	if err := repo.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if src.aboutCalls.Load() != 2 || src.projectsCalls.Load() != 1 {
		t.Fatalf("calls about=%d projects=%d", src.aboutCalls.Load(), src.projectsCalls.Load())
	}
}

func TestFileSource(t *testing.T) {
	src := NewFileSource("testdata")

	about, links, err := src.LoadAbout(context.Background())
	if err != nil {
		t.Fatalf("LoadAbout: %v", err)
	}
	if !strings.Contains(about, "Kristopher") {
		t.Fatalf("about = %q", about)
	}
	if links["github"] == "" || links["linkedin"] == "" {
		t.Fatalf("links = %v", links)
	}

	projects, err := src.LoadProjects(context.Background())
	if err != nil {
		t.Fatalf("LoadProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(projects))
	}
	if projects[0].Image != nil {
		t.Fatal("first project should have no image")
	}
	if projects[1].Image == nil || *projects[1].Image == "" {
		t.Fatal("second project image missing")
	}

	if _, _, err := NewFileSource(t.TempDir()).LoadAbout(context.Background()); err == nil {
		t.Fatal("expected error for missing files")
	}
}

func TestBuildMarkdown(t *testing.T) {
	got := BuildMarkdown("Bio.", map[string]string{
		"twitter":  "https://x.com/k",
		"github":   "https://github.com/k",
		"linkedin": "https://linkedin.com/in/k",
	})
	want := "Bio.\n\n## Links\n" +
		"- [Github](https://github.com/k)\n" +
		"- [Linkedin](https://linkedin.com/in/k)\n" +
		"- [Twitter](https://x.com/k)"
	if got != want {
		t.Fatalf("BuildMarkdown =\n%s\nwant\n%s", got, want)
	}
}

func TestContacts(t *testing.T) {
	got := Contacts(map[string]string{
		"email":    "mailto:k@example.com",
		"github":   "https://github.com/k",
		"linkedin": "https://linkedin.com/in/k",
		"blank":    "",
	})
	want := []models.Contact{
		{Name: "LinkedIn", URL: "https://linkedin.com/in/k"},
		{Name: "GitHub", URL: "https://github.com/k"},
		{Name: "Email", URL: "mailto:k@example.com"},
	}
	if len(got) != len(want) {
		t.Fatalf("Contacts = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("contact %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNewWarmer_RejectsInvalidCron(t *testing.T) {
	repo := NewRepository(&stubSource{}, time.Hour, nil)
	if _, err := NewWarmer(repo, "not a cron", nil); err == nil {
		t.Fatal("expected invalid cron error")
	}
	w, err := NewWarmer(repo, "0 */6 * * *", nil)
	if err != nil {
		t.Fatalf("NewWarmer: %v", err)
	}
	w.Stop()
	w.Stop()
}
