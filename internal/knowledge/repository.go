package knowledge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"portfolio-backend/internal/models"
)

// DefaultTTL is how long a successful fill is served before reloading.
const DefaultTTL = 24 * time.Hour

const (
	knowledgeSlot = "knowledge"
	projectsSlot  = "projects"
)

// Repository caches Source content in memory. Concurrent misses share one
// load per slot, and the TTL counts from the last successful fill; a failed
// load leaves the previous fill and its timestamp untouched.
type Repository struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
	group  singleflight.Group

	mu          sync.RWMutex
	knowledge   *models.Knowledge
	knowledgeAt time.Time
	projects    []models.Project
	projectsAt  time.Time
}

func NewRepository(source Source, ttl time.Duration, logger *slog.Logger) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// GetKnowledge returns about text, links and the rendered markdown.
func (r *Repository) GetKnowledge(ctx context.Context) (*models.Knowledge, error) {
	r.mu.RLock()
	k, at := r.knowledge, r.knowledgeAt
	r.mu.RUnlock()
	if k != nil && r.fresh(at) {
		return k, nil
	}

	v, err, _ := r.group.Do(knowledgeSlot, func() (interface{}, error) {
		return r.fillKnowledge(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Knowledge), nil
}

// GetProjects returns the project list in file order.
func (r *Repository) GetProjects(ctx context.Context) ([]models.Project, error) {
	r.mu.RLock()
	p, at := r.projects, r.projectsAt
	r.mu.RUnlock()
	if p != nil && r.fresh(at) {
		return p, nil
	}

	v, err, _ := r.group.Do(projectsSlot, func() (interface{}, error) {
		return r.fillProjects(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Project), nil
}

// Refresh reloads both slots regardless of age.
func (r *Repository) Refresh(ctx context.Context) error {
	if _, err, _ := r.group.Do(knowledgeSlot, func() (interface{}, error) {
		return r.fillKnowledge(ctx)
	}); err != nil {
		return err
	}
	_, err, _ := r.group.Do(projectsSlot, func() (interface{}, error) {
		return r.fillProjects(ctx)
	})
	return err
}

func (r *Repository) fresh(filledAt time.Time) bool {
	return r.now().Sub(filledAt) < r.ttl
}

func (r *Repository) fillKnowledge(ctx context.Context) (*models.Knowledge, error) {
	about, links, err := r.source.LoadAbout(ctx)
	if err != nil {
		r.logger.Error("knowledge load failed", "error", err)
		return nil, err
	}
	if links == nil {
		links = map[string]string{}
	}

	k := &models.Knowledge{
		About:    about,
		Links:    links,
		Markdown: BuildMarkdown(about, links),
	}

	r.mu.Lock()
	r.knowledge = k
	r.knowledgeAt = r.now()
	r.mu.Unlock()
	return k, nil
}

func (r *Repository) fillProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := r.source.LoadProjects(ctx)
	if err != nil {
		r.logger.Error("projects load failed", "error", err)
		return nil, err
	}
	if projects == nil {
		projects = []models.Project{}
	}

	r.mu.Lock()
	r.projects = projects
	r.projectsAt = r.now()
	r.mu.Unlock()
	return projects, nil
}
