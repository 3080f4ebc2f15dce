package directory

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/devbridge/dev-bridge-manager/internal/remote"
)

// ProjectKey is the directory key of a project id.
func ProjectKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Projects is the optimistic project directory.
type Projects struct {
	remote remote.ProjectRemote
	dir    *Directory[remote.Project]
	logger *slog.Logger
	loadMu sync.Mutex
}

// NewProjects returns a project directory loaded lazily from r.
func NewProjects(r remote.ProjectRemote, logger *slog.Logger) *Projects {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projects{
		remote: r,
		dir:    New(func(p remote.Project) string { return ProjectKey(p.ID) }),
		logger: logger,
	}
}

func (p *Projects) ensure(ctx context.Context) error {
	if p.dir.Loaded() {
		return nil
	}
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if p.dir.Loaded() {
		return nil
	}
	projects, err := p.remote.ListProjects(ctx)
	if err != nil {
		return remote.Fail("list projects", err)
	}
	p.dir.Load(projects)
	return nil
}

// List returns every project, including ones still being created.
func (p *Projects) List(ctx context.Context) ([]remote.Project, error) {
	if err := p.ensure(ctx); err != nil {
		return nil, err
	}
	return p.dir.List(), nil
}

// Get returns one project.
func (p *Projects) Get(ctx context.Context, id uint64) (remote.Project, error) {
	if err := p.ensure(ctx); err != nil {
		return remote.Project{}, err
	}
	project, ok := p.dir.Get(ProjectKey(id))
	if !ok {
		return remote.Project{}, ErrNotFound
	}
	return project, nil
}

// Create adds a placeholder project, then replaces it with the created one.
func (p *Projects) Create(ctx context.Context, in remote.ProjectInput) (remote.Project, error) {
	if err := p.ensure(ctx); err != nil {
		return remote.Project{}, err
	}
	st := p.dir.StageInsert(remote.Project{
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedBy:   in.CreatedBy,
	})

	saved, err := p.remote.CreateProject(ctx, in)
	if err != nil {
		st.Rollback()
		p.logger.Warn("create project rolled back", "name", in.Name, "error", err)
		return remote.Project{}, remote.Fail("create project", err)
	}
	st.Commit(saved)
	return saved, nil
}

// Update applies patch locally, then persists it.
func (p *Projects) Update(ctx context.Context, id uint64, patch remote.ProjectPatch) (remote.Project, error) {
	if err := p.ensure(ctx); err != nil {
		return remote.Project{}, err
	}
	key := ProjectKey(id)
	cur, ok := p.dir.Get(key)
	if !ok {
		return remote.Project{}, ErrNotFound
	}
	st, err := p.dir.StageReplace(key, patch.Apply(cur))
	if err != nil {
		return remote.Project{}, err
	}

	saved, err := p.remote.UpdateProject(ctx, id, patch)
	if err != nil {
		st.Rollback()
		p.logger.Warn("update project rolled back", "project_id", id, "error", err)
		return remote.Project{}, remote.Fail("update project", err)
	}
	st.Commit(saved)
	return saved, nil
}

// Delete removes a project locally, then persists the removal.
func (p *Projects) Delete(ctx context.Context, id uint64) error {
	if err := p.ensure(ctx); err != nil {
		return err
	}
	st, err := p.dir.StageRemove(ProjectKey(id))
	if err != nil {
		return err
	}
	if err := p.remote.DeleteProject(ctx, id); err != nil {
		st.Rollback()
		p.logger.Warn("delete project rolled back", "project_id", id, "error", err)
		return remote.Fail("delete project", err)
	}
	st.Commit(remote.Project{})
	return nil
}

// Invalidate drops the cached projects so the next read reloads them.
func (p *Projects) Invalidate() {
	p.dir.Reset()
}
