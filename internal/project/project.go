// internal/project/project.go
package project

import (
	"path/filepath"

	"go.uber.org/zap"

	"mvcs/internal/content"
	"mvcs/internal/errors"
	"mvcs/internal/ident"
	"mvcs/internal/storage"
)

const (
	// DirName is the hidden project directory under the working dir.
	DirName = ".mvcs"
	// ContentsDirName holds the raw blobs, one file per blob id.
	ContentsDirName = "contents"
	// CacheDirName holds the persistent blob-hash index.
	CacheDirName = "cache"
	// ProjectFileName is the single JSON document the aggregate
	// persists to.
	ProjectFileName = "project.json"
	// DefaultBranchName is assigned on the first commit when the user
	// never named a branch.
	DefaultBranchName = "main"

	// DummyContent marks an item whose blob has not been allocated yet.
	// It exists only in memory between status and commit and is never
	// persisted.
	DummyContent = "DUMMY"
)

// Project is the aggregate owning all commits, items and branches of
// one working directory. Mutation happens only through its operations;
// project.json is rewritten only by Save (which Create calls once).
// Commit and Checkout still write blobs and working-tree files as they
// run.
type Project struct {
	ID          string
	AuthorID    string
	Title       string
	Description string

	// WorkingDir is supplied at open time and never serialized.
	WorkingDir string

	Branches        map[string]string
	DefaultBranch   string
	CurrentBranch   string
	Commits         map[string]*Commit
	RootCommitID    string
	CurrentCommitID string
	Items           map[string]*Item

	sp     storage.Provider
	ids    ident.Source
	clock  ident.Clock
	pool   *content.Pool
	ignore []string
	log    *zap.Logger
}

// Options carries the injectable collaborators. Zero values select the
// production defaults.
type Options struct {
	IDs   ident.Source
	Clock ident.Clock
	Index *content.Index

	// Ignore holds extra globs suppressed during tree scans, on top of
	// the project directory itself.
	Ignore []string

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.IDs == nil {
		o.IDs = ident.UUIDSource{}
	}
	if o.Clock == nil {
		o.Clock = ident.SystemClock{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Create initializes a fresh project in workingDir and persists the
// empty aggregate.
func Create(sp storage.Provider, workingDir, authorID, title, description string, opts Options) (*Project, error) {
	opts = opts.withDefaults()

	p := &Project{
		ID:          opts.IDs.NewID(),
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		WorkingDir:  workingDir,
		Branches:    make(map[string]string),
		Commits:     make(map[string]*Commit),
		Items:       make(map[string]*Item),
		sp:          sp,
		ids:         opts.IDs,
		clock:       opts.Clock,
		ignore:      opts.Ignore,
		log:         opts.Logger,
	}

	pool, err := content.NewPool(sp, p.ContentsDir(), opts.IDs, opts.Index, opts.Logger)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	if err := p.Save(); err != nil {
		return nil, err
	}

	p.log.Info("project created",
		zap.String("project", p.ID),
		zap.String("dir", workingDir))
	return p, nil
}

// Load reconstructs the aggregate from <workingDir>/.mvcs/project.json.
// Unknown fields in the document are ignored.
func Load(sp storage.Provider, workingDir string, opts Options) (*Project, error) {
	opts = opts.withDefaults()

	path := filepath.Join(workingDir, DirName, ProjectFileName)
	file, err := sp.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := file.ReadData()
	if err != nil {
		return nil, err
	}

	p := &Project{
		WorkingDir: workingDir,
		Branches:   make(map[string]string),
		Commits:    make(map[string]*Commit),
		Items:      make(map[string]*Item),
		sp:         sp,
		ids:        opts.IDs,
		clock:      opts.Clock,
		ignore:     opts.Ignore,
		log:        opts.Logger,
	}
	if err := applyDump(data, p); err != nil {
		return nil, err
	}

	pool, err := content.NewPool(sp, p.ContentsDir(), opts.IDs, opts.Index, opts.Logger)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	return p, nil
}

// Save writes the aggregate dump. The document is written to a
// temporary file first and renamed over project.json so a failed write
// never leaves a half-parsed document behind.
func (p *Project) Save() error {
	path := p.projectFile()

	if !p.sp.Exists(path) {
		if err := p.sp.CreateFile(path, []byte("{}")); err != nil {
			return err
		}
	}

	data, err := marshalDump(p)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := p.sp.CreateFile(tmp, data); err != nil {
		return err
	}
	return p.sp.MoveFile(tmp, path)
}

// Dir returns the hidden project directory.
func (p *Project) Dir() string {
	return filepath.Join(p.WorkingDir, DirName)
}

// ContentsDir returns the blob pool directory.
func (p *Project) ContentsDir() string {
	return filepath.Join(p.Dir(), ContentsDirName)
}

// CacheDir returns the directory the persistent hash index lives in.
func (p *Project) CacheDir() string {
	return filepath.Join(p.Dir(), CacheDirName)
}

func (p *Project) projectFile() string {
	return filepath.Join(p.Dir(), ProjectFileName)
}

func (p *Project) ignoreGlobs() []string {
	return append([]string{DirName + "/**"}, p.ignore...)
}

// Pool exposes the blob pool to collaborators such as the archive
// exporter.
func (p *Project) Pool() *content.Pool {
	return p.pool
}

// Logger returns the project's structured logger.
func (p *Project) Logger() *zap.Logger {
	return p.log
}

func (p *Project) requireCommit(id string) (*Commit, error) {
	c, ok := p.Commits[id]
	if !ok {
		return nil, errors.Corrupt("commit %s is missing from the project", id)
	}
	return c, nil
}
