package repo

import (
	"go.uber.org/zap"

	"github.com/fwdware/ward/internal/config"
	"github.com/fwdware/ward/internal/errs"
	"github.com/fwdware/ward/internal/metadata"
	"github.com/fwdware/ward/internal/objectstore"
	"github.com/fwdware/ward/internal/scanner"
)

// Session bundles an open metadata store, the object store and the resolved
// configuration for one invocation. Engines receive it explicitly; there is
// no ambient global handle.
type Session struct {
	Root     string
	DB       *metadata.Store
	Objects  *objectstore.Store
	Settings config.Settings
	Log      *zap.Logger
}

// Open discovers the repository containing dir and opens a session on it.
func Open(dir string, logger *zap.Logger) (*Session, error) {
	root, err := Find(dir)
	if err != nil {
		return nil, err
	}
	return OpenAt(root, logger)
}

// OpenAt opens a session on a known repository root.
func OpenAt(root string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, errs.New(errs.KindConfig, "load configuration", err)
	}

	db, err := metadata.Open(config.DatabasePath(root))
	if err != nil {
		return nil, err
	}

	return &Session{
		Root:     root,
		DB:       db,
		Objects:  objectstore.New(config.ObjectsPath(root)),
		Settings: cfg.Resolve(),
		Log:      logger,
	}, nil
}

func (s *Session) Close() error {
	return s.DB.Close()
}

// IgnoreRules loads the repository's ignore file plus the built-in defaults.
func (s *Session) IgnoreRules() *scanner.Rules {
	return scanner.LoadRules(config.IgnorePath(s.Root), config.DefaultIgnorePatterns)
}
