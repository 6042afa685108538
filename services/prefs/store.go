package prefssvc

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core"
)

const (
	ModeLight = "light"
	ModeDark  = "dark"

	themeFile   = "theme.json"
	sessionFile = "session.json"
)

// ThemeConfig holds the portal color scheme.
type ThemeConfig struct {
	Mode      string `json:"mode"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// DefaultTheme is used until the user saves a preference.
func DefaultTheme() ThemeConfig {
	return ThemeConfig{
		Mode:      ModeLight,
		Primary:   "#4f46e5",
		Secondary: "#10b981",
		Accent:    "#f59e0b",
	}
}

// Session is the locally persisted auth state.
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

// Store persists user preferences as JSON files under a directory.
// Writes are synchronous so a crash never loses a saved preference.
type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(conf *core.Config) *Store {
	return &Store{dir: conf.PrefsDir}
}

// Theme returns the saved theme, or the default when none was saved yet.
// A file that exists but does not parse is surfaced as an error instead of
// being silently replaced.
func (st *Store) Theme() (ThemeConfig, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	var theme ThemeConfig
	ok, err := st.read(themeFile, &theme)
	if err != nil {
		return ThemeConfig{}, err
	}
	if !ok {
		return DefaultTheme(), nil
	}
	return theme, nil
}

func (st *Store) SetTheme(theme ThemeConfig) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.write(themeFile, theme)
}

// Session returns the saved session; ok is false when none is stored.
func (st *Store) Session() (sess Session, ok bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	ok, err = st.read(sessionFile, &sess)
	if err != nil {
		return Session{}, false, err
	}
	return sess, ok, nil
}

func (st *Store) SetSession(sess Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.write(sessionFile, sess)
}

// ClearSession removes the stored session; clearing an absent session is a no-op.
func (st *Store) ClearSession() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	err := os.Remove(filepath.Join(st.dir, sessionFile))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clearing session")
	}
	return nil
}

func (st *Store) read(name string, dst interface{}) (bool, error) {
	data, err := ioutil.ReadFile(filepath.Join(st.dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "reading %s", name)
	}
	if err = json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrapf(err, "parsing %s", name)
	}
	return true, nil
}

func (st *Store) write(name string, v interface{}) error {
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return errors.Wrap(err, "creating prefs dir")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}
	if err = ioutil.WriteFile(filepath.Join(st.dir, name), data, 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	return nil
}
