package prefssvc

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/cbcportal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(&core.Config{PrefsDir: t.TempDir()})
}

func TestStoreThemeDefault(t *testing.T) {
	st := newTestStore(t)

	theme, err := st.Theme()
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme(), theme)
	assert.Equal(t, ModeLight, theme.Mode)
	assert.Equal(t, "#4f46e5", theme.Primary)
	assert.Equal(t, "#10b981", theme.Secondary)
	assert.Equal(t, "#f59e0b", theme.Accent)
}

func TestStoreThemeRoundTrip(t *testing.T) {
	st := newTestStore(t)

	want := ThemeConfig{Mode: ModeDark, Primary: "#10b981", Secondary: "#4f46e5", Accent: "#f59e0b"}
	require.NoError(t, st.SetTheme(want))

	got, err := st.Theme()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStoreThemeCorruptFile(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, ioutil.WriteFile(filepath.Join(st.dir, themeFile), []byte("{not json"), 0o600))

	_, err := st.Theme()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestStoreSession(t *testing.T) {
	st := newTestStore(t)

	_, ok, err := st.Session()
	require.NoError(t, err)
	assert.False(t, ok)

	want := Session{UserID: "u1", Username: "amina", Role: "student", Token: "tok"}
	require.NoError(t, st.SetSession(want))

	got, ok, err := st.Session()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, st.ClearSession())
	_, ok, err = st.Session()
	require.NoError(t, err)
	assert.False(t, ok)

	// clearing again is fine
	require.NoError(t, st.ClearSession())
}
