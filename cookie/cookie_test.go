package cookie

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		cookie string
		want   string
		found  bool
	}{
		{name: "single pair", raw: "csrftoken=abc123", cookie: "csrftoken", want: "abc123", found: true},
		{name: "surrounding whitespace", raw: "  sessionid=s1 ;  csrftoken=abc123  ", cookie: "csrftoken", want: "abc123", found: true},
		{name: "percent decoded", raw: "msg=hello%20world%21", cookie: "msg", want: "hello world!", found: true},
		{name: "plus kept", raw: "q=a+b", cookie: "q", want: "a+b", found: true},
		{name: "first occurrence wins", raw: "a=1; b=2; a=3", cookie: "a", want: "1", found: true},
		{name: "name is a prefix of another", raw: "csrftoken2=x; csrftoken=y", cookie: "csrftoken", want: "y", found: true},
		{name: "empty value", raw: "a=; b=2", cookie: "a", want: "", found: true},
		{name: "value contains equals", raw: "a=x=y", cookie: "a", want: "x=y", found: true},
		{name: "malformed escape kept raw", raw: "a=100%", cookie: "a", want: "100%", found: true},
		{name: "invalid utf-8 escape kept raw", raw: "a=%C3%28", cookie: "a", want: "%C3%28", found: true},
		{name: "multibyte escape decoded", raw: "a=caf%C3%A9", cookie: "a", want: "café", found: true},
		{name: "missing", raw: "a=1; b=2", cookie: "c", found: false},
		{name: "empty store", raw: "", cookie: "a", found: false},
		{name: "empty name", raw: "=1", cookie: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Lookup(tt.raw, tt.cookie)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRawAndChain(t *testing.T) {
	raw := Raw(" csrftoken=tok; sessionid=sess ")
	v, ok := raw.Cookie("sessionid")
	require.True(t, ok)
	assert.Equal(t, "sess", v)
	assert.Equal(t, "csrftoken=tok; sessionid=sess", raw.Header())

	chain := Chain{nil, Raw("a=1"), Raw("a=2; b=3")}
	v, ok = chain.Cookie("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	v, ok = chain.Cookie("b")
	require.True(t, ok)
	assert.Equal(t, "3", v)
	_, ok = chain.Cookie("c")
	assert.False(t, ok)
}

func TestJarSource(t *testing.T) {
	jar, err := NewJar()
	require.NoError(t, err)

	src, err := NewJarSource(jar, "https://admin.example.org/")
	require.NoError(t, err)

	_, ok := src.Cookie(CSRFCookie)
	assert.False(t, ok, "empty jar has no token")

	site, _ := http.NewRequest(http.MethodGet, "https://admin.example.org/", nil)
	jar.SetCookies(site.URL, []*http.Cookie{
		{Name: CSRFCookie, Value: "t0k%3D"},
		{Name: "sessionid", Value: "abc"},
	})

	v, ok := src.Cookie(CSRFCookie)
	require.True(t, ok)
	assert.Equal(t, "t0k=", v)
	assert.Contains(t, src.Header(), "sessionid=abc")
}

func TestNewJarSourceRejectsRelativeURL(t *testing.T) {
	jar, err := NewJar()
	require.NoError(t, err)

	_, err = NewJarSource(jar, "/attendees/")
	assert.Error(t, err)

	_, err = NewJarSource(nil, "https://admin.example.org/")
	assert.Error(t, err)
}

func TestFileSourceCachesUntilInvalidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte("csrftoken=one\n"), 0o600))

	src := NewFileSource(path, nil)
	v, ok := src.Cookie(CSRFCookie)
	require.True(t, ok)
	assert.Equal(t, "one", v)

	require.NoError(t, os.WriteFile(path, []byte("csrftoken=two\n"), 0o600))
	v, _ = src.Cookie(CSRFCookie)
	assert.Equal(t, "one", v, "cached until invalidated")

	src.Invalidate()
	v, _ = src.Cookie(CSRFCookie)
	assert.Equal(t, "two", v)
}

func TestFileSourceInvalidateDuringRead(t *testing.T) {
	src := NewFileSource("cookies.txt", nil)
	contents := []string{"csrftoken=old", "csrftoken=new"}
	reads := 0
	src.readFile = func(string) ([]byte, error) {
		data := contents[reads]
		reads++
		if reads == 1 {
			// The file changes after it was read but before the cache is filled
			src.Invalidate()
		}
		return []byte(data), nil
	}

	v, _ := src.Cookie(CSRFCookie)
	assert.Equal(t, "old", v)

	v, _ = src.Cookie(CSRFCookie)
	assert.Equal(t, "new", v, "stale read must not be cached")
	assert.Equal(t, 2, reads)

	v, _ = src.Cookie(CSRFCookie)
	assert.Equal(t, "new", v)
	assert.Equal(t, 2, reads, "second read is cached")
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.txt"), nil)
	_, ok := src.Cookie(CSRFCookie)
	assert.False(t, ok)
	assert.Equal(t, "", src.Header())
}

func TestFileSourceWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte("csrftoken=one"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewFileSource(path, nil)
	require.NoError(t, src.Watch(ctx))
	defer src.Close()

	v, _ := src.Cookie(CSRFCookie)
	require.Equal(t, "one", v)

	require.NoError(t, os.WriteFile(path, []byte("csrftoken=two"), 0o600))
	assert.Eventually(t, func() bool {
		v, _ := src.Cookie(CSRFCookie)
		return v == "two"
	}, 2*time.Second, 20*time.Millisecond)
}
