package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedshed/feedshed/pkg/domain"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Example Blog</title>
    <link>https://blog.example.com</link>
    <item>
      <title>First Post</title>
      <link>https://blog.example.com/first</link>
      <description>summary only</description>
      <pubDate>Mon, 10 Aug 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second Post</title>
      <link>https://blog.example.com/second</link>
      <description>short</description>
      <content:encoded><![CDATA[<p>full body</p>]]></content:encoded>
    </item>
  </channel>
</rss>`

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "test-agent")
	items, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "First Post", first.Title)
	assert.Equal(t, "https://blog.example.com/first", first.Link)
	assert.Equal(t, "Example Blog", first.Source, "source comes from the feed title")
	assert.Equal(t, "summary only", first.Content, "description used when content is absent")
	assert.Equal(t, time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC), first.Published.UTC())

	second := items[1]
	assert.Equal(t, "<p>full body</p>", second.Content, "content preferred over description")
	assert.True(t, second.Published.IsZero(), "missing dates stay zero for the caller to fill")
}

func TestFetcher_FetchErrors(t *testing.T) {
	t.Run("non-200 is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		f := NewFetcher(5*time.Second, "test-agent")
		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, FailUnreachable, fetchErr.Kind)
		assert.Equal(t, domain.StatusUnreachable, fetchErr.Status())
	})

	t.Run("connection refused is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		f := NewFetcher(5*time.Second, "test-agent")
		_, err := f.Fetch(context.Background(), srv.URL)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, FailUnreachable, fetchErr.Kind)
	})

	t.Run("malformed body is invalid", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("this is not a feed"))
		}))
		defer srv.Close()

		f := NewFetcher(5*time.Second, "test-agent")
		_, err := f.Fetch(context.Background(), srv.URL)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, FailInvalid, fetchErr.Kind)
		assert.Equal(t, domain.StatusInvalid, fetchErr.Status())
	})

	t.Run("slow server is timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		f := NewFetcher(100*time.Millisecond, "test-agent")
		_, err := f.Fetch(context.Background(), srv.URL)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, FailTimeout, fetchErr.Kind)
		assert.Equal(t, domain.StatusTimeout, fetchErr.Status())
	})
}

func TestClassifyTransportError(t *testing.T) {
	assert.Equal(t, FailTimeout, classifyTransportError(context.DeadlineExceeded))
	assert.Equal(t, FailUnreachable, classifyTransportError(errors.New("connection refused")))
}
