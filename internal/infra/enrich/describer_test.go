package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sitePage = `<!DOCTYPE html>
<html>
<head><title>Смарт Хоум — умный дом под ключ</title></head>
<body>
<article>
<h1>Смарт Хоум</h1>
<p>Проектируем и устанавливаем системы умного дома в Москве с 2015 года.
Освещение, климат, безопасность и мультимедиа в одном приложении.</p>
<p>Более четырехсот реализованных проектов, собственный сервисный отдел,
гарантия три года на все работы.</p>
</article>
</body>
</html>`

func TestDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sitePage))
	}))
	defer srv.Close()

	d := NewDescriber(DefaultConfig())
	desc, err := d.Describe(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if desc == "" {
		t.Fatal("Describe() returned empty description")
	}
	if !strings.Contains(desc, "умного дома") {
		t.Errorf("description %q does not carry the page content", desc)
	}
	if len([]rune(desc)) > DefaultConfig().MaxDescriptionRunes+1 {
		t.Errorf("description %d runes exceeds the clip limit", len([]rune(desc)))
	}
}

func TestDescribeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDescriber(DefaultConfig())
	if _, err := d.Describe(context.Background(), srv.URL); err == nil {
		t.Error("Describe() must fail on HTTP 404")
	}
}

func TestDescribeInvalidURL(t *testing.T) {
	d := NewDescriber(DefaultConfig())

	for _, target := range []string{"", "not a url", "ftp://example.com", "//no-scheme"} {
		if _, err := d.Describe(context.Background(), target); err == nil {
			t.Errorf("Describe(%q) must fail", target)
		}
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short text", 50, "short text"},
		{"one  two   three", 50, "one two three"},
		{"the quick brown fox jumps", 15, "the quick…"},
	}
	for _, tt := range tests {
		if got := clip(tt.in, tt.limit); got != tt.want {
			t.Errorf("clip(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
