package downloader

import "testing"

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=abc",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=abc",
		"https://www.youtube.com/shorts/abc12345678",
	}
	for _, u := range valid {
		if !ValidateURL(u) {
			t.Fatalf("expected %q to validate", u)
		}
	}

	invalid := []string{
		"",
		"ftp://youtube.com/watch?v=abc",
		"https://vimeo.com/12345",
		"not a url",
		"https://youtube.com.evil.com/watch?v=abc",
	}
	for _, u := range invalid {
		if ValidateURL(u) {
			t.Fatalf("expected %q to be rejected", u)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=abc&t=42s", "abc"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=xyz", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc12345678", "abc12345678"},
		{"https://www.youtube.com/embed/abc12345678", "abc12345678"},
		{"https://www.youtube.com/live/abc12345678", "abc12345678"},
		{"https://www.youtube.com/", ""},
		{"https://vimeo.com/12345", ""},
	}
	for _, tc := range cases {
		if got := ExtractVideoID(tc.url); got != tc.want {
			t.Fatalf("ExtractVideoID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
