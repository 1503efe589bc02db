package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		204: "2xx",
		302: "3xx",
		401: "4xx",
		422: "4xx",
		503: "5xx",
		0:   "other",
	}
	for code, want := range cases {
		if got := StatusClass(code); got != want {
			t.Errorf("StatusClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	UnauthorizedTotal.Inc()

	path := filepath.Join(t.TempDir(), "flowtask.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(raw), "flowtask_client_unauthorized_total") {
		t.Fatalf("textfile missing unauthorized counter:\n%s", raw)
	}
}
