package useragent

import (
	"slices"
	"strings"
	"sync"
	"testing"
)

const safariUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.10 Safari/605.1.1"

func TestDefaultPool_LeadsWithSafari(t *testing.T) {
	if !slices.Contains(DefaultPool, safariUA) {
		t.Fatalf("expected DefaultPool to carry the Safari 17.10 User-Agent")
	}

	// An empty list falls back to DefaultPool, and the first request of a
	// sequential pool goes out as Safari.
	p := NewPool(nil)
	if got := p.Get(); got != safariUA {
		t.Errorf("first default User-Agent = %q, want Safari", got)
	}
	if got := len(p.GetAll()); got != len(DefaultPool) {
		t.Errorf("default pool has %d entries, want %d", got, len(DefaultPool))
	}
	for _, ua := range DefaultPool {
		if !strings.HasPrefix(ua, "Mozilla/5.0 (") {
			t.Errorf("DefaultPool entry is not a browser User-Agent: %q", ua)
		}
	}
}

func TestPool_SequentialRotation(t *testing.T) {
	p := NewPool([]string{"safari", "chrome"})

	var got []string
	for range 5 {
		got = append(got, p.Get())
	}
	want := []string{"safari", "chrome", "safari", "chrome", "safari"}
	if !slices.Equal(got, want) {
		t.Errorf("rotation = %v, want %v", got, want)
	}
}

func TestPool_RandomStaysInPool(t *testing.T) {
	members := []string{"firefox", "edge", "safari"}
	p := NewPoolWithStrategy(members, Random)

	seen := make(map[string]bool)
	for range 300 {
		ua := p.Get()
		if !slices.Contains(members, ua) {
			t.Fatalf("random pick %q is not a pool member", ua)
		}
		seen[ua] = true
	}
	if len(seen) != len(members) {
		t.Errorf("expected every member to be picked at least once, saw %v", seen)
	}
}

func TestPool_ConcurrentRotationIsEven(t *testing.T) {
	p := NewPool([]string{"a", "b", "c", "d"})

	const workers, perWorker = 8, 500
	var (
		mu     sync.Mutex
		counts = make(map[string]int)
		wg     sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make(map[string]int)
			for range perWorker {
				local[p.Get()]++
			}
			mu.Lock()
			for ua, n := range local {
				counts[ua] += n
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// The shared counter hands out indices without gaps, so the split is exact.
	want := workers * perWorker / 4
	for _, ua := range []string{"a", "b", "c", "d"} {
		if counts[ua] != want {
			t.Errorf("%s handed out %d times, want %d", ua, counts[ua], want)
		}
	}
}

func TestPool_GetAllIsACopy(t *testing.T) {
	p := NewPool([]string{"one", "two"})
	all := p.GetAll()
	all[0] = "mutated"

	if got := p.Get(); got != "one" {
		t.Errorf("pool changed through GetAll copy: got %q", got)
	}
}

func TestPool_ZeroValue(t *testing.T) {
	var p Pool
	if got := p.Get(); got != "" {
		t.Errorf("zero pool Get = %q, want empty", got)
	}
	if got := p.GetRandom(); got != "" {
		t.Errorf("zero pool GetRandom = %q, want empty", got)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", Sequential, false},
		{"sequential", Sequential, false},
		{" RANDOM ", Random, false},
		{"shuffle", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
