package category

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestAncestorPaths(t *testing.T) {
	tests := []struct {
		name   string
		chains [][]string
		want   []string
	}{
		{
			name:   "no chains",
			chains: nil,
			want:   []string{},
		},
		{
			name:   "single department",
			chains: [][]string{{"Shoes"}},
			want:   []string{"/Shoes/"},
		},
		{
			name:   "every prefix of a chain",
			chains: [][]string{{"Shoes", "Boots", "Hiking"}},
			want:   []string{"/Shoes/", "/Shoes/Boots/", "/Shoes/Boots/Hiking/"},
		},
		{
			name:   "shared ancestors once",
			chains: [][]string{{"Shoes", "Boots"}, {"Shoes", "Sandals"}, {"Shoes"}},
			want:   []string{"/Shoes/", "/Shoes/Boots/", "/Shoes/Sandals/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ancestorPaths(tt.chains)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ancestorPaths(%q) = %q, want %q", tt.chains, got, tt.want)
			}
		})
	}
}

func TestSharedPaths_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var s Service

	started := make(chan struct{})
	var startOnce sync.Once
	release := make(chan struct{})
	load := func(ctx context.Context, slug string) ([]string, error) {
		startOnce.Do(func() { close(started) })
		select {
		case <-release:
			return []string{"/Shoes/"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := s.sharedPaths(ctxA, "clog", load)
		errA <- err
	}()
	<-started

	type result struct {
		paths []string
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		paths, err := s.sharedPaths(context.Background(), "clog", load)
		resB <- result{paths, err}
	}()
	// Let the second caller join the in-flight lookup.
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller: got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case res := <-resB:
		if res.err != nil {
			t.Fatalf("second caller: %v", res.err)
		}
		if !reflect.DeepEqual(res.paths, []string{"/Shoes/"}) {
			t.Errorf("second caller paths: got %q", res.paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestSharedPaths_ReturnsCopies(t *testing.T) {
	var s Service
	shared := []string{"/Shoes/"}
	load := func(context.Context, string) ([]string, error) { return shared, nil }

	got, err := s.sharedPaths(context.Background(), "clog", load)
	if err != nil {
		t.Fatalf("sharedPaths: %v", err)
	}
	got[0] = "/Changed/"
	if shared[0] != "/Shoes/" {
		t.Errorf("shared result was modified: %q", shared)
	}
}

func TestSharedPaths_PropagatesLoadError(t *testing.T) {
	var s Service
	load := func(context.Context, string) ([]string, error) { return nil, ErrNotFound }

	if _, err := s.sharedPaths(context.Background(), "nope", load); !errors.Is(err, ErrNotFound) {
		t.Errorf("error: got %v, want ErrNotFound", err)
	}
}
