package keylock

import (
	"sync"
	"testing"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	l := New()
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := l.Lock("alert-1")
			defer release()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("expected counter 50, got %d", counter)
	}
	if l.Len() != 0 {
		t.Errorf("expected no retained keys, got %d", l.Len())
	}
}

func TestLocker_DifferentKeysDoNotContend(t *testing.T) {
	l := New()
	releaseA := l.Lock("a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := l.Lock("b")
		release()
		close(done)
	}()
	<-done
}
